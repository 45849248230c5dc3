package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"pet-adoption-match/internal/adapters/auth/odin"
	"pet-adoption-match/internal/platform/secretbox"
	"pet-adoption-match/internal/ports/auth"
	"pet-adoption-match/internal/router"
)

func main() {
	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	// Sin APP_SECRET no hay codec para la credencial de scoring: error
	// fatal de configuración, no un fallback silencioso.
	codec, err := secretbox.New(os.Getenv("APP_SECRET"))
	if err != nil {
		log.Fatalf("APP_SECRET: %v", err)
	}

	// Con ODIN_BASE_URL seteado los tokens se validan contra el IAM;
	// sin él corre en modo dev (headers X-Debug-*).
	var verifier auth.AuthVerifier
	if baseURL := os.Getenv("ODIN_BASE_URL"); baseURL != "" {
		verifier = odin.NewVerifier(odin.NewClient(odin.Config{
			BaseURL: baseURL,
			APIKey:  os.Getenv("ODIN_API_KEY"),
		}))
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Codec:        codec,
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("starting server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
