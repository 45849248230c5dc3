package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"strings"
)

var (
	ErrSecretMissing = errors.New("secretbox: operator secret is required")
)

const keySize = 32 // AES-256

// Codec cifra/descifra la credencial del servicio de scoring en reposo.
// Formato del blob: base64(iv):base64(tag):base64(ciphertext).
// Dos cifrados del mismo plaintext nunca producen el mismo blob (IV fresco).
type Codec struct {
	key [keySize]byte
}

// New deriva la clave simétrica desde el secreto del operador:
// - si viene como hex de exactamente 64 chars, se usa tal cual (decodificado)
// - cualquier otro valor se reduce con sha256 al tamaño requerido
// Secreto vacío es error fatal de configuración: el caller debe abortar en startup.
func New(secret string) (*Codec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrSecretMissing
	}

	c := &Codec{}
	if len(secret) == keySize*2 {
		if raw, err := hex.DecodeString(secret); err == nil {
			copy(c.key[:], raw)
			return c, nil
		}
		// no era hex válido: cae al hash
	}

	c.key = sha256.Sum256([]byte(secret))
	return c, nil
}

// Encrypt cifra plaintext con AES-256-GCM e IV aleatorio por llamada.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	// Seal devuelve ciphertext||tag; separamos el tag para el formato del blob.
	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	tagStart := len(sealed) - gcm.Overhead()
	ct := sealed[:tagStart]
	tag := sealed[tagStart:]

	parts := []string{
		base64.StdEncoding.EncodeToString(iv),
		base64.StdEncoding.EncodeToString(tag),
		base64.StdEncoding.EncodeToString(ct),
	}
	return strings.Join(parts, ":"), nil
}

// Decrypt verifica el tag y devuelve el plaintext.
// Cualquier blob malformado, truncado o manipulado devuelve nil, nunca panic/error.
// El caller trata nil como "credencial no disponible".
func (c *Codec) Decrypt(blob string) *string {
	parts := strings.Split(strings.TrimSpace(blob), ":")
	if len(parts) != 3 {
		return nil
	}

	iv, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil
	}
	tag, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil
	}
	ct, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil
	}

	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil
	}
	if len(iv) != gcm.NonceSize() || len(tag) != gcm.Overhead() {
		return nil
	}

	sealed := append(append([]byte{}, ct...), tag...)
	plain, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		// tag inválido o clave incorrecta
		return nil
	}

	out := string(plain)
	return &out
}
