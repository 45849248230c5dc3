package settings

import "time"

// SingletonID: hay un único registro global de configuración de scoring.
const SingletonID = "scoring"

// Defaults aplicados por el resolver cuando los bounds numéricos vienen
// sin setear: los callers nunca ven ceros ambiguos.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 1000
	DefaultTemperature = 0.2
)

// Settings es el registro persistido. La credencial vive solo cifrada
// (CredentialBlob, formato de secretbox); el plaintext jamás se persiste,
// loguea ni expone por API.
type Settings struct {
	ID string

	Model       string
	BaseURL     string // endpoint alterno opcional; vacío = default del adapter
	MaxTokens   int
	Temperature float64
	Enabled     bool

	CredentialBlob string

	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScoringConfig es la configuración resuelta que recibe el scoring client,
// con la credencial ya descifrada. Vive solo en memoria por llamada.
type ScoringConfig struct {
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	APIKey      string
}

// Projection es la vista admin del registro: todo menos el secreto.
// Solo se expone el booleano "credential present".
type Projection struct {
	Model             string    `json:"model"`
	BaseURL           string    `json:"base_url"`
	MaxTokens         int       `json:"max_tokens"`
	Temperature       float64   `json:"temperature"`
	Enabled           bool      `json:"enabled"`
	CredentialPresent bool      `json:"credential_present"`
	UpdatedBy         string    `json:"updated_by,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}
