// Package translator defines the opaque external translation providers
// used by the batch fill step. Providers receive an Arabic gap with its
// neighboring context and return English text; everything downstream
// treats the result as untrusted until it passes validation and the
// merge conflict guard.
package translator

import (
	"context"
	"time"
)

// ServiceConfig carries provider credentials and tuning shared across
// services. Values come from flags or the viper config file.
type ServiceConfig struct {
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	Model       string        `mapstructure:"model" json:"model"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	ProjectID   string        `mapstructure:"project_id" json:"project_id"`
}

// Request is one gap to translate: Arabic source plus the neighbor
// context captured in the gap record, and the terms that must survive
// translation untouched.
type Request struct {
	Text          string   `json:"text"`
	ContextPrev   string   `json:"context_prev,omitempty"`
	ContextNext   string   `json:"context_next,omitempty"`
	PreserveTerms []string `json:"preserve_terms,omitempty"`
	SourceLang    string   `json:"source_lang"`
	TargetLang    string   `json:"target_lang"`
}

// Result is one provider's answer, successful or not. Error is carried
// in-band so the orchestrator can audit partial failures.
type Result struct {
	ServiceName    string            `json:"service_name"`
	TranslatedText string            `json:"translated_text"`
	Confidence     float64           `json:"confidence"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Latency        time.Duration     `json:"latency"`
	Error          string            `json:"error,omitempty"`
}

// Service is one external translation provider.
type Service interface {
	Name() string
	Translate(ctx context.Context, cfg ServiceConfig, req Request) (*Result, error)
	IsAvailable(ctx context.Context) error
}
