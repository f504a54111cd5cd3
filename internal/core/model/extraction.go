package model

import "time"

type LogStatus string

const (
	StatusSuccess LogStatus = "success"
	StatusError   LogStatus = "error"
	// StatusPartial is part of the log schema but extraction never produces it.
	StatusPartial LogStatus = "partial"
)

// ModelRef identifies a model that took part in an extraction.
type ModelRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ExtractionLog is the audit record written once per extraction call.
type ExtractionLog struct {
	ID                string         `json:"id"`
	ClientID          string         `json:"clientId"`
	ModelsUsed        []ModelRef     `json:"modelsUsed"`
	TranscriptionSize int            `json:"transcriptionSize"`
	DurationMs        int64          `json:"durationMs"`
	AudioSource       string         `json:"audioSource,omitempty"`
	Status            LogStatus      `json:"status"`
	ErrorMessage      string         `json:"errorMessage,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	Response          map[string]any `json:"response,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// LogStats aggregates a client's extraction logs.
type LogStats struct {
	TotalExtractions int     `json:"totalExtractions"`
	SuccessCount     int     `json:"successCount"`
	ErrorCount       int     `json:"errorCount"`
	AvgDurationMs    float64 `json:"avgDurationMs"`
}

// TemplateModule is one analysis block of a generated template.
type TemplateModule struct {
	Key     string         `json:"key"`
	Enabled bool           `json:"enabled"`
	Config  map[string]any `json:"config"`
}

type TemplateSpec struct {
	TemplateName string           `json:"templateName"`
	Modules      []TemplateModule `json:"modules"`
}

// GeneratedTemplate is what the template generator returns for a goal.
type GeneratedTemplate struct {
	Description string       `json:"description"`
	Template    TemplateSpec `json:"template"`
}
