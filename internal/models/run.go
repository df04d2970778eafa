package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// CorpusRun is an archived pipeline run.
type CorpusRun struct {
	ID           surrealmodels.RecordID `json:"id"`
	Status       string                 `json:"status"`
	Organization string                 `json:"organization"`
	ListingURL   string                 `json:"listing_url"`
	Stages       []string               `json:"stages"`
	Harvested    int                    `json:"harvested"`
	Enriched     int                    `json:"enriched"`
	Documents    int                    `json:"documents"`
	Validation   string                 `json:"validation"`
	Errors       int                    `json:"errors"`
	Warnings     int                    `json:"warnings"`
	Uploaded     int                    `json:"uploaded"`
	UploadFailed int                    `json:"upload_failed"`
	Linked       bool                   `json:"linked"`
	Error        *string                `json:"error,omitempty"`
	StartedAt    time.Time              `json:"started_at"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
}
