package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

type UploadResult struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	ETag     string `json:"etag,omitempty"`
}

// FileUploader stores standings archives in an object store.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	GetPublicURL(key string) string
}

// StandingsArchiveKey names the archive object of a stage export taken at at.
// Keys sort chronologically inside a stage prefix.
func StandingsArchiveKey(tournamentID, stageID int, at time.Time) string {
	return fmt.Sprintf("tournaments/%d/stages/%d/standings-%s.json",
		tournamentID, stageID, at.UTC().Format("20060102T150405Z"))
}
