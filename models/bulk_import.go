package models

import (
	"encoding/json"
	"fmt"
)

// ImportState is the per-user CSV upload workflow state.
// Implementations: ImportIdle, ImportUploading, ImportSuccess, ImportError.
type ImportState interface {
	importState() string
}

type ImportIdle struct{}

type ImportUploading struct {
	Progress int `json:"progress"`
}

type ImportSuccess struct {
	Inserted int `json:"inserted"`
}

type ImportError struct {
	Message string `json:"message"`
}

func (ImportIdle) importState() string      { return "idle" }
func (ImportUploading) importState() string { return "uploading" }
func (ImportSuccess) importState() string   { return "success" }
func (ImportError) importState() string     { return "error" }

type importStateJSON struct {
	State    string `json:"state"`
	Progress int    `json:"progress,omitempty"`
	Inserted int    `json:"inserted,omitempty"`
	Message  string `json:"message,omitempty"`
}

// MarshalImportState encodes a state with a "state" discriminator.
func MarshalImportState(s ImportState) ([]byte, error) {
	if s == nil {
		s = ImportIdle{}
	}
	out := importStateJSON{State: s.importState()}
	switch v := s.(type) {
	case ImportIdle:
	case ImportUploading:
		out.Progress = v.Progress
	case ImportSuccess:
		out.Inserted = v.Inserted
	case ImportError:
		out.Message = v.Message
	}
	return json.Marshal(out)
}

// UnmarshalImportState is the inverse of MarshalImportState.
func UnmarshalImportState(data []byte) (ImportState, error) {
	var in importStateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode import state: %w", err)
	}
	switch in.State {
	case "idle", "":
		return ImportIdle{}, nil
	case "uploading":
		return ImportUploading{Progress: in.Progress}, nil
	case "success":
		return ImportSuccess{Inserted: in.Inserted}, nil
	case "error":
		return ImportError{Message: in.Message}, nil
	default:
		return nil, fmt.Errorf("unknown import state %q", in.State)
	}
}

// BulkImportResult summarises a finished CSV import.
type BulkImportResult struct {
	JobID         string `json:"job_id,omitempty"`
	TotalRows     int    `json:"total_rows"`
	ParsedCount   int    `json:"parsed_count"`
	SkippedCount  int    `json:"skipped_count"`
	InsertedCount int    `json:"inserted_count"`
	Message       string `json:"message"`
}

// ImportJob is the queued unit of work for an asynchronous import.
type ImportJob struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	ObjectKey string `json:"object_key"`
	CreatedAt string `json:"created_at"`
}
