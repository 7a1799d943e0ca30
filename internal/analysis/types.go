package analysis

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/waddle/internal/calls"
	"github.com/MikeSquared-Agency/waddle/internal/charts"
	"github.com/MikeSquared-Agency/waddle/internal/export"
)

// NATS subjects.
const (
	SubjectRequested  = "waddle.analysis.requested"
	SubjectCompleted  = "waddle.analysis.completed"
	SubjectFailed     = "waddle.analysis.failed"
	SubjectRegistered = "swarm.agent.waddle.registered"
)

// Failure kinds reported on SubjectFailed.
const (
	KindInput       = "input"
	KindReconstruct = "reconstruct"
	KindInternal    = "internal"
)

// Analysis is the call history of one conversation with its charts.
type Analysis struct {
	ID        uuid.UUID      `json:"id"`
	Source    string         `json:"source"`
	Partner   export.Partner `json:"partner"`
	Timezone  string         `json:"timezone"`
	Stats     calls.Stats    `json:"stats"`
	Calls     []calls.Call   `json:"calls"`
	Summary   charts.Summary `json:"summary"`
	CreatedAt time.Time      `json:"created_at"`
}

// RequestedEvent asks a worker to analyse an export.
type RequestedEvent struct {
	RequestID string `json:"request_id"`
	Filename  string `json:"filename"`
	Export    []byte `json:"export"` // base64 in JSON
	Partner   int    `json:"partner"`
	Timezone  string `json:"timezone,omitempty"`
}

type CompletedEvent struct {
	RequestID    string    `json:"request_id"`
	AnalysisID   uuid.UUID `json:"analysis_id"`
	Partner      string    `json:"partner"`
	Calls        int       `json:"calls"`
	TotalSeconds float64   `json:"total_seconds"`
}

type FailedEvent struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
	Kind      string `json:"kind"`
}

// ErrNotFound is returned by stores for unknown analysis ids.
var ErrNotFound = errors.New("analysis not found")
