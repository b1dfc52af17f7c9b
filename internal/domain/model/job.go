package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusCompleted JobStatus = "completed"
	JobStatusError     JobStatus = "error"
)

// ReflectionJob tracks one asynchronous reflection-generation request.
// A job reaches exactly one terminal state: completed with a non-empty
// Result, or error with a non-empty Error. Both are empty while pending.
type ReflectionJob struct {
	ID          string    `json:"id"`
	Status      JobStatus `json:"status"`
	Topic       string    `json:"topic"`
	Verses      []Verse   `json:"verses,omitempty"`
	Result      string    `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	RetryCount  int       `json:"retry_count,omitempty"`
	RetryAfter  int       `json:"retry_after,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// NewJobID returns a fresh job id. ULIDs combine a millisecond timestamp
// with 80 bits of entropy, so ids are sortable, unguessable enough to act
// as a polling capability, and never collide within a process lifetime.
func NewJobID() string {
	return ulid.Make().String()
}

func NewReflectionJob(topic string, verses []Verse) *ReflectionJob {
	return &ReflectionJob{
		ID:        NewJobID(),
		Status:    JobStatusPending,
		Topic:     topic,
		Verses:    verses,
		StartedAt: time.Now(),
	}
}

// Terminal reports whether no further transitions may occur.
func (j *ReflectionJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusError
}
