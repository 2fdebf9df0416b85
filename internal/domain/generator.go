package domain

import "context"

// SubmitResult is the outcome of a generator submission: either a finished
// artifact (synchronous completion) or a task ID to poll.
type SubmitResult struct {
	Artifact *Artifact
	TaskID   string
}

// PollStatus enumerates remote task states.
type PollStatus string

const (
	PollProcessing PollStatus = "processing"
	PollCompleted  PollStatus = "completed"
	PollFailed     PollStatus = "failed"
)

// PollResult reports one poll of an in-flight remote task.
type PollResult struct {
	Status      PollStatus
	ArtifactURL string
	ErrDetail   string
}

// Generator is the interface the pipeline consumes for any generation
// backend: the remote video engine, the remote image-composition engine, and
// the local fallback compositor all implement it. Submit failures mean the
// backend is unreachable; polling errors are transient.
type Generator interface {
	Submit(ctx context.Context, req Request) (*SubmitResult, error)
	Poll(ctx context.Context, taskID string) (*PollResult, error)
}
