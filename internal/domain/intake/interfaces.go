package intake

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// ObjectStorage stores uploaded files in the destination bound to a category.
type ObjectStorage interface {
	Put(ctx context.Context, category CategoryID, key string, data []byte, mimeType string) (StoredObject, error)
	Get(ctx context.Context, category CategoryID, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, category CategoryID, key string) error
}

// StoredObject captures persisted blob metadata.
type StoredObject struct {
	Location string
	Key      string
	Size     int64
	MimeType string
	ETag     string
}

// SubmissionRepository persists submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, sub Submission) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status SubmissionStatus, failureReason *string) error
	Get(ctx context.Context, id uuid.UUID) (Submission, bool, error)
	List(ctx context.Context, filter SubmissionFilter) ([]Submission, error)
}

// AnswerRepository persists per-question answers.
type AnswerRepository interface {
	Save(ctx context.Context, answer Answer) error
	ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]Answer, error)
}

// JobQueue enqueues background work.
type JobQueue interface {
	Enqueue(ctx context.Context, name string, payload any) error
}

// SubmissionFilter narrows List results; zero values match everything.
type SubmissionFilter struct {
	Category CategoryID
	Statuses []SubmissionStatus
	Limit    int
}

// JobAnswerSubmission is the queue job that answers a stored submission.
const JobAnswerSubmission = "answer_submission"
