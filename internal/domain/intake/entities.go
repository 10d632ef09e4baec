package intake

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/complaint-intake/pkg/metrics"
)

// SubmissionStatus tracks answering progress.
type SubmissionStatus string

const (
	SubmissionStatusPending    SubmissionStatus = "pending"
	SubmissionStatusProcessing SubmissionStatus = "processing"
	SubmissionStatusAnswered   SubmissionStatus = "answered"
	SubmissionStatusFailed     SubmissionStatus = "failed"
)

// ParseSubmissionStatus maps a query value to a status.
func ParseSubmissionStatus(raw string) (SubmissionStatus, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch SubmissionStatus(raw) {
	case SubmissionStatusPending, SubmissionStatusProcessing, SubmissionStatusAnswered, SubmissionStatusFailed:
		return SubmissionStatus(raw), true
	}
	return "", false
}

// Submission is one uploaded complaint plus its normalized questions.
type Submission struct {
	ID            uuid.UUID        `json:"id"`
	Category      CategoryID       `json:"category"`
	Filename      string           `json:"filename"`
	Location      string           `json:"location"`
	StorageKey    string           `json:"storageKey"`
	SizeBytes     int64            `json:"sizeBytes"`
	MimeType      string           `json:"mimeType"`
	ETag          string           `json:"etag"`
	Shape         Shape            `json:"shape"`
	Questions     []QuestionConfig `json:"questions"`
	Status        SubmissionStatus `json:"status"`
	FailureReason *string          `json:"failureReason,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// AnswerStatus is the outcome for one question.
type AnswerStatus string

const (
	AnswerStatusAnswered   AnswerStatus = "answered"
	AnswerStatusUnresolved AnswerStatus = "unresolved"
	AnswerStatusFailed     AnswerStatus = "failed"
)

// ChunkSource identifies a piece of the document used as context.
type ChunkSource struct {
	Page       int     `json:"page"`
	ChunkIndex int     `json:"chunkIndex"`
	Score      float64 `json:"score"`
	Preview    string  `json:"preview"`
}

// Answer records the response to one question of a submission.
type Answer struct {
	ID                uuid.UUID          `json:"id"`
	SubmissionID      uuid.UUID          `json:"submissionId"`
	QuestionIndex     int                `json:"questionIndex"`
	QuestionID        string             `json:"questionId,omitempty"`
	QuestionText      string             `json:"questionText"`
	AnswerText        string             `json:"answer"`
	Status            AnswerStatus       `json:"status"`
	BoundingBoxReturn string             `json:"boundingBoxReturn,omitempty"`
	Sources           []ChunkSource      `json:"sources"`
	TokenUsage        metrics.TokenUsage `json:"tokenUsage"`
	Error             *string            `json:"error,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
}
