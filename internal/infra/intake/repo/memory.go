package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/yanqian/complaint-intake/internal/domain/intake"
)

// MemorySubmissionRepository is a simple in-memory store for submissions.
type MemorySubmissionRepository struct {
	mu   sync.RWMutex
	data map[uuid.UUID]domain.Submission
}

// NewMemorySubmissionRepository constructs a submission repository.
func NewMemorySubmissionRepository() *MemorySubmissionRepository {
	return &MemorySubmissionRepository{data: make(map[uuid.UUID]domain.Submission)}
}

func (r *MemorySubmissionRepository) Create(_ context.Context, sub domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[sub.ID] = sub
	return nil
}

func (r *MemorySubmissionRepository) UpdateStatus(_ context.Context, id uuid.UUID, status domain.SubmissionStatus, failureReason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.data[id]
	if !ok {
		return nil
	}
	sub.Status = status
	sub.FailureReason = failureReason
	sub.UpdatedAt = time.Now().UTC()
	r.data[id] = sub
	return nil
}

func (r *MemorySubmissionRepository) Get(_ context.Context, id uuid.UUID) (domain.Submission, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.data[id]
	return sub, ok, nil
}

func (r *MemorySubmissionRepository) List(_ context.Context, filter domain.SubmissionFilter) ([]domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	allowed := make(map[domain.SubmissionStatus]bool, len(filter.Statuses))
	for _, st := range filter.Statuses {
		allowed[st] = true
	}
	out := make([]domain.Submission, 0)
	for _, sub := range r.data {
		if filter.Category != "" && sub.Category != filter.Category {
			continue
		}
		if len(allowed) > 0 && !allowed[sub.Status] {
			continue
		}
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

var _ domain.SubmissionRepository = (*MemorySubmissionRepository)(nil)

// MemoryAnswerRepository keeps answers per submission.
type MemoryAnswerRepository struct {
	mu   sync.RWMutex
	data map[uuid.UUID][]domain.Answer
}

// NewMemoryAnswerRepository constructs an answer repository.
func NewMemoryAnswerRepository() *MemoryAnswerRepository {
	return &MemoryAnswerRepository{data: make(map[uuid.UUID][]domain.Answer)}
}

// Save stores the answer, replacing an earlier answer to the same question.
func (r *MemoryAnswerRepository) Save(_ context.Context, answer domain.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.data[answer.SubmissionID]
	for i, existing := range items {
		if existing.QuestionIndex == answer.QuestionIndex {
			items[i] = answer
			return nil
		}
	}
	r.data[answer.SubmissionID] = append(items, answer)
	return nil
}

func (r *MemoryAnswerRepository) ListBySubmission(_ context.Context, submissionID uuid.UUID) ([]domain.Answer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := r.data[submissionID]
	out := make([]domain.Answer, len(items))
	copy(out, items)
	sort.Slice(out, func(i, j int) bool {
		return out[i].QuestionIndex < out[j].QuestionIndex
	})
	return out, nil
}

var _ domain.AnswerRepository = (*MemoryAnswerRepository)(nil)
