package intake

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/complaint-intake/pkg/errors"
	"github.com/yanqian/complaint-intake/pkg/metrics"
	"github.com/yanqian/complaint-intake/pkg/util"
)

// Messages returned to callers for rejected submissions.
const (
	MsgMissingFile     = "Please upload a PDF file using 'file' as the form field name."
	MsgMissingPayload  = "Please provide 'data' in the form data."
	MsgInvalidCategory = "Invalid matter type in the question payload."
	MsgFileTooLarge    = "file exceeds maximum allowed size"
)

// Config drives upload limits.
type Config struct {
	MaxFileBytes int64
}

// Service runs the complaint intake workflow: classify, store, normalize, enqueue.
type Service struct {
	cfg         Config
	submissions SubmissionRepository
	answers     AnswerRepository
	storage     ObjectStorage
	queue       JobQueue
	metrics     *metrics.Intake
	now         util.Clock
	logger      *slog.Logger
}

// NewService constructs a Service.
func NewService(cfg Config, submissions SubmissionRepository, answers AnswerRepository, storage ObjectStorage, queue JobQueue, m *metrics.Intake, logger *slog.Logger) *Service {
	return &Service{
		cfg:         cfg,
		submissions: submissions,
		answers:     answers,
		storage:     storage,
		queue:       queue,
		metrics:     m,
		now:         util.NowUTC,
		logger:      logger.With("component", "intake.service"),
	}
}

// SubmitRequest is one multipart upload.
type SubmitRequest struct {
	Filename string
	MimeType string
	Content  []byte
	Payload  string
}

// SubmitResponse returns the stored submission.
type SubmitResponse struct {
	Submission Submission `json:"submission"`
}

// PreviewResponse shows how a payload would be interpreted.
type PreviewResponse struct {
	Category  CategoryID       `json:"category"`
	Shape     Shape            `json:"shape"`
	Questions []QuestionConfig `json:"questions"`
}

// Submit classifies the payload, stores the file under the category's destination,
// normalizes the questions, and enqueues answering.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error) {
	if len(req.Content) == 0 {
		return SubmitResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, MsgMissingFile, nil)
	}
	if req.Payload == "" {
		return SubmitResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, MsgMissingPayload, nil)
	}
	if s.cfg.MaxFileBytes > 0 && int64(len(req.Content)) > s.cfg.MaxFileBytes {
		return SubmitResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, MsgFileTooLarge, nil)
	}

	category, ok := Classify(req.Payload)
	if !ok {
		s.metrics.ObserveRejection()
		return SubmitResponse{}, apperrors.Wrap(apperrors.CodeInvalidCategory, MsgInvalidCategory, nil)
	}

	filename := sanitizeFilename(req.Filename)
	mime := req.MimeType
	if mime == "" {
		mime = http.DetectContentType(req.Content)
	}
	id := uuid.New()
	key := storageKey(id, filename)
	obj, err := s.storage.Put(ctx, category, key, req.Content, mime)
	if err != nil {
		return SubmitResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to store file", err)
	}
	s.logger.Info("complaint file stored", "submission_id", id, "category", category, "key", obj.Key, "location", obj.Location, "size", obj.Size)

	questions, shape := NormalizeShape(req.Payload)
	if shape == ShapeRaw {
		s.logger.Info("question payload treated as raw string", "category", category)
	}
	s.metrics.ObserveSubmission(string(category), string(shape))

	now := s.now()
	sub := Submission{
		ID:         id,
		Category:   category,
		Filename:   filename,
		Location:   obj.Location,
		StorageKey: obj.Key,
		SizeBytes:  obj.Size,
		MimeType:   obj.MimeType,
		ETag:       obj.ETag,
		Shape:      shape,
		Questions:  questions,
		Status:     SubmissionStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		if delErr := s.storage.Delete(ctx, category, obj.Key); delErr != nil {
			s.logger.Error("failed to remove orphaned complaint file", "submission_id", id, "key", obj.Key, "error", delErr)
		}
		return SubmitResponse{}, apperrors.Wrap(apperrors.CodeStorage, "failed to persist submission", err)
	}

	if s.queue != nil {
		payload := map[string]any{"submission_id": sub.ID.String()}
		if err := s.queue.Enqueue(ctx, JobAnswerSubmission, payload); err != nil {
			s.logger.Warn("enqueue answer_submission failed", "submission_id", sub.ID, "error", err)
		}
	}

	s.logger.Info("complaint submitted", "submission_id", sub.ID, "category", category, "shape", shape, "questions", len(questions))
	return SubmitResponse{Submission: sub}, nil
}

// Preview classifies and normalizes without storing anything.
func (s *Service) Preview(payload string) (PreviewResponse, error) {
	if payload == "" {
		return PreviewResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, MsgMissingPayload, nil)
	}
	category, ok := Classify(payload)
	if !ok {
		return PreviewResponse{}, apperrors.Wrap(apperrors.CodeInvalidCategory, MsgInvalidCategory, nil)
	}
	questions, shape := NormalizeShape(payload)
	return PreviewResponse{Category: category, Shape: shape, Questions: questions}, nil
}

// GetSubmission fetches a single submission.
func (s *Service) GetSubmission(ctx context.Context, id uuid.UUID) (Submission, error) {
	sub, found, err := s.submissions.Get(ctx, id)
	if err != nil {
		return Submission{}, apperrors.Wrap(apperrors.CodeStorage, "failed to fetch submission", err)
	}
	if !found {
		return Submission{}, apperrors.Wrap(apperrors.CodeNotFound, "submission not found", nil)
	}
	return sub, nil
}

// ListSubmissions returns submissions, newest first.
func (s *Service) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown category", nil)
	}
	subs, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to list submissions", err)
	}
	return subs, nil
}

// ListAnswers returns the answers recorded for a submission.
func (s *Service) ListAnswers(ctx context.Context, id uuid.UUID) ([]Answer, error) {
	if _, err := s.GetSubmission(ctx, id); err != nil {
		return nil, err
	}
	answers, err := s.answers.ListBySubmission(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to list answers", err)
	}
	return answers, nil
}

// storageKey scopes the file to its submission so same-named uploads never share an object.
func storageKey(id uuid.UUID, filename string) string {
	return id.String() + "/" + filename
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." || name == ".." {
		return "complaint.pdf"
	}
	return name
}
