package answering

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yanqian/complaint-intake/internal/domain/intake"
	apperrors "github.com/yanqian/complaint-intake/pkg/errors"
	"github.com/yanqian/complaint-intake/pkg/metrics"
	"github.com/yanqian/complaint-intake/pkg/util"
)

// Config controls prompt defaults and retrieval limits.
type Config struct {
	DefaultSystemMessage string
	ChunkSize            int
	TopN                 int
	MaxPreviewChars      int
}

// Service answers the normalized questions of a stored submission.
type Service struct {
	cfg         Config
	submissions intake.SubmissionRepository
	answers     intake.AnswerRepository
	storage     intake.ObjectStorage
	embedder    Embedder
	llm         LLM
	chunker     Chunker
	metrics     *metrics.Intake
	now         util.Clock
	logger      *slog.Logger
}

// NewService constructs a Service.
func NewService(cfg Config, submissions intake.SubmissionRepository, answers intake.AnswerRepository, storage intake.ObjectStorage, embedder Embedder, llm LLM, chunker Chunker, m *metrics.Intake, logger *slog.Logger) *Service {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 800
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if strings.TrimSpace(cfg.DefaultSystemMessage) == "" {
		cfg.DefaultSystemMessage = "You are a legal assistant. Answer the question using only the provided complaint excerpts. If the excerpts do not contain the answer, say so."
	}
	return &Service{
		cfg:         cfg,
		submissions: submissions,
		answers:     answers,
		storage:     storage,
		embedder:    embedder,
		llm:         llm,
		chunker:     chunker,
		metrics:     m,
		now:         util.NowUTC,
		logger:      logger.With("component", "answering.service"),
	}
}

// HandleJob adapts queue deliveries to Process.
func (s *Service) HandleJob(ctx context.Context, name string, payload map[string]any) {
	if name != intake.JobAnswerSubmission {
		s.logger.Warn("unknown job", "name", name)
		return
	}
	raw, _ := payload["submission_id"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		s.logger.Warn("invalid submission id in job payload", "submission_id", raw, "error", err)
		return
	}
	if err := s.Process(ctx, id); err != nil {
		s.logger.Error("answer_submission failed", "submission_id", id, "error", err)
	}
}

// Process reads the stored complaint and records an answer for every question.
func (s *Service) Process(ctx context.Context, id uuid.UUID) error {
	sub, found, err := s.submissions.Get(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "failed to load submission", err)
	}
	if !found {
		return apperrors.Wrap(apperrors.CodeNotFound, "submission not found", nil)
	}
	if sub.Status == intake.SubmissionStatusAnswered {
		return nil
	}
	s.logger.Info("answer_submission start", "submission_id", id, "questions", len(sub.Questions))
	if err := s.submissions.UpdateStatus(ctx, id, intake.SubmissionStatusProcessing, nil); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "failed to update status", err)
	}

	text, err := s.readDocument(ctx, sub)
	if err != nil {
		_ = s.submissions.UpdateStatus(ctx, id, intake.SubmissionStatusFailed, ptrString("failed to read stored file"))
		return apperrors.Wrap(apperrors.CodeStorage, "failed to read stored file", err)
	}
	pages := splitPages(text)

	failures := 0
	for i, question := range sub.Questions {
		answer := s.answerQuestion(ctx, sub.ID, i, question, pages)
		if answer.Status == intake.AnswerStatusFailed {
			failures++
		}
		s.metrics.ObserveAnswer(string(answer.Status), answer.TokenUsage)
		if err := s.answers.Save(ctx, answer); err != nil {
			_ = s.submissions.UpdateStatus(ctx, id, intake.SubmissionStatusFailed, ptrString("persisting answers failed"))
			return apperrors.Wrap(apperrors.CodeStorage, "failed to persist answer", err)
		}
	}

	if len(sub.Questions) > 0 && failures == len(sub.Questions) {
		reason := "all questions failed"
		_ = s.submissions.UpdateStatus(ctx, id, intake.SubmissionStatusFailed, &reason)
		return apperrors.Wrap(apperrors.CodeLLM, reason, nil)
	}
	if err := s.submissions.UpdateStatus(ctx, id, intake.SubmissionStatusAnswered, nil); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "failed to finalize submission", err)
	}
	s.logger.Info("answer_submission complete", "submission_id", id, "failures", failures)
	return nil
}

func (s *Service) readDocument(ctx context.Context, sub intake.Submission) (string, error) {
	reader, err := s.storage.Get(ctx, sub.Category, sub.StorageKey)
	if err != nil {
		return "", err
	}
	defer reader.Close()
	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

type rankedChunk struct {
	page  int
	chunk ChunkCandidate
	score float64
}

func (s *Service) answerQuestion(ctx context.Context, submissionID uuid.UUID, index int, q intake.QuestionConfig, pages []string) intake.Answer {
	answer := intake.Answer{
		ID:                uuid.New(),
		SubmissionID:      submissionID,
		QuestionIndex:     index,
		QuestionID:        q.QuestionID,
		QuestionText:      q.QuestionText,
		BoundingBoxReturn: q.BoundingBoxReturn,
		CreatedAt:         s.now(),
	}

	chunks := s.collectChunks(q, pages)
	chunks = s.rankChunks(ctx, q.EmbeddingText(), chunks)
	topN := s.cfg.TopN
	if q.TopN != nil && *q.TopN > 0 {
		topN = *q.TopN
	}
	if len(chunks) > topN {
		chunks = chunks[:topN]
	}
	answer.Sources = s.buildSources(chunks)

	completion, err := s.llm.Chat(ctx, s.buildPrompt(q, chunks))
	if err != nil {
		s.logger.Warn("llm chat failed", "submission_id", submissionID, "question_index", index, "error", err)
		answer.Status = intake.AnswerStatusFailed
		answer.Error = ptrString(err.Error())
		return answer
	}
	answer.TokenUsage = completion.Usage
	content := strings.TrimSpace(completion.Content)

	switch {
	case isLookup(q):
		if value, ok := resolveLookup(content, q.LookupValues); ok {
			answer.AnswerText = value
			answer.Status = intake.AnswerStatusAnswered
		} else {
			answer.Status = intake.AnswerStatusUnresolved
		}
	case content == "":
		answer.Status = intake.AnswerStatusUnresolved
	default:
		answer.AnswerText = content
		answer.Status = intake.AnswerStatusAnswered
	}
	return answer
}

func (s *Service) collectChunks(q intake.QuestionConfig, pages []string) []rankedChunk {
	start, end, err := ParsePageRange(q.PageRange, len(pages))
	if err != nil {
		s.logger.Warn("ignoring page range", "page_range", q.PageRange, "error", err)
		start, end = 1, len(pages)
	}
	size := s.cfg.ChunkSize
	if q.ChunkSize != nil && *q.ChunkSize > 0 {
		size = *q.ChunkSize
	}
	var out []rankedChunk
	for page := start; page <= end; page++ {
		for _, c := range s.chunker.Chunk(pages[page-1], size) {
			out = append(out, rankedChunk{page: page, chunk: c})
		}
	}
	return out
}

// rankChunks orders chunks by similarity to the query; on embedding failure document order is kept.
func (s *Service) rankChunks(ctx context.Context, query string, chunks []rankedChunk) []rankedChunk {
	if len(chunks) == 0 || s.embedder == nil {
		return chunks
	}
	texts := make([]string, 0, len(chunks)+1)
	texts = append(texts, query)
	for _, c := range chunks {
		texts = append(texts, c.chunk.Content)
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil || len(vectors) != len(texts) {
		s.logger.Warn("chunk ranking skipped", "error", err, "vectors", len(vectors))
		return chunks
	}
	for i := range chunks {
		chunks[i].score = cosine(vectors[0], vectors[i+1])
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].score > chunks[j].score
	})
	return chunks
}

func (s *Service) buildPrompt(q intake.QuestionConfig, chunks []rankedChunk) []LLMMessage {
	system := strings.TrimSpace(q.SystemMessage)
	if system == "" {
		system = s.cfg.DefaultSystemMessage
	}
	messages := []LLMMessage{{Role: "system", Content: system}}
	if isLookup(q) {
		messages = append(messages, LLMMessage{
			Role:    "system",
			Content: "Reply with exactly one of the following values and nothing else: " + strings.Join(q.LookupValues, " | "),
		})
	}
	if len(chunks) > 0 {
		var builder strings.Builder
		for _, c := range chunks {
			builder.WriteString(fmt.Sprintf("Page %d chunk %d:\n%s\n\n", c.page, c.chunk.Index, c.chunk.Content))
		}
		messages = append(messages, LLMMessage{Role: "system", Content: "Context:\n" + builder.String()})
	}
	messages = append(messages, LLMMessage{Role: "user", Content: q.QuestionText})
	return messages
}

func (s *Service) buildSources(chunks []rankedChunk) []intake.ChunkSource {
	sources := make([]intake.ChunkSource, 0, len(chunks))
	for _, c := range chunks {
		sources = append(sources, intake.ChunkSource{
			Page:       c.page,
			ChunkIndex: c.chunk.Index,
			Score:      c.score,
			Preview:    snippet(c.chunk.Content, s.cfg.MaxPreviewChars),
		})
	}
	return sources
}

func isLookup(q intake.QuestionConfig) bool {
	return q.IsLookUp && len(q.LookupValues) > 0
}

// resolveLookup maps the model reply onto one of the allowed values.
func resolveLookup(reply string, values []string) (string, bool) {
	reply = strings.Trim(strings.TrimSpace(reply), `"'.`)
	for _, v := range values {
		if strings.EqualFold(reply, strings.TrimSpace(v)) {
			return v, true
		}
	}
	// Accept a reply that mentions exactly one value.
	var match string
	for _, v := range values {
		if v != "" && strings.Contains(strings.ToLower(reply), strings.ToLower(v)) {
			if match != "" {
				return "", false
			}
			match = v
		}
	}
	return match, match != ""
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// snippet cuts body to at most max bytes without splitting a UTF-8 sequence.
func snippet(body string, max int) string {
	if max <= 0 || len(body) <= max {
		return body
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return strings.TrimSpace(body[:cut]) + "..."
}

func ptrString(val string) *string {
	return &val
}
