package answering

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/complaint-intake/internal/domain/intake"
	"github.com/yanqian/complaint-intake/pkg/metrics"
	"github.com/yanqian/complaint-intake/pkg/util"
)

const complaintText = "Plaintiff resided in Missouri.\nPlaintiff used the product daily.\fPlaintiff was diagnosed with mesothelioma in 2019.\nExposure began in 1980.\fDemand for jury trial."

func TestProcessAnswersEveryQuestion(t *testing.T) {
	f := newFixture(t, complaintText)
	topOne := 1
	sub := f.seed(
		intake.QuestionConfig{QuestionText: "Where did plaintiff live?", QuestionID: "q-state", BoundingBoxReturn: "true"},
		intake.QuestionConfig{QuestionText: "When was the diagnosis?", PageRange: "2", TopN: &topOne},
	)

	require.NoError(t, f.svc.Process(context.Background(), sub.ID))

	stored := f.submissions.data[sub.ID]
	require.Equal(t, intake.SubmissionStatusAnswered, stored.Status)
	require.Nil(t, stored.FailureReason)

	answers := f.answers.items
	require.Len(t, answers, 2)
	require.Equal(t, "q-state", answers[0].QuestionID)
	require.Equal(t, "true", answers[0].BoundingBoxReturn)
	require.Equal(t, intake.AnswerStatusAnswered, answers[0].Status)
	require.Equal(t, "Answer: Where did plaintiff live?", answers[0].AnswerText)
	require.Equal(t, 12, answers[0].TokenUsage.TotalTokens)
	require.Equal(t, f.clockTime, answers[0].CreatedAt)
	require.Len(t, answers[0].Sources, 5)

	require.Len(t, answers[1].Sources, 1)
	require.Equal(t, 2, answers[1].Sources[0].Page)
	require.Equal(t, 1, answers[1].QuestionIndex)
}

func TestProcessRanksChunksBySimilarity(t *testing.T) {
	f := newFixture(t, complaintText)
	f.svc.embedder = vocabEmbedder{vocab: []string{"missouri", "diagnosed", "exposure", "jury"}}
	topTwo := 2
	sub := f.seed(intake.QuestionConfig{
		QuestionText:             "Which state?",
		QuestionTextForEmbedding: "missouri",
		TopN:                     &topTwo,
	})

	require.NoError(t, f.svc.Process(context.Background(), sub.ID))

	sources := f.answers.items[0].Sources
	require.Len(t, sources, 2)
	require.Equal(t, 1, sources[0].Page)
	require.Equal(t, 0, sources[0].ChunkIndex)
	require.Greater(t, sources[0].Score, sources[1].Score)

	prompt := f.llm.lastMessages()
	require.Contains(t, prompt[len(prompt)-2].Content, "Plaintiff resided in Missouri.")
	require.Equal(t, "Which state?", prompt[len(prompt)-1].Content)
}

func TestProcessResolvesLookupValues(t *testing.T) {
	f := newFixture(t, complaintText)
	f.llm.reply = func(messages []LLMMessage) (Completion, error) {
		switch messages[len(messages)-1].Content {
		case "State?":
			return Completion{Content: " missouri. "}, nil
		default:
			return Completion{Content: "I cannot tell"}, nil
		}
	}
	sub := f.seed(
		intake.QuestionConfig{QuestionText: "State?", IsLookUp: true, LookupValues: []string{"Missouri", "Texas"}},
		intake.QuestionConfig{QuestionText: "Product?", IsLookUp: true, LookupValues: []string{"Talc", "Roundup"}},
	)

	require.NoError(t, f.svc.Process(context.Background(), sub.ID))

	answers := f.answers.items
	require.Equal(t, "Missouri", answers[0].AnswerText)
	require.Equal(t, intake.AnswerStatusAnswered, answers[0].Status)
	require.Empty(t, answers[1].AnswerText)
	require.Equal(t, intake.AnswerStatusUnresolved, answers[1].Status)

	prompt := f.llm.lastMessages()
	require.Contains(t, prompt[1].Content, "Talc | Roundup")
}

func TestProcessRecordsPerQuestionFailures(t *testing.T) {
	f := newFixture(t, complaintText)
	f.llm.reply = func(messages []LLMMessage) (Completion, error) {
		if messages[len(messages)-1].Content == "bad" {
			return Completion{}, errors.New("upstream timeout")
		}
		return Completion{Content: "ok"}, nil
	}
	sub := f.seed(intake.QuestionConfig{QuestionText: "bad"}, intake.QuestionConfig{QuestionText: "good"})

	require.NoError(t, f.svc.Process(context.Background(), sub.ID))

	answers := f.answers.items
	require.Equal(t, intake.AnswerStatusFailed, answers[0].Status)
	require.Equal(t, "upstream timeout", *answers[0].Error)
	require.Equal(t, intake.AnswerStatusAnswered, answers[1].Status)
	require.Equal(t, intake.SubmissionStatusAnswered, f.submissions.data[sub.ID].Status)
}

func TestProcessFailsWhenEveryQuestionFails(t *testing.T) {
	f := newFixture(t, complaintText)
	f.llm.reply = func([]LLMMessage) (Completion, error) {
		return Completion{}, errors.New("quota exceeded")
	}
	sub := f.seed(intake.QuestionConfig{QuestionText: "Q1"})

	err := f.svc.Process(context.Background(), sub.ID)
	require.Error(t, err)
	stored := f.submissions.data[sub.ID]
	require.Equal(t, intake.SubmissionStatusFailed, stored.Status)
	require.Equal(t, "all questions failed", *stored.FailureReason)
}

func TestProcessMissingFileMarksFailed(t *testing.T) {
	f := newFixture(t, complaintText)
	sub := f.seed(intake.QuestionConfig{QuestionText: "Q1"})
	f.storage.err = errors.New("no such key")

	require.Error(t, f.svc.Process(context.Background(), sub.ID))
	require.Equal(t, intake.SubmissionStatusFailed, f.submissions.data[sub.ID].Status)
	require.Empty(t, f.answers.items)
}

func TestProcessSkipsAnsweredSubmission(t *testing.T) {
	f := newFixture(t, complaintText)
	sub := f.seed(intake.QuestionConfig{QuestionText: "Q1"})
	sub.Status = intake.SubmissionStatusAnswered
	f.submissions.data[sub.ID] = sub

	require.NoError(t, f.svc.Process(context.Background(), sub.ID))
	require.Empty(t, f.answers.items)
}

func TestProcessUsesSystemMessageOverride(t *testing.T) {
	f := newFixture(t, complaintText)
	sub := f.seed(
		intake.QuestionConfig{QuestionText: "Q1", SystemMessage: "Answer in one word."},
		intake.QuestionConfig{QuestionText: "Q2"},
	)

	require.NoError(t, f.svc.Process(context.Background(), sub.ID))

	calls := f.llm.allMessages()
	require.Len(t, calls, 2)
	require.Equal(t, "Answer in one word.", calls[0][0].Content)
	require.Equal(t, "default system", calls[1][0].Content)
}

func TestHandleJob(t *testing.T) {
	f := newFixture(t, complaintText)
	sub := f.seed(intake.QuestionConfig{QuestionText: "Q1"})

	f.svc.HandleJob(context.Background(), "unknown", map[string]any{"submission_id": sub.ID.String()})
	f.svc.HandleJob(context.Background(), intake.JobAnswerSubmission, map[string]any{"submission_id": "nope"})
	require.Empty(t, f.answers.items)

	f.svc.HandleJob(context.Background(), intake.JobAnswerSubmission, map[string]any{"submission_id": sub.ID.String()})
	require.Len(t, f.answers.items, 1)
}

func TestResolveLookup(t *testing.T) {
	values := []string{"Missouri", "Texas", "New Mexico"}
	cases := []struct {
		reply string
		want  string
		ok    bool
	}{
		{"Missouri", "Missouri", true},
		{`"texas"`, "Texas", true},
		{"The plaintiff lived in New Mexico.", "New Mexico", true},
		{"Missouri or Texas", "", false},
		{"Ohio", "", false},
	}
	for _, tc := range cases {
		got, ok := resolveLookup(tc.reply, values)
		require.Equal(t, tc.ok, ok, tc.reply)
		require.Equal(t, tc.want, got, tc.reply)
	}
}

func TestSnippetKeepsRunesWhole(t *testing.T) {
	require.Equal(t, "short", snippet("short", 10))
	require.Equal(t, "unlimited", snippet("unlimited", 0))
	require.Equal(t, "abc...", snippet("abcdef", 3))

	// "é" is two bytes; a 2-byte cut lands inside it.
	got := snippet("aébc", 2)
	require.Equal(t, "a...", got)
	require.True(t, utf8.ValidString(got))

	got = snippet("Plaintiff résidait à Saint-Louis", 12)
	require.True(t, utf8.ValidString(got))
	require.Equal(t, "Plaintiff r...", got)
}

func TestCosine(t *testing.T) {
	require.InDelta(t, 1.0, cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	require.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	require.Zero(t, cosine([]float32{1}, []float32{1, 2}))
	require.Zero(t, cosine([]float32{0, 0}, []float32{1, 1}))
}

type fixture struct {
	svc         *Service
	submissions *memSubmissions
	answers     *memAnswers
	storage     *memStorage
	llm         *scriptedLLM
	clockTime   time.Time
}

func newFixture(t *testing.T, text string) *fixture {
	t.Helper()
	f := &fixture{
		submissions: &memSubmissions{data: map[uuid.UUID]intake.Submission{}},
		answers:     &memAnswers{},
		storage:     &memStorage{text: text},
		llm:         &scriptedLLM{},
		clockTime:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(Config{DefaultSystemMessage: "default system", MaxPreviewChars: 20},
		f.submissions, f.answers, f.storage, nil, f.llm, lineChunker{}, metrics.NewIntake(), logger)
	f.svc.now = util.FixedClock(f.clockTime)
	return f
}

func (f *fixture) seed(questions ...intake.QuestionConfig) intake.Submission {
	sub := intake.Submission{
		ID:         uuid.New(),
		Category:   intake.CategoryAsbestosNonMidwest,
		StorageKey: "complaint.pdf",
		Questions:  questions,
		Status:     intake.SubmissionStatusPending,
	}
	f.submissions.data[sub.ID] = sub
	return sub
}

type memSubmissions struct {
	data map[uuid.UUID]intake.Submission
}

func (m *memSubmissions) Create(_ context.Context, sub intake.Submission) error {
	m.data[sub.ID] = sub
	return nil
}

func (m *memSubmissions) UpdateStatus(_ context.Context, id uuid.UUID, status intake.SubmissionStatus, reason *string) error {
	sub := m.data[id]
	sub.Status = status
	sub.FailureReason = reason
	m.data[id] = sub
	return nil
}

func (m *memSubmissions) Get(_ context.Context, id uuid.UUID) (intake.Submission, bool, error) {
	sub, ok := m.data[id]
	return sub, ok, nil
}

func (m *memSubmissions) List(context.Context, intake.SubmissionFilter) ([]intake.Submission, error) {
	return nil, nil
}

type memAnswers struct {
	items []intake.Answer
}

func (m *memAnswers) Save(_ context.Context, answer intake.Answer) error {
	m.items = append(m.items, answer)
	return nil
}

func (m *memAnswers) ListBySubmission(context.Context, uuid.UUID) ([]intake.Answer, error) {
	return m.items, nil
}

type memStorage struct {
	text string
	err  error
}

func (m *memStorage) Put(context.Context, intake.CategoryID, string, []byte, string) (intake.StoredObject, error) {
	return intake.StoredObject{}, nil
}

func (m *memStorage) Get(context.Context, intake.CategoryID, string) (io.ReadCloser, error) {
	if m.err != nil {
		return nil, m.err
	}
	return io.NopCloser(bytes.NewReader([]byte(m.text))), nil
}

func (m *memStorage) Delete(context.Context, intake.CategoryID, string) error {
	return nil
}

// scriptedLLM echoes the question unless reply is set.
type scriptedLLM struct {
	mu    sync.Mutex
	calls [][]LLMMessage
	reply func(messages []LLMMessage) (Completion, error)
}

func (s *scriptedLLM) Chat(_ context.Context, messages []LLMMessage) (Completion, error) {
	s.mu.Lock()
	s.calls = append(s.calls, messages)
	s.mu.Unlock()
	if s.reply != nil {
		return s.reply(messages)
	}
	return Completion{
		Content: "Answer: " + messages[len(messages)-1].Content,
		Usage:   metrics.TokenUsage{PromptTokens: 10, CompletionTokens: 2, TotalTokens: 12},
	}, nil
}

func (s *scriptedLLM) lastMessages() []LLMMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

func (s *scriptedLLM) allMessages() [][]LLMMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// lineChunker emits one chunk per non-empty line.
type lineChunker struct{}

func (lineChunker) Chunk(text string, _ int) []ChunkCandidate {
	var out []ChunkCandidate
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, ChunkCandidate{Index: len(out), Content: line, TokenCount: len(strings.Fields(line))})
		}
	}
	return out
}

// vocabEmbedder counts vocabulary words plus a constant bias dimension.
type vocabEmbedder struct {
	vocab []string
}

func (v vocabEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		vec := make([]float32, len(v.vocab)+1)
		for j, word := range v.vocab {
			vec[j] = float32(strings.Count(lower, word))
		}
		vec[len(v.vocab)] = 0.1
		out[i] = vec
	}
	return out, nil
}
