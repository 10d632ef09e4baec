package intake

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/complaint-intake/pkg/errors"
	"github.com/yanqian/complaint-intake/pkg/util"
)

type storedPut struct {
	category CategoryID
	key      string
	data     []byte
}

type fakeStorage struct {
	blobs     map[string][]byte
	puts      []storedPut
	deletes   []string
	err       error
	deleteErr error
}

func blobKey(category CategoryID, key string) string {
	return string(category) + "/" + key
}

func (f *fakeStorage) Put(_ context.Context, category CategoryID, key string, data []byte, mimeType string) (StoredObject, error) {
	if f.err != nil {
		return StoredObject{}, f.err
	}
	if f.blobs == nil {
		f.blobs = make(map[string][]byte)
	}
	f.blobs[blobKey(category, key)] = append([]byte(nil), data...)
	f.puts = append(f.puts, storedPut{category, key, data})
	return StoredObject{
		Location: "mem://" + blobKey(category, key),
		Key:      key,
		Size:     int64(len(data)),
		MimeType: mimeType,
		ETag:     "etag",
	}, nil
}

func (f *fakeStorage) Get(_ context.Context, category CategoryID, key string) (io.ReadCloser, error) {
	data, ok := f.blobs[blobKey(category, key)]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStorage) Delete(_ context.Context, category CategoryID, key string) error {
	f.deletes = append(f.deletes, blobKey(category, key))
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.blobs, blobKey(category, key))
	return nil
}

type fakeSubmissions struct {
	data map[uuid.UUID]Submission
	err  error
}

func newFakeSubmissions() *fakeSubmissions {
	return &fakeSubmissions{data: make(map[uuid.UUID]Submission)}
}

func (f *fakeSubmissions) Create(_ context.Context, sub Submission) error {
	if f.err != nil {
		return f.err
	}
	f.data[sub.ID] = sub
	return nil
}

func (f *fakeSubmissions) UpdateStatus(_ context.Context, id uuid.UUID, status SubmissionStatus, reason *string) error {
	sub := f.data[id]
	sub.Status = status
	sub.FailureReason = reason
	f.data[id] = sub
	return nil
}

func (f *fakeSubmissions) Get(_ context.Context, id uuid.UUID) (Submission, bool, error) {
	sub, ok := f.data[id]
	return sub, ok, nil
}

func (f *fakeSubmissions) List(context.Context, SubmissionFilter) ([]Submission, error) {
	out := make([]Submission, 0, len(f.data))
	for _, sub := range f.data {
		out = append(out, sub)
	}
	return out, nil
}

type fakeAnswers struct {
	items []Answer
}

func (f *fakeAnswers) Save(_ context.Context, answer Answer) error {
	f.items = append(f.items, answer)
	return nil
}

func (f *fakeAnswers) ListBySubmission(_ context.Context, id uuid.UUID) ([]Answer, error) {
	var out []Answer
	for _, a := range f.items {
		if a.SubmissionID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeQueue struct {
	names    []string
	payloads []map[string]any
	err      error
}

func (f *fakeQueue) Enqueue(_ context.Context, name string, payload any) error {
	typed, _ := payload.(map[string]any)
	f.names = append(f.names, name)
	f.payloads = append(f.payloads, typed)
	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

type serviceFixture struct {
	svc         *Service
	storage     *fakeStorage
	submissions *fakeSubmissions
	answers     *fakeAnswers
	queue       *fakeQueue
}

func newServiceFixture(cfg Config) serviceFixture {
	f := serviceFixture{
		storage:     &fakeStorage{},
		submissions: newFakeSubmissions(),
		answers:     &fakeAnswers{},
		queue:       &fakeQueue{},
	}
	f.svc = NewService(cfg, f.submissions, f.answers, f.storage, f.queue, nil, testLogger())
	f.svc.now = util.FixedClock(time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC))
	return f
}

func TestSubmitStoresClassifiesAndEnqueues(t *testing.T) {
	f := newServiceFixture(Config{})
	payload := `{"MatterTypes":{"Paraquat Matter":{"questions":[{"QuestionText":"Who is the plaintiff?"},{"QuestionText":"Which county?"}]}}}`

	resp, err := f.svc.Submit(context.Background(), SubmitRequest{
		Filename: "complaint 01.pdf",
		MimeType: "application/pdf",
		Content:  []byte("%PDF-1.4"),
		Payload:  payload,
	})
	require.NoError(t, err)

	sub := resp.Submission
	require.Equal(t, CategoryParaquat, sub.Category)
	require.Equal(t, ShapeMatterTypes, sub.Shape)
	require.Equal(t, "complaint_01.pdf", sub.Filename)
	require.Equal(t, sub.ID.String()+"/complaint_01.pdf", sub.StorageKey)
	require.Equal(t, "mem://paraquat/"+sub.ID.String()+"/complaint_01.pdf", sub.Location)
	require.Equal(t, SubmissionStatusPending, sub.Status)
	require.Equal(t, []string{"Who is the plaintiff?", "Which county?"}, questionTexts(sub.Questions))
	require.Equal(t, time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC), sub.CreatedAt)

	require.Len(t, f.storage.puts, 1)
	require.Equal(t, CategoryParaquat, f.storage.puts[0].category)
	require.Contains(t, f.submissions.data, sub.ID)
	require.Equal(t, []string{JobAnswerSubmission}, f.queue.names)
	require.Equal(t, sub.ID.String(), f.queue.payloads[0]["submission_id"])
}

func TestSubmitRejectsUnknownCategoryBeforeStorage(t *testing.T) {
	f := newServiceFixture(Config{})

	_, err := f.svc.Submit(context.Background(), SubmitRequest{
		Filename: "complaint.pdf",
		Content:  []byte("data"),
		Payload:  `["Who is the plaintiff?"]`,
	})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidCategory))
	require.EqualError(t, err, MsgInvalidCategory)
	require.Empty(t, f.storage.puts)
	require.Empty(t, f.submissions.data)
	require.Empty(t, f.queue.names)
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		req     SubmitRequest
		wantMsg string
	}{
		{name: "missing file", req: SubmitRequest{Payload: "Talc Matter"}, wantMsg: MsgMissingFile},
		{name: "missing payload", req: SubmitRequest{Content: []byte("x")}, wantMsg: MsgMissingPayload},
		{name: "file too large", cfg: Config{MaxFileBytes: 2}, req: SubmitRequest{Content: []byte("xyz"), Payload: "Talc Matter"}, wantMsg: MsgFileTooLarge},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(tt.cfg)
			_, err := f.svc.Submit(context.Background(), tt.req)
			require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
			require.EqualError(t, err, tt.wantMsg)
			require.Empty(t, f.storage.puts)
		})
	}
}

func TestSubmitRawPayloadFallsBack(t *testing.T) {
	f := newServiceFixture(Config{})

	resp, err := f.svc.Submit(context.Background(), SubmitRequest{
		Filename: "c.pdf",
		Content:  []byte("x"),
		Payload:  "Talc Matter: what damages are claimed?",
	})
	require.NoError(t, err)
	require.Equal(t, ShapeRaw, resp.Submission.Shape)
	require.Equal(t, []string{"Talc Matter: what damages are claimed?"}, questionTexts(resp.Submission.Questions))
}

func TestSubmitStorageFailure(t *testing.T) {
	f := newServiceFixture(Config{})
	f.storage.err = errors.New("connection refused")

	_, err := f.svc.Submit(context.Background(), SubmitRequest{Filename: "c.pdf", Content: []byte("x"), Payload: "Talc Matter"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeStorage))
	require.Empty(t, f.submissions.data)
}

func TestSubmitKeepsSameNamedUploadsApart(t *testing.T) {
	f := newServiceFixture(Config{})
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, SubmitRequest{Filename: "complaint.pdf", Content: []byte("FIRST complaint"), Payload: "Talc Matter"})
	require.NoError(t, err)
	second, err := f.svc.Submit(ctx, SubmitRequest{Filename: "complaint.pdf", Content: []byte("SECOND complaint"), Payload: "Talc Matter"})
	require.NoError(t, err)

	require.NotEqual(t, first.Submission.StorageKey, second.Submission.StorageKey)
	require.Equal(t, "complaint.pdf", first.Submission.Filename)
	require.Equal(t, "FIRST complaint", readStored(t, f.storage, first.Submission))
	require.Equal(t, "SECOND complaint", readStored(t, f.storage, second.Submission))
}

func TestSubmitRemovesFileWhenPersistFails(t *testing.T) {
	f := newServiceFixture(Config{})
	f.submissions.err = errors.New("connection reset")

	_, err := f.svc.Submit(context.Background(), SubmitRequest{Filename: "c.pdf", Content: []byte("x"), Payload: "Talc Matter"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeStorage))
	require.Len(t, f.storage.puts, 1)
	require.Equal(t, []string{blobKey(CategoryTalc, f.storage.puts[0].key)}, f.storage.deletes)
	require.Empty(t, f.storage.blobs)
	require.Empty(t, f.queue.names)
}

func TestSubmitReportsPersistFailureWhenCleanupFails(t *testing.T) {
	f := newServiceFixture(Config{})
	f.submissions.err = errors.New("connection reset")
	f.storage.deleteErr = errors.New("bucket unavailable")

	_, err := f.svc.Submit(context.Background(), SubmitRequest{Filename: "c.pdf", Content: []byte("x"), Payload: "Talc Matter"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeStorage))
	require.Equal(t, "failed to persist submission", apperrors.MessageOf(err))
	require.Len(t, f.storage.deletes, 1)
}

func readStored(t *testing.T, storage *fakeStorage, sub Submission) string {
	t.Helper()
	reader, err := storage.Get(context.Background(), sub.Category, sub.StorageKey)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	return string(data)
}

func TestSubmitIgnoresEnqueueFailure(t *testing.T) {
	f := newServiceFixture(Config{})
	f.queue.err = errors.New("valkey down")

	resp, err := f.svc.Submit(context.Background(), SubmitRequest{Filename: "c.pdf", Content: []byte("x"), Payload: "Talc Matter"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, resp.Submission.ID)
}

func TestPreview(t *testing.T) {
	f := newServiceFixture(Config{})

	resp, err := f.svc.Preview(`[{"QuestionText":"Glyphosate Matter: venue?"}]`)
	require.NoError(t, err)
	require.Equal(t, CategoryGlyphosate, resp.Category)
	require.Equal(t, ShapeDirectList, resp.Shape)
	require.Len(t, resp.Questions, 1)

	_, err = f.svc.Preview("nothing relevant")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidCategory))

	_, err = f.svc.Preview("")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestListAnswersUnknownSubmission(t *testing.T) {
	f := newServiceFixture(Config{})

	_, err := f.svc.ListAnswers(context.Background(), uuid.New())
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestListSubmissionsRejectsUnknownCategory(t *testing.T) {
	f := newServiceFixture(Config{})

	_, err := f.svc.ListSubmissions(context.Background(), SubmissionFilter{Category: "asbestos"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestSanitizeFilename(t *testing.T) {
	require.Equal(t, "complaint.pdf", sanitizeFilename("  "))
	require.Equal(t, "evil.pdf", sanitizeFilename("../../evil.pdf"))
	require.Equal(t, "a_b.pdf", sanitizeFilename(`C:\docs\a b.pdf`))
}

func TestStorageKeyScopesBySubmission(t *testing.T) {
	id := uuid.MustParse("0b6f3c1e-7d2a-4c55-9e5b-2f1d8a9c4e10")
	require.Equal(t, "0b6f3c1e-7d2a-4c55-9e5b-2f1d8a9c4e10/complaint.pdf", storageKey(id, "complaint.pdf"))
}
