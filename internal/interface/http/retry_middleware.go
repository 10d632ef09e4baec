package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/complaint-intake/internal/infra/config"
)

const (
	replayBodyLimit    = 1 << 20
	attemptsHeader     = "X-Intake-Attempts"
	multipartMediaType = "multipart/"
)

var errReplayBodyTooLarge = errors.New("request body exceeds retry limit")

// replayer re-runs JSON POST requests whose handler answered with a 5xx.
type replayer struct {
	next        http.Handler
	maxAttempts int
	backoff     time.Duration
	exclusions  map[string]struct{}
	logger      *slog.Logger
	wait        func(ctx context.Context, d time.Duration) error
}

// withRetry wraps handler when retries are enabled. Multipart uploads and excluded paths run once
// so a complaint file is never stored twice.
func withRetry(handler http.Handler, cfg config.RetryConfig, logger *slog.Logger) http.Handler {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return handler
	}
	exclusions := make(map[string]struct{}, len(cfg.Exclude))
	for _, path := range cfg.Exclude {
		exclusions[normalizePath(path)] = struct{}{}
	}
	return &replayer{
		next:        handler,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.BaseBackoff,
		exclusions:  exclusions,
		logger:      logger,
		wait:        sleepContext,
	}
}

func (rp *replayer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !rp.eligible(r) {
		rp.next.ServeHTTP(w, r)
		return
	}
	body, err := bufferBody(r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errReplayBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, err.Error(), status)
		return
	}

	for attempt := 1; ; attempt++ {
		buffered := newBufferedResponse()
		req := r.Clone(r.Context())
		req.Body = io.NopCloser(bytes.NewReader(body))
		req.ContentLength = int64(len(body))
		rp.next.ServeHTTP(buffered, req)

		if buffered.status < http.StatusInternalServerError || attempt == rp.maxAttempts {
			buffered.header.Set(attemptsHeader, strconv.Itoa(attempt))
			buffered.flushTo(w)
			return
		}
		rp.logger.Warn("transient failure, retrying request", "path", r.URL.Path, "status", buffered.status, "attempt", attempt, "max_attempts", rp.maxAttempts)
		if err := rp.wait(r.Context(), rp.backoff*time.Duration(1<<(attempt-1))); err != nil {
			buffered.header.Set(attemptsHeader, strconv.Itoa(attempt))
			buffered.flushTo(w)
			return
		}
	}
}

func (rp *replayer) eligible(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	if _, skip := rp.exclusions[normalizePath(r.URL.Path)]; skip {
		return false
	}
	return !strings.HasPrefix(r.Header.Get("Content-Type"), multipartMediaType)
}

func normalizePath(path string) string {
	return strings.TrimRight(strings.TrimSpace(path), "/")
}

func bufferBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, replayBodyLimit+1))
	if err != nil {
		return nil, err
	}
	if len(data) > replayBodyLimit {
		return nil, errReplayBodyTooLarge
	}
	return data, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// bufferedResponse holds one attempt's response until it is known to be final.
type bufferedResponse struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: make(http.Header), status: http.StatusOK}
}

func (b *bufferedResponse) Header() http.Header {
	return b.header
}

func (b *bufferedResponse) WriteHeader(status int) {
	if b.wroteHeader {
		return
	}
	b.status = status
	b.wroteHeader = true
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	b.wroteHeader = true
	return b.body.Write(p)
}

func (b *bufferedResponse) Flush() {}

func (b *bufferedResponse) flushTo(w http.ResponseWriter) {
	dst := w.Header()
	for k, values := range b.header {
		dst[k] = append([]string(nil), values...)
	}
	w.WriteHeader(b.status)
	if b.body.Len() > 0 {
		_, _ = w.Write(b.body.Bytes())
	}
}
