package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yanqian/complaint-intake/internal/domain/intake"
)

// SubmitComplaint handles the multipart upload of a complaint file and its question payload.
func (h *Handler) SubmitComplaint(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abort(c, newAPIError(http.StatusRequestEntityTooLarge, "invalid_request", intake.MsgFileTooLarge, err))
			return
		}
		abort(c, newAPIError(http.StatusBadRequest, "invalid_request", intake.MsgMissingFile, err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		abort(c, newAPIError(http.StatusBadRequest, "invalid_request", "failed to read upload", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		abort(c, newAPIError(http.StatusInternalServerError, "submit_failed", "failed to read file", err))
		return
	}

	resp, err := h.intakeSvc.Submit(c.Request.Context(), intake.SubmitRequest{
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  data,
		Payload:  c.PostForm("data"),
	})
	if err != nil {
		abort(c, fromDomain(err, "submit_failed"))
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

type previewPayload struct {
	Data json.RawMessage `json:"data"`
}

// PreviewComplaint classifies and normalizes a payload without storing anything.
func (h *Handler) PreviewComplaint(c *gin.Context) {
	payload, err := readPreviewPayload(c)
	if err != nil {
		abort(c, newAPIError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.intakeSvc.Preview(payload)
	if err != nil {
		abort(c, fromDomain(err, "preview_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// readPreviewPayload accepts {"data": "<payload>"}, {"data": <json>} or a form field named data.
func readPreviewPayload(c *gin.Context) (string, error) {
	if !strings.HasPrefix(c.ContentType(), "application/json") {
		return c.PostForm("data"), nil
	}
	var body previewPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		return "", err
	}
	if len(body.Data) == 0 || string(body.Data) == "null" {
		return "", nil
	}
	var asString string
	if err := json.Unmarshal(body.Data, &asString); err == nil {
		return asString, nil
	}
	return string(body.Data), nil
}

// ListComplaints returns submissions filtered by category and status.
func (h *Handler) ListComplaints(c *gin.Context) {
	filter := intake.SubmissionFilter{
		Category: intake.CategoryID(strings.TrimSpace(c.Query("category"))),
		Statuses: parseStatuses(c.Query("status")),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			abort(c, newAPIError(http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer", err))
			return
		}
		filter.Limit = limit
	}
	subs, err := h.intakeSvc.ListSubmissions(c.Request.Context(), filter)
	if err != nil {
		abort(c, fromDomain(err, "fetch_failed"))
		return
	}
	if subs == nil {
		subs = []intake.Submission{}
	}
	c.JSON(http.StatusOK, gin.H{"items": subs})
}

// GetComplaint returns a single submission.
func (h *Handler) GetComplaint(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	sub, err := h.intakeSvc.GetSubmission(c.Request.Context(), id)
	if err != nil {
		abort(c, fromDomain(err, "fetch_failed"))
		return
	}
	c.JSON(http.StatusOK, sub)
}

// ListComplaintAnswers returns the answers recorded for a submission.
func (h *Handler) ListComplaintAnswers(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	answers, err := h.intakeSvc.ListAnswers(c.Request.Context(), id)
	if err != nil {
		abort(c, fromDomain(err, "fetch_failed"))
		return
	}
	if answers == nil {
		answers = []intake.Answer{}
	}
	c.JSON(http.StatusOK, gin.H{"items": answers})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abort(c, newAPIError(http.StatusBadRequest, "invalid_request", "invalid submission id", err))
		return uuid.Nil, false
	}
	return id, true
}

func parseStatuses(raw string) []intake.SubmissionStatus {
	var out []intake.SubmissionStatus
	for _, part := range strings.Split(raw, ",") {
		if status, ok := intake.ParseSubmissionStatus(part); ok {
			out = append(out, status)
		}
	}
	return out
}
