package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/complaint-intake/pkg/errors"
)

// apiError is the transport view of a failure: status, stable code and caller-facing message.
type apiError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *apiError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *apiError) Unwrap() error {
	return e.Err
}

func newAPIError(status int, code, message string, err error) *apiError {
	return &apiError{Status: status, Code: code, Message: message, Err: err}
}

// fromDomain maps service errors onto transport errors. fallback names unexpected failures.
func fromDomain(err error, fallback string) *apiError {
	code := apperrors.CodeOf(err)
	message := apperrors.MessageOf(err)
	switch code {
	case apperrors.CodeInvalidInput:
		return newAPIError(http.StatusBadRequest, "invalid_request", message, err)
	case apperrors.CodeInvalidCategory:
		return newAPIError(http.StatusBadRequest, code, message, err)
	case apperrors.CodeNotFound:
		return newAPIError(http.StatusNotFound, code, message, err)
	case apperrors.CodeUnauthorized:
		return newAPIError(http.StatusUnauthorized, code, message, err)
	case apperrors.CodeInvalidToken:
		return newAPIError(http.StatusForbidden, code, message, err)
	case apperrors.CodeStorage, apperrors.CodeQueue, apperrors.CodeLLM:
		return newAPIError(http.StatusBadGateway, fallback, message, err)
	default:
		return newAPIError(http.StatusInternalServerError, fallback, errMessage(err), err)
	}
}

func toAPIError(err error) *apiError {
	if err == nil {
		return nil
	}
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "something went wrong", err)
}

// abort records err for errorHandlingMiddleware and stops the chain.
func abort(c *gin.Context, err *apiError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func renderError(c *gin.Context, err *apiError) {
	message := err.Message
	if message == "" {
		message = err.Error()
	}
	c.JSON(err.Status, gin.H{
		"error": gin.H{
			"code":    err.Code,
			"message": message,
		},
	})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
