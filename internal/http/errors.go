package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ctam-data/internal/backend"
	"ctam-data/internal/domain"
	"ctam-data/internal/resilience"
	"ctam-data/internal/service"
	"ctam-data/internal/workflow"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, workflow.ErrCommentRequired),
		errors.Is(err, workflow.ErrInvalidSection), errors.Is(err, errBadJSON):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInactive), errors.Is(err, workflow.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrBackendUnavailable),
		errors.Is(err, backend.ErrUnauthorized):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError logs server-side failures; client errors are answered quietly.
func writeError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if m := resilience.LocalizedMessage(err); m != "" {
		msg = m
	}
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error(op+" failed", zap.Int("status", status), zap.Error(err))
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	case status == http.StatusConflict:
		logger.Info(op+" rejected", zap.Error(err))
	}
	res := Fail(msg)
	if status == http.StatusUnauthorized && errors.Is(err, service.ErrUnauthenticated) {
		res.Code = ResultTokenExpired
	}
	writeJSON(w, status, res)
}
