// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bricesuazo/eboto-sub002/models"
)

// HTTPError is an error that already knows how it should be answered
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError builds an HTTPError
func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{Status: status, Message: message}
}

func BadRequest(message string) *HTTPError { return NewHTTPError(http.StatusBadRequest, message) }
func Unauthorized(message string) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message)
}
func Forbidden(message string) *HTTPError { return NewHTTPError(http.StatusForbidden, message) }
func NotFound(message string) *HTTPError  { return NewHTTPError(http.StatusNotFound, message) }
func Conflict(message string) *HTTPError  { return NewHTTPError(http.StatusConflict, message) }

var errInternal = NewHTTPError(http.StatusInternalServerError, "Internal server error")

// WriteError answers err. HTTPErrors keep their status; anything else is
// logged and answered with 500 so storage details never reach clients.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		httpErr = errInternal
	}
	JSONResponse(w, httpErr.Status, models.ErrorResponse{
		Error:   http.StatusText(httpErr.Status),
		Message: httpErr.Message,
	})
}

// ErrorResponse answers with status and message directly
func ErrorResponse(w http.ResponseWriter, status int, message string) {
	WriteError(w, nil, NewHTTPError(status, message))
}
