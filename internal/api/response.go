// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/larder/internal/logging"
	"github.com/tomtom215/larder/internal/models"
	"github.com/tomtom215/larder/internal/validation"
)

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends v as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// respondError sends an APIError. A non-nil err is logged with the request
// context; it is never shown to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, detail string, err error) {
	if err != nil {
		respondErrorLog(r, code, err)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Token")
	}
	respondJSON(w, status, &models.APIError{Detail: detail, Code: code})
}

// respondErrorLog logs err against the request without answering.
func respondErrorLog(r *http.Request, code string, err error) {
	logging.Ctx(r.Context()).Error().
		Str("code", code).
		Str("method", r.Method).
		Str("path", sanitizeLogValue(r.URL.Path)).
		Str("error", sanitizeLogValue(err.Error())).
		Msg("API error")
}

func respondInternal(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, http.StatusInternalServerError, codeInternal, detailInternal, err)
}

func respondNotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, codeNotFound, detailNotFound, nil)
}

func respondBadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	respondError(w, r, http.StatusBadRequest, codeBadRequest, detail, nil)
}

func respondValidation(w http.ResponseWriter, ve *validation.RequestValidationError) {
	respondJSON(w, http.StatusBadRequest, ve.ToAPIError())
}

// decodeJSON reads the request body into dst, answering 400 or 413 itself
// when it cannot.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	defer body.Close()

	decoder := json.NewDecoder(body)
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			respondError(w, r, http.StatusRequestEntityTooLarge, codeTooLarge, detailBodyTooLarge, nil)
		case errors.Is(err, io.EOF):
			respondBadRequest(w, r, detailMalformedBody+" The body is empty.")
		default:
			respondBadRequest(w, r, detailMalformedBody)
		}
		return false
	}
	return true
}
