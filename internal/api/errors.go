// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package api

// Machine readable error codes carried in models.APIError.Code.
const (
	codeValidation       = "VALIDATION_ERROR"
	codeBadRequest       = "BAD_REQUEST"
	codeNotAuthenticated = "NOT_AUTHENTICATED"
	codeInvalidToken     = "INVALID_TOKEN"
	codeForbidden        = "FORBIDDEN"
	codeNotFound         = "NOT_FOUND"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	codeTooLarge         = "PAYLOAD_TOO_LARGE"
	codeRateLimited      = "RATE_LIMITED"
	codeInternal         = "INTERNAL_ERROR"
	codeUnavailable      = "SERVICE_UNAVAILABLE"
)

// Details returned to clients.
const (
	detailNotFound         = "Not found."
	detailInvalidPage      = "Invalid page."
	detailNotAuthenticated = "Authentication credentials were not provided."
	detailInvalidToken     = "Invalid token."
	detailForbidden        = "You do not have permission to perform this action."
	detailInternal         = "A server error occurred."
	detailMalformedBody    = "Malformed JSON request body."
	detailBodyTooLarge     = "Request body is too large."
	detailRateLimited      = "Request was throttled."
	detailBadCredentials   = "Unable to log in with provided credentials."
)
