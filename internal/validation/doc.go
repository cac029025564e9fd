// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

// Package validation checks request payloads with go-playground/validator v10.
//
// A single validator instance is built once and shared. It reports fields by
// their JSON names so error bodies line up with what the client sent:
//
//	var req models.RecipeWriteRequest
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    respondValidationError(w, verr)
//	    return
//	}
//
// # Custom tags
//
//   - username: letters, digits and . @ + - _
//   - slug: letters, digits, hyphen and underscore
//   - imagedata: a base64 data URI with an image media type
//
// Handlers that find problems the tags cannot express (an unknown ingredient
// id, a missing image on create) add them with RequestValidationError.Add so
// the client still gets one error body per request.
package validation
