// Larder - Recipe Sharing Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/larder

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/larder/internal/models"
)

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var (
	usernamePattern  = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern      = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	imageDataPattern = regexp.MustCompile(`^data:image/(png|jpeg|jpg|gif|webp);base64,[A-Za-z0-9+/]+={0,2}$`)
)

// ValidationError is a single field failure.
type ValidationError struct {
	field   string
	tag     string
	param   string
	message string
}

// Field returns the JSON path of the failing field, e.g. "ingredients[1].amount".
func (e *ValidationError) Field() string { return e.field }

// Tag returns the validation tag that failed.
func (e *ValidationError) Tag() string { return e.tag }

// Param returns the tag parameter ("256" for "max=256").
func (e *ValidationError) Param() string { return e.param }

func (e *ValidationError) Error() string { return e.message }

// RequestValidationError collects every failure of one request.
type RequestValidationError struct {
	errors []ValidationError
}

// NewFieldError starts a RequestValidationError with a single message.
func NewFieldError(field, message string) *RequestValidationError {
	ve := &RequestValidationError{}
	ve.Add(field, message)
	return ve
}

// Add appends a failure found outside the struct tags.
func (ve *RequestValidationError) Add(field, message string) {
	ve.errors = append(ve.errors, ValidationError{field: field, tag: "custom", message: message})
}

// Errors returns the collected failures in discovery order.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errors
}

func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, 0, len(ve.errors))
	for _, err := range ve.errors {
		messages = append(messages, fmt.Sprintf("%s: %s", err.field, err.message))
	}
	return strings.Join(messages, "; ")
}

// FieldErrors groups messages by field.
func (ve *RequestValidationError) FieldErrors() map[string][]string {
	out := make(map[string][]string, len(ve.errors))
	for _, err := range ve.errors {
		out[err.field] = append(out[err.field], err.message)
	}
	return out
}

// ToAPIError converts the failures to the API error body.
func (ve *RequestValidationError) ToAPIError() *models.APIError {
	apiErr := &models.APIError{
		Detail: "Validation failed",
		Code:   "VALIDATION_ERROR",
	}
	if len(ve.errors) == 0 {
		return apiErr
	}
	apiErr.Errors = ve.FieldErrors()
	if len(ve.errors) == 1 {
		apiErr.Detail = ve.errors[0].message
		return apiErr
	}
	fields := make([]string, 0, len(apiErr.Errors))
	for f := range apiErr.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	apiErr.Detail = "Validation failed: " + strings.Join(fields, ", ")
	return apiErr
}

// GetValidator returns the shared validator, building it on first use.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		mustRegister("username", matchString(usernamePattern))
		mustRegister("slug", matchString(slugPattern))
		mustRegister("imagedata", matchString(imageDataPattern))
	})

	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

func matchString(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// ValidateStruct validates s. It returns nil when s is valid.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return NewFieldError("non_field_errors", err.Error())
	}

	fieldErrors := make([]ValidationError, len(validationErrs))
	for i, fe := range validationErrs {
		fieldErrors[i] = ValidationError{
			field:   fieldPath(fe),
			tag:     fe.Tag(),
			param:   fe.Param(),
			message: translateError(fe),
		}
	}
	return &RequestValidationError{errors: fieldErrors}
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

var errorMessageTemplates = map[string]string{
	"required":  "This field is required.",
	"email":     "Enter a valid email address.",
	"username":  "Enter a valid username. It may contain only letters, numbers, and @/./+/-/_ characters.",
	"slug":      "Enter a valid slug consisting of letters, numbers, underscores or hyphens.",
	"imagedata": "Upload a valid image as a base64 data URI.",
	"unique":    "Duplicate values are not allowed.",
}

var errorMessageWithParam = map[string]string{
	"oneof": "Must be one of: %s.",
	"gte":   "Ensure this value is greater than or equal to %s.",
	"lte":   "Ensure this value is less than or equal to %s.",
	"gt":    "Ensure this value is greater than %s.",
	"lt":    "Ensure this value is less than %s.",
}

func translateError(fe validator.FieldError) string {
	tag := fe.Tag()
	if template, ok := errorMessageTemplates[tag]; ok {
		return template
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, fe.Param())
	}
	return translateMinMax(fe, tag, fe.Param())
}

// translateMinMax words min/max by kind: characters for strings, items for
// slices, plain values otherwise.
func translateMinMax(fe validator.FieldError, tag, param string) string {
	kind := fe.Kind()
	switch tag {
	case "min":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("Ensure this field has at least %s characters.", param)
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("Ensure this field has at least %s items.", param)
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", param)
	case "max":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("Ensure this field has no more than %s characters.", param)
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("Ensure this field has no more than %s items.", param)
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", param)
	default:
		return fmt.Sprintf("Failed %s validation.", tag)
	}
}
