// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeQueryParsingFailed ErrorCode = "QUERY_PARSING_FAILED"

	ErrCodeLLMTimeout       ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMRequestFailed ErrorCode = "LLM_REQUEST_FAILED"

	ErrCodeWeatherFetchFailed ErrorCode = "WEATHER_FETCH_FAILED"
	ErrCodeTableLoadFailed    ErrorCode = "TABLE_LOAD_FAILED"

	ErrCodeUnknownProduct  ErrorCode = "UNKNOWN_PRODUCT"
	ErrCodeUnknownLocation ErrorCode = "UNKNOWN_LOCATION"

	ErrCodeSynthesisFailed     ErrorCode = "SYNTHESIS_FAILED"
	ErrCodeResponseBuildFailed ErrorCode = "RESPONSE_BUILD_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns the error with an extra metadata entry.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid request input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewWeatherFetchFailedError(city string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWeatherFetchFailed,
		Message:   "Weather service unavailable",
		Details:   fmt.Sprintf("city: %s, error: %s", city, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTableLoadFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTableLoadFailed,
		Message:   "Static tables could not be loaded",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewUnknownProductError(product string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownProduct,
		Message:   "Product not in cost table",
		Details:   fmt.Sprintf("product: %s", product),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewUnknownLocationError(location string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownLocation,
		Message:   "Location not in demographics table",
		Details:   fmt.Sprintf("location: %s", location),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewResponseBuildFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResponseBuildFailed,
		Message:   "Advice message could not be rendered",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Classification
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:           "INVALID_INPUT",
	ErrCodeQueryParsingFailed:     "QUERY_PARSING_FAILED",
	ErrCodeLLMTimeout:             "LLM_TIMEOUT",
	ErrCodeLLMRequestFailed:       "LLM_REQUEST_FAILED",
	ErrCodeWeatherFetchFailed:     "WEATHER_FETCH_FAILED",
	ErrCodeTableLoadFailed:        "TABLE_LOAD_FAILED",
	ErrCodeUnknownProduct:         "UNKNOWN_PRODUCT",
	ErrCodeUnknownLocation:        "UNKNOWN_LOCATION",
	ErrCodeSynthesisFailed:        "SYNTHESIS_FAILED",
	ErrCodeResponseBuildFailed:    "RESPONSE_BUILD_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeTableLoadFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeWeatherFetchFailed,
		ErrCodeLLMRequestFailed:
		return 2

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// AsStandardError unwraps err into a StandardError, if it carries one.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "PARSING"):
		return "AI"
	case strings.Contains(codeStr, "WEATHER"):
		return "WEATHER"
	case strings.Contains(codeStr, "TABLE") || strings.Contains(codeStr, "UNKNOWN"):
		return "DATA"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "SYNTHESIS") || strings.Contains(codeStr, "RESPONSE"):
		return "ADVICE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
