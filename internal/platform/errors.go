package platform

import (
	"encoding/json"
	"fmt"
)

// graphErrorBody is the provider's structured error envelope.
type graphErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
		Subcode int    `json:"error_subcode"`
		TraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// RateLimitedError indicates the provider throttled the request
// (codes 4, 17, 32, 613).
type RateLimitedError struct {
	Code    int
	Message string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("platform rate limited (code %d): %s", e.Code, e.Message)
}

// TokenExpiredError indicates the access token was rejected (code 190).
type TokenExpiredError struct {
	Message string
}

func (e *TokenExpiredError) Error() string {
	return fmt.Sprintf("platform token expired: %s", e.Message)
}

// APIError is any other provider error, carrying the raw message.
type APIError struct {
	StatusCode int
	Code       int
	Subcode    int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform error (http %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

// classifyError inspects a non-2xx response body and returns the
// matching typed error. An undecodable body still yields an APIError
// with the raw text.
func classifyError(statusCode int, body []byte) error {
	var envelope graphErrorBody
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Message == "" {
		return &APIError{StatusCode: statusCode, Message: string(body)}
	}

	switch envelope.Error.Code {
	case 4, 17, 32, 613:
		return &RateLimitedError{Code: envelope.Error.Code, Message: envelope.Error.Message}
	case 190:
		return &TokenExpiredError{Message: envelope.Error.Message}
	}

	return &APIError{
		StatusCode: statusCode,
		Code:       envelope.Error.Code,
		Subcode:    envelope.Error.Subcode,
		Message:    envelope.Error.Message,
	}
}
