package llm

import "fmt"

// APICallError represents a failed request to the LLM provider
type APICallError struct {
	Message    string
	StatusCode int
	Cause      error
}

func (e *APICallError) Error() string {
	msg := "API call failed: " + e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// ResponseError represents provider output that cannot be used
type ResponseError struct {
	Message string
	Cause   error
}

func (e *ResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unusable model response: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("unusable model response: %s", e.Message)
}

func (e *ResponseError) Unwrap() error {
	return e.Cause
}
