// Package types provides type definitions for structured data used throughout the resume-builder system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"time"
)

// ChatRole identifies who authored a chat turn
type ChatRole string

const (
	// RoleUser is a turn typed by the user
	RoleUser ChatRole = "user"
	// RoleAssistant is a turn produced by the assistant
	RoleAssistant ChatRole = "assistant"
)

// ChatTurn is one message in the chat log
type ChatTurn struct {
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatRequest is sent to the chat/completion collaborator
type ChatRequest struct {
	ResumeID         string          `json:"resumeId"`
	UserMessage      string          `json:"userMessage"`
	ResumeData       *ResumeDocument `json:"resumeData"`
	ChatLog          []ChatTurn      `json:"chatLog"`
	AssistantContext string          `json:"assistantContext,omitempty"`
	PromptTemplate   string          `json:"promptTemplate,omitempty"`
}

// ChatResponse is returned by the chat/completion collaborator.
// JSON may hold an object, a JSON-encoded string or a one-element array.
// Content is the field name older deployments used instead of Message.
type ChatResponse struct {
	Message string          `json:"message"`
	JSON    json.RawMessage `json:"json,omitempty"`
	Content string          `json:"content,omitempty"`
}

// Text returns the conversational part of the response
func (r *ChatResponse) Text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Content
}
