// Package llm - services.go implements the collaborators the resume builder calls on the model.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/resume-builder/internal/analysis"
	"github.com/jonathan/resume-builder/internal/prompts"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/jonathan/resume-builder/internal/types"
	schemafiles "github.com/jonathan/resume-builder/schemas"
	"github.com/tidwall/gjson"
)

// noJobsText stands in for job descriptions when none are linked
const noJobsText = "(none linked)"

// ChatService answers chat requests
type ChatService struct {
	client Client
}

// NewChatService creates a ChatService
func NewChatService(client Client) *ChatService {
	return &ChatService{client: client}
}

// BuildChatPrompt renders the full prompt for a chat request
func BuildChatPrompt(req *types.ChatRequest) (string, error) {
	resumeJSON, err := json.MarshalIndent(req.ResumeData, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal resume: %w", err)
	}

	var log strings.Builder
	for _, turn := range req.ChatLog {
		fmt.Fprintf(&log, "%s: %s\n", turn.Role, turn.Content)
	}

	system := prompts.MustGet(prompts.ChatFile, "system")
	body := prompts.Format(prompts.MustGet(prompts.ChatFile, "request"), map[string]string{
		"ResumeJSON":       string(resumeJSON),
		"ChatLog":          strings.TrimSpace(log.String()),
		"AssistantContext": req.AssistantContext,
		"PromptTemplate":   req.PromptTemplate,
		"UserMessage":      req.UserMessage,
	})
	return system + "\n\n" + body, nil
}

// Complete sends a chat request to the model
func (s *ChatService) Complete(ctx context.Context, req *types.ChatRequest) (*types.ChatResponse, error) {
	prompt, err := BuildChatPrompt(req)
	if err != nil {
		return nil, err
	}
	raw, err := s.client.GenerateJSON(ctx, prompt, TierStandard)
	if err != nil {
		return nil, err
	}
	return ParseChatReply(raw), nil
}

// ParseChatReply turns model output into a ChatResponse. An object with message, content or
// json keys is the reply envelope. Any other object is taken as the structured payload, and
// anything that is not an object is plain text.
func ParseChatReply(raw string) *types.ChatResponse {
	text := strings.TrimSpace(raw)
	if !gjson.Valid(text) {
		return &types.ChatResponse{Message: text}
	}
	parsed := gjson.Parse(text)
	if !parsed.IsObject() {
		if parsed.Type == gjson.String {
			return &types.ChatResponse{Message: parsed.String()}
		}
		return &types.ChatResponse{Message: text}
	}

	message := parsed.Get("message")
	content := parsed.Get("content")
	payload := parsed.Get("json")
	if !message.Exists() && !content.Exists() && !payload.Exists() {
		return &types.ChatResponse{JSON: json.RawMessage(text)}
	}

	resp := &types.ChatResponse{Message: message.String(), Content: content.String()}
	if payload.Exists() && payload.Type != gjson.Null {
		resp.JSON = json.RawMessage(payload.Raw)
	}
	return resp
}

// Analyzer scores a resume against job descriptions
type Analyzer struct {
	client Client
}

// NewAnalyzer creates an Analyzer
func NewAnalyzer(client Client) *Analyzer {
	return &Analyzer{client: client}
}

// Analyze asks the model for an analysis. It returns the decoded result and its canonical
// JSON encoding for storage.
func (a *Analyzer) Analyze(ctx context.Context, req *types.AnalysisRequest) (*types.AnalysisResult, json.RawMessage, error) {
	resumeJSON, err := json.MarshalIndent(req.ResumeContent, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal resume: %w", err)
	}
	jobs := noJobsText
	if len(req.JobDescriptions) > 0 {
		jobs = strings.Join(req.JobDescriptions, "\n\n---\n\n")
	}

	prompt := prompts.Format(prompts.MustGet(prompts.AnalysisFile, "analyze-resume"), map[string]string{
		"ResumeJSON":      string(resumeJSON),
		"JobDescriptions": jobs,
	})
	raw, err := a.client.GenerateJSON(ctx, prompt, TierAdvanced)
	if err != nil {
		return nil, nil, err
	}

	result, err := analysis.ParseResult([]byte(raw))
	if err != nil {
		return nil, nil, &ResponseError{Message: "analysis result", Cause: err}
	}
	canonical, err := json.Marshal(result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal analysis: %w", err)
	}
	return result, canonical, nil
}

// Structurer turns raw resume text into a document
type Structurer struct {
	client Client
}

// NewStructurer creates a Structurer
func NewStructurer(client Client) *Structurer {
	return &Structurer{client: client}
}

// Structure asks the model to structure text, then checks the result against the resume
// schema, migrates it to the current shape and validates it
func (s *Structurer) Structure(ctx context.Context, text string) (*types.ResumeDocument, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ResponseError{Message: "resume text is empty"}
	}
	prompt := prompts.Format(prompts.MustGet(prompts.StructuringFile, "structure-resume"), map[string]string{
		"Text": text,
	})
	raw, err := s.client.GenerateJSON(ctx, prompt, TierStandard)
	if err != nil {
		return nil, err
	}
	return DecodeStructured(raw)
}

// DecodeStructured validates and decodes a structured resume payload
func DecodeStructured(raw string) (*types.ResumeDocument, error) {
	if err := schemas.ValidateJSONString(schemafiles.Resume, raw); err != nil {
		return nil, err
	}
	doc, err := resume.Decode([]byte(raw))
	if err != nil {
		return nil, err
	}
	if err := resume.Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
