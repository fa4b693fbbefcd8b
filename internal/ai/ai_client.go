package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mailnick/internal/logger"
	"mailnick/internal/model"
	"mailnick/internal/service"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash-lite"

	// A grouping call sends at most this many emails to the model.
	maxGroupingEmails = 100
	// Snippets are truncated to keep the prompt small.
	maxSnippetLength = 80
)

type aiClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewAIClient creates a Gemini-backed grouping client. An empty apiKey gives
// a client that reports itself unavailable.
func NewAIClient(apiKey string, logger *logger.Logger) service.AIClient {
	return &aiClient{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

func (a *aiClient) Available() bool {
	return a.apiKey != ""
}

// Gemini API request/response structures
type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content      geminiCandidateContent `json:"content"`
	FinishReason string                 `json:"finishReason"`
}

type geminiCandidateContent struct {
	Parts []geminiPart `json:"parts"`
}

type groupingPayload struct {
	Groups []service.SuggestedGroup `json:"groups"`
}

func (a *aiClient) GroupEmails(ctx context.Context, emails []*model.Email) ([]service.SuggestedGroup, error) {
	if !a.Available() {
		return nil, fmt.Errorf("no AI API key configured")
	}
	if len(emails) > maxGroupingEmails {
		emails = emails[:maxGroupingEmails]
	}

	request := geminiRequest{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: buildGroupingPrompt(emails)}},
			},
		},
		GenerationConfig: &generationConfig{ResponseMimeType: "application/json"},
	}

	text, err := a.makeRequest(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to group emails: %w", err)
	}

	var payload groupingPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	groups := validateGroups(payload.Groups, emails)
	a.logger.Infof("AI grouped %d emails into %d groups", len(emails), len(groups))
	return groups, nil
}

// buildGroupingPrompt lists the emails with id, sender, subject, and a
// shortened snippet, and asks for JSON groups with a batch action each.
func buildGroupingPrompt(emails []*model.Email) string {
	var b strings.Builder
	b.WriteString("You are an email triage assistant. Group the following unread emails into clusters that can be handled with one batch action each.\n\nEmails:\n")
	for _, e := range emails {
		snippet := e.Snippet
		if len(snippet) > maxSnippetLength {
			snippet = snippet[:maxSnippetLength]
		}
		fmt.Fprintf(&b, "- id: %s | from: %s | subject: %s | snippet: %s\n", e.ID, e.From, e.Subject, snippet)
	}
	b.WriteString(`
Respond with JSON only, in this shape:
{"groups":[{"name":"...","emailIds":["..."],"suggestedAction":"archive","reason":"..."}]}

suggestedAction must be one of: archive, trash, mark_read, keep.
Every emailId must come from the list above. Do not invent ids.`)
	return b.String()
}

// validateGroups drops ids the model invented, groups left empty after that,
// and normalizes unknown suggested actions to "keep".
func validateGroups(groups []service.SuggestedGroup, emails []*model.Email) []service.SuggestedGroup {
	known := make(map[string]bool, len(emails))
	for _, e := range emails {
		known[e.ID] = true
	}

	valid := make([]service.SuggestedGroup, 0, len(groups))
	for _, g := range groups {
		ids := make([]string, 0, len(g.EmailIDs))
		for _, id := range g.EmailIDs {
			if known[id] {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			continue
		}
		g.EmailIDs = ids
		switch g.SuggestedAction {
		case "archive", "trash", "mark_read", "keep":
		default:
			g.SuggestedAction = "keep"
		}
		valid = append(valid, g)
	}
	return valid
}

// makeRequest posts to the Gemini generateContent endpoint and returns the
// first candidate's text.
func (a *aiClient) makeRequest(ctx context.Context, request geminiRequest) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.baseURL, a.model, a.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var gemini geminiResponse
	if err := json.Unmarshal(respBody, &gemini); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(gemini.Candidates) == 0 || len(gemini.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates returned from AI")
	}
	return gemini.Candidates[0].Content.Parts[0].Text, nil
}
