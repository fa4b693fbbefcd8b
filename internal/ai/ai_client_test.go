package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mailnick/internal/logger"
	"mailnick/internal/model"
	"mailnick/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEmails(ids ...string) []*model.Email {
	emails := make([]*model.Email, len(ids))
	for i, id := range ids {
		emails[i] = model.NewEmail("user@example.com", id, "t-"+id, "sender@example.com", "user@example.com", "Subject "+id, "snippet "+id, time.Now())
	}
	return emails
}

func geminiReply(t *testing.T, payload groupingPayload) string {
	t.Helper()
	text, err := json.Marshal(payload)
	require.NoError(t, err)
	reply, err := json.Marshal(geminiResponse{
		Candidates: []geminiCandidate{
			{Content: geminiCandidateContent{Parts: []geminiPart{{Text: string(text)}}}},
		},
	})
	require.NoError(t, err)
	return string(reply)
}

func TestGroupEmailsValidatesResponse(t *testing.T) {
	emails := testEmails("m1", "m2", "m3")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.RawQuery, "key=test-key")
		w.Write([]byte(geminiReply(t, groupingPayload{
			Groups: []service.SuggestedGroup{
				{Name: "Newsletters", EmailIDs: []string{"m1", "made-up"}, SuggestedAction: "archive", Reason: "bulk mail"},
				{Name: "Invented", EmailIDs: []string{"ghost"}, SuggestedAction: "trash"},
				{Name: "Odd", EmailIDs: []string{"m2", "m3"}, SuggestedAction: "snooze"},
			},
		})))
	}))
	defer server.Close()

	client := &aiClient{
		apiKey:     "test-key",
		baseURL:    server.URL,
		model:      defaultModel,
		httpClient: server.Client(),
		logger:     logger.New(),
	}

	groups, err := client.GroupEmails(context.Background(), emails)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// invented id dropped, group of only invented ids dropped entirely
	assert.Equal(t, []string{"m1"}, groups[0].EmailIDs)
	assert.Equal(t, "archive", groups[0].SuggestedAction)

	// unknown suggested action normalized to keep
	assert.Equal(t, []string{"m2", "m3"}, groups[1].EmailIDs)
	assert.Equal(t, "keep", groups[1].SuggestedAction)
}

func TestGroupEmailsErrors(t *testing.T) {
	client := &aiClient{logger: logger.New(), httpClient: &http.Client{}}
	_, err := client.GroupEmails(context.Background(), testEmails("m1", "m2"))
	assert.Error(t, err)
	assert.False(t, client.Available())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	failing := &aiClient{
		apiKey:     "test-key",
		baseURL:    server.URL,
		model:      defaultModel,
		httpClient: server.Client(),
		logger:     logger.New(),
	}
	_, err = failing.GroupEmails(context.Background(), testEmails("m1", "m2"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestBuildGroupingPromptTruncatesSnippets(t *testing.T) {
	emails := testEmails("m1")
	emails[0].Snippet = strings.Repeat("x", 200)

	prompt := buildGroupingPrompt(emails)
	assert.Contains(t, prompt, "id: m1")
	assert.Contains(t, prompt, strings.Repeat("x", maxSnippetLength))
	assert.NotContains(t, prompt, strings.Repeat("x", maxSnippetLength+1))
}
