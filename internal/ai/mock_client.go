package ai

import (
	"context"

	"mailnick/internal/model"
	"mailnick/internal/service"
)

// MockAIClient is a mock implementation of AIClient for testing
type MockAIClient struct {
	AvailableFunc   func() bool
	GroupEmailsFunc func(ctx context.Context, emails []*model.Email) ([]service.SuggestedGroup, error)
}

func NewMockAIClient() *MockAIClient {
	return &MockAIClient{}
}

func (m *MockAIClient) Available() bool {
	if m.AvailableFunc != nil {
		return m.AvailableFunc()
	}
	return true
}

func (m *MockAIClient) GroupEmails(ctx context.Context, emails []*model.Email) ([]service.SuggestedGroup, error) {
	if m.GroupEmailsFunc != nil {
		return m.GroupEmailsFunc(ctx, emails)
	}

	// Default mock behavior: one group holding everything
	if len(emails) == 0 {
		return nil, nil
	}
	ids := make([]string, len(emails))
	for i, e := range emails {
		ids[i] = e.ID
	}
	return []service.SuggestedGroup{
		{Name: "All", EmailIDs: ids, SuggestedAction: "keep", Reason: "mock"},
	}, nil
}
