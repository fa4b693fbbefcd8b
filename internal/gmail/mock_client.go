package gmail

import (
	"context"

	"mailnick/internal/model"
)

// MockClient is a mock mail service for testing.
type MockClient struct {
	ListUnreadIDsFunc func(ctx context.Context, accountID string, max int64) ([]string, error)
	FetchMessageFunc  func(ctx context.Context, accountID, messageID string) (*model.Email, error)
	ModifyLabelsFunc  func(ctx context.Context, accountID, messageID string, addLabelIDs, removeLabelIDs []string) error
	TrashFunc         func(ctx context.Context, accountID, messageID string) error
	UntrashFunc       func(ctx context.Context, accountID, messageID string) error
	EnsureLabelFunc   func(ctx context.Context, accountID, labelName string) (string, error)
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) ListUnreadIDs(ctx context.Context, accountID string, max int64) ([]string, error) {
	if m.ListUnreadIDsFunc != nil {
		return m.ListUnreadIDsFunc(ctx, accountID, max)
	}
	return nil, nil
}

func (m *MockClient) FetchMessage(ctx context.Context, accountID, messageID string) (*model.Email, error) {
	if m.FetchMessageFunc != nil {
		return m.FetchMessageFunc(ctx, accountID, messageID)
	}
	return nil, nil
}

func (m *MockClient) ModifyLabels(ctx context.Context, accountID, messageID string, addLabelIDs, removeLabelIDs []string) error {
	if m.ModifyLabelsFunc != nil {
		return m.ModifyLabelsFunc(ctx, accountID, messageID, addLabelIDs, removeLabelIDs)
	}
	return nil
}

func (m *MockClient) Trash(ctx context.Context, accountID, messageID string) error {
	if m.TrashFunc != nil {
		return m.TrashFunc(ctx, accountID, messageID)
	}
	return nil
}

func (m *MockClient) Untrash(ctx context.Context, accountID, messageID string) error {
	if m.UntrashFunc != nil {
		return m.UntrashFunc(ctx, accountID, messageID)
	}
	return nil
}

func (m *MockClient) EnsureLabel(ctx context.Context, accountID, labelName string) (string, error) {
	if m.EnsureLabelFunc != nil {
		return m.EnsureLabelFunc(ctx, accountID, labelName)
	}
	return "Label_mock", nil
}
