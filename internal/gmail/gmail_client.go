package gmail

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"mailnick/internal/logger"
	"mailnick/internal/model"
	"mailnick/internal/repository"
)

// Scopes requested during the OAuth grant.
var Scopes = []string{
	gmailv1.GmailReadonlyScope,
	gmailv1.GmailModifyScope,
	gmailv1.GmailLabelsScope,
}

const gmailUser = "me"

// Client talks to the Gmail API on behalf of stored accounts. Tokens are
// loaded per call from the account repository, refreshed when expired, and
// refreshed values are persisted back.
type Client struct {
	accounts repository.AccountRepository
	oauthCfg *oauth2.Config
	logger   *logger.Logger
}

func NewClient(accounts repository.AccountRepository, clientID, clientSecret, redirectURL string, logger *logger.Logger) *Client {
	return &Client{
		accounts: accounts,
		oauthCfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       Scopes,
			Endpoint:     google.Endpoint,
		},
		logger: logger,
	}
}

// OAuthConfig exposes the shared OAuth2 configuration for the login flow.
func (c *Client) OAuthConfig() *oauth2.Config {
	return c.oauthCfg
}

func (c *Client) serviceFor(ctx context.Context, accountID string) (*gmailv1.Service, error) {
	account, err := c.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("no stored credentials for account %s: %w", accountID, ErrReauthRequired)
		}
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  account.AccessToken,
		RefreshToken: account.RefreshToken,
		Expiry:       account.TokenExpiry,
	}
	source := &persistingTokenSource{
		base:     c.oauthCfg.TokenSource(ctx, token),
		accounts: c.accounts,
		account:  account,
		logger:   c.logger,
	}

	svc, err := gmailv1.NewService(ctx, option.WithTokenSource(oauth2.ReuseTokenSource(token, source)))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return svc, nil
}

// persistingTokenSource refreshes through the wrapped source and writes any
// new access token back to the account repository, mirroring the stored
// expiry so later calls skip the refresh.
type persistingTokenSource struct {
	base     oauth2.TokenSource
	accounts repository.AccountRepository
	account  *model.Account
	logger   *logger.Logger
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		if IsReauthError(err) {
			return nil, fmt.Errorf("token refresh rejected: %w", ErrReauthRequired)
		}
		return nil, err
	}

	if token.AccessToken != s.account.AccessToken {
		s.account.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			s.account.RefreshToken = token.RefreshToken
		}
		s.account.TokenExpiry = token.Expiry
		if err := s.accounts.Upsert(context.Background(), s.account); err != nil {
			s.logger.Error("Failed to persist refreshed token:", err)
		}
	}
	return token, nil
}

func (c *Client) ListUnreadIDs(ctx context.Context, accountID string, max int64) ([]string, error) {
	svc, err := c.serviceFor(ctx, accountID)
	if err != nil {
		return nil, err
	}
	list, err := svc.Users.Messages.List(gmailUser).Q("is:unread").MaxResults(max).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list unread messages: %w", err)
	}
	ids := make([]string, 0, len(list.Messages))
	for _, msg := range list.Messages {
		if msg.Id != "" {
			ids = append(ids, msg.Id)
		}
	}
	return ids, nil
}

func (c *Client) FetchMessage(ctx context.Context, accountID, messageID string) (*model.Email, error) {
	svc, err := c.serviceFor(ctx, accountID)
	if err != nil {
		return nil, err
	}
	msg, err := svc.Users.Messages.Get(gmailUser, messageID).
		Format("metadata").
		MetadataHeaders("From", "To", "Subject", "Date").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", messageID, err)
	}

	var from, to, subject, dateHeader string
	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch header.Name {
			case "From":
				from = header.Value
			case "To":
				to = header.Value
			case "Subject":
				subject = header.Value
			case "Date":
				dateHeader = header.Value
			}
		}
	}

	receivedAt := time.Unix(msg.InternalDate/1000, 0)
	if dateHeader != "" {
		if parsed, err := mail.ParseDate(dateHeader); err == nil {
			receivedAt = parsed
		}
	}

	email := model.NewEmail(accountID, messageID, msg.ThreadId, from, to, subject, msg.Snippet, receivedAt)
	email.IsUnread = containsLabel(msg.LabelIds, "UNREAD")
	email.LabelIDs = msg.LabelIds
	return email, nil
}

func (c *Client) ModifyLabels(ctx context.Context, accountID, messageID string, addLabelIDs, removeLabelIDs []string) error {
	svc, err := c.serviceFor(ctx, accountID)
	if err != nil {
		return err
	}
	req := &gmailv1.ModifyMessageRequest{
		AddLabelIds:    addLabelIDs,
		RemoveLabelIds: removeLabelIDs,
	}
	if _, err := svc.Users.Messages.Modify(gmailUser, messageID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("modify message %s: %w", messageID, err)
	}
	return nil
}

func (c *Client) Trash(ctx context.Context, accountID, messageID string) error {
	svc, err := c.serviceFor(ctx, accountID)
	if err != nil {
		return err
	}
	if _, err := svc.Users.Messages.Trash(gmailUser, messageID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("trash message %s: %w", messageID, err)
	}
	return nil
}

func (c *Client) Untrash(ctx context.Context, accountID, messageID string) error {
	svc, err := c.serviceFor(ctx, accountID)
	if err != nil {
		return err
	}
	if _, err := svc.Users.Messages.Untrash(gmailUser, messageID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("untrash message %s: %w", messageID, err)
	}
	return nil
}

// EnsureLabel finds a label by name (case-insensitive) or creates it, and
// returns the label id.
func (c *Client) EnsureLabel(ctx context.Context, accountID, labelName string) (string, error) {
	svc, err := c.serviceFor(ctx, accountID)
	if err != nil {
		return "", err
	}

	list, err := svc.Users.Labels.List(gmailUser).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("list labels: %w", err)
	}
	for _, label := range list.Labels {
		if strings.EqualFold(label.Name, labelName) && label.Id != "" {
			return label.Id, nil
		}
	}

	created, err := svc.Users.Labels.Create(gmailUser, &gmailv1.Label{
		Name:                  labelName,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create label %q: %w", labelName, err)
	}
	if created.Id == "" {
		return "", fmt.Errorf("create label %q: empty id in response", labelName)
	}
	c.logger.Info("Created Gmail label:", labelName, created.Id)
	return created.Id, nil
}

func containsLabel(labelIDs []string, id string) bool {
	for _, labelID := range labelIDs {
		if labelID == id {
			return true
		}
	}
	return false
}
