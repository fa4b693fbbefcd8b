package model

import (
	"time"
)

// Account is a connected Gmail mailbox, identified by its address.
// It owns the OAuth tokens used to act on that mailbox.
type Account struct {
	ID           string    `json:"id"` // Gmail address
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenExpiry  time.Time `json:"token_expiry"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewAccount(address, accessToken, refreshToken string, tokenExpiry time.Time) *Account {
	now := time.Now()
	return &Account{
		ID:           address,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenExpiry:  tokenExpiry,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
