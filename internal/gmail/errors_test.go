package gmail

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

func TestIsReauthError(t *testing.T) {
	assert.False(t, IsReauthError(nil))
	assert.False(t, IsReauthError(errors.New("connection refused")))

	assert.True(t, IsReauthError(ErrReauthRequired))
	assert.True(t, IsReauthError(fmt.Errorf("load token: %w", ErrReauthRequired)))

	// OAuth token endpoint rejections
	assert.True(t, IsReauthError(&oauth2.RetrieveError{ErrorCode: "invalid_grant"}))
	assert.True(t, IsReauthError(&oauth2.RetrieveError{ErrorCode: "invalid_token"}))
	assert.True(t, IsReauthError(&oauth2.RetrieveError{
		Response: &http.Response{StatusCode: http.StatusUnauthorized},
	}))
	assert.False(t, IsReauthError(&oauth2.RetrieveError{
		ErrorCode: "temporarily_unavailable",
		Response:  &http.Response{StatusCode: http.StatusServiceUnavailable},
	}))

	// Gmail API rejections
	assert.True(t, IsReauthError(&googleapi.Error{Code: http.StatusUnauthorized}))
	assert.True(t, IsReauthError(&googleapi.Error{Code: http.StatusForbidden, Message: "Invalid Credentials"}))
	assert.True(t, IsReauthError(&googleapi.Error{Code: http.StatusForbidden, Message: "Authentication backend error"}))
	assert.False(t, IsReauthError(&googleapi.Error{Code: http.StatusForbidden, Message: "Rate limit exceeded"}))
	assert.False(t, IsReauthError(&googleapi.Error{Code: http.StatusInternalServerError}))

	// string-level fallbacks
	assert.True(t, IsReauthError(errors.New("oauth2: invalid_grant")))
	assert.True(t, IsReauthError(errors.New("please authenticate again")))
}
