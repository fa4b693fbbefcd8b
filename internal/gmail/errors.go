package gmail

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// ErrReauthRequired signals that the stored credentials were rejected and
// the user must repeat the authorization grant.
var ErrReauthRequired = errors.New("re-authentication required")

// IsReauthError classifies an error from the Gmail API or the token
// endpoint as an authentication failure: the reauth sentinel, known OAuth
// error codes, HTTP 401, or HTTP 403 with an authentication-flavored
// message.
func IsReauthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrReauthRequired) {
		return true
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.ErrorCode == "invalid_grant" || retrieveErr.ErrorCode == "invalid_token" {
			return true
		}
		if retrieveErr.Response != nil && retrieveErr.Response.StatusCode == http.StatusUnauthorized {
			return true
		}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized {
			return true
		}
		if apiErr.Code == http.StatusForbidden {
			msg := strings.ToLower(apiErr.Message)
			if strings.Contains(msg, "invalid") || strings.Contains(msg, "authentication") {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "invalid_grant") || strings.Contains(msg, "invalid_token") {
		return true
	}
	return strings.Contains(msg, "authenticate")
}
