package ingest

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// expirySkew is the buffer before actual expiry at which a token is treated
// as expired. Refreshing ahead of time avoids mid-sync auth failures.
const expirySkew = 5 * time.Minute

var googleEndpoint = google.Endpoint

// NeedsRefresh reports whether the token is expired or expiring within the
// skew buffer.
func NeedsRefresh(expiry time.Time, now time.Time) bool {
	return !expiry.After(now.Add(expirySkew))
}

// RefreshToken exchanges the refresh token for a fresh access token using
// the Google OAuth endpoint.
func RefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (*oauth2.Token, error) {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     googleEndpoint,
	}

	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return token, nil
}
