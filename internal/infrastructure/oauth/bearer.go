package oauth

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// NewBearerClient returns an HTTP client that sends apiKey as a bearer token.
// An empty apiKey yields a client without credentials.
func NewBearerClient(ctx context.Context, apiKey string, timeout time.Duration) *http.Client {
	var client *http.Client
	if apiKey == "" {
		client = &http.Client{}
	} else {
		tokenSource := oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: apiKey,
			TokenType:   "Bearer",
		})
		client = oauth2.NewClient(ctx, tokenSource)
	}
	client.Timeout = timeout
	return client
}
