package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBearerClient(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	t.Run("sends bearer token", func(t *testing.T) {
		client := NewBearerClient(context.Background(), "secret-key", time.Second)
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "Bearer secret-key", gotAuth)
		assert.Equal(t, time.Second, client.Timeout)
	})

	t.Run("no header without key", func(t *testing.T) {
		client := NewBearerClient(context.Background(), "", time.Second)
		resp, err := client.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Empty(t, gotAuth)
	})
}
