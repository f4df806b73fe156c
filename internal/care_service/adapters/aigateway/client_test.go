package aigateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("PostsFormEncodedPromptAndToken", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "Hi An", r.PostFormValue("prompt"))
			assert.Equal(t, "server-token", r.PostFormValue("token"))
			_, _ = w.Write([]byte("```json\n{\"content\":\"X\"}\n```"))
		}))
		defer server.Close()

		client := NewClient(testLogger(), "server-token", server.Client())
		raw, err := client.Complete(ctx, server.URL, "Hi An")

		require.NoError(t, err)
		assert.Contains(t, raw, `"content":"X"`)
	})

	t.Run("NonTwoHundredIsErrorWithBody", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("model overloaded"))
		}))
		defer server.Close()

		client := NewClient(testLogger(), "server-token", server.Client())
		_, err := client.Complete(ctx, server.URL, "Hi")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
		assert.Contains(t, err.Error(), "model overloaded")
	})
}
