package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmvoice/internal/backend"
	"farmvoice/internal/domain"
)

func fixedClock() time.Time {
	return time.Date(2024, 6, 3, 14, 5, 9, 123_000_000, time.FixedZone("IST", 5*3600+1800))
}

func TestClient_AskRequestFormat(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &captured))
		_, _ = w.Write([]byte(`{"response":"Expect showers after noon."}`))
	}))
	defer srv.Close()

	client := backend.New(srv.URL+"/query/", backend.WithClock(fixedClock))
	reply, err := client.Ask(context.Background(), "rain tomorrow? ")
	require.NoError(t, err)

	assert.Equal(t, "Expect showers after noon.", reply)
	assert.Equal(t, "rain tomorrow? ", captured["query"])
	assert.Equal(t, "2024-06-03T08:35:09.123Z", captured["timestamp"])
}

func TestClient_AskEmptyReplyIsNotAnError(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`{}`, `{"response":""}`, `{"other":1}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		reply, err := backend.New(srv.URL).Ask(context.Background(), "hello")
		srv.Close()

		require.NoError(t, err, body)
		assert.Empty(t, reply, body)
	}
}

func TestClient_AskFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"response":"ignored"}`, http.StatusInternalServerError)
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>gateway</html>"))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := backend.New(srv.URL).Ask(context.Background(), "hello")
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrDeliveryFailed))
			assert.Equal(t, domain.ErrorKindDeliveryFailed, domain.KindOf(err))
		})
	}
}

func TestClient_AskTransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := backend.New(url).Ask(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDeliveryFailed)
}

func TestClient_AskRequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := backend.New("  ").Ask(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrDeliveryFailed)
}
