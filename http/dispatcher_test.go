package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/crestwatch"
	cwhttp "github.com/fwojciec/crestwatch/http"
	"github.com/fwojciec/crestwatch/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	method      string
	path        string
	contentType string
	body        []byte
}

func recordingServer(t *testing.T, status int, response string) (*httptest.Server, <-chan request) {
	t.Helper()
	reqs := make(chan request, 10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reqs <- request{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server, reqs
}

func TestDispatcher_Dispatch(t *testing.T) {
	t.Parallel()

	t.Run("posts JSON payload and returns response body", func(t *testing.T) {
		t.Parallel()

		server, reqs := recordingServer(t, http.StatusOK, "ok")
		ch := crestwatch.Channel{Name: "ops", Kind: crestwatch.ChannelSlack, Endpoint: server.URL + "/services/T0/B0/secret"}

		d := cwhttp.NewDispatcher()
		delivery, err := d.Dispatch(context.Background(), ch, map[string]string{"text": "hello"})

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, delivery.Status)
		assert.Equal(t, "ok", delivery.Body)
		assert.Equal(t, ch, delivery.Channel)

		req := <-reqs
		assert.Equal(t, http.MethodPost, req.method)
		assert.Equal(t, "/services/T0/B0/secret", req.path)
		assert.Equal(t, "application/json", req.contentType)
		assert.JSONEq(t, `{"text":"hello"}`, string(req.body))
	})

	t.Run("non-2xx response is a delivery error carrying the response", func(t *testing.T) {
		t.Parallel()

		server, _ := recordingServer(t, http.StatusBadRequest, "invalid_payload")
		ch := crestwatch.Channel{Kind: crestwatch.ChannelSlack, Endpoint: server.URL + "/hook"}

		d := cwhttp.NewDispatcher()
		delivery, err := d.Dispatch(context.Background(), ch, map[string]string{})

		require.Error(t, err)
		assert.Equal(t, crestwatch.EDELIVERY, crestwatch.ErrorCode(err))
		assert.Contains(t, err.Error(), "400")
		assert.Contains(t, err.Error(), "invalid_payload")
		require.NotNil(t, delivery)
		assert.Equal(t, "invalid_payload", delivery.Body)
	})

	t.Run("transport failure is a delivery error without the secret URL", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		endpoint := server.URL + "/services/T0/B0/topsecret"
		server.Close()
		ch := crestwatch.Channel{Kind: crestwatch.ChannelTeams, Endpoint: endpoint}

		d := cwhttp.NewDispatcher(cwhttp.WithDispatchTimeout(time.Second))
		delivery, err := d.Dispatch(context.Background(), ch, map[string]string{})

		require.Error(t, err)
		assert.Nil(t, delivery)
		assert.Equal(t, crestwatch.EDELIVERY, crestwatch.ErrorCode(err))
		assert.NotContains(t, err.Error(), "topsecret")
	})

	t.Run("respects dispatch timeout", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		}))
		defer server.Close()
		ch := crestwatch.Channel{Kind: crestwatch.ChannelSlack, Endpoint: server.URL}

		d := cwhttp.NewDispatcher(cwhttp.WithDispatchTimeout(10 * time.Millisecond))
		_, err := d.Dispatch(context.Background(), ch, map[string]string{})

		assert.Equal(t, crestwatch.EDELIVERY, crestwatch.ErrorCode(err))
	})

	t.Run("unencodable payload is invalid", func(t *testing.T) {
		t.Parallel()

		ch := crestwatch.Channel{Kind: crestwatch.ChannelSlack, Endpoint: "http://127.0.0.1:1/hook"}

		d := cwhttp.NewDispatcher()
		_, err := d.Dispatch(context.Background(), ch, map[string]any{"f": func() {}})

		assert.Equal(t, crestwatch.EINVALID, crestwatch.ErrorCode(err))
	})

	t.Run("waits on the rate limiter with the webhook host", func(t *testing.T) {
		t.Parallel()

		server, _ := recordingServer(t, http.StatusOK, "ok")
		hosts := make(chan string, 1)
		limiter := &mock.RateLimiter{
			WaitFn: func(ctx context.Context, host string) error {
				hosts <- host
				return nil
			},
		}
		ch := crestwatch.Channel{Kind: crestwatch.ChannelSlack, Endpoint: server.URL + "/hook"}

		d := cwhttp.NewDispatcher(cwhttp.WithRateLimiter(limiter))
		_, err := d.Dispatch(context.Background(), ch, map[string]string{})

		require.NoError(t, err)
		assert.Equal(t, server.Listener.Addr().String(), <-hosts)
	})

	t.Run("rate limiter failure aborts before posting", func(t *testing.T) {
		t.Parallel()

		server, reqs := recordingServer(t, http.StatusOK, "ok")
		limiter := &mock.RateLimiter{
			WaitFn: func(ctx context.Context, host string) error {
				return errors.New("context canceled")
			},
		}
		ch := crestwatch.Channel{Kind: crestwatch.ChannelSlack, Endpoint: server.URL + "/hook"}

		d := cwhttp.NewDispatcher(cwhttp.WithRateLimiter(limiter))
		_, err := d.Dispatch(context.Background(), ch, map[string]string{})

		assert.Equal(t, crestwatch.EDELIVERY, crestwatch.ErrorCode(err))
		assert.Empty(t, reqs)
	})

	t.Run("payload structs are serialized as JSON", func(t *testing.T) {
		t.Parallel()

		server, reqs := recordingServer(t, http.StatusOK, "1")
		ch := crestwatch.Channel{Kind: crestwatch.ChannelTeams, Endpoint: server.URL}
		payload := struct {
			Summary string `json:"summary"`
		}{Summary: "Latest updates from Crestron"}

		d := cwhttp.NewDispatcher()
		_, err := d.Dispatch(context.Background(), ch, payload)
		require.NoError(t, err)

		var got map[string]string
		require.NoError(t, json.Unmarshal((<-reqs).body, &got))
		assert.Equal(t, "Latest updates from Crestron", got["summary"])
	})
}

// Compile-time verification that Dispatcher implements crestwatch.Dispatcher
var _ crestwatch.Dispatcher = (*cwhttp.Dispatcher)(nil)

func TestEncode(t *testing.T) {
	t.Parallel()

	b, err := cwhttp.Encode(map[string]string{"text": "<https://crestron.com/a?x=1&amp;y=2|Update1>"})

	require.NoError(t, err)
	assert.Equal(t, `{"text":"<https://crestron.com/a?x=1&amp;y=2|Update1>"}`, string(b))
}
