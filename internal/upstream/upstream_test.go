package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig(url string, attempts int) Config {
	return Config{
		BaseURL:        url,
		API:            APIAction,
		UserAgent:      "wikiharvest-test/0.0",
		Timeout:        5 * time.Second,
		MaxAttempts:    attempts,
		BackoffInitial: time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL, 6))
	resp, err := c.R().SetContext(context.Background()).Get("")
	require.NoError(t, err)
	require.True(t, resp.IsSuccess())
	require.EqualValues(t, 3, hits.Load())
}

func TestClient_DoesNotRetryNotFound(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL, 6))
	resp, err := c.R().SetContext(context.Background()).Get("")
	require.NoError(t, err)
	require.EqualValues(t, 1, hits.Load())

	serr := c.StatusError(resp)
	var uerr *Error
	require.ErrorAs(t, serr, &uerr)
	require.Equal(t, http.StatusNotFound, uerr.Status)
	require.False(t, errors.Is(serr, ErrExhausted))
}

func TestClient_ExhaustsRetryBudget(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL, 3))
	resp, err := c.R().SetContext(context.Background()).Get("")
	require.NoError(t, err)
	require.False(t, resp.IsSuccess())
	require.EqualValues(t, 3, hits.Load())

	serr := c.StatusError(resp)
	require.ErrorIs(t, serr, ErrExhausted)
	var uerr *Error
	require.ErrorAs(t, serr, &uerr)
	require.Equal(t, http.StatusServiceUnavailable, uerr.Status)
}

func TestClient_SendsUserAgent(t *testing.T) {
	t.Parallel()

	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL, 1))
	_, err := c.R().SetContext(context.Background()).Get("")
	require.NoError(t, err)
	require.Equal(t, "wikiharvest-test/0.0", got)
}

func TestError_RejectionMatching(t *testing.T) {
	t.Parallel()

	rejected := &Error{API: APIAction, Code: "invalidcategory", Info: "The category name is not valid"}
	if !errors.Is(rejected, ErrRejected) {
		t.Fatal("payload error should match ErrRejected")
	}

	statusOnly := &Error{API: APIPageviews, Status: http.StatusBadGateway}
	if errors.Is(statusOnly, ErrRejected) {
		t.Fatal("status error should not match ErrRejected")
	}
}
