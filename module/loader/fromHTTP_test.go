package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockHTTPClient implements the httpRequester interface for testing
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func TestNewFromHTTP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		url           string
		expectError   bool
		errorContains string
	}{
		{name: "valid https", url: "https://example.com/main.wasm"},
		{name: "valid http", url: "http://example.com/main.wasm"},
		{
			name:          "file scheme",
			url:           "file:///path/to/main.wasm",
			expectError:   true,
			errorContains: "unsupported scheme",
		},
		{
			name:          "invalid URL",
			url:           "://invalid-url",
			expectError:   true,
			errorContains: "unable to parse URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l, err := NewFromHTTP(tt.url)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				assert.Nil(t, l)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.url, l.GetSourceURL().String())
		})
	}
}

func TestFromHTTP_GetReader(t *testing.T) {
	t.Parallel()

	t.Run("fetches content with default user agent", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(wasmHeader))
		}))
		t.Cleanup(srv.Close)

		l, err := NewFromHTTP(srv.URL + "/main.wasm")
		require.NoError(t, err)
		assert.Equal(t, []byte(wasmHeader), readAll(t, l))
	})

	t.Run("gzip body is decompressed", func(t *testing.T) {
		body := gzipped(t, []byte(wasmHeader))
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(body)
		}))
		t.Cleanup(srv.Close)

		l, err := NewFromHTTP(srv.URL + "/main.wasm.gz")
		require.NoError(t, err)
		assert.Equal(t, []byte(wasmHeader), readAll(t, l))
	})

	t.Run("basic auth", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "user" || pass != "pass" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(wasmHeader))
		}))
		t.Cleanup(srv.Close)

		opts := DefaultHTTPOptions()
		opts.AuthType = BasicAuth
		opts.Username = "user"
		opts.Password = "pass"
		l, err := NewFromHTTPWithOptions(srv.URL, opts)
		require.NoError(t, err)
		assert.Equal(t, []byte(wasmHeader), readAll(t, l))
		assert.Contains(t, l.String(), "basic")
	})

	t.Run("header auth", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer token123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(wasmHeader))
		}))
		t.Cleanup(srv.Close)

		opts := DefaultHTTPOptions()
		opts.AuthType = HeaderAuth
		opts.Headers["Authorization"] = "Bearer token123"
		l, err := NewFromHTTPWithOptions(srv.URL, opts)
		require.NoError(t, err)
		assert.Equal(t, []byte(wasmHeader), readAll(t, l))
	})

	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		t.Cleanup(srv.Close)

		l, err := NewFromHTTP(srv.URL)
		require.NoError(t, err)

		reader, err := l.GetReader(context.Background())
		require.ErrorIs(t, err, ErrModuleUnavailable)
		assert.Contains(t, err.Error(), "HTTP 404")
		assert.Nil(t, reader)
	})

	t.Run("client error", func(t *testing.T) {
		l, err := NewFromHTTP("https://example.com/main.wasm")
		require.NoError(t, err)
		l.client = &mockHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}}

		_, err = l.GetReader(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("unsupported auth type", func(t *testing.T) {
		opts := DefaultHTTPOptions()
		opts.AuthType = "digest"
		l, err := NewFromHTTPWithOptions("https://example.com/main.wasm", opts)
		require.NoError(t, err)

		_, err = l.GetReader(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported auth type")
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		}))
		t.Cleanup(srv.Close)

		l, err := NewFromHTTP(srv.URL)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = l.GetReader(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("insecure transport option", func(t *testing.T) {
		opts := DefaultHTTPOptions()
		opts.InsecureSkipVerify = true
		l, err := NewFromHTTPWithOptions("https://example.com/main.wasm", opts)
		require.NoError(t, err)

		client, ok := l.client.(*http.Client)
		require.True(t, ok)
		transport, ok := client.Transport.(*http.Transport)
		require.True(t, ok)
		assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
	})
}
