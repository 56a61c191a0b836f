package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSource(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches the body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
			_, _ = w.Write([]byte("<html><body>ok</body></html>"))
		}))
		defer srv.Close()

		src := NewHTTPSource(Options{}, clock.NewMock())
		defer src.Close()

		body, err := src.Fetch(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "<html><body>ok</body></html>", body)
	})

	t.Run("http errors are reported", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		src := NewHTTPSource(Options{}, clock.NewMock())
		defer src.Close()

		_, err := src.Fetch(ctx, srv.URL)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCircuitOpen)
	})

	t.Run("too many requests opens the breaker", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte("back"))
		}))
		defer srv.Close()

		clk := clock.NewMock()
		src := NewHTTPSource(Options{BreakerDelay: time.Minute}, clk)
		defer src.Close()

		_, err := src.Fetch(ctx, srv.URL)
		assert.ErrorIs(t, err, ErrCircuitOpen)

		_, err = src.Fetch(ctx, srv.URL)
		assert.ErrorIs(t, err, ErrCircuitOpen)
		assert.Equal(t, int32(1), hits.Load(), "blocked requests never reach the server")

		clk.Add(time.Minute)

		body, err := src.Fetch(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "back", body)
	})
}
