package waitfor_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fyurikon/foodgram-project-react/pkg/waitfor"
)

func TestHTTP(t *testing.T) {
	t.Run("it returns nil when the server answers", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := waitfor.HTTP(ctx, ts.URL); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("an error status still counts as up", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer ts.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := waitfor.HTTP(ctx, ts.URL); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("it retries until the server comes up", func(t *testing.T) {
		calls := atomic.Int32{}
		ts := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		go func() {
			time.Sleep(500 * time.Millisecond)
			ts.Start()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// probe the listener address before the server starts accepting
		if err := waitfor.HTTP(ctx, "http://"+ts.Listener.Addr().String()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if calls.Load() == 0 {
			t.Error("server is not probed")
		}
	})

	t.Run("it stops when the context is done", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		// nothing listens here
		err := waitfor.HTTP(ctx, "http://127.0.0.1:1")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("unmatch error: %v", err)
		}
	})
}

func TestDatabase(t *testing.T) {
	t.Run("it stops when the context is done", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()

		err := waitfor.Database(ctx, "postgres://127.0.0.1:1/nowhere")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("unmatch error: %v", err)
		}
	})
}
