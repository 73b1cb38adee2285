// Package waitfor gates gateway startup on its upstream dependencies.
//
// The deployment declares start ordering (gateway after backend, backend
// after database); this package is the gateway's side of that contract:
// do not accept traffic until the upstreams exist.
package waitfor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/fyurikon/foodgram-project-react/pkg/utils/retry"
)

var defaultBackoff = func() retry.Backoff {
	return retry.ExponentialBackoff(200*time.Millisecond, 1.5)
}

// Database blocks until the database at dburi accepts connections,
// or ctx is done.
func Database(ctx context.Context, dburi string) error {
	_, err := retry.Blocking(ctx, defaultBackoff(), func() (struct{}, error) {
		pool, err := pgxpool.Connect(ctx, dburi)
		if err != nil {
			return struct{}{}, fmt.Errorf("%w: %s", retry.ErrRetry, err)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			return struct{}{}, fmt.Errorf("%w: %s", retry.ErrRetry, err)
		}
		return struct{}{}, nil
	})
	return err
}

// HTTP blocks until the server at url answers an HTTP request, or ctx is done.
//
// Any HTTP status counts as "up": the process answers, which is all the
// start-ordering contract promises.
func HTTP(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	_, err := retry.Blocking(ctx, defaultBackoff(), func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return struct{}{}, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return struct{}{}, fmt.Errorf("%w: %s", retry.ErrRetry, err)
		}
		resp.Body.Close()
		return struct{}{}, nil
	})
	return err
}
