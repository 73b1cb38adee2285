package echoutil_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	httptestutil "github.com/fyurikon/foodgram-project-react/internal/testutils/http"
	"github.com/fyurikon/foodgram-project-react/pkg/utils/echoutil"
)

func TestRateLimiter(t *testing.T) {
	okHandler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	t.Run("it passes requests under the limit", func(t *testing.T) {
		rl := echoutil.NewRateLimiter(100, 10)
		h := rl.Middleware()(okHandler)

		e := echo.New()
		for i := 0; i < 5; i++ {
			ctx, respRec := httptestutil.Get(e, "/api/recipes/")
			if err := h(ctx); err != nil {
				t.Fatal(err)
			}
			if respRec.Result().StatusCode != http.StatusOK {
				t.Error("status code 200 !=", respRec.Result().StatusCode)
			}
		}
	})

	t.Run("it rejects requests over the burst with 429", func(t *testing.T) {
		rl := echoutil.NewRateLimiter(0.001, 2)
		h := rl.Middleware()(okHandler)

		e := echo.New()
		statuses := []int{}
		for i := 0; i < 3; i++ {
			ctx, respRec := httptestutil.Get(e, "/api/recipes/")
			if err := h(ctx); err != nil {
				t.Fatal(err)
			}
			statuses = append(statuses, respRec.Result().StatusCode)
		}

		if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
			t.Errorf("requests in burst are rejected: %v", statuses)
		}
		if statuses[2] != http.StatusTooManyRequests {
			t.Errorf("request over burst is not rejected: %v", statuses)
		}
	})

	t.Run("cleanup evicts buckets when too many distinct clients are seen", func(t *testing.T) {
		rl := echoutil.NewRateLimiter(0.001, 1)
		h := rl.Middleware()(okHandler)
		e := echo.New()

		do := func(clientIP string) int {
			ctx, respRec := httptestutil.Get(
				e, "/api/recipes/",
				httptestutil.WithHeader("X-Forwarded-For", clientIP),
			)
			if err := h(ctx); err != nil {
				t.Fatal(err)
			}
			return respRec.Result().StatusCode
		}

		watched := "203.0.113.7"
		if got := do(watched); got != http.StatusOK {
			t.Fatal("status code 200 !=", got)
		}
		if got := do(watched); got != http.StatusTooManyRequests {
			t.Fatal("status code 429 !=", got)
		}

		// flood with distinct client addresses to pass the cap
		for i := 0; i < 10_001; i++ {
			do(fmt.Sprintf("10.%d.%d.%d", i/65536, (i/256)%256, i%256))
		}
		rl.Cleanup()

		// the evicted client starts over with a full bucket
		if got := do(watched); got != http.StatusOK {
			t.Error("status code 200 !=", got)
		}
	})

	t.Run("cleanup below the cap keeps buckets", func(t *testing.T) {
		rl := echoutil.NewRateLimiter(0.001, 1)
		h := rl.Middleware()(okHandler)
		e := echo.New()

		ctx, respRec := httptestutil.Get(e, "/api/recipes/")
		if err := h(ctx); err != nil {
			t.Fatal(err)
		}
		if respRec.Result().StatusCode != http.StatusOK {
			t.Fatal("status code 200 !=", respRec.Result().StatusCode)
		}

		rl.Cleanup()

		ctx, respRec = httptestutil.Get(e, "/api/recipes/")
		if err := h(ctx); err != nil {
			t.Fatal(err)
		}
		if respRec.Result().StatusCode != http.StatusTooManyRequests {
			t.Error("status code 429 !=", respRec.Result().StatusCode)
		}
	})

	t.Run("background cleanup stops when the context is done", func(t *testing.T) {
		rl := echoutil.NewRateLimiter(100, 10)

		ctx, cancel := context.WithCancel(context.Background())
		rl.StartCleanup(ctx, time.Millisecond)
		cancel()
		// nothing to assert beyond not hanging or panicking after stop
		time.Sleep(10 * time.Millisecond)
	})
}
