package extras_test

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/fyurikon/foodgram-project-react/pkg/configs/extras"
	"github.com/fyurikon/foodgram-project-react/pkg/utils/cmp"
	"github.com/fyurikon/foodgram-project-react/pkg/utils/try"
)

func TestConfig_Load(t *testing.T) {
	type When struct {
		content string
	}
	type Then struct {
		err  error
		want extras.Config
	}

	theory := func(when When, then Then) func(*testing.T) {
		return func(t *testing.T) {
			dir := t.TempDir()
			file := filepath.Join(dir, "extras.yaml")
			if err := os.WriteFile(file, []byte(when.content), 0o644); err != nil {
				t.Fatal(err)
			}

			got, err := extras.Load(file)
			if then.err != nil {
				if !errors.Is(err, then.err) {
					t.Fatalf("unmatch error: %v, expected: %v", err, then.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !cmp.SliceEqWith(
				got.Endpoints, then.want.Endpoints,
				func(a, b extras.Endpoint) bool {
					return a.Path == b.Path &&
						a.ProxyTo.String() == b.ProxyTo.String() &&
						a.PreserveHost == b.PreserveHost &&
						a.MaxBodySize == b.MaxBodySize
				},
			) {
				t.Errorf("unmatch endpoints: %+v, expected: %+v", got.Endpoints, then.want.Endpoints)
			}
		}
	}

	t.Run("it loads endpoints", theory(
		When{
			content: `
endpoints:
  - path: /s3
    proxy_to: http://minio:9001
  - path: /legacy/api
    proxy_to: http://legacy:8000/api
    preserve_host: true
    max_body_size: 5M
`,
		},
		Then{
			want: extras.Config{
				Endpoints: []extras.Endpoint{
					{
						Path:    "/s3",
						ProxyTo: try.To(url.Parse("http://minio:9001")).OrFatal(t),
					},
					{
						Path:         "/legacy/api",
						ProxyTo:      try.To(url.Parse("http://legacy:8000/api")).OrFatal(t),
						PreserveHost: true,
						MaxBodySize:  "5M",
					},
				},
			},
		},
	))

	t.Run("it loads empty config", theory(
		When{content: `{}`},
		Then{want: extras.Config{}},
	))

	t.Run("it rejects relative path", theory(
		When{
			content: `
endpoints:
  - path: relative/path
    proxy_to: http://minio:9001
`,
		},
		Then{err: extras.ErrInvalidEndpointPath},
	))

	t.Run("it rejects non-clean path", theory(
		When{
			content: `
endpoints:
  - path: /a/../b
    proxy_to: http://minio:9001
`,
		},
		Then{err: extras.ErrInvalidEndpointPath},
	))

	t.Run("it rejects empty path", theory(
		When{
			content: `
endpoints:
  - path: ""
    proxy_to: http://minio:9001
`,
		},
		Then{err: extras.ErrInvalidEndpointPath},
	))

	t.Run("it rejects relative proxy_to", theory(
		When{
			content: `
endpoints:
  - path: /s3
    proxy_to: minio:9001
`,
		},
		Then{err: extras.ErrInvalidProxyTo},
	))
}
