package gateway

import (
	"errors"
	"fmt"
	"net/url"

	"gopkg.in/yaml.v3"
)

// DefaultAPIBodyLimit is applied to /api/ and /admin/ requests
// unless the config says otherwise.
const DefaultAPIBodyLimit = "20M"

var ErrInvalidConfig = errors.New("gateway: invalid config")

// RateLimit enables per-client request throttling when present.
type RateLimit struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// Config is the gateway daemon configuration.
//
// The zero value is not usable; load it with Load or Unmarshal,
// which validate required fields.
type Config struct {
	// ServerPort is the port the gateway listens on.
	ServerPort string

	// Backend is the base URL of the application server
	// receiving /api/, /admin/ and /media/ requests.
	Backend *url.URL

	// StaticRoot is the directory holding the frontend build
	// (single-page application assets).
	StaticRoot string

	// DocsRoot is the directory holding the API documentation
	// (redoc.html and its schema files).
	DocsRoot string

	// DBURI, when set, makes the gateway wait on startup until
	// the database accepts connections.
	DBURI string

	// APIBodyLimit limits request body size on /api/ and /admin/.
	APIBodyLimit string

	// RateLimit, when set, throttles clients by IP.
	RateLimit *RateLimit
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		Port         string     `yaml:"port"`
		Backend      string     `yaml:"backend"`
		StaticRoot   string     `yaml:"static_root"`
		DocsRoot     string     `yaml:"docs_root"`
		DBURI        string     `yaml:"dburi"`
		APIBodyLimit string     `yaml:"api_body_limit"`
		RateLimit    *RateLimit `yaml:"rate_limit"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.Port == "" {
		return fmt.Errorf("%w: port is required", ErrInvalidConfig)
	}
	if raw.Backend == "" {
		return fmt.Errorf("%w: backend is required", ErrInvalidConfig)
	}
	backend, err := url.Parse(raw.Backend)
	if err != nil {
		return fmt.Errorf("%w: backend: %s", ErrInvalidConfig, err)
	}
	if !backend.IsAbs() || backend.Hostname() == "" {
		return fmt.Errorf("%w: backend is not an absolute URL: %s", ErrInvalidConfig, raw.Backend)
	}

	if raw.APIBodyLimit == "" {
		raw.APIBodyLimit = DefaultAPIBodyLimit
	}

	if raw.RateLimit != nil {
		if raw.RateLimit.PerSecond <= 0 || raw.RateLimit.Burst <= 0 {
			return fmt.Errorf(
				"%w: rate_limit needs positive per_second and burst", ErrInvalidConfig,
			)
		}
	}

	c.ServerPort = raw.Port
	c.Backend = backend
	c.StaticRoot = raw.StaticRoot
	c.DocsRoot = raw.DocsRoot
	c.DBURI = raw.DBURI
	c.APIBodyLimit = raw.APIBodyLimit
	c.RateLimit = raw.RateLimit
	return nil
}
