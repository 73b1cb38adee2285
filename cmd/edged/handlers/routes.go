package handlers

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fyurikon/foodgram-project-react/pkg/configs/extras"
	"github.com/fyurikon/foodgram-project-react/pkg/configs/gateway"
)

// DocsFallback is served for unknown URIs under /api/docs/.
const DocsFallback = "redoc.html"

// SPAIndex is the root index document of the frontend build.
const SPAIndex = "index.html"

// reservedPrefixes are route prefixes owned by the gateway itself.
// Extra endpoints may not shadow them.
var reservedPrefixes = []string{"/api", "/admin", "/media"}

func reserved(p string) bool {
	for _, r := range reservedPrefixes {
		if p == r || strings.HasPrefix(p, r+"/") {
			return true
		}
	}
	return false
}

// Register wires the whole routing table into e.
//
// Route precedence follows prefix specificity: /api/docs/ is matched
// before /api/, and the SPA catch-all only sees requests no other
// route claims.
func Register(e *echo.Echo, conf *gateway.Config, extraApis extras.Config, proxyFn ProxyFunc) error {

	docs := Docs(conf.DocsRoot, DocsFallback)
	e.GET("/api/docs/*", docs)
	e.HEAD("/api/docs/*", docs)

	builtin := []extras.Endpoint{
		{
			Path:         "/api",
			ProxyTo:      conf.Backend.JoinPath("api"),
			PreserveHost: true,
			MaxBodySize:  conf.APIBodyLimit,
		},
		{
			Path:         "/admin",
			ProxyTo:      conf.Backend.JoinPath("admin"),
			PreserveHost: true,
			MaxBodySize:  conf.APIBodyLimit,
		},
		{
			Path:         "/media",
			ProxyTo:      conf.Backend.JoinPath("media"),
			PreserveHost: true,
		},
	}
	for _, ep := range builtin {
		if err := ProxyEndpoint(e, ep, proxyFn); err != nil {
			return err
		}
	}

	for _, ex := range extraApis.Endpoints {
		if reserved(ex.Path) {
			return fmt.Errorf("extra endpoint path is reserved by the gateway: %s", ex.Path)
		}
		if err := ProxyEndpoint(e, ex, proxyFn); err != nil {
			return err
		}
	}

	spa := SPA(conf.StaticRoot, SPAIndex)
	e.GET("/*", spa)
	e.HEAD("/*", spa)

	return nil
}
