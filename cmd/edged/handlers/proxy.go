package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/fyurikon/foodgram-project-react/pkg/configs/extras"
	"github.com/fyurikon/foodgram-project-react/pkg/utils/echoutil"
)

// ProxyFunc forwards the request in c to url.
//
// echoutil.Proxy satisfies this. Tests may stub it.
type ProxyFunc func(c *echo.Context, url string, options ...echoutil.ProxyOption) error

type Rewriter func(req *url.URL) (*url.URL, error)

var ErrRewrite = errors.New("rewrite error")

// RewriteWith maps an inbound URL under ep.Path to the upstream URL,
// appending the sub-path and carrying query and fragment over.
func RewriteWith(ep extras.Endpoint) (Rewriter, error) {

	sourcePath := strings.TrimSuffix(ep.Path, "/")

	return func(req *url.URL) (*url.URL, error) {

		dest := ep.ProxyTo
		{
			// taking copy
			d := *dest
			dest = &d
		}
		if p := req.Path; p == sourcePath {
			// its okay. no-op.
		} else if strings.HasPrefix(p, sourcePath) {
			pp := strings.TrimPrefix(p, sourcePath+"/")
			if pp == "" && strings.HasSuffix(p, "/") {
				pp = "/"
			}
			dest = dest.JoinPath(pp)
		} else {
			return nil, fmt.Errorf("%w: path prefix is not match", ErrRewrite)
		}

		dest.Fragment = req.Fragment
		dest.RawQuery = req.RawQuery

		return dest, nil
	}, nil
}

// ProxyEndpoint registers a proxying route for ep, all methods.
//
// When ep.MaxBodySize is set, request bodies over the limit are rejected
// with 413 before reaching the upstream.
// When ep.PreserveHost is set, the original Host header is forwarded.
func ProxyEndpoint(
	e *echo.Echo,
	ep extras.Endpoint,
	proxyFn ProxyFunc,
) error {

	rew, err := RewriteWith(ep)
	if err != nil {
		return err
	}

	opts := []echoutil.ProxyOption{}
	if ep.PreserveHost {
		opts = append(opts, echoutil.PreserveHost())
	}

	dest := path.Join(ep.Path, "*")
	proxyer := func(c echo.Context) error {
		requrl := c.Request().URL
		dest, err := rew(requrl)
		if err != nil {
			return err
		}
		return proxyFn(&c, dest.String(), opts...)
	}

	mw := []echo.MiddlewareFunc{}
	if ep.MaxBodySize != "" {
		mw = append(mw, middleware.BodyLimit(ep.MaxBodySize))
	}

	e.GET(dest, proxyer, mw...)
	e.POST(dest, proxyer, mw...)
	e.PUT(dest, proxyer, mw...)
	e.DELETE(dest, proxyer, mw...)
	e.PATCH(dest, proxyer, mw...)
	e.OPTIONS(dest, proxyer, mw...)
	e.HEAD(dest, proxyer, mw...)

	return nil
}
