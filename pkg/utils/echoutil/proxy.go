package echoutil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	kio "github.com/fyurikon/foodgram-project-react/pkg/utils/io"
)

type ProxyOption func(*proxyProfile)

type proxyProfile struct {
	preserveHost bool
	client       *http.Client
}

// PreserveHost makes Proxy send the inbound request's Host header
// to the upstream, instead of the upstream's own host.
func PreserveHost() ProxyOption {
	return func(p *proxyProfile) {
		p.preserveHost = true
	}
}

// WithClient replaces the http.Client used to reach the upstream.
func WithClient(client *http.Client) ProxyOption {
	return func(p *proxyProfile) {
		p.client = client
	}
}

// Proxy forwards the request in c to url, and relays the upstream response
// (status, headers, trailers and body) back to the client.
//
// When the upstream cannot be reached, it responds 502 Bad Gateway.
func Proxy(cp *echo.Context, url string, options ...ProxyOption) error {
	c := *cp

	prof := proxyProfile{client: &http.Client{CheckRedirect: nil}}
	for _, opt := range options {
		opt(&prof)
	}

	req, err := createRequestForUpstream(c.Request().Context(), url, cp, prof)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return err
	}

	resp, err := prof.client.Do(req)
	if err != nil {
		c.String(http.StatusBadGateway, "upstream is not reachable")
		return err
	}
	defer resp.Body.Close()

	if err := CopyResponse(cp, resp); err != nil {
		return err
	}

	return nil
}

func createRequestForUpstream(ctx context.Context, url string, cp *echo.Context, prof proxyProfile) (*http.Request, error) {
	c := *cp
	req, err := http.NewRequestWithContext(ctx, c.Request().Method, url, c.Request().Body)
	if err != nil {
		return nil, err
	}

	CopyHeader(&req.Header, &c.Request().Header)
	req.Body = c.Request().Body
	if c.Request().Trailer != nil {
		req.Trailer = http.Header{}
		for k, vs := range c.Request().Trailer {
			for _, v := range vs {
				req.Trailer.Add(k, v)
			}
		}
	}

	if prof.preserveHost {
		req.Host = c.Request().Host
	}

	return req, nil
}

func CopyHeader(dest *http.Header, src *http.Header, except ...string) {
	// convert []string to set
	exc := map[string]interface{}{}

	for _, x := range except {
		exc[strings.ToLower(x)] = nil
	}

	for k, vs := range *src {
		if _, ok := exc[strings.ToLower(k)]; ok {
			// this header marked not to be copied
			continue
		}
		for _, v := range vs {
			dest.Add(k, v)
		}
	}
}

func CopyResponse(cp *echo.Context, resp *http.Response) error {
	c := *cp
	ctx := c.Request().Context()

	dstResp := c.Response()
	dstHeader := dstResp.Header()
	CopyHeader(&dstHeader, &resp.Header)

	// copy hop-by-hop header
	chunked := false
	for _, te := range resp.TransferEncoding {
		dstHeader.Add("Transfer-Encoding", te)
		if strings.ToLower(te) == "chunked" {
			chunked = true
		}
	}
	for trailer := range resp.Trailer {
		dstHeader.Add("Trailer", trailer)
	}

	dstResp.WriteHeader(resp.StatusCode)

	src := kio.NewTriggerReader(resp.Body)
	src.OnEnd(func() {
		trailer := c.Response().Header()
		for k, vs := range resp.Trailer {
			for _, v := range vs {
				trailer.Add(k, v)
			}
		}
	})
	if !chunked {
		_, err := io.Copy(dstResp.Writer, src)
		return err
	}

	buf := make([]byte, 1024*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := src.Read(buf)
		if err != nil {
			dstResp.Flush()
			if errors.Is(err, io.EOF) {
				_, err := dstResp.Write(buf[:n])
				return err
			}
			return err
		}
		if n == 0 {
			continue
		}

		if _, err := dstResp.Write(buf[:n]); err != nil {
			return err
		}
		dstResp.Flush()
	}
}
