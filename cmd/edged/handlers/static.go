package handlers

import (
	"net/url"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
)

// resolve maps the wildcard sub-path of the request onto root.
//
// The sub-path is cleaned as an absolute path first, so `..` segments
// can never escape root.
func resolve(root string, c echo.Context) (string, error) {
	p, err := url.PathUnescape(c.Param("*"))
	if err != nil {
		return "", echo.ErrBadRequest
	}
	return filepath.Join(root, filepath.Clean("/"+p)), nil
}

// Docs serves files under root, falling back to the fallback document
// when the requested URI does not name a file.
func Docs(root string, fallback string) echo.HandlerFunc {
	return func(c echo.Context) error {
		file, err := resolve(root, c)
		if err != nil {
			return err
		}

		if fi, err := os.Stat(file); err == nil && !fi.IsDir() {
			return c.File(file)
		}
		return c.File(filepath.Join(root, fallback))
	}
}

// SPA serves files under root with single-page-application fallback:
// try the file, then the directory index, then the root index document.
// Unknown application routes get the index, never a bare 404.
func SPA(root string, index string) echo.HandlerFunc {
	return func(c echo.Context) error {
		file, err := resolve(root, c)
		if err != nil {
			return err
		}

		if fi, err := os.Stat(file); err == nil {
			if !fi.IsDir() {
				return c.File(file)
			}
			idx := filepath.Join(file, index)
			if fi, err := os.Stat(idx); err == nil && !fi.IsDir() {
				return c.File(idx)
			}
		}
		return c.File(filepath.Join(root, index))
	}
}
