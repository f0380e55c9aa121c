package pagination

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPageSize    = 20
	DefaultMaxPageSize = 100

	pageSizeParam  = "pageSize"
	pageTokenParam = "pageToken"
)

var (
	ErrInvalidPageSize  = errors.New("pagination: invalid pageSize")
	ErrInvalidPageToken = errors.New("pagination: invalid pageToken")
)

// Params is a validated page request. PageToken is known to decode.
type Params struct {
	PageSize  int
	PageToken string
}

// Limits bounds the page size a listing accepts. Zero values fall back to the package defaults.
type Limits struct {
	Default int
	Max     int
}

func (l Limits) resolve() (def, max int) {
	max = l.Max
	if max <= 0 {
		max = DefaultMaxPageSize
	}
	def = l.Default
	if def <= 0 {
		def = DefaultPageSize
	}
	return min(def, max), max
}

// FromRequest reads pageSize and pageToken from the query string of r.
func FromRequest(r *http.Request, limits Limits) (Params, error) {
	if r == nil || r.URL == nil {
		return Params{}, errors.New("pagination: nil request")
	}
	return Parse(r.URL.Query(), limits)
}

// Parse validates pageSize and pageToken. Sizes above the maximum are clamped rather than rejected.
func Parse(values url.Values, limits Limits) (Params, error) {
	def, max := limits.resolve()
	params := Params{
		PageSize:  def,
		PageToken: strings.TrimSpace(values.Get(pageTokenParam)),
	}

	if raw := strings.TrimSpace(values.Get(pageSizeParam)); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			return Params{}, fmt.Errorf("%w: %q is not a number", ErrInvalidPageSize, raw)
		case n < 1:
			return Params{}, fmt.Errorf("%w: must be at least 1", ErrInvalidPageSize)
		}
		params.PageSize = min(n, max)
	}

	if _, err := DecodeToken(params.PageToken); err != nil {
		return Params{}, err
	}
	return params, nil
}
