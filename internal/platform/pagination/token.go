package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Cursor is the payload of a page token. Listings are offset based.
type Cursor struct {
	Offset int `json:"o"`
}

// EncodeToken returns "" for the first page.
func EncodeToken(c Cursor) (string, error) {
	if c.Offset <= 0 {
		return "", nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("pagination: encode token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func DecodeToken(token string) (Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Cursor{}, nil
	}
	var c Cursor
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err == nil {
		err = json.Unmarshal(raw, &c)
	}
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	if c.Offset < 0 {
		return Cursor{}, fmt.Errorf("%w: negative offset", ErrInvalidPageToken)
	}
	return c, nil
}

// Window returns the half-open bounds [start, end) of the page token addresses in a listing of
// total items, and the token of the next page, "" on the last one. An offset past the end
// yields an empty page.
func Window(total, pageSize int, token string) (start, end int, next string, err error) {
	c, err := DecodeToken(token)
	if err != nil {
		return 0, 0, "", err
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	start = min(c.Offset, total)
	end = min(start+pageSize, total)
	if end < total {
		if next, err = EncodeToken(Cursor{Offset: end}); err != nil {
			return 0, 0, "", err
		}
	}
	return start, end, next, nil
}
