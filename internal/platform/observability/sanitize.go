package observability

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Upper bounds, in runes, for request values copied into log fields.
const (
	routeLimit  = 180
	methodLimit = 10
	idLimit     = 64
)

// clean strips control characters, which would let a client forge log lines, and truncates to
// limit runes.
func clean(value string, limit int) string {
	var b strings.Builder
	n := 0
	for _, r := range value {
		if n == limit {
			break
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

func SanitizeRoute(route string) string {
	if route = clean(route, routeLimit); route == "" {
		return "/"
	}
	return route
}

func SanitizeMethod(method string) string { return clean(method, methodLimit) }

func SanitizeUserID(uid string) string { return clean(uid, idLimit) }

// SanitizeGuestID logs a short digest instead of the guest cart token, which is a bearer
// credential for the cart.
func SanitizeGuestID(guestID string) string {
	if guestID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(guestID))
	return "g_" + hex.EncodeToString(sum[:6])
}
