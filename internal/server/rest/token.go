package rest

import (
	"net/http"
	"strings"

	"github.com/kodbank/kodbank/internal/common"
)

// TokenFromRequest returns the session token presented with r. A bearer
// Authorization header wins over the session cookie. It returns "" when
// neither is present.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get(common.AuthorizationHeaderName); h != "" {
		if len(h) > len(common.BearerPrefix) && strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
			if tok := strings.TrimSpace(h[len(common.BearerPrefix):]); tok != "" {
				return tok
			}
		}
	}

	if c, err := r.Cookie(common.SessionCookieName); err == nil {
		return c.Value
	}

	return ""
}
