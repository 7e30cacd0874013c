package auth

import (
	"net/http"
	"time"
)

const (
	TokenCookie    = "token"
	EmailCookie    = "email"
	UsernameCookie = "username"
)

// CookiePolicy sets and clears the session cookies. Outside production the
// cookies are not Secure and use SameSite=Lax so a local frontend over plain
// HTTP keeps working; in production they are Secure with SameSite=None for
// the cross-origin frontend.
type CookiePolicy struct {
	Production bool
}

func (p CookiePolicy) base(name, value string) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   p.Production,
		SameSite: http.SameSiteLaxMode,
	}
	if p.Production {
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

// SetSession writes the token cookie and the email/username display cookies.
// The display cookies are for the frontend only and are never trusted by the
// server.
func (p CookiePolicy) SetSession(w http.ResponseWriter, token string, ttl time.Duration, email, username string) {
	tc := p.base(TokenCookie, token)
	tc.MaxAge = int(ttl.Seconds())
	http.SetCookie(w, tc)
	http.SetCookie(w, p.base(EmailCookie, email))
	http.SetCookie(w, p.base(UsernameCookie, username))
}

func (p CookiePolicy) ClearSession(w http.ResponseWriter) {
	for _, name := range []string{TokenCookie, EmailCookie, UsernameCookie} {
		c := p.base(name, "")
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}
