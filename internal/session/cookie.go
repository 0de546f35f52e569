// internal/session/cookie.go
//
// shortly – Visitor cookie.
//
// Context
//   A visitor is identified by a random UUID held in an HttpOnly cookie.
//   The cookie carries no data of its own; it only keys the in-memory
//   workspace held by Store.  A missing, malformed, or foreign value is
//   treated as a new visitor.
//
//------------------------------------------------------------------------------

package session

import (
	"net/http"

	"github.com/google/uuid"
)

// DefaultCookieName is used when CookieOptions.Name is empty.
const DefaultCookieName = "shortly_session"

// CookieOptions controls the visitor cookie.
type CookieOptions struct {
	Name   string
	Secure bool // force the Secure flag even on plain-HTTP requests
}

func (o CookieOptions) name() string {
	if o.Name == "" {
		return DefaultCookieName
	}
	return o.Name
}

// SetID writes the visitor cookie.
func SetID(w http.ResponseWriter, r *http.Request, opts CookieOptions, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.name(),
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   opts.Secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// ID returns the visitor ID carried by r.
//
// ok == false when the cookie is missing or is not a UUID.
func ID(r *http.Request, opts CookieOptions) (id string, ok bool) {
	c, err := r.Cookie(opts.name())
	if err != nil || c.Value == "" {
		return "", false
	}
	u, err := uuid.Parse(c.Value)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// NewID returns a fresh visitor ID.
func NewID() string { return uuid.NewString() }
