package model

import "time"

// Cookie is one browser cookie captured at login. Only the fields the search
// API cares about are kept.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`
}

// Session is the authenticated state proving login to the upstream site:
// cookies plus the exact user agent the login ran under. A Session is
// immutable once created; refresh replaces it wholesale.
type Session struct {
	Cookies    []Cookie  `json:"cookies"`
	UserAgent  string    `json:"user_agent"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Fresh reports whether the session is younger than maxAge at the given
// instant. Freshness is a cheap pre-filter only; a fresh session can still be
// rejected server-side.
func (s *Session) Fresh(maxAge time.Duration, now time.Time) bool {
	return now.Sub(s.AcquiredAt) < maxAge
}

// CookieHeader renders the cookies as a single Cookie header value.
func (s *Session) CookieHeader() string {
	var b []byte
	for i, c := range s.Cookies {
		if i > 0 {
			b = append(b, "; "...)
		}
		b = append(b, c.Name...)
		b = append(b, '=')
		b = append(b, c.Value...)
	}
	return string(b)
}
