package server

import (
	"crypto/subtle"
	"net/http"
	"time"
)

const (
	tokenCookieName = "wia_token"
	tokenParam      = "token"
	tokenCookieTTL  = 24 * time.Hour
)

// requireToken guards the dashboard. Browsers present the token once as a
// query parameter on a GET and then carry it in a cookie. Only GET and HEAD
// may exchange the query token; an upload or any other write must already
// hold the cookie.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if queryToken := r.URL.Query().Get(tokenParam); queryToken != "" {
			s.exchangeToken(w, r, queryToken)
			return
		}

		if !s.validToken(tokenFromCookie(r)) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// exchangeToken swaps a valid query token for the session cookie and
// redirects to the same URL without it.
func (s *Server) exchangeToken(w http.ResponseWriter, r *http.Request, token string) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Token must be exchanged with a GET request", http.StatusBadRequest)
		return
	}
	if !s.validToken(token) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    s.token,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(tokenCookieTTL / time.Second),
		SameSite: http.SameSiteLaxMode,
	})

	clean := *r.URL
	q := clean.Query()
	q.Del(tokenParam)
	clean.RawQuery = q.Encode()
	http.Redirect(w, r, clean.String(), http.StatusFound)
}

func (s *Server) validToken(token string) bool {
	return token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) == 1
}

func tokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(tokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
