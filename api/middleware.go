package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
)

type contextKey int

const sessionKey contextKey = iota

// LimitBodySize rejects requests whose declared Content-Length exceeds the
// configured maximum before any further processing. An unparsable declared
// length is rejected too (fail closed). Bodies without a declared length
// are still capped by MaxBytesReader.
func (a *API) LimitBodySize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cl := r.Header.Get("Content-Length"); cl != "" {
			n, err := strconv.ParseInt(cl, 10, 64)
			if err != nil || n > a.maxBodySize {
				writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, a.maxBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit runs token-bucket admission for every non-whitelisted path.
// Whitelisted paths bypass the limiter entirely: no entry lookup, no token
// consumed.
func (a *API) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, exempt := a.whitelist[r.URL.Path]; exempt {
			next.ServeHTTP(w, r)
			return
		}
		key := clientKey(r)
		if ok, retryAfter := a.limiter.allow(key); !ok {
			a.logger.Info("request rate limited",
				"client", key,
				"path", r.URL.Path,
				"retry_after", retryAfter.String())
			writeRateLimited(w, retryAfter)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession rejects requests that do not carry a valid bearer token
// and stores the session on the request context.
func (a *API) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := a.sessionFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid or missing session token")
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFromRequest resolves the Authorization bearer token against the
// session store.
func (a *API) sessionFromRequest(r *http.Request) (Session, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return Session{}, false
	}
	return a.sessions.Get(token)
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return "", false
	}
	return auth[len(prefix):], true
}

func sessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionKey).(Session)
	return session, ok
}

// clientKey derives the rate-limit identity from the request's network
// address. Proxy headers are deliberately not consulted: trusting them
// without a configured proxy allowlist would let clients mint fresh
// buckets at will.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}
