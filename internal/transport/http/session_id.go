package http

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	cookieName     = "examprep-quiz"
	cookieValueKey = "sessionId"
)

var (
	errBadSessionID = errors.New("invalid session id")
	sessionIDRe     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// NewCookieStore builds the signed cookie store that remembers a browser's session id.
func NewCookieStore(secret []byte) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// resolveSessionID takes the id from the query, then the cookie, and mints
// a new one (stored in the cookie) when neither is present.
func resolveSessionID(store sessions.Store, w http.ResponseWriter, r *http.Request) (string, error) {
	if id := r.URL.Query().Get("sessionId"); id != "" {
		if !sessionIDRe.MatchString(id) {
			return "", errBadSessionID
		}
		return id, nil
	}

	// a cookie that fails to decode yields a fresh session; it is simply overwritten
	cookie, _ := store.Get(r, cookieName)
	if id, ok := cookie.Values[cookieValueKey].(string); ok && sessionIDRe.MatchString(id) {
		return id, nil
	}
	id := uuid.NewString()
	cookie.Values[cookieValueKey] = id
	if err := cookie.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}
