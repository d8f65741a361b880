package web

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/medflow/stockroom/internal/stockroom/domain"
	"github.com/medflow/stockroom/pkg/actor"
	"github.com/medflow/stockroom/pkg/config"
)

const (
	sessionName = "stockroom_session"

	keyUserID   = "user_id"
	keyUsername = "username"
	keyRole     = "role"

	flashSuccess = "success"
	flashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page
type Flash struct {
	Kind    string
	Message string
}

func newCookieStore(cfg *config.SessionConfig) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	// no MaxAge: the cookie lives as long as the browser session
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// session returns the request session. A cookie that fails to decode yields a fresh session.
func (wb *Web) session(r *http.Request) *sessions.Session {
	s, err := wb.sessions.Get(r, sessionName)
	if err != nil {
		wb.logger.Debug().Err(err).Msg("discarding unreadable session cookie")
	}
	return s
}

func (wb *Web) principal(r *http.Request) *actor.Principal {
	s := wb.session(r)
	id, _ := s.Values[keyUserID].(int64)
	username, _ := s.Values[keyUsername].(string)
	role, _ := s.Values[keyRole].(string)
	if id == 0 || username == "" {
		return nil
	}
	return &actor.Principal{UserID: id, Username: username, Role: role}
}

func (wb *Web) signIn(w http.ResponseWriter, r *http.Request, user *domain.User) error {
	s := wb.session(r)
	s.Values[keyUserID] = user.ID
	s.Values[keyUsername] = user.Username
	s.Values[keyRole] = string(user.Role)
	return s.Save(r, w)
}

func (wb *Web) signOut(w http.ResponseWriter, r *http.Request) error {
	s := wb.session(r)
	delete(s.Values, keyUserID)
	delete(s.Values, keyUsername)
	delete(s.Values, keyRole)
	return s.Save(r, w)
}

// flash queues a message for the next page and saves the session
func (wb *Web) flash(w http.ResponseWriter, r *http.Request, kind, message string) {
	s := wb.session(r)
	s.AddFlash(message, kind)
	if err := s.Save(r, w); err != nil {
		wb.logger.Warn().Err(err).Msg("failed to save flash message")
	}
}

// takeFlashes pops every queued message. Must run before the response body is written.
func (wb *Web) takeFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	s := wb.session(r)
	var out []Flash
	for _, kind := range []string{flashSuccess, flashError} {
		for _, v := range s.Flashes(kind) {
			if msg, ok := v.(string); ok {
				out = append(out, Flash{Kind: kind, Message: msg})
			}
		}
	}
	if len(out) > 0 {
		if err := s.Save(r, w); err != nil {
			wb.logger.Warn().Err(err).Msg("failed to clear flash messages")
		}
	}
	return out
}
