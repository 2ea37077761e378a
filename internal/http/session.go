package http

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"

	applog "github.com/ishravansankpal/TrackMySpend/internal/log"
)

const (
	sessionName   = "trackmyspend_session"
	sessionUserID = "user_id"
	flashKey      = "_flash"
)

// Flash is a transient user-facing notice, rendered once and discarded.
type Flash struct {
	Message string
	Kind    string // success | danger | warning | info
}

func init() {
	gob.Register(Flash{})
}

type contextKey string

const userIDKey contextKey = "auth_user_id"

// userIDFrom returns the authenticated user id carried by the request
// context. Handlers never read session state directly; the auth middleware is
// the only place the session is resolved.
func userIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

func (s *Server) session(r *http.Request) *sessions.Session {
	// Get never fails fatally: a bad cookie yields a fresh session.
	sess, _ := s.store.Get(r, sessionName)
	return sess
}

func (s *Server) setSessionUser(w http.ResponseWriter, r *http.Request, userID int64) error {
	sess := s.session(r)
	sess.Values[sessionUserID] = userID
	return sess.Save(r, w)
}

func (s *Server) clearSession(w http.ResponseWriter, r *http.Request) {
	// Only the user id is dropped so a queued logout notice still renders.
	sess := s.session(r)
	delete(sess.Values, sessionUserID)
	if err := sess.Save(r, w); err != nil {
		s.logger.ErrorContext(r.Context(), "Session clear failed", applog.FieldError, err)
	}
}

func (s *Server) sessionUserID(r *http.Request) (int64, bool) {
	sess := s.session(r)
	id, ok := sess.Values[sessionUserID].(int64)
	return id, ok
}

// requirePage guards HTML routes: without a session the browser is redirected
// to the login page. The resolved user id travels in the request context.
func (s *Server) requirePage(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.sessionUserID(r)
		if !ok {
			http.Redirect(w, r, "/loginpage", http.StatusSeeOther)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	}
}

// requireAPI guards JSON and download routes: without a session the caller
// gets a structured 401 instead of a redirect.
func (s *Server) requireAPI(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.sessionUserID(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	}
}

// addFlash queues a notice for the next rendered page.
func (s *Server) addFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	sess := s.session(r)
	sess.AddFlash(Flash{Message: message, Kind: kind}, flashKey)
	if err := sess.Save(r, w); err != nil {
		s.logger.ErrorContext(r.Context(), "Flash save failed", applog.FieldError, err)
	}
}

// takeFlashes drains and returns the queued notices.
func (s *Server) takeFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	sess := s.session(r)
	raw := sess.Flashes(flashKey)
	if len(raw) > 0 {
		if err := sess.Save(r, w); err != nil {
			s.logger.ErrorContext(r.Context(), "Flash drain failed", applog.FieldError, err)
		}
	}
	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if fl, ok := f.(Flash); ok {
			flashes = append(flashes, fl)
		}
	}
	return flashes
}
