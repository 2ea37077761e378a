package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ishravansankpal/TrackMySpend/internal/core"
	applog "github.com/ishravansankpal/TrackMySpend/internal/log"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "homepage.html", nil)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login.html", nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.addFlash(w, r, "danger", "Invalid request.")
		http.Redirect(w, r, "/loginpage", http.StatusSeeOther)
		return
	}
	username := strings.TrimSpace(r.Form.Get("username"))
	password := r.Form.Get("password")

	user, err := s.svc.Authenticate(r.Context(), username, password)
	if errors.Is(err, core.ErrInvalidCredentials) {
		s.addFlash(w, r, "danger", "Invalid credentials, please try again.")
		http.Redirect(w, r, "/loginpage", http.StatusSeeOther)
		return
	}
	if err != nil {
		s.logger.WithComponent(applog.ComponentAuth).ErrorContext(r.Context(), "Login failed",
			applog.FieldError, err, applog.FieldUsername, username)
		s.addFlash(w, r, "danger", "Login failed, please try again.")
		http.Redirect(w, r, "/loginpage", http.StatusSeeOther)
		return
	}

	if err := s.setSessionUser(w, r, user.ID); err != nil {
		s.logger.WithComponent(applog.ComponentAuth).ErrorContext(r.Context(), "Session save failed",
			applog.FieldError, err, applog.FieldUserID, user.ID)
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	s.addFlash(w, r, "success", "Login successful!")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.render(w, r, "register.html", nil)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.addFlash(w, r, "danger", "Invalid request.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}
	username := strings.TrimSpace(r.Form.Get("username"))
	name := strings.TrimSpace(r.Form.Get("name"))
	email := strings.TrimSpace(r.Form.Get("email"))
	password := r.Form.Get("password")

	if username == "" || name == "" || email == "" || password == "" {
		s.addFlash(w, r, "danger", "All fields are required.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	_, err := s.svc.Register(r.Context(), username, name, email, password)
	if errors.Is(err, core.ErrConflict) {
		s.addFlash(w, r, "danger", "Username or email already exists.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}
	if err != nil {
		s.logger.WithComponent(applog.ComponentAuth).ErrorContext(r.Context(), "Registration failed",
			applog.FieldError, err, applog.FieldUsername, username)
		s.addFlash(w, r, "danger", "Registration failed, please try again.")
		http.Redirect(w, r, "/register", http.StatusSeeOther)
		return
	}

	s.addFlash(w, r, "success", "Registration successful! You can now log in.")
	http.Redirect(w, r, "/loginpage", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSession(w, r)
	s.addFlash(w, r, "info", "You have been logged out.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
