// Package http exposes the tracker over a session-authenticated HTML and
// JSON surface.
package http

import (
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	applog "github.com/ishravansankpal/TrackMySpend/internal/log"
	"github.com/ishravansankpal/TrackMySpend/internal/services"
	appweb "github.com/ishravansankpal/TrackMySpend/web"
)

type Server struct {
	http.Server
	templates *template.Template
	store     *sessions.CookieStore
	svc       *services.WalletService
	logger    *applog.Logger
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, svc *services.WalletService, sessionSecret string) *Server {
	router := mux.NewRouter()

	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: router,
		},
		store:  store,
		svc:    svc,
		logger: applog.Default(applog.ComponentHTTP),
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	router.Use(s.withRequestLog)

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		router.PathPrefix("/static/").Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	router.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	router.HandleFunc("/homepage", s.handleHome).Methods(http.MethodGet)
	router.HandleFunc("/loginpage", s.handleLoginPage).Methods(http.MethodGet)
	router.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	router.HandleFunc("/register", s.handleRegister).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/logout", s.handleLogout).Methods(http.MethodGet)

	router.HandleFunc("/dashboard", s.requirePage(s.handleDashboard)).Methods(http.MethodGet)
	router.HandleFunc("/update_wallet", s.requirePage(s.handleUpdateWallet)).Methods(http.MethodPost)
	router.HandleFunc("/index", s.requirePage(s.handleAddTransactionForm)).Methods(http.MethodGet)
	router.HandleFunc("/add_transaction", s.requirePage(s.handleAddTransaction)).Methods(http.MethodGet, http.MethodPost)
	router.HandleFunc("/history", s.requirePage(s.handleHistory)).Methods(http.MethodGet)
	router.HandleFunc("/visualization", s.requirePage(s.handleVisualization)).Methods(http.MethodGet)

	router.HandleFunc("/api/transactions", s.requireAPI(s.handleAPITransactions)).Methods(http.MethodGet)
	router.HandleFunc("/export_transactions", s.requireAPI(s.handleExportCSV)).Methods(http.MethodGet)
	router.HandleFunc("/export_transactions_pdf", s.requireAPI(s.handleExportPDF)).Methods(http.MethodGet)

	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", handleReady).Methods(http.MethodGet)

	return s
}

// withRequestLog tags every request with an id and logs start and completion.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		s.logger.InfoContext(r.Context(), "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logger.InfoContext(r.Context(), "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds())
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// render executes a template with the drained flash notices attached.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["Flashes"] = s.takeFlashes(w, r)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", applog.FieldError, err, "template", name)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
