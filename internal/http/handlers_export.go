package http

import (
	"bytes"
	"net/http"

	"github.com/ishravansankpal/TrackMySpend/internal/core"
	"github.com/ishravansankpal/TrackMySpend/internal/export"
	applog "github.com/ishravansankpal/TrackMySpend/internal/log"
)

// exportSet resolves the filtered transaction set and the current wallet
// balance shared by both exporters. The filter semantics are exactly those of
// the history view.
func (s *Server) exportSet(r *http.Request) ([]core.Transaction, core.User, error) {
	userID, _ := userIDFrom(r.Context())
	q := r.URL.Query()

	txns, _, err := s.svc.History(r.Context(), userID,
		q.Get("filter"), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		return nil, core.User{}, err
	}
	user, err := s.svc.User(r.Context(), userID)
	if err != nil {
		return nil, core.User{}, err
	}
	return txns, user, nil
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	txns, user, err := s.exportSet(r)
	if err != nil {
		s.logger.WithComponent(applog.ComponentExport).ErrorContext(r.Context(), "CSV export failed", applog.FieldError, err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, txns, user.WalletBalance); err != nil {
		s.logger.WithComponent(applog.ComponentExport).ErrorContext(r.Context(), "CSV render failed",
			applog.FieldError, err, applog.FieldUserID, user.ID)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=transactions.csv")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	txns, user, err := s.exportSet(r)
	if err != nil {
		s.logger.WithComponent(applog.ComponentExport).ErrorContext(r.Context(), "PDF export failed", applog.FieldError, err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.WritePDF(&buf, txns, user.WalletBalance); err != nil {
		s.logger.WithComponent(applog.ComponentExport).ErrorContext(r.Context(), "PDF render failed",
			applog.FieldError, err, applog.FieldUserID, user.ID)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=transactions.pdf")
	_, _ = w.Write(buf.Bytes())
}
