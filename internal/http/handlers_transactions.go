package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ishravansankpal/TrackMySpend/internal/core"
	applog "github.com/ishravansankpal/TrackMySpend/internal/log"
)

// handleAddTransactionForm renders the add-transaction page with the current
// wallet balance.
func (s *Server) handleAddTransactionForm(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	user, err := s.svc.User(r.Context(), userID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "User load failed", applog.FieldError, err, applog.FieldUserID, userID)
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "index.html", map[string]any{
		"Name":          user.Name,
		"WalletBalance": user.WalletBalance.StringFixed(2),
	})
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.handleAddTransactionForm(w, r)
		return
	}

	userID, _ := userIDFrom(r.Context())

	if err := r.ParseForm(); err != nil {
		s.addFlash(w, r, "danger", "Invalid request.")
		http.Redirect(w, r, "/add_transaction", http.StatusSeeOther)
		return
	}

	amount, err := core.ParsePositiveAmount(r.Form.Get("amount"))
	if err != nil {
		s.addFlash(w, r, "danger", "Invalid amount entered")
		http.Redirect(w, r, "/add_transaction", http.StatusSeeOther)
		return
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(r.Form.Get("date")))
	if err != nil {
		s.addFlash(w, r, "danger", "Invalid date. Expected 'YYYY-MM-DD'.")
		http.Redirect(w, r, "/add_transaction", http.StatusSeeOther)
		return
	}

	draft := core.TransactionDraft{
		Name:        strings.TrimSpace(r.Form.Get("name")),
		Amount:      amount,
		Category:    strings.TrimSpace(r.Form.Get("category")),
		Date:        date,
		Time:        strings.TrimSpace(r.Form.Get("time")),
		PaymentMode: strings.TrimSpace(r.Form.Get("payment_mode")),
		Note:        strings.TrimSpace(r.Form.Get("note")),
	}

	_, err = s.svc.AddTransaction(r.Context(), userID, draft)
	var insufficient *core.InsufficientFundsError
	switch {
	case errors.As(err, &insufficient):
		s.addFlash(w, r, "danger",
			fmt.Sprintf("Insufficient wallet balance! Your current balance is %s.", insufficient.Balance.StringFixed(2)))
		http.Redirect(w, r, "/history", http.StatusSeeOther)
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Add transaction failed", applog.FieldError, err, applog.FieldUserID, userID)
		s.addFlash(w, r, "danger", "Could not add transaction: "+err.Error())
		http.Redirect(w, r, "/add_transaction", http.StatusSeeOther)
	default:
		s.addFlash(w, r, "success", "Transaction added successfully!")
		http.Redirect(w, r, "/history", http.StatusSeeOther)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())
	q := r.URL.Query()

	txns, warnings, err := s.svc.History(r.Context(), userID,
		q.Get("filter"), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "History query failed",
			applog.FieldError, err, applog.FieldUserID, userID, applog.FieldFilter, q.Get("filter"))
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	for _, warning := range warnings {
		s.addFlash(w, r, "warning", warning)
	}
	if len(txns) == 0 {
		s.addFlash(w, r, "info", "No transactions found for the selected filters.")
	}

	s.render(w, r, "history.html", map[string]any{
		"Transactions": toTxViews(txns),
		"Filter":       q.Get("filter"),
		"StartDate":    q.Get("start_date"),
		"EndDate":      q.Get("end_date"),
	})
}

func (s *Server) handleVisualization(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "visual.html", nil)
}

// handleAPITransactions feeds the visualization chart with every transaction
// of the session user as {category, amount, date}.
func (s *Server) handleAPITransactions(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	points, err := s.svc.ChartData(r.Context(), userID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Chart data query failed", applog.FieldError, err, applog.FieldUserID, userID)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "failed to load transactions"})
		return
	}
	if points == nil {
		points = []core.ChartPoint{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(points); err != nil {
		s.logger.ErrorContext(r.Context(), "Chart data encode failed", applog.FieldError, err)
	}
}
