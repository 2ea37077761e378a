package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ishravansankpal/TrackMySpend/internal/core"
	applog "github.com/ishravansankpal/TrackMySpend/internal/log"
)

// txView is the template-facing shape of a transaction with amounts
// preformatted as fixed-point strings.
type txView struct {
	ID          int64
	Name        string
	Amount      string
	Category    string
	Date        string
	Time        string
	PaymentMode string
	Note        string
}

func toTxViews(txns []core.Transaction) []txView {
	views := make([]txView, len(txns))
	for i, t := range txns {
		views[i] = txView{
			ID:          t.ID,
			Name:        t.Name,
			Amount:      t.Amount.StringFixed(2),
			Category:    t.Category,
			Date:        t.DateString(),
			Time:        t.Time,
			PaymentMode: t.PaymentMode,
			Note:        t.Note,
		}
	}
	return views
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	dash, err := s.svc.LoadDashboard(r.Context(), userID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Dashboard load failed", applog.FieldError, err, applog.FieldUserID, userID)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	categoryTotals := make(map[string]string, len(dash.CategoryTotals))
	for cat, sum := range dash.CategoryTotals {
		categoryTotals[cat] = sum.StringFixed(2)
	}

	s.render(w, r, "dashboard.html", map[string]any{
		"Name":           dash.User.Name,
		"WalletBalance":  dash.User.WalletBalance.StringFixed(2),
		"Transactions":   toTxViews(dash.Recent),
		"CategoryTotals": categoryTotals,
		"TotalExpense":   dash.TotalExpense.StringFixed(2),
	})
}

func (s *Server) handleUpdateWallet(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFrom(r.Context())

	if err := r.ParseForm(); err != nil {
		s.addFlash(w, r, "danger", "Invalid request.")
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	action := core.WalletAction(r.Form.Get("action"))
	amountStr := strings.TrimSpace(r.Form.Get("amount"))

	if amountStr == "" {
		s.addFlash(w, r, "danger", "Amount cannot be empty")
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	_, err := s.svc.UpdateWallet(r.Context(), userID, action, amountStr)
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		s.addFlash(w, r, "danger", "Invalid amount entered")
	case errors.Is(err, core.ErrUnknownAction):
		s.addFlash(w, r, "warning", "Unknown action")
	case err != nil:
		s.logger.ErrorContext(r.Context(), "Wallet update failed",
			applog.FieldError, err, applog.FieldUserID, userID, applog.FieldAction, string(action))
		s.addFlash(w, r, "danger", "Wallet update failed, please try again.")
	default:
		s.addFlash(w, r, "success", "Wallet updated successfully!")
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
