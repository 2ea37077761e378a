package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	WalletActionEdit WalletAction = "edit"
	WalletActionAdd  WalletAction = "add"
)

type (
	// WalletAction selects how a wallet update is applied: "edit" replaces the
	// balance, "add" increments it.
	WalletAction string

	// User is a registered account with a spendable wallet balance.
	User struct {
		ID            int64
		Username      string
		Name          string
		Email         string
		PasswordHash  string
		WalletBalance decimal.Decimal
	}

	// Transaction is an immutable expense record owned by exactly one user.
	Transaction struct {
		ID          int64
		UserID      int64
		Name        string
		Amount      decimal.Decimal
		Category    string
		Date        time.Time // calendar date, zero clock
		Time        string    // HH:MM
		PaymentMode string
		Note        string
	}

	// TransactionDraft carries the user-supplied fields for a new transaction
	// before it is persisted and assigned an ID.
	TransactionDraft struct {
		Name        string
		Amount      decimal.Decimal
		Category    string
		Date        time.Time
		Time        string
		PaymentMode string
		Note        string
	}

	// ChartPoint is one entry of the visualization feed. Amount is a
	// json.Number so the feed serves unquoted numbers while keeping the exact
	// decimal digits.
	ChartPoint struct {
		Category string      `json:"category"`
		Amount   json.Number `json:"amount"`
		Date     string      `json:"date"`
	}
)

var (
	ErrConflict           = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrUnknownAction      = errors.New("unknown wallet action")
	ErrNotFound           = errors.New("not found")
)

// InsufficientFundsError reports a rejected debit together with the balance
// that was current when the attempt was made, so callers can display it.
type InsufficientFundsError struct {
	Balance decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient wallet balance: %s available", e.Balance.StringFixed(2))
}

func (t TransactionDraft) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("empty transaction name")
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return errors.New("empty category")
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if _, err := time.Parse("15:04", t.Time); err != nil {
		return errors.New("invalid time, expected HH:MM")
	}
	if strings.TrimSpace(t.PaymentMode) == "" {
		return errors.New("empty payment mode")
	}
	return nil
}

// DateString formats the transaction date in calendar form.
func (t Transaction) DateString() string {
	return t.Date.Format("2006-01-02")
}
