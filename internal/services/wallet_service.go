// Package services contains the application logic between the HTTP handlers
// and the repository: credential handling, the wallet ledger and the history
// query engine.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/ishravansankpal/TrackMySpend/internal/core"
	applog "github.com/ishravansankpal/TrackMySpend/internal/log"
)

// Repository is the single persistence surface the service works against.
// *storage.SQLiteRepository satisfies it; tests substitute fakes.
type Repository interface {
	CreateUser(ctx context.Context, username, name, email, passwordHash string) (core.User, error)
	UserByUsername(ctx context.Context, username string) (core.User, error)
	UserByID(ctx context.Context, id int64) (core.User, error)
	SetWalletBalance(ctx context.Context, userID int64, balance decimal.Decimal) error
	CreateTransactionWithDebit(ctx context.Context, userID int64, draft core.TransactionDraft) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID int64, f core.Filter) ([]core.Transaction, error)
	RecentTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error)
}

// DashboardRecentLimit is how many transactions the dashboard shows.
const DashboardRecentLimit = 5

// Dashboard is the aggregate view behind the dashboard page: the most recent
// transactions with their per-category sums and overall total.
type Dashboard struct {
	User           core.User
	Recent         []core.Transaction
	CategoryTotals map[string]decimal.Decimal
	TotalExpense   decimal.Decimal
}

type WalletService struct {
	repo       Repository
	bcryptCost int
	logger     *applog.Logger
}

func NewWalletService(repo Repository, bcryptCost int) *WalletService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &WalletService{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     applog.Default(applog.ComponentWallet),
	}
}

// Register hashes the secret and stores the new account. Duplicate username
// or email surfaces as core.ErrConflict.
func (s *WalletService) Register(ctx context.Context, username, name, email, password string) (core.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.repo.CreateUser(ctx, username, name, email, string(hash))
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate verifies the candidate secret against the stored hash.
// Unknown usernames and wrong passwords are indistinguishable to the caller:
// both return core.ErrInvalidCredentials.
func (s *WalletService) Authenticate(ctx context.Context, username, password string) (core.User, error) {
	user, err := s.repo.UserByUsername(ctx, username)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return core.User{}, core.ErrInvalidCredentials
	}
	return user, nil
}

// UpdateWallet applies an explicit top-up or balance edit. "edit" replaces the
// balance with the given amount, "add" increments it. Returns the new balance.
func (s *WalletService) UpdateWallet(ctx context.Context, userID int64, action core.WalletAction, amountStr string) (decimal.Decimal, error) {
	amount, err := core.ParseAmount(amountStr)
	if err != nil {
		return decimal.Zero, err
	}

	var newBalance decimal.Decimal
	switch action {
	case core.WalletActionEdit:
		newBalance = amount
	case core.WalletActionAdd:
		user, err := s.repo.UserByID(ctx, userID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("load user: %w", err)
		}
		newBalance = user.WalletBalance.Add(amount)
	default:
		return decimal.Zero, core.ErrUnknownAction
	}

	if err := s.repo.SetWalletBalance(ctx, userID, newBalance); err != nil {
		return decimal.Zero, fmt.Errorf("set wallet balance: %w", err)
	}

	s.logger.InfoContext(ctx, "Wallet updated",
		applog.FieldUserID, userID,
		applog.FieldAction, string(action),
		applog.FieldAmount, amount.String(),
		applog.FieldBalance, newBalance.String())

	return newBalance, nil
}

// AddTransaction records an expense, debiting the wallet atomically. The
// repository guarantees that the row and the debit commit together or not at
// all; on a shortfall the *core.InsufficientFundsError carries the balance
// current at the attempt.
func (s *WalletService) AddTransaction(ctx context.Context, userID int64, draft core.TransactionDraft) (core.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return s.repo.CreateTransactionWithDebit(ctx, userID, draft)
}

// History runs the query engine over the user's transactions. Malformed
// filter predicates degrade to warnings instead of failing the query; the
// returned warnings tell the caller which predicates were dropped.
func (s *WalletService) History(ctx context.Context, userID int64, expr, startDate, endDate string) ([]core.Transaction, []string, error) {
	filter, warnings := core.ParseFilter(expr, startDate, endDate)
	txns, err := s.repo.ListTransactions(ctx, userID, filter)
	if err != nil {
		return nil, warnings, fmt.Errorf("list transactions: %w", err)
	}
	return txns, warnings, nil
}

// LoadDashboard builds the dashboard aggregate: wallet balance, the five most
// recent transactions, and category sums over that same recent set.
func (s *WalletService) LoadDashboard(ctx context.Context, userID int64) (Dashboard, error) {
	user, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("load user: %w", err)
	}
	recent, err := s.repo.RecentTransactions(ctx, userID, DashboardRecentLimit)
	if err != nil {
		return Dashboard{}, fmt.Errorf("recent transactions: %w", err)
	}

	totals := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, t := range recent {
		totals[t.Category] = totals[t.Category].Add(t.Amount)
		total = total.Add(t.Amount)
	}

	return Dashboard{
		User:           user,
		Recent:         recent,
		CategoryTotals: totals,
		TotalExpense:   total,
	}, nil
}

// ChartData returns the visualization feed: every transaction of the user as
// a {category, amount, date} point.
func (s *WalletService) ChartData(ctx context.Context, userID int64) ([]core.ChartPoint, error) {
	txns, err := s.repo.ListTransactions(ctx, userID, core.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	points := make([]core.ChartPoint, len(txns))
	for i, t := range txns {
		points[i] = core.ChartPoint{
			Category: t.Category,
			Amount:   json.Number(t.Amount.String()),
			Date:     t.DateString(),
		}
	}
	return points, nil
}

// User loads a single account by id.
func (s *WalletService) User(ctx context.Context, userID int64) (core.User, error) {
	return s.repo.UserByID(ctx, userID)
}
