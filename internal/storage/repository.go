package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ishravansankpal/TrackMySpend/internal/core"
	applog "github.com/ishravansankpal/TrackMySpend/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the single access path to users and transactions.
// Monetary columns are stored as decimal TEXT and never touch floats.
type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: applog.Default(applog.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser stores a new account with a zero wallet balance. The caller is
// expected to pass an already-hashed secret. Returns core.ErrConflict when the
// username or email is already taken.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, name, email, passwordHash string) (core.User, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`,
		username, email).Scan(&exists)
	if err != nil {
		return core.User{}, fmt.Errorf("check existing user: %w", err)
	}
	if exists > 0 {
		return core.User{}, core.ErrConflict
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, name, email, password_hash, wallet_balance) VALUES (?, ?, ?, ?, '0')`,
		username, name, email, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.ErrConflict
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("last insert id: %w", err)
	}

	r.logger.InfoContext(ctx, "User created", applog.FieldUserID, id, applog.FieldUsername, username)

	return core.User{
		ID:            id,
		Username:      username,
		Name:          name,
		Email:         email,
		PasswordHash:  passwordHash,
		WalletBalance: decimal.Zero,
	}, nil
}

func (r *SQLiteRepository) UserByUsername(ctx context.Context, username string) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, username, name, email, password_hash, wallet_balance FROM users WHERE username = ?`,
		username))
}

func (r *SQLiteRepository) UserByID(ctx context.Context, id int64) (core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, username, name, email, password_hash, wallet_balance FROM users WHERE id = ?`,
		id))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	var balance string
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.PasswordHash, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.WalletBalance, err = decimal.NewFromString(balance)
	if err != nil {
		return core.User{}, fmt.Errorf("parse stored balance %q: %w", balance, err)
	}
	return u, nil
}

// SetWalletBalance replaces the stored balance. Used by the "edit" and "add"
// wallet actions; the ledger-coupled debit path goes through
// CreateTransactionWithDebit instead.
func (r *SQLiteRepository) SetWalletBalance(ctx context.Context, userID int64, balance decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET wallet_balance = ? WHERE id = ?`,
		balance.String(), userID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// CreateTransactionWithDebit inserts the transaction and debits the owner's
// wallet as one committed unit. The balance check, the insert and the update
// all happen inside a single database transaction, so a record can never exist
// without its matching debit. A shortfall rolls back and returns
// *core.InsufficientFundsError carrying the balance read inside the
// transaction.
func (r *SQLiteRepository) CreateTransactionWithDebit(ctx context.Context, userID int64, draft core.TransactionDraft) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var balanceStr string
	err = tx.QueryRowContext(ctx,
		`SELECT wallet_balance FROM users WHERE id = ?`, userID).Scan(&balanceStr)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("read wallet balance: %w", err)
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored balance %q: %w", balanceStr, err)
	}

	if balance.LessThan(draft.Amount) {
		return core.Transaction{}, &core.InsufficientFundsError{Balance: balance}
	}

	var note any
	if draft.Note != "" {
		note = draft.Note
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (user_id, name, amount, category, date, time, payment_mode, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, draft.Name, draft.Amount.String(), draft.Category,
		draft.Date.Format("2006-01-02"), draft.Time, draft.PaymentMode, note)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}

	newBalance := balance.Sub(draft.Amount)
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET wallet_balance = ? WHERE id = ?`,
		newBalance.String(), userID); err != nil {
		return core.Transaction{}, fmt.Errorf("debit wallet: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit transaction: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction created",
		"id", id,
		applog.FieldUserID, userID,
		applog.FieldAmount, draft.Amount.String(),
		applog.FieldCategory, draft.Category,
		applog.FieldBalance, newBalance.String())

	return core.Transaction{
		ID:          id,
		UserID:      userID,
		Name:        draft.Name,
		Amount:      draft.Amount,
		Category:    draft.Category,
		Date:        draft.Date,
		Time:        draft.Time,
		PaymentMode: draft.PaymentMode,
		Note:        draft.Note,
	}, nil
}

// ListTransactions returns the user's transactions matching the filter,
// ordered by date descending with insertion order on ties. Dates are stored as
// YYYY-MM-DD text, so BETWEEN gives an inclusive calendar range.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64, f core.Filter) ([]core.Transaction, error) {
	query := `SELECT id, user_id, name, amount, category, date, time, payment_mode, note
	          FROM transactions WHERE user_id = ?`
	args := []any{userID}

	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.PaymentMode != "" {
		query += ` AND payment_mode = ?`
		args = append(args, f.PaymentMode)
	}
	if f.HasRange {
		query += ` AND date BETWEEN ? AND ?`
		args = append(args, f.Start.Format("2006-01-02"), f.End.Format("2006-01-02"))
	}
	query += ` ORDER BY date DESC, id ASC`

	return r.queryTransactions(ctx, query, args...)
}

// RecentTransactions returns the user's most recent transactions for the
// dashboard, newest date first.
func (r *SQLiteRepository) RecentTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT id, user_id, name, amount, category, date, time, payment_mode, note
		 FROM transactions WHERE user_id = ? ORDER BY date DESC, id ASC LIMIT ?`,
		userID, limit)
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func scanTransaction(rows *sql.Rows) (core.Transaction, error) {
	var t core.Transaction
	var amount, date string
	var note sql.NullString
	if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &amount, &t.Category, &date, &t.Time, &t.PaymentMode, &note); err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	var err error
	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	t.Date, err = parseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	t.Note = note.String
	return t, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
