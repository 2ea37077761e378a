package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/ishravansankpal/TrackMySpend/internal/core"
	"github.com/ishravansankpal/TrackMySpend/internal/services"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// fakeRepo is an in-memory services.Repository so handlers can be exercised
// without SQLite.
type fakeRepo struct {
	users  map[int64]core.User
	txns   []core.Transaction
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[int64]core.User), nextID: 1}
}

func (f *fakeRepo) CreateUser(ctx context.Context, username, name, email, passwordHash string) (core.User, error) {
	for _, u := range f.users {
		if u.Username == username || u.Email == email {
			return core.User{}, core.ErrConflict
		}
	}
	u := core.User{ID: f.nextID, Username: username, Name: name, Email: email,
		PasswordHash: passwordHash, WalletBalance: decimal.Zero}
	f.users[u.ID] = u
	f.nextID++
	return u, nil
}

func (f *fakeRepo) UserByUsername(ctx context.Context, username string) (core.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (f *fakeRepo) UserByID(ctx context.Context, id int64) (core.User, error) {
	u, ok := f.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (f *fakeRepo) SetWalletBalance(ctx context.Context, userID int64, balance decimal.Decimal) error {
	u, ok := f.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.WalletBalance = balance
	f.users[userID] = u
	return nil
}

func (f *fakeRepo) CreateTransactionWithDebit(ctx context.Context, userID int64, draft core.TransactionDraft) (core.Transaction, error) {
	u, ok := f.users[userID]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	if u.WalletBalance.LessThan(draft.Amount) {
		return core.Transaction{}, &core.InsufficientFundsError{Balance: u.WalletBalance}
	}
	t := core.Transaction{
		ID: f.nextID, UserID: userID, Name: draft.Name, Amount: draft.Amount,
		Category: draft.Category, Date: draft.Date, Time: draft.Time,
		PaymentMode: draft.PaymentMode, Note: draft.Note,
	}
	f.nextID++
	f.txns = append(f.txns, t)
	u.WalletBalance = u.WalletBalance.Sub(draft.Amount)
	f.users[userID] = u
	return t, nil
}

func (f *fakeRepo) ListTransactions(ctx context.Context, userID int64, filter core.Filter) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range f.txns {
		if t.UserID != userID {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if filter.PaymentMode != "" && t.PaymentMode != filter.PaymentMode {
			continue
		}
		if filter.HasRange && (t.Date.Before(filter.Start) || t.Date.After(filter.End)) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeRepo) RecentTransactions(ctx context.Context, userID int64, limit int) ([]core.Transaction, error) {
	all, _ := f.ListTransactions(ctx, userID, core.Filter{})
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func newTestServer(t *testing.T) (*Server, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	svc := services.NewWalletService(repo, bcrypt.MinCost)
	return NewServer(":0", svc, testSecret), repo
}

// do sends a request through the router, attaching any cookies from a
// previous response so a test can carry a session across requests.
func do(srv *Server, method, target string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

// sessionCookies returns the latest value of each cookie set by the response.
func sessionCookies(rr *httptest.ResponseRecorder) []*http.Cookie {
	byName := map[string]*http.Cookie{}
	for _, c := range rr.Result().Cookies() {
		byName[c.Name] = c
	}
	out := make([]*http.Cookie, 0, len(byName))
	for _, c := range byName {
		out = append(out, c)
	}
	return out
}

// login registers and authenticates a user, returning the session cookies.
func login(t *testing.T, srv *Server) []*http.Cookie {
	t.Helper()
	rr := do(srv, http.MethodPost, "/register", url.Values{
		"username": {"alice"}, "name": {"Alice"},
		"email": {"alice@example.com"}, "password": {"s3cret"},
	}, nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("register status=%d", rr.Code)
	}

	rr = do(srv, http.MethodPost, "/login", url.Values{
		"username": {"alice"}, "password": {"s3cret"},
	}, nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("login status=%d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("login redirect=%q, want /dashboard", loc)
	}
	return sessionCookies(rr)
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(srv, http.MethodGet, path, nil, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestHomePageRenders(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/", "/homepage"} {
		rr := do(srv, http.MethodGet, path, nil, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "TrackMySpend") {
			t.Fatalf("%s body missing heading", path)
		}
	}
}

func TestProtectedPageRedirectsWithoutSession(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/dashboard", "/history", "/index", "/add_transaction", "/visualization"} {
		rr := do(srv, http.MethodGet, path, nil, nil)
		if rr.Code != http.StatusSeeOther {
			t.Fatalf("%s status=%d, want 303", path, rr.Code)
		}
		if loc := rr.Header().Get("Location"); loc != "/loginpage" {
			t.Fatalf("%s redirect=%q, want /loginpage", path, loc)
		}
	}
}

func TestAPIEndpointsReturn401WithoutSession(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/api/transactions", "/export_transactions", "/export_transactions_pdf"} {
		rr := do(srv, http.MethodGet, path, nil, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s status=%d, want 401", path, rr.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s body not JSON: %v", path, err)
		}
		if body["error"] != "Unauthorized" {
			t.Fatalf("%s error=%q", path, body["error"])
		}
	}
}

func TestRegisterConflictRedirectsBack(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(srv, http.MethodPost, "/register", url.Values{
		"username": {"alice"}, "name": {"Alice"},
		"email": {"alice@example.com"}, "password": {"pw"},
	}, nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("register status=%d", rr.Code)
	}

	// Same email, different username: still a conflict, back to /register.
	rr = do(srv, http.MethodPost, "/register", url.Values{
		"username": {"alice2"}, "name": {"Alice"},
		"email": {"alice@example.com"}, "password": {"pw"},
	}, nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("duplicate register status=%d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/register" {
		t.Fatalf("duplicate register redirect=%q, want /register", loc)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	srv, _ := newTestServer(t)
	login(t, srv) // registers alice

	rr := do(srv, http.MethodPost, "/login", url.Values{
		"username": {"alice"}, "password": {"wrong"},
	}, nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("login status=%d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/loginpage" {
		t.Fatalf("login redirect=%q, want /loginpage", loc)
	}
}

func TestDashboardShowsBalance(t *testing.T) {
	srv, repo := newTestServer(t)
	cookies := login(t, srv)
	_ = repo.SetWalletBalance(context.Background(), 1, decimal.RequireFromString("42.50"))

	rr := do(srv, http.MethodGet, "/dashboard", nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "42.50") {
		t.Fatalf("dashboard body missing balance: %s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Alice") {
		t.Fatalf("dashboard body missing user name")
	}
}

func TestUpdateWallet(t *testing.T) {
	srv, repo := newTestServer(t)
	cookies := login(t, srv)
	ctx := context.Background()

	rr := do(srv, http.MethodPost, "/update_wallet", url.Values{
		"action": {"add"}, "amount": {"50"},
	}, cookies)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/dashboard" {
		t.Fatalf("update status=%d loc=%q", rr.Code, rr.Header().Get("Location"))
	}
	u, _ := repo.UserByID(ctx, 1)
	if !u.WalletBalance.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("balance = %s, want 50", u.WalletBalance)
	}

	// Non-numeric input leaves the balance alone.
	do(srv, http.MethodPost, "/update_wallet", url.Values{
		"action": {"add"}, "amount": {"abc"},
	}, cookies)
	u, _ = repo.UserByID(ctx, 1)
	if !u.WalletBalance.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("balance after bad input = %s, want 50", u.WalletBalance)
	}

	// Unknown action: warning, no mutation.
	do(srv, http.MethodPost, "/update_wallet", url.Values{
		"action": {"withdraw"}, "amount": {"10"},
	}, cookies)
	u, _ = repo.UserByID(ctx, 1)
	if !u.WalletBalance.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("balance after unknown action = %s, want 50", u.WalletBalance)
	}

	// Edit replaces.
	do(srv, http.MethodPost, "/update_wallet", url.Values{
		"action": {"edit"}, "amount": {"100"},
	}, cookies)
	u, _ = repo.UserByID(ctx, 1)
	if !u.WalletBalance.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("balance after edit = %s, want 100", u.WalletBalance)
	}
}

func addTxnForm(name, amount, category string) url.Values {
	return url.Values{
		"name":         {name},
		"amount":       {amount},
		"category":     {category},
		"date":         {"2024-03-10"},
		"time":         {"12:30"},
		"payment_mode": {"Card"},
		"note":         {""},
	}
}

func TestAddTransactionFlow(t *testing.T) {
	srv, repo := newTestServer(t)
	cookies := login(t, srv)
	ctx := context.Background()
	_ = repo.SetWalletBalance(ctx, 1, decimal.RequireFromString("100.00"))

	rr := do(srv, http.MethodPost, "/add_transaction", addTxnForm("Groceries", "40.00", "Food"), cookies)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/history" {
		t.Fatalf("add status=%d loc=%q", rr.Code, rr.Header().Get("Location"))
	}
	u, _ := repo.UserByID(ctx, 1)
	if !u.WalletBalance.Equal(decimal.RequireFromString("60")) {
		t.Fatalf("balance = %s, want 60", u.WalletBalance)
	}

	// Exceeds the remaining balance: no row, balance unchanged, still lands
	// on history with a notice.
	rr = do(srv, http.MethodPost, "/add_transaction", addTxnForm("TV", "90.00", "Electronics"), cookies)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/history" {
		t.Fatalf("rejected add status=%d loc=%q", rr.Code, rr.Header().Get("Location"))
	}
	if len(repo.txns) != 1 {
		t.Fatalf("txns = %d, want 1", len(repo.txns))
	}
	u, _ = repo.UserByID(ctx, 1)
	if !u.WalletBalance.Equal(decimal.RequireFromString("60")) {
		t.Fatalf("balance after rejection = %s, want 60", u.WalletBalance)
	}
}

func TestHistoryRendersTransactions(t *testing.T) {
	srv, repo := newTestServer(t)
	cookies := login(t, srv)
	_ = repo.SetWalletBalance(context.Background(), 1, decimal.RequireFromString("100"))
	do(srv, http.MethodPost, "/add_transaction", addTxnForm("Groceries", "40.00", "Food"), cookies)

	rr := do(srv, http.MethodGet, "/history", nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("history status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Groceries") {
		t.Fatalf("history body missing transaction")
	}

	// A category filter narrows the view.
	rr = do(srv, http.MethodGet, "/history?filter=category:Travel", nil, cookies)
	if strings.Contains(rr.Body.String(), "Groceries") {
		t.Fatalf("filtered history should not list Groceries")
	}
}

func TestAPITransactions(t *testing.T) {
	srv, repo := newTestServer(t)
	cookies := login(t, srv)
	_ = repo.SetWalletBalance(context.Background(), 1, decimal.RequireFromString("100"))
	do(srv, http.MethodPost, "/add_transaction", addTxnForm("Groceries", "40.00", "Food"), cookies)

	rr := do(srv, http.MethodGet, "/api/transactions", nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("api status=%d", rr.Code)
	}
	var points []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &points); err != nil {
		t.Fatalf("api body not JSON: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("points = %d, want 1", len(points))
	}
	if points[0]["category"] != "Food" || points[0]["date"] != "2024-03-10" {
		t.Fatalf("unexpected point: %v", points[0])
	}
	// Amounts are bare JSON numbers for the chart, not quoted strings.
	if amount, ok := points[0]["amount"].(float64); !ok || amount != 40 {
		t.Fatalf("amount = %v (%T), want the number 40", points[0]["amount"], points[0]["amount"])
	}
	if strings.Contains(rr.Body.String(), `"amount":"`) {
		t.Fatalf("amount serialized as a string: %s", rr.Body.String())
	}
}

func TestRequestLogCarriesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	srv, _ := newTestServer(t)
	rr := do(srv, http.MethodGet, "/healthz", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}

	out := buf.String()
	for _, want := range []string{
		"component=http",
		"request_id=",
		"method=GET",
		"path=/healthz",
		"status_code=200",
		"duration_ms=",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("request log missing %q: %s", want, out)
		}
	}
}

func TestExportCSVDownload(t *testing.T) {
	srv, repo := newTestServer(t)
	cookies := login(t, srv)
	_ = repo.SetWalletBalance(context.Background(), 1, decimal.RequireFromString("100"))
	do(srv, http.MethodPost, "/add_transaction", addTxnForm("Groceries", "40.00", "Food"), cookies)

	rr := do(srv, http.MethodGet, "/export_transactions", nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("export status=%d", rr.Code)
	}
	if got := rr.Header().Get("Content-Disposition"); got != "attachment; filename=transactions.csv" {
		t.Fatalf("disposition=%q", got)
	}
	body := rr.Body.String()
	if !strings.HasPrefix(body, "ID,Name,Amount,Category,Date,Time,Payment Mode,Note\n") {
		t.Fatalf("csv header missing: %s", body)
	}
	if !strings.Contains(body, ",,,Total,,,40,") {
		t.Fatalf("csv totals row missing: %s", body)
	}
	if !strings.Contains(body, ",,,Remaining Wallet Balance,,,60,") {
		t.Fatalf("csv balance row missing: %s", body)
	}
}

func TestExportPDFDownload(t *testing.T) {
	srv, repo := newTestServer(t)
	cookies := login(t, srv)
	_ = repo.SetWalletBalance(context.Background(), 1, decimal.RequireFromString("100"))
	do(srv, http.MethodPost, "/add_transaction", addTxnForm("Groceries", "40.00", "Food"), cookies)

	rr := do(srv, http.MethodGet, "/export_transactions_pdf", nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("export status=%d", rr.Code)
	}
	if got := rr.Header().Get("Content-Disposition"); got != "attachment; filename=transactions.pdf" {
		t.Fatalf("disposition=%q", got)
	}
	if !strings.HasPrefix(rr.Body.String(), "%PDF") {
		t.Fatalf("body is not a PDF")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	srv, _ := newTestServer(t)
	cookies := login(t, srv)

	rr := do(srv, http.MethodGet, "/logout", nil, cookies)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/" {
		t.Fatalf("logout status=%d loc=%q", rr.Code, rr.Header().Get("Location"))
	}

	// The refreshed cookie no longer authenticates.
	rr = do(srv, http.MethodGet, "/dashboard", nil, sessionCookies(rr))
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/loginpage" {
		t.Fatalf("post-logout dashboard status=%d loc=%q", rr.Code, rr.Header().Get("Location"))
	}
}
