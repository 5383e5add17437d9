package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kidzy-family/kidzy/internal/app/auth"
	"github.com/kidzy-family/kidzy/internal/app/engagement"
	"github.com/kidzy-family/kidzy/internal/app/household"
	"github.com/kidzy-family/kidzy/internal/domain"
	"github.com/kidzy-family/kidzy/internal/health"
	"github.com/kidzy-family/kidzy/internal/infra/sqlite"
)

// Friday 2024-03-15; its challenges are big_earner, streak_builder, task_master.
var testNow = time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)

type testEnv struct {
	srv   *Server
	h     http.Handler
	store *household.Store
	kidID string
	pin   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	db, err := sqlite.Open(dir, sqlite.Options{Logger: log})
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	reducer := &household.Reducer{Clock: func() time.Time { return testNow }, NewID: household.NewID}
	store, err := household.NewStore(context.Background(), db, reducer, log)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	hashed, err := auth.HashPIN("4821")
	if err != nil {
		t.Fatal(err)
	}
	out, err := store.Dispatch(context.Background(), household.SetupFamily{
		FamilyName: "Rivera", PIN: hashed, ParentName: "Sam", ParentEmail: "sam@example.com",
		Kids: []household.KidInput{{Name: "Ava"}},
	})
	if err != nil || !out.Applied {
		t.Fatalf("setup: %v %v", out.Reason, err)
	}
	parentID := store.Snapshot().Parents[0].ID
	if out, err := store.Dispatch(context.Background(), household.SetCurrentParent{ParentID: parentID}); err != nil || !out.Applied {
		t.Fatalf("login: %v %v", out.Reason, err)
	}

	limiter := auth.NewLimiter(db, auth.DefaultLockoutConfig(), func() time.Time { return testNow })
	srv := NewServer(store, auth.NewAuthenticator(store, limiter, log), engagement.NewSeededRoller(7), log)
	srv.EnableMetrics()

	checker := health.NewChecker(db, dir, store, log)
	checker.RunOnce(context.Background())
	srv.SetHealth(checker)

	return &testEnv{
		srv:   srv,
		h:     srv.Handler(),
		store: store,
		kidID: store.Snapshot().Kids[0].ID,
		pin:   "4821",
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, want, w.Body.String())
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Health & Metrics
// ═══════════════════════════════════════════════════════════════════════════

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, "GET", "/health", "")
	expectStatus(t, w, http.StatusOK)

	body := decode[struct {
		Status string          `json:"status"`
		Checks []health.Status `json:"checks"`
	}](t, w)
	if body.Status != "ok" || len(body.Checks) != 3 {
		t.Errorf("unexpected health body: %+v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "POST", "/api/kids/"+e.kidID+"/earn", `{"amount":1,"reason":"Helped"}`)

	w := e.do(t, "GET", "/metrics", "")
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "kidzy_commands_total") {
		t.Error("metrics output missing kidzy_commands_total")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Kids & Ledger
// ═══════════════════════════════════════════════════════════════════════════

func TestEarnCustomAndDeduct(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "POST", "/api/kids/"+e.kidID+"/earn", `{"amount":5,"reason":"Raked leaves"}`)
	expectStatus(t, w, http.StatusCreated)
	earn := decode[EarnResponse](t, w)
	if earn.Transaction.Category != household.CustomCategory || earn.Bonus != nil {
		t.Errorf("unexpected custom earn: %+v", earn)
	}
	if !earn.Balance.Equal(decimal.NewFromInt(5)) {
		t.Errorf("balance = %s, want 5", earn.Balance)
	}
	if earn.Encouragement == "" {
		t.Error("expected an encouragement message")
	}

	w = e.do(t, "POST", "/api/kids/"+e.kidID+"/deduct", `{"amount":"1.5","reason":"Late for school"}`)
	expectStatus(t, w, http.StatusCreated)
	ded := decode[struct {
		Balance decimal.Decimal `json:"balance"`
	}](t, w)
	if !ded.Balance.Equal(decimal.RequireFromString("3.5")) {
		t.Errorf("balance = %s, want 3.5", ded.Balance)
	}
}

func TestEarnBehavior_AppliesBonusOncePerDay(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "POST", "/api/kids/"+e.kidID+"/earn", `{"behaviorId":"bh_1"}`)
	expectStatus(t, w, http.StatusCreated)
	earn := decode[EarnResponse](t, w)
	if earn.Bonus == nil {
		t.Fatal("behavior earn should report its bonus roll")
	}
	want := decimal.NewFromInt(2).Mul(decimal.NewFromInt(int64(earn.Bonus.Multiplier)))
	if !earn.Transaction.Amount.Equal(want) {
		t.Errorf("amount = %s, want %s", earn.Transaction.Amount, want)
	}
	if earn.Transaction.Category != "Health" || earn.Transaction.BehaviorID != "bh_1" {
		t.Errorf("unexpected transaction: %+v", earn.Transaction)
	}

	// daily behaviors are rewarded once per day
	w = e.do(t, "POST", "/api/kids/"+e.kidID+"/earn", `{"behaviorId":"bh_1"}`)
	expectStatus(t, w, http.StatusUnprocessableEntity)
}

func TestEarn_Rejections(t *testing.T) {
	e := newTestEnv(t)
	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown kid", "/api/kids/kid_x/earn", `{"amount":1,"reason":"x"}`, http.StatusNotFound},
		{"unknown behavior", "/api/kids/" + e.kidID + "/earn", `{"behaviorId":"bh_999"}`, http.StatusNotFound},
		{"empty reason", "/api/kids/" + e.kidID + "/earn", `{"amount":1,"reason":"  "}`, http.StatusUnprocessableEntity},
		{"negative amount", "/api/kids/" + e.kidID + "/deduct", `{"amount":-1,"reason":"x"}`, http.StatusUnprocessableEntity},
		{"bad json", "/api/kids/" + e.kidID + "/earn", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, e.do(t, "POST", tt.path, tt.body), tt.want)
		})
	}
	if n := len(e.store.Snapshot().Transactions); n != 0 {
		t.Errorf("rejected requests wrote %d transactions", n)
	}
}

func TestListAndGetKid(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "POST", "/api/kids/"+e.kidID+"/earn", `{"amount":4,"reason":"Helped"}`)

	w := e.do(t, "GET", "/api/kids", "")
	expectStatus(t, w, http.StatusOK)
	list := decode[[]struct {
		Kid     domain.Kid      `json:"kid"`
		Balance decimal.Decimal `json:"balance"`
		Streak  int             `json:"streak"`
	}](t, w)
	if len(list) != 1 || list[0].Kid.Name != "Ava" || !list[0].Balance.Equal(decimal.NewFromInt(4)) || list[0].Streak != 1 {
		t.Errorf("unexpected kid list: %+v", list)
	}

	w = e.do(t, "GET", "/api/kids/"+e.kidID, "")
	expectStatus(t, w, http.StatusOK)
	detail := decode[struct {
		Achievements domain.AchievementReport `json:"achievements"`
		Recent       []domain.Transaction     `json:"recentTransactions"`
	}](t, w)
	if detail.Achievements.Total == 0 || len(detail.Recent) != 1 {
		t.Errorf("unexpected detail: %+v", detail)
	}

	expectStatus(t, e.do(t, "GET", "/api/kids/nope", ""), http.StatusNotFound)
}

func TestLeaderboard(t *testing.T) {
	e := newTestEnv(t)
	expectStatus(t, e.do(t, "GET", "/api/leaderboard", ""), http.StatusOK)
	expectStatus(t, e.do(t, "GET", "/api/leaderboard?kind=improved", ""), http.StatusOK)
	expectStatus(t, e.do(t, "GET", "/api/leaderboard?kind=monthly", ""), http.StatusBadRequest)
}

// ═══════════════════════════════════════════════════════════════════════════
// Challenges & Wishes
// ═══════════════════════════════════════════════════════════════════════════

func TestChallenges(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, "GET", "/api/challenges", "")
	expectStatus(t, w, http.StatusOK)
	daily := decode[[]domain.Challenge](t, w)
	if len(daily) != 3 || daily[0].ID != "big_earner" || daily[0].Date != "2024-03-15" {
		t.Fatalf("unexpected challenges: %+v", daily)
	}

	expectStatus(t, e.do(t, "GET", "/api/challenges?date=15-03-2024", ""), http.StatusBadRequest)
	expectStatus(t, e.do(t, "GET", "/api/challenges?kid=nope", ""), http.StatusNotFound)

	// nothing earned yet: streak_builder is incomplete
	claim := `{"kidId":"` + e.kidID + `"}`
	expectStatus(t, e.do(t, "POST", "/api/challenges/streak_builder/claim", claim), http.StatusUnprocessableEntity)

	e.do(t, "POST", "/api/kids/"+e.kidID+"/earn", `{"amount":5,"reason":"Helped"}`)
	w = e.do(t, "POST", "/api/challenges/streak_builder/claim", claim)
	expectStatus(t, w, http.StatusCreated)
	got := decode[struct {
		Transaction domain.Transaction `json:"transaction"`
		Balance     decimal.Decimal    `json:"balance"`
	}](t, w)
	if got.Transaction.Category != household.ChallengeCategory || !got.Balance.Equal(decimal.NewFromInt(8)) {
		t.Errorf("unexpected claim result: %+v", got)
	}

	// once per day
	expectStatus(t, e.do(t, "POST", "/api/challenges/streak_builder/claim", claim), http.StatusUnprocessableEntity)

	w = e.do(t, "GET", "/api/challenges?kid="+e.kidID, "")
	expectStatus(t, w, http.StatusOK)
	status := decode[[]engagement.ChallengeStatus](t, w)
	claimed := 0
	for _, s := range status {
		if s.Claimed {
			claimed++
		}
	}
	if claimed != 1 {
		t.Errorf("claimed = %d, want 1", claimed)
	}
}

func TestRedeemWish(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.store.Dispatch(ctx, household.AddWish{KidID: e.kidID, Name: "Lego set", TargetDollars: decimal.NewFromInt(10)})
	wishID := e.store.Snapshot().WishListItems[0].ID

	// insufficient balance
	expectStatus(t, e.do(t, "POST", "/api/wishes/"+wishID+"/redeem", ""), http.StatusUnprocessableEntity)

	e.do(t, "POST", "/api/kids/"+e.kidID+"/earn", `{"amount":12,"reason":"Birthday"}`)
	w := e.do(t, "POST", "/api/wishes/"+wishID+"/redeem", "")
	expectStatus(t, w, http.StatusCreated)
	got := decode[struct {
		Transaction domain.Transaction `json:"transaction"`
		Balance     decimal.Decimal    `json:"balance"`
	}](t, w)
	if got.Transaction.Type != domain.TxRedeem || !got.Balance.Equal(decimal.NewFromInt(2)) {
		t.Errorf("unexpected redeem: %+v", got)
	}
	if wish, _ := e.store.Snapshot().Wish(wishID); wish.Status != domain.StatusRedeemed {
		t.Errorf("wish status = %s, want redeemed", wish.Status)
	}

	expectStatus(t, e.do(t, "POST", "/api/wishes/nope/redeem", ""), http.StatusNotFound)
}

// ═══════════════════════════════════════════════════════════════════════════
// Session
// ═══════════════════════════════════════════════════════════════════════════

func TestLoginAndLockout(t *testing.T) {
	e := newTestEnv(t)
	parentID := e.store.Snapshot().Parents[0].ID
	expectStatus(t, e.do(t, "POST", "/api/logout", ""), http.StatusNoContent)

	good := `{"parentId":"` + parentID + `","pin":"` + e.pin + `"}`
	bad := `{"parentId":"` + parentID + `","pin":"0000"}`

	expectStatus(t, e.do(t, "POST", "/api/login", good), http.StatusOK)
	if e.store.Snapshot().CurrentParentID != parentID {
		t.Fatal("login did not start a session")
	}

	for i := 0; i < 5; i++ {
		expectStatus(t, e.do(t, "POST", "/api/login", bad), http.StatusUnauthorized)
	}
	w := e.do(t, "POST", "/api/login", good)
	expectStatus(t, w, http.StatusTooManyRequests)
	if w.Header().Get("Retry-After") != "30" {
		t.Errorf("Retry-After = %q, want 30", w.Header().Get("Retry-After"))
	}
}

func TestParentOnlyRoutesRequireLogin(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.store.Dispatch(ctx, household.AddWish{KidID: e.kidID, Name: "Kite", TargetDollars: decimal.NewFromInt(1)})
	wishID := e.store.Snapshot().WishListItems[0].ID
	exported := e.do(t, "GET", "/api/snapshot", "").Body.String()

	expectStatus(t, e.do(t, "POST", "/api/logout", ""), http.StatusNoContent)
	before := len(e.store.Snapshot().Transactions)

	routes := []struct{ path, body string }{
		{"/api/kids/" + e.kidID + "/earn", `{"amount":3,"reason":"Helped"}`},
		{"/api/kids/" + e.kidID + "/deduct", `{"amount":1,"reason":"Shouting"}`},
		{"/api/wishes/" + wishID + "/redeem", ""},
		{"/api/snapshot", exported},
	}
	for _, rt := range routes {
		expectStatus(t, e.do(t, "POST", rt.path, rt.body), http.StatusUnauthorized)
	}
	if got := len(e.store.Snapshot().Transactions); got != before {
		t.Fatalf("transactions = %d after rejected mutations, want %d", got, before)
	}

	// Reads stay open.
	expectStatus(t, e.do(t, "GET", "/api/kids/"+e.kidID, ""), http.StatusOK)

	parentID := e.store.Snapshot().Parents[0].ID
	expectStatus(t, e.do(t, "POST", "/api/login", `{"parentId":"`+parentID+`","pin":"`+e.pin+`"}`), http.StatusOK)
	expectStatus(t, e.do(t, "POST", "/api/kids/"+e.kidID+"/earn", `{"amount":3,"reason":"Helped"}`), http.StatusCreated)
	expectStatus(t, e.do(t, "POST", "/api/kids/"+e.kidID+"/deduct", `{"amount":1,"reason":"Shouting"}`), http.StatusCreated)
}

func TestLoginExternalIdentity(t *testing.T) {
	e := newTestEnv(t)
	expectStatus(t, e.do(t, "POST", "/api/login", `{"email":"SAM@example.com"}`), http.StatusOK)
	expectStatus(t, e.do(t, "POST", "/api/login", `{"email":"who@example.com"}`), http.StatusUnauthorized)
}

// ═══════════════════════════════════════════════════════════════════════════
// Import / Export
// ═══════════════════════════════════════════════════════════════════════════

func TestExportImportRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "POST", "/api/kids/"+e.kidID+"/earn", `{"amount":3,"reason":"Helped"}`)

	w := e.do(t, "GET", "/api/snapshot", "")
	expectStatus(t, w, http.StatusOK)
	exported := w.Body.Bytes()

	other := newTestEnv(t)
	req := httptest.NewRequest("POST", "/api/snapshot", bytes.NewReader(exported))
	rec := httptest.NewRecorder()
	other.h.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)

	counts := decode[map[string]int](t, rec)
	if counts["kids"] != 1 || counts["transactions"] != 1 {
		t.Errorf("unexpected import counts: %v", counts)
	}
	if other.store.Snapshot().Kids[0].ID != e.kidID {
		t.Error("import did not adopt the exported household")
	}
}

func TestImport_Rejected(t *testing.T) {
	e := newTestEnv(t)
	before := len(e.store.Snapshot().Kids)

	for _, body := range []string{`not json`, `{"settings":{}}`, `{"kids":[{"id":"k"},{"id":"k"}]}`} {
		expectStatus(t, e.do(t, "POST", "/api/snapshot", body), http.StatusBadRequest)
	}
	if len(e.store.Snapshot().Kids) != before {
		t.Error("rejected import changed the household")
	}
}
