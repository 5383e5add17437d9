package api

import (
	"io"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kidzy-family/kidzy/internal/app/engagement"
	"github.com/kidzy-family/kidzy/internal/app/household"
	"github.com/kidzy-family/kidzy/internal/app/ledger"
	"github.com/kidzy-family/kidzy/internal/domain"
)

// recentLimit is how many ledger entries the kid detail view returns.
const recentLimit = 20

// ─── Snapshot Import / Export ───────────────────────────────────────────────

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := household.Export(s.store.Snapshot())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="kidzy-export.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "import too large", err)
		return
	}
	snap, err := household.Import(data)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if _, ok := s.dispatch(w, r, household.LoadData{Snapshot: snap}); !ok {
		return
	}
	after := s.store.Snapshot()
	writeJSON(w, http.StatusOK, map[string]int{
		"kids":         len(after.Kids),
		"transactions": len(after.Transactions),
	})
}

// ─── Session ────────────────────────────────────────────────────────────────

// LoginRequest logs in with a PIN, or with an external identity when Email
// or UID is set and PIN is empty.
type LoginRequest struct {
	ParentID string `json:"parentId"`
	PIN      string `json:"pin"`
	Email    string `json:"email"`
	UID      string `json:"uid"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.PIN == "" && (req.Email != "" || req.UID != "") {
		p, err := s.auth.MatchExternal(r.Context(), req.Email, req.UID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"parent": p})
		return
	}

	if err := s.auth.Login(r.Context(), req.ParentID, req.PIN); err != nil {
		s.writeDomainError(w, err)
		return
	}
	p, _ := s.store.Snapshot().Parent(req.ParentID)
	writeJSON(w, http.StatusOK, map[string]any{"parent": p})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.dispatch(w, r, household.Logout{}); !ok {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Kids ───────────────────────────────────────────────────────────────────

func (s *Server) handleListKids(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	now := s.store.Now()
	out := make([]ledger.Summary, 0, len(snap.Kids))
	for _, k := range snap.Kids {
		out = append(out, ledger.KidSummary(k, snap.Transactions, now))
	}
	writeJSON(w, http.StatusOK, out)
}

// WishView is a wish with the kid's progress towards it.
type WishView struct {
	domain.WishListItem
	ProgressPct int `json:"progressPct"`
}

// KidDetail is the full profile view of one kid.
type KidDetail struct {
	ledger.Summary
	Achievements domain.AchievementReport `json:"achievements"`
	Stats        ledger.KidStats          `json:"stats"`
	Wishes       []WishView               `json:"wishes"`
	Dreams       []domain.DreamGoal       `json:"dreams"`
	Transactions []domain.Transaction     `json:"recentTransactions"`
}

func (s *Server) handleGetKid(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	kid, ok := snap.Kid(chi.URLParam(r, "kidID"))
	if !ok {
		writeError(w, http.StatusNotFound, "kid not found", nil)
		return
	}
	now := s.store.Now()
	summary := ledger.KidSummary(kid, snap.Transactions, now)

	d := KidDetail{
		Summary:      summary,
		Achievements: engagement.Achievements(kid.ID, snap.Transactions, now),
		Stats:        ledger.Stats(kid.ID, snap.Transactions, now),
		Wishes:       []WishView{},
		Dreams:       []domain.DreamGoal{},
		Transactions: recent(kid.ID, snap.Transactions, recentLimit),
	}
	for _, wi := range snap.WishListItems {
		if wi.KidID == kid.ID {
			d.Wishes = append(d.Wishes, WishView{
				WishListItem: wi,
				ProgressPct:  ledger.WishProgressPercent(wi.TargetDollars, summary.Balance),
			})
		}
	}
	for _, dg := range snap.DreamGoals {
		if dg.KidID == kid.ID {
			d.Dreams = append(d.Dreams, dg)
		}
	}
	writeJSON(w, http.StatusOK, d)
}

// recent returns the kid's latest n transactions, newest first.
func recent(kidID string, txs []domain.Transaction, n int) []domain.Transaction {
	out := []domain.Transaction{}
	for _, tx := range txs {
		if tx.KidID == kidID {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// EarnRequest awards a catalog behavior (BehaviorID) or a custom amount.
type EarnRequest struct {
	BehaviorID string          `json:"behaviorId"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
	ParentID   string          `json:"parentId"`
}

// EarnResponse reports the award, the bonus roll and the new balance.
type EarnResponse struct {
	Transaction   domain.Transaction `json:"transaction"`
	Bonus         *domain.Bonus      `json:"bonus,omitempty"`
	Encouragement string             `json:"encouragement"`
	Balance       decimal.Decimal    `json:"balance"`
}

func (s *Server) handleEarn(w http.ResponseWriter, r *http.Request) {
	var req EarnRequest
	if !decodeBody(w, r, &req) {
		return
	}
	kidID := chi.URLParam(r, "kidID")
	snap := s.store.Snapshot()
	parentID := req.ParentID
	if parentID == "" {
		parentID = snap.CurrentParentID
	}

	var (
		cmd   household.AddTransaction
		bonus *domain.Bonus
	)
	if req.BehaviorID != "" {
		b := s.roller.Roll()
		built, err := household.BehaviorEarn(snap, kidID, parentID, req.BehaviorID, b)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		cmd, bonus = built, &b
	} else {
		cmd = household.CustomEarn(kidID, parentID, req.Amount, req.Reason)
	}

	out, ok := s.dispatch(w, r, cmd)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, EarnResponse{
		Transaction:   out.Appended[0],
		Bonus:         bonus,
		Encouragement: s.roller.Encouragement(),
		Balance:       ledger.Balance(kidID, s.store.Snapshot().Transactions),
	})
}

// DeductRequest takes K$ away for a reason.
type DeductRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Reason   string          `json:"reason"`
	ParentID string          `json:"parentId"`
}

func (s *Server) handleDeduct(w http.ResponseWriter, r *http.Request) {
	var req DeductRequest
	if !decodeBody(w, r, &req) {
		return
	}
	kidID := chi.URLParam(r, "kidID")
	parentID := req.ParentID
	if parentID == "" {
		parentID = s.store.Snapshot().CurrentParentID
	}

	out, ok := s.dispatch(w, r, household.Deduction(kidID, parentID, req.Amount, req.Reason))
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"transaction": out.Appended[0],
		"balance":     ledger.Balance(kidID, s.store.Snapshot().Transactions),
	})
}

// ─── Leaderboard ────────────────────────────────────────────────────────────

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	now := s.store.Now()
	switch kind := r.URL.Query().Get("kind"); kind {
	case "", "weekly":
		writeJSON(w, http.StatusOK, ledger.WeeklyLeaderboard(snap.Kids, snap.Transactions, now))
	case "improved":
		writeJSON(w, http.StatusOK, ledger.MostImprovedLeaderboard(snap.Kids, snap.Transactions, now))
	default:
		writeError(w, http.StatusBadRequest, "kind must be weekly or improved", nil)
	}
}

// ─── Challenges ─────────────────────────────────────────────────────────────

func (s *Server) handleChallenges(w http.ResponseWriter, r *http.Request) {
	now := s.store.Now()
	date := r.URL.Query().Get("date")
	if date == "" {
		date = ledger.DayKey(now)
	}
	kidID := r.URL.Query().Get("kid")

	if kidID == "" {
		daily, err := engagement.DailyChallenges(date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date", err)
			return
		}
		writeJSON(w, http.StatusOK, daily)
		return
	}

	snap := s.store.Snapshot()
	if _, ok := snap.Kid(kidID); !ok {
		writeError(w, http.StatusNotFound, "kid not found", nil)
		return
	}
	status, err := engagement.DailyStatus(snap, kidID, date, now.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// ClaimRequest claims a completed challenge for a kid. Date defaults to today.
type ClaimRequest struct {
	KidID string `json:"kidId"`
	Date  string `json:"date"`
}

func (s *Server) handleClaimChallenge(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if !decodeBody(w, r, &req) {
		return
	}
	out, ok := s.dispatch(w, r, household.CompleteChallenge{
		ChallengeID: chi.URLParam(r, "challengeID"),
		KidID:       req.KidID,
		Date:        req.Date,
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"transaction": out.Appended[0],
		"balance":     ledger.Balance(req.KidID, s.store.Snapshot().Transactions),
	})
}

// ─── Wishes ─────────────────────────────────────────────────────────────────

// RedeemRequest optionally names the approving parent.
type RedeemRequest struct {
	ParentID string `json:"parentId"`
}

func (s *Server) handleRedeemWish(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	wish, ok := s.store.Snapshot().Wish(chi.URLParam(r, "wishID"))
	if !ok {
		writeError(w, http.StatusNotFound, "wish not found", nil)
		return
	}

	out, ok := s.dispatch(w, r, household.RedeemWish{
		WishID:   wish.ID,
		KidID:    wish.KidID,
		Amount:   wish.TargetDollars,
		WishName: wish.Name,
		ParentID: req.ParentID,
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"transaction": out.Appended[0],
		"balance":     ledger.Balance(wish.KidID, s.store.Snapshot().Transactions),
	})
}
