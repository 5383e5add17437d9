package household

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/kidzy-family/kidzy/internal/domain"
)

// Field limits, in characters.
const (
	maxName   = 50
	maxReason = 100
	maxText   = 200
	maxID     = 100
	maxImage  = 2048

	maxAge        = 25
	maxMultiplier = 3
)

// MaxAmount bounds every amount and target.
var MaxAmount = decimal.NewFromInt(100_000)

// text trims v and checks it is non-empty and at most max characters.
func text(field, v string, max int) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", domain.Invalid(field, "is required")
	}
	if utf8.RuneCountInString(v) > max {
		return "", domain.Invalid(field, fmt.Sprintf("exceeds %d characters", max))
	}
	return v, nil
}

// optText is text that may be empty.
func optText(field, v string, max int) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	return text(field, v, max)
}

func checkID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.Invalid(field, "is required")
	}
	if len(id) >= maxID {
		return domain.Invalid(field, "is too long")
	}
	return nil
}

// amount checks v is within [0, MaxAmount].
func amount(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return domain.Invalid(field, "must not be negative")
	}
	if v.GreaterThan(MaxAmount) {
		return domain.Invalid(field, "exceeds "+MaxAmount.String())
	}
	return nil
}

// target checks v is within (0, MaxAmount].
func target(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return domain.Invalid(field, "must be greater than 0")
	}
	return amount(field, v)
}

func age(v *int) error {
	if v != nil && (*v < 0 || *v > maxAge) {
		return domain.Invalid("age", fmt.Sprintf("must be between 0 and %d", maxAge))
	}
	return nil
}

func multiplier(typ domain.TxType, m int) error {
	if m == 0 {
		return nil
	}
	if m < 1 || m > maxMultiplier {
		return domain.Invalid("multiplier", fmt.Sprintf("must be between 1 and %d", maxMultiplier))
	}
	if m > 1 && typ != domain.TxEarn {
		return domain.Invalid("multiplier", "only applies to earn")
	}
	return nil
}

func frequency(f domain.Frequency) error {
	switch f {
	case domain.FrequencyDaily, domain.FrequencyAnytime, domain.FrequencyMilestone:
		return nil
	}
	return domain.Invalid("frequency", fmt.Sprintf("unknown value %q", f))
}

// patch applies text validation to an optional update field.
func patch(field string, v *string, max int, required bool) (*string, error) {
	if v == nil {
		return nil, nil
	}
	var (
		s   string
		err error
	)
	if required {
		s, err = text(field, *v, max)
	} else {
		s, err = optText(field, *v, max)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// validateCategory checks a catalog category and its items.
func validateCategory(cat domain.BehaviorCategory, itemIDs map[string]bool) error {
	if err := checkID("category id", cat.ID); err != nil {
		return err
	}
	if _, err := text("category name", cat.Name, maxName); err != nil {
		return err
	}
	for _, item := range cat.Items {
		if err := checkID("behavior id", item.ID); err != nil {
			return err
		}
		if itemIDs[item.ID] {
			return domain.Invalid("behavior id", fmt.Sprintf("%q is duplicated", item.ID))
		}
		itemIDs[item.ID] = true
		if _, err := text("behavior name", item.Name, maxName); err != nil {
			return err
		}
		if err := amount("dollarValue", item.DollarValue); err != nil {
			return err
		}
		if err := frequency(item.Frequency); err != nil {
			return err
		}
	}
	return nil
}

// ─── Snapshot Integrity ─────────────────────────────────────────────────────

// CheckIntegrity verifies a whole snapshot before it is adopted: ids are
// unique per collection, every kid and parent reference (the session
// included) resolves and ledger entries are well formed.
func CheckIntegrity(s domain.Snapshot) error {
	unique := func(kind string, ids []string) error {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if id == "" {
				return fmt.Errorf("%s with empty id", kind)
			}
			if seen[id] {
				return fmt.Errorf("duplicate %s id %q", kind, id)
			}
			seen[id] = true
		}
		return nil
	}

	kids := make(map[string]bool, len(s.Kids))
	kidIDs := make([]string, 0, len(s.Kids))
	for _, k := range s.Kids {
		kids[k.ID] = true
		kidIDs = append(kidIDs, k.ID)
	}
	if err := unique("kid", kidIDs); err != nil {
		return err
	}

	parents := make(map[string]bool, len(s.Parents))
	parentIDs := make([]string, 0, len(s.Parents))
	for _, p := range s.Parents {
		parents[p.ID] = true
		parentIDs = append(parentIDs, p.ID)
	}
	if err := unique("parent", parentIDs); err != nil {
		return err
	}
	if s.CurrentParentID != "" && !parents[s.CurrentParentID] {
		return fmt.Errorf("session references unknown parent %q", s.CurrentParentID)
	}
	if s.KidMode != "" && !kids[s.KidMode] {
		return fmt.Errorf("kid mode references unknown kid %q", s.KidMode)
	}

	catIDs := make([]string, 0, len(s.BehaviorCategories))
	items := make(map[string]bool)
	for _, c := range s.BehaviorCategories {
		catIDs = append(catIDs, c.ID)
		for _, it := range c.Items {
			if items[it.ID] {
				return fmt.Errorf("duplicate behavior id %q", it.ID)
			}
			items[it.ID] = true
		}
	}
	if err := unique("category", catIDs); err != nil {
		return err
	}

	txIDs := make([]string, 0, len(s.Transactions))
	for _, tx := range s.Transactions {
		txIDs = append(txIDs, tx.ID)
		if !kids[tx.KidID] {
			return fmt.Errorf("transaction %q references unknown kid %q", tx.ID, tx.KidID)
		}
		if !tx.Type.Valid() {
			return fmt.Errorf("transaction %q has unknown type %q", tx.ID, tx.Type)
		}
		if tx.Amount.IsNegative() {
			return fmt.Errorf("transaction %q has negative amount", tx.ID)
		}
	}
	if err := unique("transaction", txIDs); err != nil {
		return err
	}

	wishIDs := make([]string, 0, len(s.WishListItems))
	for _, w := range s.WishListItems {
		wishIDs = append(wishIDs, w.ID)
		if !kids[w.KidID] {
			return fmt.Errorf("wish %q references unknown kid %q", w.ID, w.KidID)
		}
	}
	if err := unique("wish", wishIDs); err != nil {
		return err
	}

	dreamIDs := make([]string, 0, len(s.DreamGoals))
	for _, d := range s.DreamGoals {
		dreamIDs = append(dreamIDs, d.ID)
		if !kids[d.KidID] {
			return fmt.Errorf("dream %q references unknown kid %q", d.ID, d.KidID)
		}
	}
	if err := unique("dream", dreamIDs); err != nil {
		return err
	}

	claimed := make(map[string]bool, len(s.Challenges))
	for _, c := range s.Challenges {
		if !kids[c.KidID] {
			return fmt.Errorf("challenge completion references unknown kid %q", c.KidID)
		}
		key := c.ChallengeID + "|" + c.KidID + "|" + c.Date
		if claimed[key] {
			return fmt.Errorf("challenge %q claimed twice by %q on %s", c.ChallengeID, c.KidID, c.Date)
		}
		claimed[key] = true
	}
	return nil
}
