// Package household owns the household state machine.
//
// The Reducer is a pure function from (Snapshot, Command) to Snapshot. It
// validates every command against the current state before touching
// anything; a rejected command returns the input snapshot unchanged along
// with an error wrapping domain.ErrValidation or domain.ErrReference.
//
// The Store wraps a Reducer with a mutex and a persistence gateway and is
// what the API and CLI talk to.
package household

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kidzy-family/kidzy/internal/app/engagement"
	"github.com/kidzy-family/kidzy/internal/app/ledger"
	"github.com/kidzy-family/kidzy/internal/domain"
)

// Category and reason used for challenge reward transactions.
const (
	ChallengeCategory     = "challenge"
	challengeReasonPrefix = "Challenge: "
	redeemReasonPrefix    = "Redeemed: "
)

// Reducer applies commands. Clock and NewID are injected so transitions
// are reproducible in tests.
type Reducer struct {
	// Clock returns the current time. Its location defines "today" for
	// daily behaviors and challenges.
	Clock func() time.Time
	// NewID returns a fresh unique id with the given prefix.
	NewID func(prefix string) string
}

// NewReducer returns a Reducer on the wall clock and random UUIDs.
func NewReducer() *Reducer {
	return &Reducer{Clock: time.Now, NewID: NewID}
}

// NewID returns "<prefix>_<uuid>".
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// Apply returns the snapshot after cmd. On rejection it returns s itself
// and the reason.
func (r *Reducer) Apply(s domain.Snapshot, cmd Command) (domain.Snapshot, error) {
	next := s.Clone()
	if err := r.apply(&next, cmd); err != nil {
		return s, fmt.Errorf("%s: %w", cmd.Kind(), err)
	}
	return next, nil
}

func (r *Reducer) apply(s *domain.Snapshot, cmd Command) error {
	now := r.Clock()
	switch c := cmd.(type) {
	case SetupFamily:
		return r.setupFamily(s, c, now)
	case SetCurrentParent:
		return startSession(s, c.ParentID)
	case CompleteLogin:
		return completeLogin(s, c)
	case Logout:
		s.CurrentParentID = ""
		s.LoggedOut = true
		s.KidMode = ""
		return nil
	case SetKidMode:
		return setKidMode(s, c)
	case AddParent:
		return r.addParent(s, c, now)
	case UpdateParent:
		return updateParent(s, c)
	case RemoveParent:
		return removeParent(s, c)
	case AddKid:
		return r.addKid(s, KidInput{Name: c.Name, Age: c.Age, Avatar: c.Avatar}, now)
	case UpdateKid:
		return updateKid(s, c)
	case RemoveKid:
		return removeKid(s, c)
	case AddBehaviorCategory:
		return r.addCategory(s, c)
	case AddBehaviorItem:
		return r.addBehaviorItem(s, c)
	case RemoveBehaviorItem:
		return removeBehaviorItem(s, c)
	case ReplaceBehaviorCategories:
		return replaceCategories(s, c)
	case AddTransaction:
		return r.addTransaction(s, c, now)
	case RemoveTransaction:
		return removeTransaction(s, c)
	case AddWish:
		return r.addWish(s, c, now)
	case UpdateWish:
		return updateWish(s, c)
	case RemoveWish:
		return removeWish(s, c)
	case RedeemWish:
		return r.redeemWish(s, c, now)
	case FulfillWish:
		return fulfillWish(s, c, now)
	case AddDream:
		return r.addDream(s, c, now)
	case UpdateDream:
		return updateDream(s, c)
	case RemoveDream:
		return removeDream(s, c)
	case CompleteChallenge:
		return r.completeChallenge(s, c, now)
	case UpdateSettings:
		return updateSettings(s, c)
	case SetOnboardingComplete:
		s.OnboardingComplete = true
		return nil
	case LoadData:
		return loadData(s, c)
	case ResetAll:
		*s = domain.DefaultSnapshot()
		return nil
	}
	return domain.Invalid("command", fmt.Sprintf("unsupported type %T", cmd))
}

func stamp(now time.Time) time.Time { return now.UTC() }

// ─── Session ────────────────────────────────────────────────────────────────

func (r *Reducer) setupFamily(s *domain.Snapshot, c SetupFamily, now time.Time) error {
	if s.Family != nil {
		return domain.Invalid("family", "is already set up")
	}
	name, err := text("familyName", c.FamilyName, maxName)
	if err != nil {
		return err
	}
	pin, err := text("pin", c.PIN, maxText)
	if err != nil {
		return err
	}
	parentName, err := text("parentName", c.ParentName, maxName)
	if err != nil {
		return err
	}
	avatar, err := optText("parentAvatar", c.ParentAvatar, maxImage)
	if err != nil {
		return err
	}
	email, err := optText("parentEmail", c.ParentEmail, maxText)
	if err != nil {
		return err
	}

	s.Family = &domain.Family{ID: r.NewID("fam"), Name: name, PIN: pin, CreatedAt: stamp(now)}
	s.Parents = append(s.Parents, domain.Parent{
		ID:        r.NewID("parent"),
		Name:      parentName,
		Avatar:    avatar,
		Role:      domain.RoleAdmin,
		Email:     email,
		CreatedAt: stamp(now),
	})
	for _, k := range c.Kids {
		if err := r.addKid(s, k, now); err != nil {
			return err
		}
	}
	s.LoggedOut = false
	return nil
}

func startSession(s *domain.Snapshot, parentID string) error {
	if err := checkID("parentId", parentID); err != nil {
		return err
	}
	if _, ok := s.Parent(parentID); !ok {
		return domain.Missing("parent", parentID)
	}
	s.CurrentParentID = parentID
	s.LoggedOut = false
	s.KidMode = ""
	return nil
}

func completeLogin(s *domain.Snapshot, c CompleteLogin) error {
	if s.Family == nil {
		return domain.ErrNoFamily
	}
	var upgraded string
	if c.UpgradedPIN != "" {
		pin, err := text("upgradedPin", c.UpgradedPIN, maxText)
		if err != nil {
			return err
		}
		upgraded = pin
	}
	if err := startSession(s, c.ParentID); err != nil {
		return err
	}
	if upgraded != "" {
		s.Family.PIN = upgraded
	}
	return nil
}

func setKidMode(s *domain.Snapshot, c SetKidMode) error {
	if c.KidID == "" {
		s.KidMode = ""
		return nil
	}
	if _, ok := s.Kid(c.KidID); !ok {
		return domain.Missing("kid", c.KidID)
	}
	s.KidMode = c.KidID
	return nil
}

// ─── Parents ────────────────────────────────────────────────────────────────

func (r *Reducer) addParent(s *domain.Snapshot, c AddParent, now time.Time) error {
	if s.Family == nil {
		return domain.Invalid("family", "is not set up")
	}
	name, err := text("name", c.Name, maxName)
	if err != nil {
		return err
	}
	avatar, err := optText("avatar", c.Avatar, maxImage)
	if err != nil {
		return err
	}
	email, err := optText("email", c.Email, maxText)
	if err != nil {
		return err
	}
	uid, err := optText("externalUid", c.ExternalUID, maxText)
	if err != nil {
		return err
	}
	s.Parents = append(s.Parents, domain.Parent{
		ID:          r.NewID("parent"),
		Name:        name,
		Avatar:      avatar,
		Role:        domain.RoleParent,
		Email:       email,
		ExternalUID: uid,
		CreatedAt:   stamp(now),
	})
	return nil
}

func updateParent(s *domain.Snapshot, c UpdateParent) error {
	i := slices.IndexFunc(s.Parents, func(p domain.Parent) bool { return p.ID == c.ID })
	if i < 0 {
		return domain.Missing("parent", c.ID)
	}
	name, err := patch("name", c.Name, maxName, true)
	if err != nil {
		return err
	}
	avatar, err := patch("avatar", c.Avatar, maxImage, false)
	if err != nil {
		return err
	}
	email, err := patch("email", c.Email, maxText, false)
	if err != nil {
		return err
	}
	uid, err := patch("externalUid", c.ExternalUID, maxText, false)
	if err != nil {
		return err
	}
	p := &s.Parents[i]
	if name != nil {
		p.Name = *name
	}
	if avatar != nil {
		p.Avatar = *avatar
	}
	if email != nil {
		p.Email = *email
	}
	if uid != nil {
		p.ExternalUID = *uid
	}
	return nil
}

func removeParent(s *domain.Snapshot, c RemoveParent) error {
	p, ok := s.Parent(c.ID)
	if !ok {
		return domain.Missing("parent", c.ID)
	}
	if p.Role == domain.RoleAdmin {
		admins := 0
		for _, q := range s.Parents {
			if q.Role == domain.RoleAdmin {
				admins++
			}
		}
		if admins <= 1 {
			return domain.Invalid("parent", "cannot remove the last admin")
		}
	}
	s.Parents = slices.DeleteFunc(s.Parents, func(q domain.Parent) bool { return q.ID == c.ID })
	if s.CurrentParentID == c.ID {
		s.CurrentParentID = ""
		s.LoggedOut = true
	}
	return nil
}

// ─── Kids ───────────────────────────────────────────────────────────────────

func (r *Reducer) addKid(s *domain.Snapshot, k KidInput, now time.Time) error {
	name, err := text("name", k.Name, maxName)
	if err != nil {
		return err
	}
	if err := age(k.Age); err != nil {
		return err
	}
	avatar, err := optText("avatar", k.Avatar, maxImage)
	if err != nil {
		return err
	}
	kid := domain.Kid{ID: r.NewID("kid"), Name: name, Avatar: avatar, CreatedAt: stamp(now)}
	if k.Age != nil {
		a := *k.Age
		kid.Age = &a
	}
	s.Kids = append(s.Kids, kid)
	return nil
}

func updateKid(s *domain.Snapshot, c UpdateKid) error {
	i := slices.IndexFunc(s.Kids, func(k domain.Kid) bool { return k.ID == c.ID })
	if i < 0 {
		return domain.Missing("kid", c.ID)
	}
	name, err := patch("name", c.Name, maxName, true)
	if err != nil {
		return err
	}
	if err := age(c.Age); err != nil {
		return err
	}
	avatar, err := patch("avatar", c.Avatar, maxImage, false)
	if err != nil {
		return err
	}
	k := &s.Kids[i]
	if name != nil {
		k.Name = *name
	}
	if c.Age != nil {
		a := *c.Age
		k.Age = &a
	}
	if avatar != nil {
		k.Avatar = *avatar
	}
	return nil
}

// removeKid cascades to the kid's transactions, wishes, dreams and
// challenge completions.
func removeKid(s *domain.Snapshot, c RemoveKid) error {
	if _, ok := s.Kid(c.ID); !ok {
		return domain.Missing("kid", c.ID)
	}
	s.Kids = slices.DeleteFunc(s.Kids, func(k domain.Kid) bool { return k.ID == c.ID })
	s.Transactions = slices.DeleteFunc(s.Transactions, func(t domain.Transaction) bool { return t.KidID == c.ID })
	s.WishListItems = slices.DeleteFunc(s.WishListItems, func(w domain.WishListItem) bool { return w.KidID == c.ID })
	s.DreamGoals = slices.DeleteFunc(s.DreamGoals, func(d domain.DreamGoal) bool { return d.KidID == c.ID })
	s.Challenges = slices.DeleteFunc(s.Challenges, func(cc domain.ChallengeCompletion) bool { return cc.KidID == c.ID })
	if s.KidMode == c.ID {
		s.KidMode = ""
	}
	return nil
}

// ─── Behaviors ──────────────────────────────────────────────────────────────

func (r *Reducer) addCategory(s *domain.Snapshot, c AddBehaviorCategory) error {
	name, err := text("name", c.Name, maxName)
	if err != nil {
		return err
	}
	icon, err := optText("icon", c.Icon, maxText)
	if err != nil {
		return err
	}
	color, err := optText("color", c.Color, maxName)
	if err != nil {
		return err
	}
	id := r.NewID("cat")
	if slices.ContainsFunc(s.BehaviorCategories, func(cat domain.BehaviorCategory) bool { return cat.ID == id }) {
		return domain.Invalid("category id", fmt.Sprintf("%q is already in use", id))
	}
	s.BehaviorCategories = append(s.BehaviorCategories, domain.BehaviorCategory{
		ID: id, Name: name, Icon: icon, Color: color, Items: []domain.BehaviorItem{},
	})
	return nil
}

func (r *Reducer) addBehaviorItem(s *domain.Snapshot, c AddBehaviorItem) error {
	i := slices.IndexFunc(s.BehaviorCategories, func(cat domain.BehaviorCategory) bool { return cat.ID == c.CategoryID })
	if i < 0 {
		return domain.Missing("category", c.CategoryID)
	}
	name, err := text("name", c.Name, maxName)
	if err != nil {
		return err
	}
	if err := amount("dollarValue", c.DollarValue); err != nil {
		return err
	}
	freq := c.Frequency
	if freq == "" {
		freq = domain.FrequencyAnytime
	}
	if err := frequency(freq); err != nil {
		return err
	}
	// Item ids are unique across the whole catalog, not per category.
	id := r.NewID("bh")
	if _, _, taken := s.Behavior(id); taken {
		return domain.Invalid("behavior id", fmt.Sprintf("%q is already in use", id))
	}
	cat := &s.BehaviorCategories[i]
	cat.Items = append(cat.Items, domain.BehaviorItem{
		ID: id, Name: name, DollarValue: c.DollarValue, Frequency: freq,
	})
	return nil
}

func removeBehaviorItem(s *domain.Snapshot, c RemoveBehaviorItem) error {
	i := slices.IndexFunc(s.BehaviorCategories, func(cat domain.BehaviorCategory) bool { return cat.ID == c.CategoryID })
	if i < 0 {
		return domain.Missing("category", c.CategoryID)
	}
	cat := &s.BehaviorCategories[i]
	j := slices.IndexFunc(cat.Items, func(it domain.BehaviorItem) bool { return it.ID == c.ItemID })
	if j < 0 {
		return domain.Missing("behavior", c.ItemID)
	}
	cat.Items = slices.Delete(cat.Items, j, j+1)
	return nil
}

func replaceCategories(s *domain.Snapshot, c ReplaceBehaviorCategories) error {
	catIDs := make(map[string]bool, len(c.Categories))
	itemIDs := make(map[string]bool)
	out := make([]domain.BehaviorCategory, 0, len(c.Categories))
	for _, cat := range c.Categories {
		if catIDs[cat.ID] {
			return domain.Invalid("category id", fmt.Sprintf("%q is duplicated", cat.ID))
		}
		catIDs[cat.ID] = true
		if err := validateCategory(cat, itemIDs); err != nil {
			return err
		}
		cat.Items = append([]domain.BehaviorItem{}, cat.Items...)
		out = append(out, cat)
	}
	s.BehaviorCategories = out
	return nil
}

// ─── Ledger ─────────────────────────────────────────────────────────────────

func (r *Reducer) addTransaction(s *domain.Snapshot, c AddTransaction, now time.Time) error {
	if err := checkID("kidId", c.KidID); err != nil {
		return err
	}
	if _, ok := s.Kid(c.KidID); !ok {
		return domain.Missing("kid", c.KidID)
	}
	if c.ParentID != "" && c.ParentID != domain.SystemParentID {
		if _, ok := s.Parent(c.ParentID); !ok {
			return domain.Missing("parent", c.ParentID)
		}
	}
	if !c.Type.Valid() {
		return domain.Invalid("type", fmt.Sprintf("unknown value %q", c.Type))
	}
	if err := amount("amount", c.Amount); err != nil {
		return err
	}
	reason, err := text("reason", c.Reason, maxReason)
	if err != nil {
		return err
	}
	category, err := optText("category", c.Category, maxName)
	if err != nil {
		return err
	}
	if err := multiplier(c.Type, c.Multiplier); err != nil {
		return err
	}
	if c.BehaviorID != "" {
		item, _, ok := s.Behavior(c.BehaviorID)
		if !ok {
			return domain.Missing("behavior", c.BehaviorID)
		}
		if c.Type == domain.TxEarn && item.Frequency == domain.FrequencyDaily &&
			ledger.IsBehaviorCompletedToday(c.KidID, c.BehaviorID, s.Transactions, now) {
			return domain.Invalid("behaviorId", fmt.Sprintf("%q already completed today", item.Name))
		}
	}

	s.Transactions = append(s.Transactions, domain.Transaction{
		ID:         r.NewID("tx"),
		KidID:      c.KidID,
		ParentID:   c.ParentID,
		Type:       c.Type,
		Amount:     c.Amount,
		Reason:     reason,
		Category:   category,
		BehaviorID: c.BehaviorID,
		Multiplier: c.Multiplier,
		Timestamp:  stamp(now),
	})
	return nil
}

func removeTransaction(s *domain.Snapshot, c RemoveTransaction) error {
	i := slices.IndexFunc(s.Transactions, func(t domain.Transaction) bool { return t.ID == c.ID })
	if i < 0 {
		return domain.Missing("transaction", c.ID)
	}
	s.Transactions = slices.Delete(s.Transactions, i, i+1)
	return nil
}

// ─── Wishes ─────────────────────────────────────────────────────────────────

func (r *Reducer) addWish(s *domain.Snapshot, c AddWish, now time.Time) error {
	if _, ok := s.Kid(c.KidID); !ok {
		return domain.Missing("kid", c.KidID)
	}
	name, err := text("name", c.Name, maxName)
	if err != nil {
		return err
	}
	if err := target("targetDollars", c.TargetDollars); err != nil {
		return err
	}
	icon, err := optText("icon", c.Icon, maxText)
	if err != nil {
		return err
	}
	image, err := optText("image", c.Image, maxImage)
	if err != nil {
		return err
	}
	s.WishListItems = append(s.WishListItems, domain.WishListItem{
		ID:            r.NewID("wish"),
		KidID:         c.KidID,
		Name:          name,
		TargetDollars: c.TargetDollars,
		Icon:          icon,
		Image:         image,
		Status:        domain.StatusActive,
		CreatedAt:     stamp(now),
	})
	return nil
}

func wishIndex(s *domain.Snapshot, id string) (int, error) {
	i := slices.IndexFunc(s.WishListItems, func(w domain.WishListItem) bool { return w.ID == id })
	if i < 0 {
		return -1, domain.Missing("wish", id)
	}
	return i, nil
}

func updateWish(s *domain.Snapshot, c UpdateWish) error {
	i, err := wishIndex(s, c.ID)
	if err != nil {
		return err
	}
	w := &s.WishListItems[i]
	if w.Status != domain.StatusActive {
		return domain.Invalid("wish", "is already redeemed")
	}
	name, err := patch("name", c.Name, maxName, true)
	if err != nil {
		return err
	}
	if c.TargetDollars != nil {
		if err := target("targetDollars", *c.TargetDollars); err != nil {
			return err
		}
	}
	icon, err := patch("icon", c.Icon, maxText, false)
	if err != nil {
		return err
	}
	image, err := patch("image", c.Image, maxImage, false)
	if err != nil {
		return err
	}
	if name != nil {
		w.Name = *name
	}
	if c.TargetDollars != nil {
		w.TargetDollars = *c.TargetDollars
	}
	if icon != nil {
		w.Icon = *icon
	}
	if image != nil {
		w.Image = *image
	}
	return nil
}

func removeWish(s *domain.Snapshot, c RemoveWish) error {
	i, err := wishIndex(s, c.ID)
	if err != nil {
		return err
	}
	s.WishListItems = slices.Delete(s.WishListItems, i, i+1)
	return nil
}

// redeemWish marks the wish redeemed and appends the redeem transaction.
// Both happen or neither does.
func (r *Reducer) redeemWish(s *domain.Snapshot, c RedeemWish, now time.Time) error {
	i, err := wishIndex(s, c.WishID)
	if err != nil {
		return err
	}
	if _, ok := s.Kid(c.KidID); !ok {
		return domain.Missing("kid", c.KidID)
	}
	w := &s.WishListItems[i]
	if w.KidID != c.KidID {
		return domain.Invalid("wish", "belongs to another kid")
	}
	if w.Status != domain.StatusActive {
		return domain.Invalid("wish", "is already redeemed")
	}
	if !c.Amount.Equal(w.TargetDollars) {
		return domain.Invalid("amount", "must equal the wish target "+w.TargetDollars.String())
	}
	if bal := ledger.Balance(c.KidID, s.Transactions); bal.LessThan(c.Amount) {
		return domain.Invalid("amount", fmt.Sprintf("balance %s is below %s", bal, c.Amount))
	}
	name := w.Name
	if c.WishName != "" {
		n, err := text("wishName", c.WishName, maxName)
		if err != nil {
			return err
		}
		name = n
	}
	parentID := c.ParentID
	if parentID == "" {
		parentID = s.CurrentParentID
	}

	at := stamp(now)
	w.Status = domain.StatusRedeemed
	w.Fulfilled = false
	w.RedeemedAt = &at
	s.Transactions = append(s.Transactions, domain.Transaction{
		ID:        r.NewID("tx"),
		KidID:     c.KidID,
		ParentID:  parentID,
		Type:      domain.TxRedeem,
		Amount:    c.Amount,
		Reason:    redeemReasonPrefix + name,
		Timestamp: at,
	})
	return nil
}

func fulfillWish(s *domain.Snapshot, c FulfillWish, now time.Time) error {
	i, err := wishIndex(s, c.ID)
	if err != nil {
		return err
	}
	w := &s.WishListItems[i]
	if w.Status != domain.StatusRedeemed {
		return domain.Invalid("wish", "is not redeemed yet")
	}
	if w.Fulfilled {
		return domain.Invalid("wish", "is already fulfilled")
	}
	at := stamp(now)
	w.Fulfilled = true
	w.FulfilledAt = &at
	return nil
}

// ─── Dreams ─────────────────────────────────────────────────────────────────

func (r *Reducer) addDream(s *domain.Snapshot, c AddDream, now time.Time) error {
	if _, ok := s.Kid(c.KidID); !ok {
		return domain.Missing("kid", c.KidID)
	}
	name, err := text("name", c.Name, maxName)
	if err != nil {
		return err
	}
	desc, err := optText("description", c.Description, maxText)
	if err != nil {
		return err
	}
	if err := target("targetDollars", c.TargetDollars); err != nil {
		return err
	}
	icon, err := optText("icon", c.Icon, maxText)
	if err != nil {
		return err
	}
	image, err := optText("image", c.Image, maxImage)
	if err != nil {
		return err
	}
	s.DreamGoals = append(s.DreamGoals, domain.DreamGoal{
		ID:            r.NewID("dream"),
		KidID:         c.KidID,
		Name:          name,
		Description:   desc,
		TargetDollars: c.TargetDollars,
		Icon:          icon,
		Image:         image,
		Status:        domain.StatusActive,
		CreatedAt:     stamp(now),
	})
	return nil
}

func updateDream(s *domain.Snapshot, c UpdateDream) error {
	i := slices.IndexFunc(s.DreamGoals, func(d domain.DreamGoal) bool { return d.ID == c.ID })
	if i < 0 {
		return domain.Missing("dream", c.ID)
	}
	name, err := patch("name", c.Name, maxName, true)
	if err != nil {
		return err
	}
	desc, err := patch("description", c.Description, maxText, false)
	if err != nil {
		return err
	}
	if c.TargetDollars != nil {
		if err := target("targetDollars", *c.TargetDollars); err != nil {
			return err
		}
	}
	icon, err := patch("icon", c.Icon, maxText, false)
	if err != nil {
		return err
	}
	image, err := patch("image", c.Image, maxImage, false)
	if err != nil {
		return err
	}
	d := &s.DreamGoals[i]
	if name != nil {
		d.Name = *name
	}
	if desc != nil {
		d.Description = *desc
	}
	if c.TargetDollars != nil {
		d.TargetDollars = *c.TargetDollars
	}
	if icon != nil {
		d.Icon = *icon
	}
	if image != nil {
		d.Image = *image
	}
	return nil
}

func removeDream(s *domain.Snapshot, c RemoveDream) error {
	i := slices.IndexFunc(s.DreamGoals, func(d domain.DreamGoal) bool { return d.ID == c.ID })
	if i < 0 {
		return domain.Missing("dream", c.ID)
	}
	s.DreamGoals = slices.Delete(s.DreamGoals, i, i+1)
	return nil
}

// ─── Challenges ─────────────────────────────────────────────────────────────

// completeChallenge records the claim and pays the reward in one step.
// Date defaults to today and must be today.
func (r *Reducer) completeChallenge(s *domain.Snapshot, c CompleteChallenge, now time.Time) error {
	if err := checkID("challengeId", c.ChallengeID); err != nil {
		return err
	}
	if _, ok := s.Kid(c.KidID); !ok {
		return domain.Missing("kid", c.KidID)
	}
	date := c.Date
	if date == "" {
		date = ledger.DayKey(now)
	}
	if _, err := ledger.ParseDay(date, now.Location()); err != nil {
		return domain.Invalid("date", fmt.Sprintf("%q is not YYYY-MM-DD", date))
	}
	// The reward is stamped now, so only today's challenges can be claimed.
	if today := ledger.DayKey(now); date != today {
		return domain.Invalid("date", fmt.Sprintf("only today's challenges (%s) can be claimed", today))
	}
	tmpl, ok := engagement.Template(c.ChallengeID)
	if !ok {
		return domain.Missing("challenge", c.ChallengeID)
	}
	reward := tmpl.Reward
	if c.Reward != nil && !c.Reward.Equal(reward) {
		return domain.Invalid("reward", "must equal "+reward.String())
	}
	if err := engagement.CanClaim(*s, c.ChallengeID, c.KidID, date, now.Location()); err != nil {
		return err
	}

	at := stamp(now)
	s.Challenges = append(s.Challenges, domain.ChallengeCompletion{
		ChallengeID: c.ChallengeID,
		KidID:       c.KidID,
		Date:        date,
		Reward:      reward,
		CompletedAt: at,
	})
	s.Transactions = append(s.Transactions, domain.Transaction{
		ID:        r.NewID("tx"),
		KidID:     c.KidID,
		ParentID:  domain.SystemParentID,
		Type:      domain.TxEarn,
		Amount:    reward,
		Reason:    challengeReasonPrefix + tmpl.Name,
		Category:  ChallengeCategory,
		Timestamp: at,
	})
	return nil
}

// ─── Settings & Lifecycle ───────────────────────────────────────────────────

func updateSettings(s *domain.Snapshot, c UpdateSettings) error {
	currency, err := patch("currency", c.Currency, maxName, true)
	if err != nil {
		return err
	}
	if c.WeekStartDay != nil && *c.WeekStartDay != "monday" && *c.WeekStartDay != "sunday" {
		return domain.Invalid("weekStartDay", "must be monday or sunday")
	}
	if currency != nil {
		s.Settings.Currency = *currency
	}
	if c.WeekStartDay != nil {
		s.Settings.WeekStartDay = *c.WeekStartDay
	}
	if c.SoundEnabled != nil {
		s.Settings.SoundEnabled = *c.SoundEnabled
	}
	if c.HapticsEnabled != nil {
		s.Settings.HapticsEnabled = *c.HapticsEnabled
	}
	if c.DailyCheckInReminder != nil {
		s.Settings.DailyCheckInReminder = *c.DailyCheckInReminder
	}
	return nil
}

func loadData(s *domain.Snapshot, c LoadData) error {
	if err := CheckIntegrity(c.Snapshot); err != nil {
		return domain.Invalid("snapshot", err.Error())
	}
	next := domain.Normalize(c.Snapshot.Clone())
	*s = next
	return nil
}
