package household

import (
	"github.com/shopspring/decimal"

	"github.com/kidzy-family/kidzy/internal/domain"
)

// CustomCategory is the category of earns not tied to a catalog behavior.
const CustomCategory = "Custom"

// BehaviorEarn builds the earn for a catalog behavior: the behavior value
// times the bonus multiplier, filed under the behavior's category.
func BehaviorEarn(s domain.Snapshot, kidID, parentID, behaviorID string, bonus domain.Bonus) (AddTransaction, error) {
	item, category, ok := s.Behavior(behaviorID)
	if !ok {
		return AddTransaction{}, domain.Missing("behavior", behaviorID)
	}
	m := bonus.Multiplier
	if m < 1 {
		m = 1
	}
	return AddTransaction{
		KidID:      kidID,
		ParentID:   parentID,
		Type:       domain.TxEarn,
		Amount:     bonus.Apply(item.DollarValue),
		Reason:     item.Name,
		Category:   category,
		BehaviorID: item.ID,
		Multiplier: m,
	}, nil
}

// CustomEarn builds a free-form earn.
func CustomEarn(kidID, parentID string, amount decimal.Decimal, reason string) AddTransaction {
	return AddTransaction{
		KidID:      kidID,
		ParentID:   parentID,
		Type:       domain.TxEarn,
		Amount:     amount,
		Reason:     reason,
		Category:   CustomCategory,
		Multiplier: 1,
	}
}

// Deduction builds a deduct transaction.
func Deduction(kidID, parentID string, amount decimal.Decimal, reason string) AddTransaction {
	return AddTransaction{
		KidID:    kidID,
		ParentID: parentID,
		Type:     domain.TxDeduct,
		Amount:   amount,
		Reason:   reason,
	}
}
