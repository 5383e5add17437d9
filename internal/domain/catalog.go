package domain

import "github.com/shopspring/decimal"

// DefaultCategories returns the behavior catalog every new household starts
// with. Item ids are stable: daily challenges refer to them.
func DefaultCategories() []BehaviorCategory {
	item := func(id, name string, value int64, freq Frequency) BehaviorItem {
		return BehaviorItem{ID: id, Name: name, DollarValue: decimal.NewFromInt(value), Frequency: freq}
	}
	return []BehaviorCategory{
		{
			ID: "cat_health", Name: "Health", Icon: "💪", Color: "#10B981",
			Items: []BehaviorItem{
				item("bh_1", "Ate fruits/vegetables", 2, FrequencyDaily),
				item("bh_2", "Drank enough water", 1, FrequencyDaily),
				item("bh_3", "Exercised / played outside", 3, FrequencyDaily),
				item("bh_4", "Went to bed on time", 2, FrequencyDaily),
			},
		},
		{
			ID: "cat_hygiene", Name: "Hygiene", Icon: "🧼", Color: "#3B82F6",
			Items: []BehaviorItem{
				item("bh_5", "Brushed teeth (morning)", 1, FrequencyDaily),
				item("bh_6", "Brushed teeth (night)", 1, FrequencyDaily),
				item("bh_7", "Took a bath/shower", 2, FrequencyDaily),
				item("bh_8", "Kept room clean", 3, FrequencyDaily),
			},
		},
		{
			ID: "cat_discipline", Name: "Discipline", Icon: "⭐", Color: "#F59E0B",
			Items: []BehaviorItem{
				item("bh_9", "No screen time tantrum", 3, FrequencyDaily),
				item("bh_10", "Listened to parents", 2, FrequencyDaily),
				item("bh_11", "Shared with siblings", 2, FrequencyDaily),
				item("bh_12", "Said please & thank you", 1, FrequencyDaily),
				item("bh_13", "Completed chores", 3, FrequencyDaily),
			},
		},
		{
			ID: "cat_learning", Name: "Learning", Icon: "📚", Color: "#7C3AED",
			Items: []BehaviorItem{
				item("bh_14", "Read for 20 minutes", 3, FrequencyDaily),
				item("bh_15", "Completed homework", 3, FrequencyDaily),
				item("bh_16", "Practiced instrument/skill", 3, FrequencyDaily),
				item("bh_17", "Learned something new", 2, FrequencyDaily),
			},
		},
		{
			ID: "cat_bonus", Name: "Bonus", Icon: "🌟", Color: "#EC4899",
			Items: []BehaviorItem{
				item("bh_18", "Helped someone", 5, FrequencyAnytime),
				item("bh_19", "Did something kind", 3, FrequencyAnytime),
				item("bh_20", "Great report card", 20, FrequencyMilestone),
			},
		},
	}
}
