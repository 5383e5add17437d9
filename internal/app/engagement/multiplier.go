package engagement

import (
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/kidzy-family/kidzy/internal/domain"
	"github.com/kidzy-family/kidzy/internal/infra/metrics"
)

// Bonus probabilities: 5% triple, 15% double, 80% plain.
const (
	tripleCut = 0.05
	doubleCut = 0.20
)

// Multiplier labels shown with the award.
const (
	LabelDouble = "DOUBLE BONUS!"
	LabelTriple = "TRIPLE BONUS!"
)

var encouragements = []string{
	"Amazing job! Keep it up! 🎉",
	"You're a superstar! ⭐",
	"Way to go, champ! 🏆",
	"That's incredible! 🚀",
	"You're crushing it! 💪",
	"So proud of you! 🌟",
	"Fantastic work! 🎊",
	"You're on fire! 🔥",
	"Keep shining bright! ✨",
	"Awesome sauce! 🎯",
}

// BonusFor maps a uniform draw in [0,1) to a multiplier.
func BonusFor(draw float64) domain.Bonus {
	switch {
	case draw < tripleCut:
		return domain.Bonus{Multiplier: 3, Label: LabelTriple}
	case draw < doubleCut:
		return domain.Bonus{Multiplier: 2, Label: LabelDouble}
	default:
		return domain.Bonus{Multiplier: 1}
	}
}

// Roller draws bonus multipliers. It is true randomness for production and
// a seeded stream for tests; daily challenge selection never goes through it.
// Safe for concurrent use.
type Roller struct {
	mu  sync.Mutex
	rng *rand.Rand // nil uses the global source
}

// NewRoller returns a Roller backed by the runtime's random source.
func NewRoller() *Roller {
	return &Roller{}
}

// NewSeededRoller returns a reproducible Roller.
func NewSeededRoller(seed uint64) *Roller {
	return &Roller{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *Roller) float() float64 {
	if r.rng == nil {
		return rand.Float64()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// Roll performs exactly one draw for one earn action.
func (r *Roller) Roll() domain.Bonus {
	b := BonusFor(r.float())
	metrics.MultiplierRolls.WithLabelValues(strconv.Itoa(b.Multiplier)).Inc()
	return b
}

// Encouragement picks a random cheer for the award screen.
func (r *Roller) Encouragement() string {
	return encouragements[int(r.float()*float64(len(encouragements)))]
}
