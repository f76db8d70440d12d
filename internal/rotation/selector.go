package rotation

import (
	"errors"
	"math/rand/v2"

	"github.com/kapu/duty-rotation-bot/internal/domain"
)

// ErrNoMembers is returned when the group has nobody to pick from.
var ErrNoMembers = errors.New("group has no members to pick from")

// Pick is the outcome of a selection. Reset means every eligible member has
// served and the caller must clear the served list before recording Member.
type Pick struct {
	Member domain.Member
	Reset  bool
}

// Selector chooses the next member to serve.
type Selector struct {
	rng *rand.Rand
}

// NewSelector uses rng for shuffling; nil selects the global source.
func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// PickNext picks uniformly among members that are neither served nor
// ignored. When none are left it signals a reset and picks uniformly among
// all members, ignored ones included. The log is not modified.
func (s *Selector) PickNext(all []domain.Member, log *domain.RotationLog) (Pick, error) {
	if len(all) == 0 {
		return Pick{}, ErrNoMembers
	}

	shuffled := s.shuffle(all)
	available := log.Available(all)
	if len(available) == 0 {
		return Pick{Member: shuffled[0], Reset: true}, nil
	}

	for _, m := range shuffled {
		if _, ok := available[m]; ok {
			return Pick{Member: m}, nil
		}
	}
	// unreachable: available is a subset of all
	return Pick{}, ErrNoMembers
}

func (s *Selector) shuffle(all []domain.Member) []domain.Member {
	out := make([]domain.Member, len(all))
	copy(out, all)
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if s != nil && s.rng != nil {
		s.rng.Shuffle(len(out), swap)
	} else {
		rand.Shuffle(len(out), swap)
	}
	return out
}
