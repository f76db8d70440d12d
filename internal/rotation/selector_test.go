package rotation

import (
	"math/rand/v2"
	"testing"

	"github.com/kapu/duty-rotation-bot/internal/domain"
)

var (
	alice = domain.Member{Number: "+4911", UUID: "a"}
	bob   = domain.Member{Number: "+4922", UUID: "b"}
	carol = domain.Member{Number: "+4933", UUID: "c"}
	dave  = domain.Member{UUID: "d"}
)

func seeded(seed uint64) *Selector {
	return NewSelector(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func TestPickNextNeverReturnsServedOrIgnored(t *testing.T) {
	all := []domain.Member{alice, bob, carol, dave}
	log := domain.NewRotationLog()
	log.Served.Append(alice)
	log.Ignored.Append(carol)

	selector := seeded(1)
	for i := 0; i < 500; i++ {
		pick, err := selector.PickNext(all, log)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		if pick.Reset {
			t.Fatalf("unexpected reset with available members")
		}
		if pick.Member == alice || pick.Member == carol {
			t.Fatalf("picked excluded member %v", pick.Member)
		}
	}
}

func TestPickNextSignalsResetWhenExhausted(t *testing.T) {
	all := []domain.Member{alice, bob, carol}
	log := domain.NewRotationLog()
	log.Served.Append(alice)
	log.Served.Append(bob)
	log.Ignored.Append(carol)

	pick, err := seeded(2).PickNext(all, log)
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if !pick.Reset {
		t.Fatalf("expected reset when every non-ignored member has served")
	}
	if log.Served.Len() != 2 {
		t.Fatalf("PickNext must not mutate the log")
	}
}

func TestPickNextResetMayReturnIgnoredMember(t *testing.T) {
	all := []domain.Member{alice, bob}
	log := domain.NewRotationLog()
	log.Served.Append(alice)
	log.Ignored.Append(bob)

	sawIgnored := false
	selector := seeded(3)
	for i := 0; i < 200 && !sawIgnored; i++ {
		pick, err := selector.PickNext(all, log)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		if !pick.Reset {
			t.Fatalf("expected reset")
		}
		sawIgnored = pick.Member == bob
	}
	if !sawIgnored {
		t.Fatalf("expected the reset branch to be able to pick an ignored member")
	}
}

func TestPickNextIsRoughlyUniform(t *testing.T) {
	all := []domain.Member{alice, bob, carol, dave}
	log := domain.NewRotationLog()
	log.Served.Append(dave)

	counts := map[domain.Member]int{}
	selector := seeded(4)
	const trials = 3000
	for i := 0; i < trials; i++ {
		pick, err := selector.PickNext(all, log)
		if err != nil {
			t.Fatalf("pick: %v", err)
		}
		counts[pick.Member]++
	}
	for _, m := range []domain.Member{alice, bob, carol} {
		if counts[m] < 800 || counts[m] > 1200 {
			t.Fatalf("member %v picked %d/%d times, expected about a third", m, counts[m], trials)
		}
	}
}

func TestPickNextWithoutMembers(t *testing.T) {
	if _, err := NewSelector(nil).PickNext(nil, domain.NewRotationLog()); err != ErrNoMembers {
		t.Fatalf("expected ErrNoMembers, got %v", err)
	}
}
