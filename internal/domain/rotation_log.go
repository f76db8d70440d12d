package domain

import "encoding/json"

// MemberSet is an insertion-ordered set of members.
type MemberSet struct {
	order []Member
	index map[Member]struct{}
}

func NewMemberSet(members ...Member) *MemberSet {
	s := &MemberSet{index: make(map[Member]struct{}, len(members))}
	for _, m := range members {
		s.Append(m)
	}
	return s
}

func (s *MemberSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

func (s *MemberSet) Contains(m Member) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[m]
	return ok
}

// Append adds m at the end and reports whether it was absent.
func (s *MemberSet) Append(m Member) bool {
	if s.index == nil {
		s.index = make(map[Member]struct{})
	}
	if _, ok := s.index[m]; ok {
		return false
	}
	s.index[m] = struct{}{}
	s.order = append(s.order, m)
	return true
}

func (s *MemberSet) Last() (Member, bool) {
	if s.Len() == 0 {
		return Member{}, false
	}
	return s.order[len(s.order)-1], true
}

func (s *MemberSet) PopLast() (Member, bool) {
	last, ok := s.Last()
	if !ok {
		return Member{}, false
	}
	s.order = s.order[:len(s.order)-1]
	delete(s.index, last)
	return last, true
}

// Remove deletes m and reports whether it was present.
func (s *MemberSet) Remove(m Member) bool {
	if !s.Contains(m) {
		return false
	}
	delete(s.index, m)
	for i, existing := range s.order {
		if existing == m {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *MemberSet) Clear() {
	s.order = nil
	s.index = make(map[Member]struct{})
}

// Members returns a copy in insertion order.
func (s *MemberSet) Members() []Member {
	if s.Len() == 0 {
		return []Member{}
	}
	out := make([]Member, len(s.order))
	copy(out, s.order)
	return out
}

func (s *MemberSet) Equal(other *MemberSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := range s.Len() {
		if s.order[i] != other.order[i] {
			return false
		}
	}
	return true
}

func (s *MemberSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Members())
}

func (s *MemberSet) UnmarshalJSON(data []byte) error {
	var members []Member
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	s.Clear()
	for _, m := range members {
		s.Append(m.Normalize())
	}
	return nil
}

// RotationLog is the persisted per-group rotation state.
type RotationLog struct {
	Ignored *MemberSet `json:"ignored"`
	Served  *MemberSet `json:"served"`
}

func NewRotationLog() *RotationLog {
	return &RotationLog{
		Ignored: NewMemberSet(),
		Served:  NewMemberSet(),
	}
}

func (l *RotationLog) UnmarshalJSON(data []byte) error {
	type raw RotationLog
	decoded := raw{Ignored: NewMemberSet(), Served: NewMemberSet()}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.Ignored == nil {
		decoded.Ignored = NewMemberSet()
	}
	if decoded.Served == nil {
		decoded.Served = NewMemberSet()
	}
	*l = RotationLog(decoded)
	return nil
}

// Available returns the members of all that are neither served nor ignored,
// as a set for membership checks.
func (l *RotationLog) Available(all []Member) map[Member]struct{} {
	available := make(map[Member]struct{}, len(all))
	for _, m := range all {
		if l.Ignored.Contains(m) || l.Served.Contains(m) {
			continue
		}
		available[m] = struct{}{}
	}
	return available
}

func (l *RotationLog) Clone() *RotationLog {
	return &RotationLog{
		Ignored: NewMemberSet(l.Ignored.Members()...),
		Served:  NewMemberSet(l.Served.Members()...),
	}
}

func (l *RotationLog) Equal(other *RotationLog) bool {
	if l == nil || other == nil {
		return l == other
	}
	return l.Ignored.Equal(other.Ignored) && l.Served.Equal(other.Served)
}
