package service

import (
	"strings"
	"sync"

	"dust_cleaner/internal/entity"
)

// SelectionSet tracks which token addresses the caller wants swept. Addresses
// are keyed case-insensitively; members that no longer appear in the current
// dust view are simply inert.
type SelectionSet struct {
	mu      sync.Mutex
	members map[string]struct{}
}

// NewSelectionSet creates an empty selection.
func NewSelectionSet() *SelectionSet {
	return &SelectionSet{members: map[string]struct{}{}}
}

// Toggle flips membership for the address and reports whether it is now
// selected. Toggling twice restores the prior state.
func (s *SelectionSet) Toggle(address string) bool {
	key := strings.ToLower(address)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[key]; ok {
		delete(s.members, key)
		return false
	}
	s.members[key] = struct{}{}
	return true
}

// SelectAll replaces the selection with every token of the given records.
func (s *SelectionSet) SelectAll(records []entity.TokenBalanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = make(map[string]struct{}, len(records))
	for _, record := range records {
		s.members[strings.ToLower(record.Token.Address)] = struct{}{}
	}
}

// Clear removes every member.
func (s *SelectionSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = map[string]struct{}{}
}

// Has reports whether the address is selected.
func (s *SelectionSet) Has(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[strings.ToLower(address)]
	return ok
}

// Size returns the number of selected addresses, including stale ones.
func (s *SelectionSet) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}

// Selected returns the subset of records whose token is selected, preserving
// the order of the input. Selected addresses absent from records contribute
// nothing.
func (s *SelectionSet) Selected(records []entity.TokenBalanceRecord) []entity.TokenBalanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.TokenBalanceRecord, 0, len(s.members))
	for _, record := range records {
		if _, ok := s.members[strings.ToLower(record.Token.Address)]; ok {
			out = append(out, record)
		}
	}
	return out
}

// NeedsApproval reports whether any of the given records holds more balance
// than its spender allowance. The comparison is exact big-integer arithmetic;
// a missing allowance reads as zero.
func NeedsApproval(records []entity.TokenBalanceRecord) bool {
	for _, record := range records {
		if record.RawBalance == nil || record.RawBalance.Sign() <= 0 {
			continue
		}
		if record.Allowance == nil || record.Allowance.Cmp(record.RawBalance) < 0 {
			return true
		}
	}
	return false
}
