// Package leaderboard contains the ranked view of a guild's memberships.
// Ranking is tie-aware: a member's rank is one plus the number of members
// with strictly more experience, so equal totals share a rank.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one row of a guild leaderboard.
type Entry struct {
	// Rank is the 1-based tie-aware position.
	Rank shared.Rank

	// UserID identifies the member.
	UserID shared.UserID

	// XP is the member's current experience total.
	XP int64

	// Level is the member's current level.
	Level int

	// UpdatedAt is when the underlying membership last changed.
	UpdatedAt time.Time
}

// NewEntry creates a leaderboard entry with validation.
func NewEntry(rank shared.Rank, userID shared.UserID, xp int64, level int) (*Entry, error) {
	if !rank.IsValid() {
		return nil, ErrInvalidRank
	}
	if !userID.IsValid() {
		return nil, shared.ErrInvalidUserID
	}
	if xp < 0 {
		return nil, ErrInvalidXP
	}
	return &Entry{
		Rank:      rank,
		UserID:    userID,
		XP:        xp,
		Level:     level,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Clone creates a copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// String returns a compact representation for logging.
func (e *Entry) String() string {
	return fmt.Sprintf("Entry{Rank: %d, User: %d, XP: %d, Level: %d}", e.Rank, e.UserID, e.XP, e.Level)
}

// ══════════════════════════════════════════════════════════════════════════════
// STANDINGS (Ranked List)
// ══════════════════════════════════════════════════════════════════════════════

// Standings is a full ordered list of a guild's members. It is the helper
// structure used to assign snapshot rankings during season archival.
type Standings struct {
	entries []*Entry
	byID    map[shared.UserID]*Entry
}

// NewStandings creates empty standings.
func NewStandings() *Standings {
	return &Standings{
		entries: make([]*Entry, 0),
		byID:    make(map[shared.UserID]*Entry),
	}
}

// Add appends an entry (without sorting).
func (s *Standings) Add(entry *Entry) error {
	if entry == nil {
		return ErrNilEntry
	}
	if _, exists := s.byID[entry.UserID]; exists {
		return ErrDuplicateMember
	}
	s.entries = append(s.entries, entry)
	s.byID[entry.UserID] = entry
	return nil
}

// SortByXP orders entries by XP descending and assigns ranks. Equal XP
// shares a rank; the member after a tie group resumes at the positional
// index, matching the "one plus strictly greater" rule.
func (s *Standings) SortByXP() {
	sort.Slice(s.entries, func(i, j int) bool {
		if s.entries[i].XP != s.entries[j].XP {
			return s.entries[i].XP > s.entries[j].XP
		}
		return s.entries[i].UserID < s.entries[j].UserID
	})

	for i, entry := range s.entries {
		if i > 0 && entry.XP == s.entries[i-1].XP {
			entry.Rank = s.entries[i-1].Rank
		} else {
			entry.Rank = shared.Rank(i + 1)
		}
	}
}

// GetByID returns the entry for a member, or nil.
func (s *Standings) GetByID(userID shared.UserID) *Entry {
	return s.byID[userID]
}

// Top returns the first n entries.
func (s *Standings) Top(n int) []*Entry {
	if n <= 0 {
		return nil
	}
	if n > len(s.entries) {
		n = len(s.entries)
	}
	result := make([]*Entry, n)
	copy(result, s.entries[:n])
	return result
}

// All returns every entry in order.
func (s *Standings) All() []*Entry {
	result := make([]*Entry, len(s.entries))
	copy(result, s.entries)
	return result
}

// Count returns the number of entries.
func (s *Standings) Count() int {
	return len(s.entries)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidRank - rank must be positive.
	ErrInvalidRank = errors.New("invalid rank: must be positive")

	// ErrInvalidXP - XP must be non-negative.
	ErrInvalidXP = errors.New("invalid xp: must be non-negative")

	// ErrNilEntry - attempted to add a nil entry.
	ErrNilEntry = errors.New("cannot add nil entry")

	// ErrDuplicateMember - the member is already in the standings.
	ErrDuplicateMember = errors.New("member already exists in standings")

	// ErrEmptyLeaderboard - the guild has no members yet.
	ErrEmptyLeaderboard = errors.New("leaderboard is empty")
)
