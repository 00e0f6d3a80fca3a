package safety

import (
	"slices"
	"strings"

	"github.com/kittylit/kittylit/internal/domain/book"
)

// RejectReason names why a candidate failed the safety gate.
type RejectReason string

// Reject reasons.
const (
	RejectAgeMismatch     RejectReason = "age_mismatch"
	RejectBlockedFlag     RejectReason = "blocked_flag"
	RejectMissingISBN     RejectReason = "missing_isbn"
	RejectMissingCategory RejectReason = "missing_category"
)

// Ruleset is the externally configured age/content policy. It is read-only at runtime.
type Ruleset struct {
	blockedFlags []string
	requireISBN  bool
}

// NewRuleset creates a ruleset. Flags are compared case-insensitively.
func NewRuleset(blockedFlags []string, requireISBN bool) Ruleset {
	flags := make([]string, 0, len(blockedFlags))
	for _, f := range blockedFlags {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			flags = append(flags, f)
		}
	}
	return Ruleset{blockedFlags: flags, requireISBN: requireISBN}
}

// DefaultRuleset blocks the content flags the catalogue marks as sensitive for children.
func DefaultRuleset() Ruleset {
	return NewRuleset([]string{"violence", "horror", "mature", "sensitive"}, true)
}

// BlockedFlags returns the flags that cause rejection.
func (r Ruleset) BlockedFlags() []string { return r.blockedFlags }

// Check evaluates b for a reader of the given age. ok is true when b passes.
func (r Ruleset) Check(b *book.Book, age int) (reason RejectReason, ok bool) {
	if r.requireISBN && b.ISBN() == "" {
		return RejectMissingISBN, false
	}
	if len(b.Categories()) == 0 {
		return RejectMissingCategory, false
	}
	if !b.ContainsAge(age) {
		return RejectAgeMismatch, false
	}
	if slices.ContainsFunc(b.SafetyFlags(), func(f string) bool { return slices.Contains(r.blockedFlags, f) }) {
		return RejectBlockedFlag, false
	}
	return "", true
}
