package recommend

import (
	"github.com/kittylit/kittylit/internal/domain/candidate"
	"github.com/kittylit/kittylit/internal/domain/safety"
)

// applySafety drops every candidate the ruleset rejects for age. Order is preserved.
func applySafety(
	rules safety.Ruleset, age int, cs []candidate.Candidate,
) (kept []candidate.Candidate, rejected map[safety.RejectReason]int) {
	kept = make([]candidate.Candidate, 0, len(cs))
	rejected = make(map[safety.RejectReason]int)
	for i := range cs {
		if reason, ok := rules.Check(cs[i].Book(), age); !ok {
			rejected[reason]++
			continue
		}
		kept = append(kept, cs[i])
	}
	return kept, rejected
}
