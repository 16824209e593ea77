// Package extractor converts free-text storage requests into criteria.
// The interface is the isolation boundary around everything fuzzy:
// implementations may be probabilistic (an LLM round trip) or
// deterministic (keyword scoring); the engine never sees the
// difference. Timeout and cancellation policy belong to the caller,
// through ctx.
package extractor

import (
	"context"
	"fmt"

	"github.com/jeanpaul/shelver/internal/criteria"
)

// Extractor classifies a request into criteria.
type Extractor interface {
	Extract(ctx context.Context, request string) (criteria.Criteria, error)
}

// ParseError reports that a request could not be confidently
// classified. The caller's policy (out of scope here) is typically to
// ask a clarifying question rather than guess.
type ParseError struct {
	Request string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("extract %q: %s", truncate(e.Request, 80), e.Reason)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
