package season

import (
	"regexp"
	"strconv"
	"time"

	"github.com/guildhub/guild-xp-hub/internal/domain/shared"
)

// MaxDuration is the longest a temporary season may run.
const MaxDuration = 31 * 24 * time.Hour

// Compound duration format: optional day/hour/minute/second components,
// each digits followed by its unit letter, in exactly this order.
var durationRe = regexp.MustCompile(`^(?:(\d+)d)?(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

// ParseDuration parses a compound duration string such as "1d2h" or
// "45m30s". At least one component is required and the total must be
// positive and at most 31 days. Anything else is rejected without
// mutation.
func ParseDuration(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, shared.ErrInvalidDuration
	}

	m := durationRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, shared.ErrInvalidDuration
	}

	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}

	var total time.Duration
	for i, unit := range units {
		part := m[i+1]
		if part == "" {
			continue
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0, shared.ErrInvalidDuration
		}
		// Bound each component before multiplying; a huge count would
		// wrap the nanosecond arithmetic and land back inside the cap.
		if n > int64(MaxDuration/unit) {
			return 0, shared.ErrDurationOutOfRange
		}
		total += time.Duration(n) * unit
	}

	if total <= 0 {
		return 0, shared.ErrInvalidDuration
	}
	if total > MaxDuration {
		return 0, shared.ErrDurationOutOfRange
	}
	return total, nil
}
