package project

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// DeadlineLayout is the canonical stored deadline format (UTC, second precision).
const DeadlineLayout = "2006-01-02T15:04:05Z"

// offsetThenZ matches "...+05:30Z": an explicit offset followed by a stray Z.
var offsetThenZ = regexp.MustCompile(`[+-]\d{2}:\d{2}Z$`)

var deadlineLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDeadline parses an ISO 8601 deadline into an absolute UTC instant.
// Values without a zone are taken as UTC.
func ParseDeadline(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty deadline: %w", domain.ErrDeadlineParse)
	}
	if offsetThenZ.MatchString(s) {
		s = strings.TrimSuffix(s, "Z")
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("deadline %q is not ISO 8601: %w", raw, domain.ErrDeadlineParse)
}

// NormalizeDeadline parses raw and renders it in DeadlineLayout.
func NormalizeDeadline(raw string) (string, error) {
	t, err := ParseDeadline(raw)
	if err != nil {
		return "", err
	}
	return t.Format(DeadlineLayout), nil
}
