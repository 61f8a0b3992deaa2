package eligibility

import (
	"strings"
	"time"

	domcand "github.com/kailas-cloud/talentmatch/internal/domain/candidate"
	domproj "github.com/kailas-cloud/talentmatch/internal/domain/project"
)

// CandidateFilters are the opt-in categorical filters on candidates.
// Empty strings and a nil HasLeadership match everything.
type CandidateFilters struct {
	SeniorityLevel   string
	HighestEducation string
	HasLeadership    *bool
}

// IsEmpty reports whether no filter is set.
func (f CandidateFilters) IsEmpty() bool {
	return strings.TrimSpace(f.SeniorityLevel) == "" &&
		strings.TrimSpace(f.HighestEducation) == "" &&
		f.HasLeadership == nil
}

// Categorical matches candidate attributes against f. Returns nil for an empty filter.
func Categorical(f CandidateFilters) Predicate[domcand.Candidate] {
	if f.IsEmpty() {
		return nil
	}
	seniority := strings.TrimSpace(f.SeniorityLevel)
	education := strings.TrimSpace(f.HighestEducation)
	return func(c domcand.Candidate) Verdict {
		attrs := c.Attributes()
		if seniority != "" && !strings.EqualFold(attrs.SeniorityLevel, seniority) {
			return Verdict{Reason: ReasonAttributeMismatch}
		}
		if education != "" && !strings.EqualFold(attrs.HighestEducation, education) {
			return Verdict{Reason: ReasonAttributeMismatch}
		}
		if f.HasLeadership != nil && attrs.HasLeadership != *f.HasLeadership {
			return Verdict{Reason: ReasonAttributeMismatch}
		}
		return Kept
	}
}

// Deadline keeps projects with no deadline or a deadline strictly after now().
// An unparsable deadline excludes the project.
func Deadline(now func() time.Time) Predicate[domproj.Project] {
	if now == nil {
		now = time.Now
	}
	return func(p domproj.Project) Verdict {
		if !p.HasDeadline() {
			return Kept
		}
		d, err := p.Deadline()
		if err != nil {
			return Verdict{Reason: ReasonDeadlineUnparsable, Err: err}
		}
		if !d.After(now().UTC()) {
			return Verdict{Reason: ReasonDeadlinePassed}
		}
		return Kept
	}
}

