package project

import (
	"strings"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Posting is the job posting content an interviewer submits.
type Posting struct {
	Heading         string
	Description     string
	Skills          []string
	Deadline        string
	JobTitle        string
	EmploymentType  string
	JobLocation     string
	SalaryMin       *float64
	SalaryMax       *float64
	SalaryFrequency string
}

// Project is the project aggregate (immutable value object).
type Project struct {
	id          string
	interviewer string
	posting     Posting
	vectorIDs   domain.VectorIDs
	createdAt   time.Time
	updatedAt   time.Time
}

// New validates a posting and creates a Project owned by interviewer.
// The deadline, when present, is normalized to DeadlineLayout; job title defaults to the heading.
func New(id, interviewer string, p Posting, now time.Time) (Project, error) {
	if id == "" {
		return Project{}, domain.NewValidationError("id", "project id is required")
	}
	if interviewer == "" {
		return Project{}, domain.NewValidationError("interviewer_id", "interviewer identity is required")
	}

	p.Heading = strings.TrimSpace(p.Heading)
	p.Description = strings.TrimSpace(p.Description)
	p.JobTitle = strings.TrimSpace(p.JobTitle)
	p.Skills = cleanSkills(p.Skills)

	if p.Description == "" {
		return Project{}, domain.NewValidationError("project_description", "project_description is required")
	}
	if len(p.Skills) == 0 {
		return Project{}, domain.NewValidationError("project_skills", "project_skills is required (list or string)")
	}
	if strings.TrimSpace(p.Deadline) != "" {
		normalized, err := NormalizeDeadline(p.Deadline)
		if err != nil {
			return Project{}, domain.NewValidationError("application_deadline",
				"application_deadline must be in ISO format (e.g. '2024-12-31T23:59:59Z')")
		}
		p.Deadline = normalized
	} else {
		p.Deadline = ""
	}
	if p.SalaryMin != nil && p.SalaryMax != nil && *p.SalaryMin > *p.SalaryMax {
		return Project{}, domain.NewValidationError("salary_min", "salary_min must not exceed salary_max")
	}
	if p.JobTitle == "" {
		p.JobTitle = p.Heading
	}

	return Project{
		id:          id,
		interviewer: interviewer,
		posting:     p,
		createdAt:   now.UTC(),
		updatedAt:   now.UTC(),
	}, nil
}

// Reconstruct creates a Project without validation (storage hydration).
// A stored deadline is kept verbatim; eligibility parses it at read time.
func Reconstruct(
	id, interviewer string, p Posting, vectorIDs domain.VectorIDs, createdAt, updatedAt time.Time,
) Project {
	return Project{
		id: id, interviewer: interviewer, posting: p, vectorIDs: vectorIDs,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// ID returns the project identifier.
func (p *Project) ID() string { return p.id }

// Interviewer returns the owning interviewer identity.
func (p *Project) Interviewer() string { return p.interviewer }

// Posting returns the posting content.
func (p *Project) Posting() Posting { return p.posting }

// VectorIDs returns a copy of the subspace to vector id map.
func (p *Project) VectorIDs() domain.VectorIDs { return p.vectorIDs.Clone() }

// CreatedAt returns the creation time.
func (p *Project) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last modification time.
func (p *Project) UpdatedAt() time.Time { return p.updatedAt }

// HasDeadline reports whether an application deadline is recorded.
func (p *Project) HasDeadline() bool { return strings.TrimSpace(p.posting.Deadline) != "" }

// Deadline parses the stored deadline.
func (p *Project) Deadline() (time.Time, error) { return ParseDeadline(p.posting.Deadline) }

// WithVectorIDs returns a copy carrying ids as the full vector map.
func (p Project) WithVectorIDs(ids domain.VectorIDs) Project {
	p.vectorIDs = ids.Clone()
	return p
}

// WithCreatedAt returns a copy with the original creation time preserved.
func (p Project) WithCreatedAt(t time.Time) Project {
	if !t.IsZero() {
		p.createdAt = t
	}
	return p
}

// Texts returns the source text per subspace.
func (p *Project) Texts() map[domain.Subspace]string {
	out := make(map[domain.Subspace]string, 2)
	desc := p.posting.Description
	if p.posting.JobTitle != "" {
		desc = p.posting.JobTitle + "\n" + desc
	}
	if desc != "" {
		out[domain.SubspaceProjectDescription] = desc
	}
	if len(p.posting.Skills) > 0 {
		out[domain.SubspaceProjectSkills] = strings.Join(p.posting.Skills, ", ")
	}
	return out
}

// SplitSkills splits a comma-separated skills string.
func SplitSkills(s string) []string {
	return cleanSkills(strings.Split(s, ","))
}

func cleanSkills(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}
