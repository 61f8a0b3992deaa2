package project

import (
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Patch is a partial posting update. Nil fields are left unchanged;
// an empty Deadline clears it.
type Patch struct {
	Heading         *string
	Description     *string
	Skills          *[]string
	Deadline        *string
	JobTitle        *string
	EmploymentType  *string
	JobLocation     *string
	SalaryMin       *float64
	SalaryMax       *float64
	SalaryFrequency *string
}

// IsEmpty reports whether the patch changes nothing.
func (p *Patch) IsEmpty() bool {
	return p.Heading == nil && p.Description == nil && p.Skills == nil && p.Deadline == nil &&
		p.JobTitle == nil && p.EmploymentType == nil && p.JobLocation == nil &&
		p.SalaryMin == nil && p.SalaryMax == nil && p.SalaryFrequency == nil
}

// Apply merges the patch and returns the full replacement record plus the
// subspaces whose source text changed.
func (p *Project) Apply(patch Patch, now time.Time) (Project, map[domain.Subspace]string, error) {
	if patch.IsEmpty() {
		return Project{}, nil, domain.NewValidationError("", "update contains no fields")
	}

	post := p.posting
	// A title that mirrors the heading was defaulted from it and follows it.
	if patch.Heading != nil && patch.JobTitle == nil && post.JobTitle == post.Heading {
		post.JobTitle = ""
	}
	set(&post.Heading, patch.Heading)
	set(&post.Description, patch.Description)
	set(&post.Deadline, patch.Deadline)
	set(&post.JobTitle, patch.JobTitle)
	set(&post.EmploymentType, patch.EmploymentType)
	set(&post.JobLocation, patch.JobLocation)
	set(&post.SalaryFrequency, patch.SalaryFrequency)
	if patch.Skills != nil {
		post.Skills = *patch.Skills
	}
	if patch.SalaryMin != nil {
		v := *patch.SalaryMin
		post.SalaryMin = &v
	}
	if patch.SalaryMax != nil {
		v := *patch.SalaryMax
		post.SalaryMax = &v
	}

	next, err := New(p.id, p.interviewer, post, now)
	if err != nil {
		return Project{}, nil, err
	}
	next = next.WithCreatedAt(p.createdAt).WithVectorIDs(p.vectorIDs)

	return next, domain.ChangedTexts(p.Texts(), next.Texts()), nil
}

func set(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
