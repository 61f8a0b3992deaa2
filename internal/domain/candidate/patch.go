package candidate

import (
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Patch is a partial profile update. Nil fields are left unchanged.
type Patch struct {
	Name                 *string
	Phone                *string
	Mail                 *string
	Social               *Social
	Education            *[]Education
	Skills               *[]string
	Projects             *[]PortfolioProject
	Experience           *[]Experience
	Certifications       *[]string
	Achievements         *[]string
	ProfessionalSummary  *string
	TotalExperienceYears *float64
}

// IsEmpty reports whether the patch changes nothing.
func (p *Patch) IsEmpty() bool {
	return p.Name == nil && p.Phone == nil && p.Mail == nil && p.Social == nil &&
		p.Education == nil && p.Skills == nil && p.Projects == nil && p.Experience == nil &&
		p.Certifications == nil && p.Achievements == nil && p.ProfessionalSummary == nil &&
		p.TotalExperienceYears == nil
}

// Apply merges the patch into the profile and returns the full replacement record
// plus the subspaces whose source text changed. Vector ids and creation time carry over.
func (c *Candidate) Apply(p Patch, now time.Time) (Candidate, map[domain.Subspace]string, error) {
	if p.IsEmpty() {
		return Candidate{}, nil, domain.NewValidationError("", "update contains no fields")
	}

	prof := c.profile
	setString(&prof.Name, p.Name)
	setString(&prof.Phone, p.Phone)
	setString(&prof.Mail, p.Mail)
	setString(&prof.ProfessionalSummary, p.ProfessionalSummary)
	if p.Social != nil {
		prof.Social = *p.Social
	}
	if p.Education != nil {
		prof.Education = *p.Education
	}
	if p.Skills != nil {
		prof.Skills = *p.Skills
	}
	if p.Projects != nil {
		prof.Projects = *p.Projects
	}
	if p.Experience != nil {
		prof.Experience = *p.Experience
	}
	if p.Certifications != nil {
		prof.Certifications = *p.Certifications
	}
	if p.Achievements != nil {
		prof.Achievements = *p.Achievements
	}
	if p.TotalExperienceYears != nil {
		years := *p.TotalExperienceYears
		prof.TotalExperienceYears = &years
	}

	next, err := New(c.id, c.owner, prof, now)
	if err != nil {
		return Candidate{}, nil, err
	}
	next = next.WithCreatedAt(c.createdAt).WithVectorIDs(c.vectorIDs)

	return next, domain.ChangedTexts(c.Texts(), next.Texts()), nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
