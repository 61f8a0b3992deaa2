package candidate

import (
	"strings"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Social holds public profile links.
type Social struct {
	GitHub    string
	LinkedIn  string
	Portfolio string
}

// Education is one entry of the education history.
type Education struct {
	Name          string
	Qualification string
	Category      string
	Start         string
	End           string
	Marks         string
}

// PortfolioProject is a project the candidate built.
type PortfolioProject struct {
	Title       string
	Description string
	Skills      []string
}

// Experience is one employment entry.
type Experience struct {
	Company     string
	Designation string
	Description string
	Skills      []string
	Start       string
	End         string
}

// Profile is the structured resume record supplied by the document-to-record service.
type Profile struct {
	Name                 string
	Phone                string
	Mail                 string
	Social               Social
	Education            []Education
	Skills               []string
	Projects             []PortfolioProject
	Experience           []Experience
	Certifications       []string
	Achievements         []string
	ProfessionalSummary  string
	TotalExperienceYears *float64
}

// Candidate is the candidate aggregate (immutable value object).
type Candidate struct {
	id        string
	owner     string
	profile   Profile
	attrs     Attributes
	vectorIDs domain.VectorIDs
	createdAt time.Time
	updatedAt time.Time
}

// New validates a profile and creates a Candidate owned by owner.
// Filterable attributes are derived from the profile here and never embedded.
func New(id, owner string, p Profile, now time.Time) (Candidate, error) {
	if id == "" {
		return Candidate{}, domain.NewValidationError("id", "candidate id is required")
	}
	if owner == "" {
		return Candidate{}, domain.NewValidationError("owner", "owner identity is required")
	}
	p = normalizeProfile(p)
	if p.Name == "" {
		return Candidate{}, domain.NewValidationError("name", "name is required")
	}
	c := Candidate{
		id:        id,
		owner:     owner,
		profile:   p,
		attrs:     DeriveAttributes(p),
		createdAt: now.UTC(),
		updatedAt: now.UTC(),
	}
	if len(c.Texts()) == 0 {
		return Candidate{}, domain.NewValidationError(
			"profile", "professional summary, skills, experience or projects are required",
		)
	}
	return c, nil
}

// Reconstruct creates a Candidate without validation (storage hydration).
func Reconstruct(
	id, owner string, p Profile, attrs Attributes, vectorIDs domain.VectorIDs,
	createdAt, updatedAt time.Time,
) Candidate {
	return Candidate{
		id: id, owner: owner, profile: p, attrs: attrs, vectorIDs: vectorIDs,
		createdAt: createdAt, updatedAt: updatedAt,
	}
}

// ID returns the candidate identifier.
func (c *Candidate) ID() string { return c.id }

// Owner returns the external owner identity.
func (c *Candidate) Owner() string { return c.owner }

// Profile returns the resume record.
func (c *Candidate) Profile() Profile { return c.profile }

// Name returns the display name.
func (c *Candidate) Name() string { return c.profile.Name }

// Attributes returns the derived filterable attributes.
func (c *Candidate) Attributes() Attributes { return c.attrs }

// VectorIDs returns a copy of the subspace to vector id map.
func (c *Candidate) VectorIDs() domain.VectorIDs { return c.vectorIDs.Clone() }

// CreatedAt returns the creation time.
func (c *Candidate) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the last modification time.
func (c *Candidate) UpdatedAt() time.Time { return c.updatedAt }

// IsVectorized reports whether at least one subspace vector is recorded.
func (c *Candidate) IsVectorized() bool { return len(c.vectorIDs) > 0 }

// WithVectorIDs returns a copy carrying ids as the full vector map.
func (c Candidate) WithVectorIDs(ids domain.VectorIDs) Candidate {
	c.vectorIDs = ids.Clone()
	return c
}

// WithCreatedAt returns a copy with the original creation time preserved.
func (c Candidate) WithCreatedAt(t time.Time) Candidate {
	if !t.IsZero() {
		c.createdAt = t
	}
	return c
}

// Texts returns the source text per subspace. Subspaces with no text are omitted.
func (c *Candidate) Texts() map[domain.Subspace]string {
	out := make(map[domain.Subspace]string, 3)
	if t := summaryText(c.profile); t != "" {
		out[domain.SubspaceProfessionalSummary] = t
	}
	if t := strings.Join(c.AllSkills(), ", "); t != "" {
		out[domain.SubspaceSkillsMatrix] = t
	}
	if t := portfolioText(c.profile); t != "" {
		out[domain.SubspaceProjectPortfolio] = t
	}
	return out
}

// AllSkills merges declared, experience and portfolio skills, first spelling wins.
func (c *Candidate) AllSkills() []string {
	var all []string
	all = append(all, c.profile.Skills...)
	for _, e := range c.profile.Experience {
		all = append(all, e.Skills...)
	}
	for _, p := range c.profile.Projects {
		all = append(all, p.Skills...)
	}
	return dedupFold(all)
}

func summaryText(p Profile) string {
	var b strings.Builder
	b.WriteString(p.ProfessionalSummary)
	for _, e := range p.Experience {
		line := strings.TrimSpace(strings.Join(nonEmpty(e.Designation, e.Company, e.Description), " | "))
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line)
	}
	return strings.TrimSpace(b.String())
}

func portfolioText(p Profile) string {
	lines := make([]string, 0, len(p.Projects))
	for _, pr := range p.Projects {
		line := strings.Join(nonEmpty(pr.Title, pr.Description), ": ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func normalizeProfile(p Profile) Profile {
	p.Name = strings.TrimSpace(p.Name)
	p.ProfessionalSummary = strings.TrimSpace(p.ProfessionalSummary)
	p.Skills = dedupFold(p.Skills)
	return p
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedupFold(in []string) []string {
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
