package candidate

// Summary is the condensed view shown to interviewers.
type Summary struct {
	HighestQualification Qualification
	Projects             []ProjectSummary
	Experience           []ExperienceSummary
	Certifications       []string
}

// Qualification is the best-ranked education entry.
type Qualification struct {
	Qualification string
	Category      string
}

// ProjectSummary is a portfolio project reduced to description and skills.
type ProjectSummary struct {
	Description string
	Skills      []string
}

// ExperienceSummary is an employment entry without dates and company.
type ExperienceSummary struct {
	Designation string
	Description string
	Skills      []string
}

const (
	notAvailable       = "Not available"
	unknownRole        = "Unknown Role"
	noDescriptionGiven = "No description provided."
)

// Summary builds the condensed view.
func (c *Candidate) Summary() Summary {
	s := Summary{
		HighestQualification: Qualification{Qualification: notAvailable, Category: notAvailable},
		Projects:             make([]ProjectSummary, 0, len(c.profile.Projects)),
		Experience:           make([]ExperienceSummary, 0, len(c.profile.Experience)),
		Certifications:       append([]string{}, c.profile.Certifications...),
	}

	if idx := highestEducationIndex(c.profile.Education); idx >= 0 {
		e := c.profile.Education[idx]
		s.HighestQualification = Qualification{
			Qualification: orDefault(e.Qualification, "Unknown"),
			Category:      orDefault(e.Category, "Unknown"),
		}
	}
	for _, p := range c.profile.Projects {
		s.Projects = append(s.Projects, ProjectSummary{
			Description: orDefault(p.Description, noDescriptionGiven),
			Skills:      append([]string{}, p.Skills...),
		})
	}
	for _, e := range c.profile.Experience {
		s.Experience = append(s.Experience, ExperienceSummary{
			Designation: orDefault(e.Designation, unknownRole),
			Description: orDefault(e.Description, noDescriptionGiven),
			Skills:      append([]string{}, e.Skills...),
		})
	}
	return s
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
