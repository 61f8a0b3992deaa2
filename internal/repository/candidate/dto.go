package candidate

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domcand "github.com/kailas-cloud/talentmatch/internal/domain/candidate"
)

type socialDTO struct {
	GitHub    string `json:"github,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

type educationDTO struct {
	Name          string `json:"name,omitempty"`
	Qualification string `json:"qualification,omitempty"`
	Category      string `json:"category,omitempty"`
	Start         string `json:"start,omitempty"`
	End           string `json:"end,omitempty"`
	Marks         string `json:"marks,omitempty"`
}

type projectDTO struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Skills      []string `json:"skills,omitempty"`
}

type experienceDTO struct {
	Company     string   `json:"company,omitempty"`
	Designation string   `json:"designation,omitempty"`
	Description string   `json:"description,omitempty"`
	Skills      []string `json:"skills,omitempty"`
	Start       string   `json:"start,omitempty"`
	End         string   `json:"end,omitempty"`
}

// candidateDTO is the stored JSON document. Derived attributes are stored
// next to the profile so eligibility filtering needs no recomputation.
type candidateDTO struct {
	ID                   string            `json:"id"`
	UserID               string            `json:"user_id"`
	Name                 string            `json:"name"`
	Phone                string            `json:"phone,omitempty"`
	Mail                 string            `json:"mail,omitempty"`
	Social               socialDTO         `json:"social"`
	Education            []educationDTO    `json:"education,omitempty"`
	Skills               []string          `json:"skills,omitempty"`
	Projects             []projectDTO      `json:"projects,omitempty"`
	Experience           []experienceDTO   `json:"experience,omitempty"`
	Certifications       []string          `json:"certifications,omitempty"`
	Achievements         []string          `json:"achievements,omitempty"`
	ProfessionalSummary  string            `json:"professional_summary,omitempty"`
	TotalExperienceYears *float64          `json:"total_experience_years,omitempty"`
	HighestEducation     string            `json:"highest_education"`
	SeniorityLevel       string            `json:"seniority_level"`
	HasLeadership        bool              `json:"has_leadership"`
	VectorIDs            map[string]string `json:"vector_ids"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

func marshalCandidate(c *domcand.Candidate) ([]byte, error) {
	p := c.Profile()
	a := c.Attributes()
	dto := candidateDTO{
		ID:                   c.ID(),
		UserID:               c.Owner(),
		Name:                 p.Name,
		Phone:                p.Phone,
		Mail:                 p.Mail,
		Social:               socialDTO(p.Social),
		Skills:               p.Skills,
		Certifications:       p.Certifications,
		Achievements:         p.Achievements,
		ProfessionalSummary:  p.ProfessionalSummary,
		TotalExperienceYears: p.TotalExperienceYears,
		HighestEducation:     a.HighestEducation,
		SeniorityLevel:       a.SeniorityLevel,
		HasLeadership:        a.HasLeadership,
		VectorIDs:            c.VectorIDs().ToStrings(),
		CreatedAt:            c.CreatedAt().UTC(),
		UpdatedAt:            c.UpdatedAt().UTC(),
	}
	for _, e := range p.Education {
		dto.Education = append(dto.Education, educationDTO(e))
	}
	for _, pp := range p.Projects {
		dto.Projects = append(dto.Projects, projectDTO(pp))
	}
	for _, e := range p.Experience {
		dto.Experience = append(dto.Experience, experienceDTO(e))
	}

	data, err := json.Marshal(dto)
	if err != nil {
		return nil, fmt.Errorf("marshal candidate %s: %w", c.ID(), err)
	}
	return data, nil
}

func unmarshalCandidate(data []byte) (domcand.Candidate, error) {
	var dto candidateDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domcand.Candidate{}, fmt.Errorf("unmarshal candidate: %w", err)
	}

	p := domcand.Profile{
		Name:                 dto.Name,
		Phone:                dto.Phone,
		Mail:                 dto.Mail,
		Social:               domcand.Social(dto.Social),
		Skills:               dto.Skills,
		Certifications:       dto.Certifications,
		Achievements:         dto.Achievements,
		ProfessionalSummary:  dto.ProfessionalSummary,
		TotalExperienceYears: dto.TotalExperienceYears,
	}
	for _, e := range dto.Education {
		p.Education = append(p.Education, domcand.Education(e))
	}
	for _, pp := range dto.Projects {
		p.Projects = append(p.Projects, domcand.PortfolioProject(pp))
	}
	for _, e := range dto.Experience {
		p.Experience = append(p.Experience, domcand.Experience(e))
	}

	attrs := domcand.Attributes{
		HighestEducation: dto.HighestEducation,
		SeniorityLevel:   dto.SeniorityLevel,
		HasLeadership:    dto.HasLeadership,
	}
	return domcand.Reconstruct(
		dto.ID, dto.UserID, p, attrs, domain.VectorIDsFromStrings(dto.VectorIDs),
		dto.CreatedAt, dto.UpdatedAt,
	), nil
}
