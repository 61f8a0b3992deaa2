package project

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domproj "github.com/kailas-cloud/talentmatch/internal/domain/project"
)

// projectDTO is the stored JSON document.
type projectDTO struct {
	ID                  string            `json:"id"`
	InterviewerID       string            `json:"interviewer_id"`
	ProjectHeading      string            `json:"project_heading,omitempty"`
	ProjectDescription  string            `json:"project_description"`
	ProjectSkills       []string          `json:"project_skills"`
	ApplicationDeadline string            `json:"application_deadline,omitempty"`
	JobTitle            string            `json:"job_title,omitempty"`
	EmploymentType      string            `json:"employment_type,omitempty"`
	JobLocation         string            `json:"job_location,omitempty"`
	SalaryMin           *float64          `json:"salary_min,omitempty"`
	SalaryMax           *float64          `json:"salary_max,omitempty"`
	SalaryFrequency     string            `json:"salary_frequency,omitempty"`
	VectorIDs           map[string]string `json:"vector_ids"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

func marshalProject(p *domproj.Project) ([]byte, error) {
	post := p.Posting()
	dto := projectDTO{
		ID:                  p.ID(),
		InterviewerID:       p.Interviewer(),
		ProjectHeading:      post.Heading,
		ProjectDescription:  post.Description,
		ProjectSkills:       post.Skills,
		ApplicationDeadline: post.Deadline,
		JobTitle:            post.JobTitle,
		EmploymentType:      post.EmploymentType,
		JobLocation:         post.JobLocation,
		SalaryMin:           post.SalaryMin,
		SalaryMax:           post.SalaryMax,
		SalaryFrequency:     post.SalaryFrequency,
		VectorIDs:           p.VectorIDs().ToStrings(),
		CreatedAt:           p.CreatedAt().UTC(),
		UpdatedAt:           p.UpdatedAt().UTC(),
	}
	data, err := json.Marshal(dto)
	if err != nil {
		return nil, fmt.Errorf("marshal project %s: %w", p.ID(), err)
	}
	return data, nil
}

func unmarshalProject(data []byte) (domproj.Project, error) {
	var dto projectDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return domproj.Project{}, fmt.Errorf("unmarshal project: %w", err)
	}
	post := domproj.Posting{
		Heading:         dto.ProjectHeading,
		Description:     dto.ProjectDescription,
		Skills:          dto.ProjectSkills,
		Deadline:        dto.ApplicationDeadline,
		JobTitle:        dto.JobTitle,
		EmploymentType:  dto.EmploymentType,
		JobLocation:     dto.JobLocation,
		SalaryMin:       dto.SalaryMin,
		SalaryMax:       dto.SalaryMax,
		SalaryFrequency: dto.SalaryFrequency,
	}
	return domproj.Reconstruct(
		dto.ID, dto.InterviewerID, post, domain.VectorIDsFromStrings(dto.VectorIDs),
		dto.CreatedAt, dto.UpdatedAt,
	), nil
}
