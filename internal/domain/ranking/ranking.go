// Package ranking holds the transient, per-request ranking views.
package ranking

import (
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Hit is one raw nearest-neighbour match.
type Hit struct {
	EntityID string
	Score    float64
}

// List is the ranked output of one subspace query, best first.
type List struct {
	Subspace domain.Subspace
	Hits     []Hit
}

// Fused is one entry of a combined ranking with its per-subspace breakdown.
// Subspaces an entity was absent from are missing from Raw and count as 0 in Normalized.
type Fused struct {
	EntityID   string
	Overall    float64
	Raw        map[domain.Subspace]float64
	Normalized map[domain.Subspace]float64
}

// Score returns the normalized score of a subspace, 0 when absent.
func (f *Fused) Score(s domain.Subspace) float64 { return f.Normalized[s] }

// Candidate is a ranked candidate annotated with its filterable attributes.
type Candidate struct {
	CandidateID      string
	Name             string
	OverallScore     float64
	SummaryScore     float64
	PortfolioScore   float64
	SkillsScore      float64
	SeniorityLevel   string
	HighestEducation string
	HasLeadership    bool
}

// ProjectDetails is the denormalized posting attached to a ranked project.
type ProjectDetails struct {
	JobTitle        string
	Description     string
	Skills          []string
	EmploymentType  string
	JobLocation     string
	SalaryMin       *float64
	SalaryMax       *float64
	SalaryFrequency string
	Deadline        string
	CreatedAt       time.Time
	InterviewerID   string
}

// Project is a ranked project with its posting details.
type Project struct {
	ProjectID        string
	OverallScore     float64
	DescriptionScore float64
	SkillsScore      float64
	Details          ProjectDetails
}
