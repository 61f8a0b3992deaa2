package chi

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	domcand "github.com/kailas-cloud/talentmatch/internal/domain/candidate"
	domproj "github.com/kailas-cloud/talentmatch/internal/domain/project"
	"github.com/kailas-cloud/talentmatch/internal/domain/ranking"
	"github.com/kailas-cloud/talentmatch/internal/usecase/eligibility"
	"github.com/kailas-cloud/talentmatch/internal/usecase/retrieval"
)

// --- candidate payloads ---

type socialJSON struct {
	GitHub    string `json:"github"`
	LinkedIn  string `json:"linkedin"`
	Portfolio string `json:"portfolio"`
}

type educationJSON struct {
	Name          string `json:"name"`
	Qualification string `json:"qualification"`
	Category      string `json:"category"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Marks         string `json:"marks"`
}

type portfolioJSON struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

type experienceJSON struct {
	Company     string   `json:"company"`
	Designation string   `json:"designation"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
}

type candidateRequest struct {
	Name                 string           `json:"name"`
	Phone                string           `json:"phone"`
	Mail                 string           `json:"mail"`
	Social               socialJSON       `json:"social"`
	Education            []educationJSON  `json:"education"`
	Skills               []string         `json:"skills"`
	Projects             []portfolioJSON  `json:"projects"`
	Experience           []experienceJSON `json:"experience"`
	Certifications       []string         `json:"certifications"`
	Achievements         []string         `json:"achievements"`
	ProfessionalSummary  string           `json:"professional_summary"`
	TotalExperienceYears *float64         `json:"total_experience_years"`
}

func (r *candidateRequest) profile() domcand.Profile {
	return domcand.Profile{
		Name:                 r.Name,
		Phone:                r.Phone,
		Mail:                 r.Mail,
		Social:               domcand.Social(r.Social),
		Education:            educationFromJSON(r.Education),
		Skills:               r.Skills,
		Projects:             portfolioFromJSON(r.Projects),
		Experience:           experienceFromJSON(r.Experience),
		Certifications:       r.Certifications,
		Achievements:         r.Achievements,
		ProfessionalSummary:  r.ProfessionalSummary,
		TotalExperienceYears: r.TotalExperienceYears,
	}
}

type candidateUpdateRequest struct {
	Name                 *string           `json:"name"`
	Phone                *string           `json:"phone"`
	Mail                 *string           `json:"mail"`
	Social               *socialJSON       `json:"social"`
	Education            *[]educationJSON  `json:"education"`
	Skills               *[]string         `json:"skills"`
	Projects             *[]portfolioJSON  `json:"projects"`
	Experience           *[]experienceJSON `json:"experience"`
	Certifications       *[]string         `json:"certifications"`
	Achievements         *[]string         `json:"achievements"`
	ProfessionalSummary  *string           `json:"professional_summary"`
	TotalExperienceYears *float64          `json:"total_experience_years"`
}

func (r *candidateUpdateRequest) patch() domcand.Patch {
	p := domcand.Patch{
		Name:                 r.Name,
		Phone:                r.Phone,
		Mail:                 r.Mail,
		Skills:               r.Skills,
		Certifications:       r.Certifications,
		Achievements:         r.Achievements,
		ProfessionalSummary:  r.ProfessionalSummary,
		TotalExperienceYears: r.TotalExperienceYears,
	}
	if r.Social != nil {
		s := domcand.Social(*r.Social)
		p.Social = &s
	}
	if r.Education != nil {
		e := educationFromJSON(*r.Education)
		p.Education = &e
	}
	if r.Projects != nil {
		pr := portfolioFromJSON(*r.Projects)
		p.Projects = &pr
	}
	if r.Experience != nil {
		ex := experienceFromJSON(*r.Experience)
		p.Experience = &ex
	}
	return p
}

func educationFromJSON(in []educationJSON) []domcand.Education {
	out := make([]domcand.Education, len(in))
	for i, e := range in {
		out[i] = domcand.Education(e)
	}
	return out
}

func portfolioFromJSON(in []portfolioJSON) []domcand.PortfolioProject {
	out := make([]domcand.PortfolioProject, len(in))
	for i, p := range in {
		out[i] = domcand.PortfolioProject(p)
	}
	return out
}

func experienceFromJSON(in []experienceJSON) []domcand.Experience {
	out := make([]domcand.Experience, len(in))
	for i, e := range in {
		out[i] = domcand.Experience(e)
	}
	return out
}

type candidateResponse struct {
	ID                   string            `json:"candidate_id"`
	UserID               string            `json:"user_id"`
	Name                 string            `json:"name"`
	Phone                string            `json:"phone,omitempty"`
	Mail                 string            `json:"mail,omitempty"`
	Social               socialJSON        `json:"social"`
	Education            []educationJSON   `json:"education"`
	Skills               []string          `json:"skills"`
	Projects             []portfolioJSON   `json:"projects"`
	Experience           []experienceJSON  `json:"experience"`
	Certifications       []string          `json:"certifications"`
	Achievements         []string          `json:"achievements"`
	ProfessionalSummary  string            `json:"professional_summary"`
	TotalExperienceYears *float64          `json:"total_experience_years,omitempty"`
	HighestEducation     string            `json:"highest_education"`
	SeniorityLevel       string            `json:"seniority_level"`
	HasLeadership        bool              `json:"has_leadership"`
	VectorIDs            map[string]string `json:"vector_ids"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

func candidateToJSON(c *domcand.Candidate) candidateResponse {
	p := c.Profile()
	a := c.Attributes()
	resp := candidateResponse{
		ID:                   c.ID(),
		UserID:               c.Owner(),
		Name:                 p.Name,
		Phone:                p.Phone,
		Mail:                 p.Mail,
		Social:               socialJSON(p.Social),
		Education:            make([]educationJSON, len(p.Education)),
		Skills:               nonNil(p.Skills),
		Projects:             make([]portfolioJSON, len(p.Projects)),
		Experience:           make([]experienceJSON, len(p.Experience)),
		Certifications:       nonNil(p.Certifications),
		Achievements:         nonNil(p.Achievements),
		ProfessionalSummary:  p.ProfessionalSummary,
		TotalExperienceYears: p.TotalExperienceYears,
		HighestEducation:     a.HighestEducation,
		SeniorityLevel:       a.SeniorityLevel,
		HasLeadership:        a.HasLeadership,
		VectorIDs:            vectorIDsToJSON(c.VectorIDs()),
		CreatedAt:            c.CreatedAt(),
		UpdatedAt:            c.UpdatedAt(),
	}
	for i, e := range p.Education {
		resp.Education[i] = educationJSON(e)
	}
	for i, pr := range p.Projects {
		resp.Projects[i] = portfolioJSON(pr)
	}
	for i, e := range p.Experience {
		resp.Experience[i] = experienceJSON(e)
	}
	return resp
}

type registrationResponse struct {
	CandidateID string            `json:"candidate_id"`
	VectorIDs   map[string]string `json:"vector_ids"`
	Created     bool              `json:"created"`
}

type vectorsResponse struct {
	CandidateID string            `json:"candidate_id"`
	VectorIDs   map[string]string `json:"vector_ids"`
}

type deleteResponse struct {
	ID             string            `json:"id"`
	Deleted        bool              `json:"deleted"`
	VectorsDeleted map[string]string `json:"vectors_deleted"`
}

type qualificationJSON struct {
	Qualification string `json:"qualification"`
	Category      string `json:"category"`
}

type projectSummaryJSON struct {
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

type experienceSummaryJSON struct {
	Designation string   `json:"designation"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
}

type summaryResponse struct {
	HighestQualification qualificationJSON       `json:"highest_qualification"`
	Projects             []projectSummaryJSON    `json:"projects"`
	Experience           []experienceSummaryJSON `json:"experience"`
	Certifications       []string                `json:"certifications"`
}

func summaryToJSON(s *domcand.Summary) summaryResponse {
	resp := summaryResponse{
		HighestQualification: qualificationJSON(s.HighestQualification),
		Projects:             make([]projectSummaryJSON, len(s.Projects)),
		Experience:           make([]experienceSummaryJSON, len(s.Experience)),
		Certifications:       nonNil(s.Certifications),
	}
	for i, p := range s.Projects {
		resp.Projects[i] = projectSummaryJSON{Description: p.Description, Skills: nonNil(p.Skills)}
	}
	for i, e := range s.Experience {
		resp.Experience[i] = experienceSummaryJSON{
			Designation: e.Designation,
			Description: e.Description,
			Skills:      nonNil(e.Skills),
		}
	}
	return resp
}

// --- project payloads ---

// skillList accepts either a JSON array or a comma-separated string.
type skillList []string

func (s *skillList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("skills must be a list or a comma-separated string: %w", err)
	}
	*s = domproj.SplitSkills(str)
	return nil
}

type projectRequest struct {
	Heading         string    `json:"project_heading"`
	Description     string    `json:"project_description"`
	Skills          skillList `json:"project_skills"`
	Deadline        string    `json:"application_deadline"`
	JobTitle        string    `json:"job_title"`
	EmploymentType  string    `json:"employment_type"`
	JobLocation     string    `json:"job_location"`
	SalaryMin       *float64  `json:"salary_min"`
	SalaryMax       *float64  `json:"salary_max"`
	SalaryFrequency string    `json:"salary_frequency"`
}

func (r *projectRequest) posting() domproj.Posting {
	return domproj.Posting{
		Heading:         r.Heading,
		Description:     r.Description,
		Skills:          r.Skills,
		Deadline:        r.Deadline,
		JobTitle:        r.JobTitle,
		EmploymentType:  r.EmploymentType,
		JobLocation:     r.JobLocation,
		SalaryMin:       r.SalaryMin,
		SalaryMax:       r.SalaryMax,
		SalaryFrequency: r.SalaryFrequency,
	}
}

type projectUpdateRequest struct {
	Heading         *string    `json:"project_heading"`
	Description     *string    `json:"project_description"`
	Skills          *skillList `json:"project_skills"`
	Deadline        *string    `json:"application_deadline"`
	JobTitle        *string    `json:"job_title"`
	EmploymentType  *string    `json:"employment_type"`
	JobLocation     *string    `json:"job_location"`
	SalaryMin       *float64   `json:"salary_min"`
	SalaryMax       *float64   `json:"salary_max"`
	SalaryFrequency *string    `json:"salary_frequency"`
}

func (r *projectUpdateRequest) patch() domproj.Patch {
	p := domproj.Patch{
		Heading:         r.Heading,
		Description:     r.Description,
		Deadline:        r.Deadline,
		JobTitle:        r.JobTitle,
		EmploymentType:  r.EmploymentType,
		JobLocation:     r.JobLocation,
		SalaryMin:       r.SalaryMin,
		SalaryMax:       r.SalaryMax,
		SalaryFrequency: r.SalaryFrequency,
	}
	if r.Skills != nil {
		skills := []string(*r.Skills)
		p.Skills = &skills
	}
	return p
}

type projectResponse struct {
	ID              string            `json:"project_id"`
	InterviewerID   string            `json:"interviewer_id"`
	Heading         string            `json:"project_heading"`
	Description     string            `json:"project_description"`
	Skills          []string          `json:"project_skills"`
	Deadline        string            `json:"application_deadline,omitempty"`
	JobTitle        string            `json:"job_title"`
	EmploymentType  string            `json:"employment_type,omitempty"`
	JobLocation     string            `json:"job_location,omitempty"`
	SalaryMin       *float64          `json:"salary_min,omitempty"`
	SalaryMax       *float64          `json:"salary_max,omitempty"`
	SalaryFrequency string            `json:"salary_frequency,omitempty"`
	VectorIDs       map[string]string `json:"vector_ids"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func projectToJSON(p *domproj.Project) projectResponse {
	post := p.Posting()
	return projectResponse{
		ID:              p.ID(),
		InterviewerID:   p.Interviewer(),
		Heading:         post.Heading,
		Description:     post.Description,
		Skills:          nonNil(post.Skills),
		Deadline:        post.Deadline,
		JobTitle:        post.JobTitle,
		EmploymentType:  post.EmploymentType,
		JobLocation:     post.JobLocation,
		SalaryMin:       post.SalaryMin,
		SalaryMax:       post.SalaryMax,
		SalaryFrequency: post.SalaryFrequency,
		VectorIDs:       vectorIDsToJSON(p.VectorIDs()),
		CreatedAt:       p.CreatedAt(),
		UpdatedAt:       p.UpdatedAt(),
	}
}

type projectListResponse struct {
	Projects []projectResponse `json:"projects"`
	Total    int               `json:"total"`
}

// --- ranking payloads ---

type filtersJSON struct {
	SeniorityLevel   string `json:"seniority_level"`
	HighestEducation string `json:"highest_education"`
	HasLeadership    *bool  `json:"has_leadership"`
}

func (f *filtersJSON) toDomain() eligibility.CandidateFilters {
	if f == nil {
		return eligibility.CandidateFilters{}
	}
	return eligibility.CandidateFilters{
		SeniorityLevel:   f.SeniorityLevel,
		HighestEducation: f.HighestEducation,
		HasLeadership:    f.HasLeadership,
	}
}

type rankCandidatesRequest struct {
	Description string       `json:"project_description"`
	Skills      skillList    `json:"skills"`
	TopK        int          `json:"top_k"`
	Filters     *filtersJSON `json:"filters"`
}

type rankForProjectRequest struct {
	TopK    int          `json:"top_k"`
	Filters *filtersJSON `json:"filters"`
}

type rankedCandidateJSON struct {
	CandidateID      string  `json:"candidate_id"`
	Name             string  `json:"name"`
	OverallScore     float64 `json:"overall_score"`
	SummaryScore     float64 `json:"professional_summary_score"`
	PortfolioScore   float64 `json:"project_portfolio_score"`
	SkillsScore      float64 `json:"skills_matrix_score"`
	SeniorityLevel   string  `json:"seniority_level"`
	HighestEducation string  `json:"highest_education"`
	HasLeadership    bool    `json:"has_leadership"`
}

type hitJSON struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type rankedCandidatesResponse struct {
	Candidates          []rankedCandidateJSON `json:"candidates"`
	ProfessionalSummary []hitJSON             `json:"professional_summary"`
	ProjectPortfolio    []hitJSON             `json:"project_portfolio"`
	SkillsMatrix        []hitJSON             `json:"skills_matrix"`
	CombinedTotal       int                   `json:"combined_total"`
	Eligible            int                   `json:"eligible"`
	CombinedReturned    int                   `json:"combined_returned"`
}

func rankedCandidatesToJSON(rk *retrieval.CandidateRanking) rankedCandidatesResponse {
	resp := rankedCandidatesResponse{
		Candidates:          make([]rankedCandidateJSON, len(rk.Candidates)),
		ProfessionalSummary: hitsToJSON(rk.Subspaces[domain.SubspaceProfessionalSummary]),
		ProjectPortfolio:    hitsToJSON(rk.Subspaces[domain.SubspaceProjectPortfolio]),
		SkillsMatrix:        hitsToJSON(rk.Subspaces[domain.SubspaceSkillsMatrix]),
		CombinedTotal:       rk.CombinedTotal,
		Eligible:            rk.Eligible,
		CombinedReturned:    rk.CombinedReturned,
	}
	for i, c := range rk.Candidates {
		resp.Candidates[i] = rankedCandidateJSON(c)
	}
	return resp
}

func hitsToJSON(hits []ranking.Hit) []hitJSON {
	out := make([]hitJSON, len(hits))
	for i, h := range hits {
		out[i] = hitJSON{ID: h.EntityID, Score: h.Score}
	}
	return out
}

type projectDetailsJSON struct {
	JobTitle        string    `json:"job_title"`
	Description     string    `json:"project_description"`
	Skills          []string  `json:"project_skills"`
	EmploymentType  string    `json:"employment_type,omitempty"`
	JobLocation     string    `json:"job_location,omitempty"`
	SalaryMin       *float64  `json:"salary_min,omitempty"`
	SalaryMax       *float64  `json:"salary_max,omitempty"`
	SalaryFrequency string    `json:"salary_frequency,omitempty"`
	Deadline        string    `json:"application_deadline,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	InterviewerID   string    `json:"interviewer_id"`
}

type rankedProjectJSON struct {
	ProjectID        string             `json:"project_id"`
	OverallScore     float64            `json:"overall_score"`
	DescriptionScore float64            `json:"description_score"`
	SkillsScore      float64            `json:"skills_score"`
	Details          projectDetailsJSON `json:"project_details"`
}

type relevantProjectsResponse struct {
	Projects     []rankedProjectJSON `json:"projects"`
	TotalMatched int                 `json:"total_matched"`
	TotalValid   int                 `json:"total_valid"`
}

func rankedProjectsToJSON(ps []ranking.Project) []rankedProjectJSON {
	out := make([]rankedProjectJSON, len(ps))
	for i, p := range ps {
		d := p.Details
		out[i] = rankedProjectJSON{
			ProjectID:        p.ProjectID,
			OverallScore:     p.OverallScore,
			DescriptionScore: p.DescriptionScore,
			SkillsScore:      p.SkillsScore,
			Details: projectDetailsJSON{
				JobTitle:        d.JobTitle,
				Description:     d.Description,
				Skills:          nonNil(d.Skills),
				EmploymentType:  d.EmploymentType,
				JobLocation:     d.JobLocation,
				SalaryMin:       d.SalaryMin,
				SalaryMax:       d.SalaryMax,
				SalaryFrequency: d.SalaryFrequency,
				Deadline:        d.Deadline,
				CreatedAt:       d.CreatedAt,
				InterviewerID:   d.InterviewerID,
			},
		}
	}
	return out
}

// --- helpers ---

func vectorIDsToJSON(ids domain.VectorIDs) map[string]string {
	if ids == nil {
		return map[string]string{}
	}
	return ids.ToStrings()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
