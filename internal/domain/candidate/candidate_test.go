package candidate

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func years(v float64) *float64 { return &v }

func sampleProfile() Profile {
	return Profile{
		Name:                "Asha Rao",
		ProfessionalSummary: "Backend engineer focused on realtime systems",
		Skills:              []string{"Go", "Redis", "go"},
		Education: []Education{
			{Qualification: "Higher Secondary", Category: "Science"},
			{Qualification: "B.Tech", Category: "Computer Science"},
		},
		Experience: []Experience{
			{Company: "Acme", Designation: "Tech Lead", Description: "Led chat platform", Skills: []string{"WebSocket", "Redis"}},
		},
		Projects: []PortfolioProject{
			{Title: "Chat app", Description: "Realtime chat", Skills: []string{"React"}},
		},
		TotalExperienceYears: years(7),
	}
}

func TestNew_Valid(t *testing.T) {
	c, err := New("c1", "user-1", sampleProfile(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID() != "c1" || c.Owner() != "user-1" {
		t.Errorf("unexpected identity: %s/%s", c.ID(), c.Owner())
	}
	texts := c.Texts()
	if len(texts) != 3 {
		t.Fatalf("expected 3 subspace texts, got %d", len(texts))
	}
	if got := texts[domain.SubspaceSkillsMatrix]; got != "Go, Redis, WebSocket, React" {
		t.Errorf("unexpected skills text %q", got)
	}
	if !strings.Contains(texts[domain.SubspaceProfessionalSummary], "Tech Lead | Acme | Led chat platform") {
		t.Errorf("summary text missing experience: %q", texts[domain.SubspaceProfessionalSummary])
	}
	if texts[domain.SubspaceProjectPortfolio] != "Chat app: Realtime chat" {
		t.Errorf("unexpected portfolio text %q", texts[domain.SubspaceProjectPortfolio])
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		owner string
		p     Profile
	}{
		{"missing id", "", "u", sampleProfile()},
		{"missing owner", "c1", "", sampleProfile()},
		{"missing name", "c1", "u", Profile{Skills: []string{"Go"}}},
		{"no embeddable text", "c1", "u", Profile{Name: "A", Phone: "123"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.id, tc.owner, tc.p, now)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestNew_PartialProfileOmitsEmptySubspaces(t *testing.T) {
	c, err := New("c1", "u", Profile{Name: "A", Skills: []string{"Go"}}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	texts := c.Texts()
	if len(texts) != 1 {
		t.Fatalf("expected only skills subspace, got %v", texts)
	}
	if _, ok := texts[domain.SubspaceSkillsMatrix]; !ok {
		t.Error("expected skills_matrix text")
	}
}

func TestDeriveAttributes(t *testing.T) {
	attrs := DeriveAttributes(sampleProfile())
	if attrs.HighestEducation != EducationUndergraduate {
		t.Errorf("expected %q, got %q", EducationUndergraduate, attrs.HighestEducation)
	}
	if attrs.SeniorityLevel != SenioritySenior {
		t.Errorf("expected %q, got %q", SenioritySenior, attrs.SeniorityLevel)
	}
	if !attrs.HasLeadership {
		t.Error("expected leadership from Tech Lead designation")
	}
}

func TestDeriveAttributes_Empty(t *testing.T) {
	attrs := DeriveAttributes(Profile{Experience: []Experience{{Designation: "Leading engineer"}}})
	if attrs.HighestEducation != "" || attrs.SeniorityLevel != "" {
		t.Errorf("expected unset attributes, got %+v", attrs)
	}
	if attrs.HasLeadership {
		t.Error("leadership must match whole words only")
	}
}

func TestSeniorityFromYears(t *testing.T) {
	tests := []struct {
		years float64
		want  string
	}{
		{0, SeniorityIntern},
		{1, SeniorityJunior},
		{3, SeniorityMid},
		{6, SenioritySenior},
		{10, SeniorityLead},
	}
	for _, tc := range tests {
		if got := SeniorityFromYears(tc.years); got != tc.want {
			t.Errorf("SeniorityFromYears(%v) = %q, want %q", tc.years, got, tc.want)
		}
	}
}

func TestEducationLevel_Keywords(t *testing.T) {
	tests := []struct {
		qual string
		want string
	}{
		{"Master of Science", EducationPostGraduate},
		{"Post Graduate Diploma", EducationPostGraduate},
		{"B.E.", EducationUndergraduate},
		{"Diploma in Mechanical", EducationDiploma},
		{"HSC", EducationHigherSecondary},
		{"Secondary School Certificate", EducationSecondary},
		{"Bootcamp", ""},
	}
	for _, tc := range tests {
		if got := educationLevelOf(Education{Qualification: tc.qual}); got != tc.want {
			t.Errorf("educationLevelOf(%q) = %q, want %q", tc.qual, got, tc.want)
		}
	}
}

func TestApply_ChangedSubspaces(t *testing.T) {
	c, _ := New("c1", "u", sampleProfile(), now)
	c = c.WithVectorIDs(domain.VectorIDs{
		domain.SubspaceProfessionalSummary: "prof_sum_c1",
		domain.SubspaceSkillsMatrix:        "skills_c1",
		domain.SubspaceProjectPortfolio:    "proj_port_c1",
	})

	skills := []string{"Go", "Kafka"}
	empty := []PortfolioProject{}
	later := now.Add(time.Hour)
	next, changed, err := c.Apply(Patch{Skills: &skills, Projects: &empty}, later)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changed) != 2 {
		t.Fatalf("expected 2 changed subspaces, got %v", changed)
	}
	if changed[domain.SubspaceProjectPortfolio] != "" {
		t.Error("cleared portfolio must map to empty text")
	}
	if _, ok := changed[domain.SubspaceProfessionalSummary]; ok {
		t.Error("summary did not change")
	}
	if !next.CreatedAt().Equal(now) || !next.UpdatedAt().Equal(later) {
		t.Errorf("unexpected timestamps %v / %v", next.CreatedAt(), next.UpdatedAt())
	}
	if len(next.VectorIDs()) != 3 {
		t.Error("vector ids must carry over until rewritten")
	}
}

func TestApply_EmptyPatch(t *testing.T) {
	c, _ := New("c1", "u", sampleProfile(), now)
	if _, _, err := c.Apply(Patch{}, now); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	c, _ := New("c1", "u", sampleProfile(), now)
	s := c.Summary()
	if s.HighestQualification.Qualification != "B.Tech" {
		t.Errorf("unexpected qualification %+v", s.HighestQualification)
	}
	if len(s.Projects) != 1 || len(s.Experience) != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.Experience[0].Designation != "Tech Lead" {
		t.Errorf("unexpected designation %q", s.Experience[0].Designation)
	}

	bare, _ := New("c2", "u", Profile{Name: "B", Skills: []string{"Go"}}, now)
	if got := bare.Summary().HighestQualification.Category; got != notAvailable {
		t.Errorf("expected %q, got %q", notAvailable, got)
	}
}
