package candidate

import (
	"strings"
	"unicode"
)

// Education levels, highest first.
const (
	EducationPostGraduate    = "Post Graduate"
	EducationUndergraduate   = "Undergraduate"
	EducationDiploma         = "Diploma"
	EducationHigherSecondary = "Higher Secondary"
	EducationSecondary       = "Secondary"
)

// Seniority levels derived from total experience.
const (
	SeniorityIntern = "Intern"
	SeniorityJunior = "Junior"
	SeniorityMid    = "Mid"
	SenioritySenior = "Senior"
	SeniorityLead   = "Lead"
)

// Attributes are the structured, filter-only properties of a candidate.
type Attributes struct {
	HighestEducation string
	SeniorityLevel   string
	HasLeadership    bool
}

type educationLevel struct {
	label    string
	rank     int
	keywords []string
}

// Checked highest rank first so that "higher secondary" wins over "secondary".
var educationLevels = []educationLevel{
	{EducationPostGraduate, 4, []string{
		"post graduate", "postgraduate", "masters", "master", "mtech", "msc", "mba", "mca", "phd", "doctorate",
	}},
	{EducationUndergraduate, 3, []string{
		"undergraduate", "under graduate", "bachelor", "bachelors", "be", "btech", "bsc", "bca", "bcom", "ba",
	}},
	{EducationDiploma, 2, []string{"diploma", "vocational"}},
	{EducationHigherSecondary, 1, []string{"higher secondary", "hsc", "12th", "intermediate"}},
	{EducationSecondary, 0, []string{"secondary", "ssc", "10th", "matriculation"}},
}

var leadershipKeywords = []string{
	"lead", "manager", "head", "director", "principal", "architect", "chief", "vp", "cto", "founder",
}

// DeriveAttributes computes the filterable attributes of a profile.
func DeriveAttributes(p Profile) Attributes {
	attrs := Attributes{}
	if idx := highestEducationIndex(p.Education); idx >= 0 {
		attrs.HighestEducation = educationLevelOf(p.Education[idx])
	}
	if p.TotalExperienceYears != nil {
		attrs.SeniorityLevel = SeniorityFromYears(*p.TotalExperienceYears)
	}
	for _, e := range p.Experience {
		if containsAnyWord(tokens(e.Designation), leadershipKeywords) {
			attrs.HasLeadership = true
			break
		}
	}
	return attrs
}

// SeniorityFromYears buckets total experience into a seniority level.
func SeniorityFromYears(years float64) string {
	switch {
	case years < 1:
		return SeniorityIntern
	case years < 3:
		return SeniorityJunior
	case years < 6:
		return SeniorityMid
	case years < 10:
		return SenioritySenior
	default:
		return SeniorityLead
	}
}

// EducationRank returns the rank of a level label, or -1 when unknown.
func EducationRank(label string) int {
	for _, l := range educationLevels {
		if strings.EqualFold(l.label, label) {
			return l.rank
		}
	}
	return -1
}

// highestEducationIndex returns the index of the best-ranked entry; the first
// entry when nothing matches; -1 for an empty history.
func highestEducationIndex(ee []Education) int {
	if len(ee) == 0 {
		return -1
	}
	best, bestRank := 0, -1
	for i, e := range ee {
		if r := EducationRank(educationLevelOf(e)); r > bestRank {
			best, bestRank = i, r
		}
	}
	return best
}

func educationLevelOf(e Education) string {
	words := tokens(e.Qualification + " " + e.Category)
	for _, l := range educationLevels {
		if containsAnyPhrase(words, l.keywords) {
			return l.label
		}
	}
	return ""
}

// tokens lowercases s, drops dots ("B.Tech" -> "btech") and splits on non alphanumerics.
func tokens(s string) []string {
	s = strings.ToLower(strings.ReplaceAll(s, ".", ""))
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsAnyWord(words, keywords []string) bool {
	for _, w := range words {
		for _, k := range keywords {
			if w == k {
				return true
			}
		}
	}
	return false
}

func containsAnyPhrase(words, phrases []string) bool {
	joined := " " + strings.Join(words, " ") + " "
	for _, p := range phrases {
		if strings.Contains(joined, " "+p+" ") {
			return true
		}
	}
	return false
}
