package domain

import (
	"sort"
	"strings"
)

// KeyPrefix namespaces every key the service writes to a shared store.
const KeyPrefix = "talentmatch:"

// Kind identifies an entity population.
type Kind string

const (
	// KindCandidate is a job seeker profile keyed by its owner identity.
	KindCandidate Kind = "candidate"
	// KindProject is a job posting owned by an interviewer.
	KindProject Kind = "project"
)

// Subspace names one embedding partition of the vector index.
type Subspace string

const (
	// SubspaceProfessionalSummary holds a candidate's summary and role history.
	SubspaceProfessionalSummary Subspace = "professional_summary"
	// SubspaceSkillsMatrix holds a candidate's deduplicated skills.
	SubspaceSkillsMatrix Subspace = "skills_matrix"
	// SubspaceProjectPortfolio holds a candidate's portfolio projects.
	SubspaceProjectPortfolio Subspace = "project_portfolio"
	// SubspaceProjectDescription holds a project's heading and description.
	SubspaceProjectDescription Subspace = "project_description"
	// SubspaceProjectSkills holds a project's required skills.
	SubspaceProjectSkills Subspace = "project_skills"
)

var vectorIDPrefixes = map[Subspace]string{
	SubspaceProfessionalSummary: "prof_sum_",
	SubspaceSkillsMatrix:        "skills_",
	SubspaceProjectPortfolio:    "proj_port_",
	SubspaceProjectDescription:  "proj_desc_",
	SubspaceProjectSkills:       "proj_skills_",
}

// Subspaces returns the subspaces an entity kind is embedded into, in stable order.
func (k Kind) Subspaces() []Subspace {
	switch k {
	case KindCandidate:
		return []Subspace{SubspaceProfessionalSummary, SubspaceSkillsMatrix, SubspaceProjectPortfolio}
	case KindProject:
		return []Subspace{SubspaceProjectDescription, SubspaceProjectSkills}
	default:
		return nil
	}
}

// Valid reports whether k is a known entity kind.
func (k Kind) Valid() bool {
	return k == KindCandidate || k == KindProject
}

// Kind returns the entity kind whose vectors live in the subspace.
func (s Subspace) Kind() Kind {
	switch s {
	case SubspaceProfessionalSummary, SubspaceSkillsMatrix, SubspaceProjectPortfolio:
		return KindCandidate
	case SubspaceProjectDescription, SubspaceProjectSkills:
		return KindProject
	default:
		return ""
	}
}

// VectorID returns the deterministic vector identifier for an entity's subspace.
// Updates reuse it so the index upserts in place.
func (s Subspace) VectorID(entityID string) string {
	return vectorIDPrefixes[s] + entityID
}

// EntityID recovers the entity identifier from a vector id of this subspace.
func (s Subspace) EntityID(vectorID string) (string, bool) {
	p, ok := vectorIDPrefixes[s]
	if !ok || !strings.HasPrefix(vectorID, p) || len(vectorID) == len(p) {
		return "", false
	}
	return vectorID[len(p):], true
}

// VectorRef identifies one stored vector and the entity it was written for.
type VectorRef struct {
	VectorID string
	EntityID string
}

// AllSubspaces lists every namespace the service maintains.
func AllSubspaces() []Subspace {
	return append(KindCandidate.Subspaces(), KindProject.Subspaces()...)
}

// VectorIDs maps a subspace to the live vector identifier stored for it.
// A missing subspace means the entity was not vectorized on it.
type VectorIDs map[Subspace]string

// Clone returns an independent copy.
func (v VectorIDs) Clone() VectorIDs {
	if v == nil {
		return nil
	}
	out := make(VectorIDs, len(v))
	for k, id := range v {
		out[k] = id
	}
	return out
}

// Subspaces returns the populated subspaces sorted by name.
func (v VectorIDs) Subspaces() []Subspace {
	out := make([]Subspace, 0, len(v))
	for s := range v {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ToStrings converts to the storage representation.
func (v VectorIDs) ToStrings() map[string]string {
	out := make(map[string]string, len(v))
	for s, id := range v {
		out[string(s)] = id
	}
	return out
}

// VectorIDsFromStrings converts from the storage representation.
func VectorIDsFromStrings(m map[string]string) VectorIDs {
	out := make(VectorIDs, len(m))
	for s, id := range m {
		out[Subspace(s)] = id
	}
	return out
}

// ChangedTexts returns the subspaces whose source text differs between before and after.
// A subspace that lost its text maps to "".
func ChangedTexts(before, after map[Subspace]string) map[Subspace]string {
	changed := make(map[Subspace]string)
	for s, t := range after {
		if before[s] != t {
			changed[s] = t
		}
	}
	for s := range before {
		if _, ok := after[s]; !ok {
			changed[s] = ""
		}
	}
	return changed
}
