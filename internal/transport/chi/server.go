package chi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/usecase/health"
	"github.com/kailas-cloud/talentmatch/internal/usecase/retrieval"
)

// Server exposes the matching API over HTTP.
type Server struct {
	candidates CandidateService
	projects   ProjectService
	retriever  Retriever
	health     HealthChecker
	logger     *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	candidates CandidateService,
	projects ProjectService,
	retriever Retriever,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	return &Server{
		candidates: candidates,
		projects:   projects,
		retriever:  retriever,
		health:     health,
		logger:     logger,
	}
}

// --- candidates ---

// RegisterCandidate handles POST /api/candidates.
func (s *Server) RegisterCandidate(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req candidateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	reg, err := s.candidates.Register(ctx, owner, req.profile())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if reg.Created {
		status = http.StatusCreated
		w.Header().Set("Location", "/api/candidates/"+reg.ID)
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, status, registrationResponse{
		CandidateID: reg.ID,
		VectorIDs:   vectorIDsToJSON(reg.VectorIDs),
		Created:     reg.Created,
	})
}

// GetCandidate handles GET /api/candidates/{id}.
func (s *Server) GetCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := s.candidates.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, candidateToJSON(&c))
}

// UpdateCandidate handles PUT /api/candidates/{id}.
func (s *Server) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req candidateUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ids, err := s.candidates.Update(ctx, id, owner, req.patch())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, vectorsResponse{CandidateID: id, VectorIDs: vectorIDsToJSON(ids)})
}

// DeleteCandidate handles DELETE /api/candidates/{id}.
func (s *Server) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ids, err := s.candidates.Delete(r.Context(), id, owner)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{ID: id, Deleted: true, VectorsDeleted: vectorIDsToJSON(ids)})
}

// GetCandidateVectors handles GET /api/candidates/{id}/vectors.
func (s *Server) GetCandidateVectors(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ids, err := s.candidates.Vectors(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vectorsResponse{CandidateID: id, VectorIDs: vectorIDsToJSON(ids)})
}

// GetCandidateSummary handles GET /api/candidates/{id}/summary.
func (s *Server) GetCandidateSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sum, err := s.candidates.Summary(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryToJSON(&sum))
}

// RelevantProjects handles GET /api/candidate/relevant-projects.
func (s *Server) RelevantProjects(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var topK int
	if err := runtime.BindQueryParameter("form", true, false, "top_k", r.URL.Query(), &topK); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid top_k: "+err.Error())
		return
	}

	rk, err := s.retriever.RelevantProjectsForOwner(r.Context(), owner, topK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, relevantProjectsResponse{
		Projects:     rankedProjectsToJSON(rk.Projects),
		TotalMatched: rk.TotalMatched,
		TotalValid:   rk.TotalValid,
	})
}

// --- projects ---

// CreateProject handles POST /api/projects.
func (s *Server) CreateProject(w http.ResponseWriter, r *http.Request) {
	interviewer, ok := requireOwner(w, r)
	if !ok {
		return
	}
	var req projectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	p, err := s.projects.Register(ctx, interviewer, req.posting())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	w.Header().Set("Location", "/api/projects/"+p.ID())
	writeJSON(w, http.StatusCreated, projectToJSON(&p))
}

// GetProject handles GET /api/projects/{id}.
func (s *Server) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := s.projects.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectToJSON(&p))
}

// UpdateProject handles PUT /api/projects/{id}.
func (s *Server) UpdateProject(w http.ResponseWriter, r *http.Request) {
	interviewer, ok := requireOwner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req projectUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	p, err := s.projects.Update(ctx, id, interviewer, req.patch())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, projectToJSON(&p))
}

// DeleteProject handles DELETE /api/projects/{id}.
func (s *Server) DeleteProject(w http.ResponseWriter, r *http.Request) {
	interviewer, ok := requireOwner(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ids, err := s.projects.Delete(r.Context(), id, interviewer)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{ID: id, Deleted: true, VectorsDeleted: vectorIDsToJSON(ids)})
}

// ListMyProjects handles GET /api/projects/mine.
func (s *Server) ListMyProjects(w http.ResponseWriter, r *http.Request) {
	interviewer, ok := requireOwner(w, r)
	if !ok {
		return
	}
	ps, err := s.projects.ListByInterviewer(r.Context(), interviewer)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	resp := projectListResponse{Projects: make([]projectResponse, len(ps)), Total: len(ps)}
	for i := range ps {
		resp.Projects[i] = projectToJSON(&ps[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- ranking ---

// RankCandidatesForProject handles POST /api/projects/{id}/ranked-candidates.
func (s *Server) RankCandidatesForProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req rankForProjectRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	rk, err := s.retriever.RankCandidatesForProject(ctx, id, req.Filters.toDomain(), req.TopK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, rankedCandidatesToJSON(&rk))
}

// RankCandidates handles POST /api/ranked-candidates.
func (s *Server) RankCandidates(w http.ResponseWriter, r *http.Request) {
	var req rankCandidatesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	rk, err := s.retriever.RankCandidates(ctx, retrieval.CandidateQuery{
		Description: req.Description,
		Skills:      req.Skills,
		Filters:     req.Filters.toDomain(),
		TopK:        req.TopK,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, rankedCandidatesToJSON(&rk))
}

// --- operational ---

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != health.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// requireOwner writes 401 when the request carries no resolved identity.
func requireOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := OwnerFromContext(r.Context())
	if owner == "" {
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, domain.ErrUnauthenticated.Error())
		return "", false
	}
	return owner, true
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil || id == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid id parameter")
		return "", false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return false
	}
	return true
}
