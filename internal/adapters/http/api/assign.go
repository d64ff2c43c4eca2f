package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/icp/internal/app"
	"github.com/okian/icp/internal/domain/model"
	"github.com/okian/icp/internal/domain/scoring"
)

// AssignDependencies classifies leads.
type AssignDependencies interface {
	Assign(ctx context.Context, lead model.Lead) (scoring.Result, error)
}

// AssignHandler handles lead assignment requests.
type AssignHandler struct {
	deps         AssignDependencies
	maxBodyBytes int64
}

// NewAssignHandler creates a new assign handler.
func NewAssignHandler(deps AssignDependencies, maxBodyBytes int64) *AssignHandler {
	return &AssignHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandleAssign handles POST /assign with a JSON body and GET /assign with
// query parameters. Missing metrics default to zero.
func (h *AssignHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	const op = "api.assign"

	var (
		req assignRequest
		err error
	)
	switch r.Method {
	case http.MethodPost:
		req, err = h.decodeBody(w, r)
	case http.MethodGet:
		req, err = decodeQuery(r)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		code := "bad_request"
		if errors.Is(err, ErrInvalidInput) {
			code = "invalid_input"
		}
		writeError(w, http.StatusBadRequest, code, Wrap(op, err))
		return
	}

	res, err := h.deps.Assign(r.Context(), req.lead())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, newAssignResponse(res))
	case errors.Is(err, scoring.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", WrapKind(op, ErrInvalidInput, err))
	case errors.Is(err, scoring.ErrNonFiniteScore):
		writeError(w, http.StatusUnprocessableEntity, "non_finite_score", WrapKind(op, ErrNonFiniteScore, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

func (h *AssignHandler) decodeBody(w http.ResponseWriter, r *http.Request) (assignRequest, error) {
	var req assignRequest
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return req, fmt.Errorf("%w: %s must be a number", ErrInvalidInput, typeErr.Field)
		}
		return req, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return req, nil
}

func decodeQuery(r *http.Request) (assignRequest, error) {
	var req assignRequest
	q := r.URL.Query()
	fields := []struct {
		name string
		dst  *float64
	}{
		{model.EngagementDepth, &req.EngagementDepth},
		{model.ExplorationBreadth, &req.ExplorationBreadth},
		{model.DecisionMomentum, &req.DecisionMomentum},
		{model.RevisitIntensity, &req.RevisitIntensity},
	}
	for _, f := range fields {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, fmt.Errorf("%w: %s must be a number", ErrInvalidInput, f.name)
		}
		*f.dst = v
	}
	return req, nil
}

// assignRequest mirrors the OpenAPI schema for /assign.
type assignRequest struct {
	EngagementDepth    float64 `json:"engagement_depth"`
	ExplorationBreadth float64 `json:"exploration_breadth"`
	DecisionMomentum   float64 `json:"decision_momentum"`
	RevisitIntensity   float64 `json:"revisit_intensity"`
}

func (a assignRequest) lead() model.Lead {
	return model.Lead{
		EngagementDepth:    a.EngagementDepth,
		ExplorationBreadth: a.ExplorationBreadth,
		DecisionMomentum:   a.DecisionMomentum,
		RevisitIntensity:   a.RevisitIntensity,
	}
}

// assignResponse carries the display label and the full score report.
type assignResponse struct {
	Segment    string                 `json:"segment"`
	Scores     map[string]float64     `json:"scores"`
	Breakdown  []scoring.SegmentScore `json:"breakdown"`
	Normalized map[string]float64     `json:"normalized"`
}

func newAssignResponse(res scoring.Result) assignResponse {
	return assignResponse{
		Segment:    res.Segment,
		Scores:     res.ScoreMap(),
		Breakdown:  res.Scores,
		Normalized: res.Normalized,
	}
}
