package api

import (
	"context"
	"net/http"

	"github.com/okian/icp/internal/domain/profile"
)

// SegmentsDependencies exposes the configured profile.
type SegmentsDependencies interface {
	Profile(ctx context.Context) profile.Snapshot
}

// SegmentsHandler handles profile requests.
type SegmentsHandler struct {
	deps SegmentsDependencies
}

// NewSegmentsHandler creates a new segments handler.
func NewSegmentsHandler(deps SegmentsDependencies) *SegmentsHandler {
	return &SegmentsHandler{deps: deps}
}

// HandleGetSegments handles GET /segments requests. Segments are listed in
// the order used to break ties.
func (h *SegmentsHandler) HandleGetSegments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Profile(r.Context()))
}
