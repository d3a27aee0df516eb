package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/moralgraph-backend/internal/http/response"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/sampler"
	"github.com/yungbote/moralgraph-backend/internal/services"
)

const (
	defaultDrawSize = 5
	maxDrawSize     = 50
)

type GraphHandler struct {
	graph   services.GraphService
	weights sampler.Weights
}

// NewGraphHandler uses weights for draws that do not override them.
func NewGraphHandler(graph services.GraphService, weights sampler.Weights) *GraphHandler {
	return &GraphHandler{graph: graph, weights: weights}
}

// GET /api/deliberations/:id/graph?ranking=&min_wiser=&all_edges=&component=
func (h *GraphHandler) Summary(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	minWiser, err := queryInt(c, "min_wiser")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_min_wiser", err)
		return
	}
	out, err := h.graph.Summarize(c.Request.Context(), id, services.SummaryQuery{
		IncludeRanking:       queryBool(c, "ranking"),
		MarkedWiserThreshold: minWiser,
		IncludeAllEdges:      queryBool(c, "all_edges"),
		Component:            strings.TrimSpace(c.Query("component")),
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/deliberations/:id/hypotheses/draw?user_id=&size=&popularity=&convergence=&sparsity=
func (h *GraphHandler) Draw(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	size := defaultDrawSize
	if n, err := queryInt(c, "size"); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_size", err)
		return
	} else if n != nil {
		size = *n
	}
	if size < 1 || size > maxDrawSize {
		response.RespondError(c, http.StatusBadRequest, "invalid_size", fmt.Errorf("size must be between 1 and %d", maxDrawSize))
		return
	}

	w := h.weights
	var err error
	if w.Popularity, err = queryFloat(c, "popularity", w.Popularity); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_weights", err)
		return
	}
	if w.Convergence, err = queryFloat(c, "convergence", w.Convergence); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_weights", err)
		return
	}
	if w.Sparsity, err = queryFloat(c, "sparsity", w.Sparsity); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_weights", err)
		return
	}

	picked, err := h.graph.Draw(c.Request.Context(), id, strings.TrimSpace(c.Query("user_id")), size, w)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"hypotheses": picked})
}
