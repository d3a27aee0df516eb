package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/moralgraph-backend/internal/http/response"
	"github.com/yungbote/moralgraph-backend/internal/services"
)

type SubmissionHandler struct {
	submissions services.SubmissionService
}

func NewSubmissionHandler(submissions services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

type submitRequest struct {
	Submissions []services.SubmissionInput `json:"submissions"`
}

// POST /api/deliberations/:id/submissions
// The dedupe job is debounced per deliberation, so "job" is null when one is
// already queued or running.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req submitRequest
	if !bindJSON(c, &req) {
		return
	}
	rows, job, err := h.submissions.Submit(c.Request.Context(), id, req.Submissions)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondAccepted(c, gin.H{"submissions": rows, "job": job})
}
