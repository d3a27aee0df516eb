package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/moralgraph-backend/internal/http/response"
	"github.com/yungbote/moralgraph-backend/internal/services"
)

type VoteHandler struct {
	votes services.VoteService
}

func NewVoteHandler(votes services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// POST /api/deliberations/:id/votes
func (h *VoteHandler) Cast(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.VoteInput
	if !bindJSON(c, &req) {
		return
	}
	edge, err := h.votes.Cast(c.Request.Context(), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"edge": edge})
}
