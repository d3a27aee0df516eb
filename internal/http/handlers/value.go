package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/moralgraph-backend/internal/http/response"
	"github.com/yungbote/moralgraph-backend/internal/services"
)

type ValueHandler struct {
	values services.ValueService
}

func NewValueHandler(values services.ValueService) *ValueHandler {
	return &ValueHandler{values: values}
}

// GET /api/deliberations/:id/values
func (h *ValueHandler) List(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.values.List(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"values": rows})
}

// GET /api/deliberations/:id/values/:valueId
func (h *ValueHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	valueID, ok := uuidParam(c, "valueId")
	if !ok {
		return
	}
	row, err := h.values.Get(c.Request.Context(), id, valueID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"value": row})
}

type updatePoliciesRequest struct {
	Policies []string `json:"policies"`
}

// PUT /api/deliberations/:id/values/:valueId/policies
func (h *ValueHandler) UpdatePolicies(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	valueID, ok := uuidParam(c, "valueId")
	if !ok {
		return
	}
	var req updatePoliciesRequest
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.values.UpdatePolicies(c.Request.Context(), id, valueID, req.Policies)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"value": row})
}
