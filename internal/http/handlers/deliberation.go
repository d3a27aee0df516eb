package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/moralgraph-backend/internal/http/response"
	"github.com/yungbote/moralgraph-backend/internal/services"
)

type DeliberationHandler struct {
	deliberations services.DeliberationService
}

func NewDeliberationHandler(deliberations services.DeliberationService) *DeliberationHandler {
	return &DeliberationHandler{deliberations: deliberations}
}

type createDeliberationRequest struct {
	Title string `json:"title"`
}

// POST /api/deliberations
func (h *DeliberationHandler) Create(c *gin.Context) {
	var req createDeliberationRequest
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.deliberations.Create(c.Request.Context(), req.Title)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"deliberation": row})
}

// GET /api/deliberations
func (h *DeliberationHandler) List(c *gin.Context) {
	rows, err := h.deliberations.List(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deliberations": rows})
}

// GET /api/deliberations/:id
func (h *DeliberationHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	row, err := h.deliberations.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deliberation": row})
}

type addQuestionsRequest struct {
	Questions []services.QuestionInput `json:"questions"`
}

// POST /api/deliberations/:id/questions
func (h *DeliberationHandler) AddQuestions(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req addQuestionsRequest
	if !bindJSON(c, &req) {
		return
	}
	rows, err := h.deliberations.AddQuestions(c.Request.Context(), id, req.Questions)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"questions": rows})
}

// POST /api/deliberations/:id/contexts
func (h *DeliberationHandler) AddContext(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.ContextInput
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.deliberations.AddContext(c.Request.Context(), id, req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"context": row})
}

// GET /api/deliberations/:id/contexts
func (h *DeliberationHandler) ListContexts(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.deliberations.ListContexts(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"contexts": rows})
}
