package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jobstatus "github.com/yungbote/moralgraph-backend/internal/domain/jobs"
	"github.com/yungbote/moralgraph-backend/internal/http/response"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/services"
)

type JobHandler struct {
	jobs          services.JobService
	deliberations services.DeliberationService
}

func NewJobHandler(jobs services.JobService, deliberations services.DeliberationService) *JobHandler {
	return &JobHandler{jobs: jobs, deliberations: deliberations}
}

// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	job, err := h.jobs.Get(dbctx.Context{Ctx: c.Request.Context()}, jobID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

type dedupeRequest struct {
	BatchLimit int `json:"batch_limit"`
}

// POST /api/deliberations/:id/jobs/dedupe
func (h *JobHandler) TriggerDedupe(c *gin.Context) {
	id, ok := h.deliberationParam(c)
	if !ok {
		return
	}
	var req dedupeRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	payload := map[string]any{"deliberation_id": id.String()}
	if req.BatchLimit > 0 {
		payload["batch_limit"] = req.BatchLimit
	}
	h.enqueue(c, jobstatus.TypeValuesDedupe, jobstatus.EntityDeliberation, id.String(), payload)
}

// POST /api/deliberations/:id/jobs/contexts-dedupe
func (h *JobHandler) TriggerContextsDedupe(c *gin.Context) {
	id, ok := h.deliberationParam(c)
	if !ok {
		return
	}
	h.enqueue(c, jobstatus.TypeContextsDedupe, jobstatus.EntityDeliberation, id.String(), map[string]any{
		"deliberation_id": id.String(),
	})
}

type hypothesesRequest struct {
	ContextID         string      `json:"context_id"`
	CandidateValueIDs []uuid.UUID `json:"candidate_value_ids"`
}

// POST /api/deliberations/:id/jobs/hypotheses
// Without context_id every context of the deliberation is regenerated.
func (h *JobHandler) TriggerHypotheses(c *gin.Context) {
	id, ok := h.deliberationParam(c)
	if !ok {
		return
	}
	var req hypothesesRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	contextID := strings.TrimSpace(req.ContextID)
	if contextID == "" {
		h.enqueue(c, jobstatus.TypeHypothesesGenerateAll, jobstatus.EntityDeliberation, id.String(), map[string]any{
			"deliberation_id": id.String(),
		})
		return
	}
	payload := map[string]any{
		"deliberation_id": id.String(),
		"context_id":      contextID,
	}
	if len(req.CandidateValueIDs) > 0 {
		ids := make([]string, 0, len(req.CandidateValueIDs))
		for _, v := range req.CandidateValueIDs {
			ids = append(ids, v.String())
		}
		payload["candidate_value_ids"] = ids
	}
	h.enqueue(c, jobstatus.TypeHypothesesGenerate, jobstatus.EntityContext, jobstatus.ContextEntityKey(id, contextID), payload)
}

func (h *JobHandler) deliberationParam(c *gin.Context) (uuid.UUID, bool) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return uuid.Nil, false
	}
	if _, err := h.deliberations.Get(c.Request.Context(), id); err != nil {
		response.RespondErr(c, err)
		return uuid.Nil, false
	}
	return id, true
}

// enqueue answers 202 with the new job, or 200 with enqueued=false when an
// equivalent job is already queued or running.
func (h *JobHandler) enqueue(c *gin.Context, jobType, entityType, entityKey string, payload map[string]any) {
	job, created, err := h.jobs.EnqueueIfIdle(dbctx.Context{Ctx: c.Request.Context()}, jobType, entityType, entityKey, payload)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if !created {
		response.RespondOK(c, gin.H{"job": nil, "enqueued": false})
		return
	}
	response.RespondAccepted(c, gin.H{"job": job, "enqueued": true})
}
