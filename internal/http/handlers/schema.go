package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/schemaflow-backend/internal/domain"
	"github.com/yungbote/schemaflow-backend/internal/http/response"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
	"github.com/yungbote/schemaflow-backend/internal/services"
)

// SchemaHandler serves the reviewer-facing lifecycle operations.
type SchemaHandler struct {
	log      *logger.Logger
	workflow services.WorkflowService
}

func NewSchemaHandler(log *logger.Logger, workflow services.WorkflowService) *SchemaHandler {
	return &SchemaHandler{
		log:      log.With("handler", "SchemaHandler"),
		workflow: workflow,
	}
}

// GET /api/schemas
func (h *SchemaHandler) ListSchemas(c *gin.Context) {
	schemas, err := h.workflow.ListSchemas(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	infos := make([]domain.SchemaInfo, 0, len(schemas))
	for _, s := range schemas {
		infos = append(infos, s.Info())
	}
	response.RespondOK(c, gin.H{"schemas": infos, "count": len(infos)})
}

// PUT /api/schemas/:id/approve
func (h *SchemaHandler) ApproveSchema(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_schema_id", err)
		return
	}

	res, err := h.workflow.Approve(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	payload := gin.H{"status": "approved", "schema": res.Schema}
	if res.Deprecated != nil {
		payload["deprecated_schema"] = res.Deprecated.Info()
	}
	response.RespondOK(c, payload)
}

type modifySchemaRequest struct {
	Fields      map[string]*domain.FieldDefinition `json:"fields" binding:"required"`
	Description string                             `json:"description"`
}

// PUT /api/schemas/:id/modify
func (h *SchemaHandler) ModifySchema(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_schema_id", err)
		return
	}

	var req modifySchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
		return
	}

	res, err := h.workflow.Modify(c.Request.Context(), id, req.Fields, req.Description)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	if res.Status == services.StatusNoChanges {
		response.RespondOK(c, gin.H{
			"status":  res.Status,
			"message": res.Summary,
			"schema":  res.Current.Info(),
		})
		return
	}
	response.RespondCreated(c, gin.H{
		"status":     res.Status,
		"schema":     res.Revision,
		"changes":    res.Changes,
		"summary":    res.Summary,
		"metadata":   res.Metadata,
		"deprecated": res.Current.Info(),
	})
}

// DELETE /api/schemas/:id
func (h *SchemaHandler) DeleteSchema(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_schema_id", err)
		return
	}

	deleted, err := h.workflow.Delete(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"status": "deleted", "schema": deleted.Info()})
}
