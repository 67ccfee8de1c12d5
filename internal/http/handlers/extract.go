package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/schemaflow-backend/internal/domain"
	"github.com/yungbote/schemaflow-backend/internal/http/response"
	"github.com/yungbote/schemaflow-backend/internal/platform/logger"
	"github.com/yungbote/schemaflow-backend/internal/services"
)

const maxUploadBytes = 32 << 20

// ExtractHandler serves the document-facing workflows: extraction against an
// approved schema and first-time schema registration.
type ExtractHandler struct {
	log      *logger.Logger
	workflow services.WorkflowService
}

func NewExtractHandler(log *logger.Logger, workflow services.WorkflowService) *ExtractHandler {
	return &ExtractHandler{
		log:      log.With("handler", "ExtractHandler"),
		workflow: workflow,
	}
}

// readDocuments pulls the uploaded files out of the "document" multipart
// field. Content type comes from the part header, falling back to sniffing.
func readDocuments(c *gin.Context) ([]domain.Document, error) {
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	form := c.Request.MultipartForm
	if form == nil || len(form.File["document"]) == 0 {
		return nil, fmt.Errorf("at least one file is required in the 'document' field")
	}

	docs := make([]domain.Document, 0, len(form.File["document"]))
	for _, fh := range form.File["document"] {
		doc, err := readDocument(fh)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func readDocument(fh *multipart.FileHeader) (domain.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.Document{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	if len(data) == 0 {
		return domain.Document{}, fmt.Errorf("file %s is empty", fh.Filename)
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data[:min(len(data), 512)])
	}
	if !domain.SupportedMimeType(mimeType) {
		return domain.Document{}, fmt.Errorf("unsupported content type %q for %s (jpeg, png and pdf are accepted)", mimeType, fh.Filename)
	}

	return domain.Document{
		Name:     fh.Filename,
		MimeType: mimeType,
		Data:     data,
	}, nil
}

// POST /api/extract
func (h *ExtractHandler) Extract(c *gin.Context) {
	docs, err := readDocuments(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_upload", err)
		return
	}

	res, err := h.workflow.ExtractOrGenerate(c.Request.Context(), docs)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}

	switch res.Status {
	case services.StatusExtracted:
		response.RespondOK(c, gin.H{
			"status":         res.Status,
			"data":           res.Data,
			"schema_used":    res.SchemaUsed.Info(),
			"classification": res.Classification,
		})
	case services.StatusPendingReview:
		response.RespondAccepted(c, gin.H{
			"status":         res.Status,
			"schema":         res.Schema.Info(),
			"classification": res.Classification,
		})
	default:
		response.RespondCreated(c, gin.H{
			"status":         res.Status,
			"schema":         res.Schema,
			"classification": res.Classification,
		})
	}
}

// POST /api/extract-with-approved-schema
func (h *ExtractHandler) ExtractWithApprovedSchema(c *gin.Context) {
	docs, err := readDocuments(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_upload", err)
		return
	}

	res, err := h.workflow.ExtractStrict(c.Request.Context(), docs)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"status":         res.Status,
		"data":           res.Data,
		"schema_used":    res.SchemaUsed.Info(),
		"classification": res.Classification,
	})
}

// POST /api/register-schema
func (h *ExtractHandler) RegisterSchema(c *gin.Context) {
	docs, err := readDocuments(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_upload", err)
		return
	}

	res, err := h.workflow.Register(c.Request.Context(), docs)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"status":         res.Status,
		"schema":         res.Schema,
		"classification": res.Classification,
		"confidence":     res.Confidence,
	})
}
