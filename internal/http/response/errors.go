package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/schemaflow-backend/internal/schemaerr"
)

// RespondServiceError translates workflow errors into HTTP statuses. Anything
// not recognized is a 500 so storage faults never masquerade as client errors.
func RespondServiceError(c *gin.Context, err error) {
	var (
		conflict       *schemaerr.Conflict
		notFound       *schemaerr.NotFound
		invalidState   *schemaerr.InvalidState
		validation     *schemaerr.Validation
		lowConfidence  *schemaerr.LowConfidence
		notApproved    *schemaerr.NotApproved
		noActiveSchema *schemaerr.NoActiveSchema
		classifyErr    *schemaerr.ClassificationFailed
		generateErr    *schemaerr.GenerationFailed
		extractErr     *schemaerr.ExtractionFailed
	)

	switch {
	case errors.As(err, &conflict):
		var detail any
		if conflict.Existing != nil {
			detail = gin.H{"existing_schema": conflict.Existing.Info()}
		}
		RespondErrorDetail(c, http.StatusConflict, "schema_conflict", err, detail)

	case errors.As(err, &lowConfidence):
		RespondErrorDetail(c, http.StatusUnprocessableEntity, "classification_uncertain", err, gin.H{
			"classification": lowConfidence.Classification,
			"min_confidence": lowConfidence.Min,
		})

	case errors.As(err, &notApproved):
		var detail any
		if notApproved.Schema != nil {
			detail = gin.H{"schema": notApproved.Schema.Info()}
		}
		RespondErrorDetail(c, http.StatusForbidden, "schema_not_approved", err, detail)

	case errors.As(err, &noActiveSchema):
		RespondErrorDetail(c, http.StatusNotFound, "no_active_schema", err, gin.H{
			"classification": noActiveSchema.Classification,
		})

	case errors.As(err, &notFound):
		RespondError(c, http.StatusNotFound, "schema_not_found", err)

	case errors.As(err, &invalidState):
		RespondError(c, http.StatusBadRequest, "invalid_schema_state", err)

	case errors.As(err, &validation):
		RespondError(c, http.StatusBadRequest, "validation_error", err)

	case errors.As(err, &classifyErr):
		RespondError(c, aiStatus(err), "classification_failed", err)

	case errors.As(err, &generateErr):
		RespondError(c, aiStatus(err), "schema_generation_failed", err)

	case errors.As(err, &extractErr):
		RespondError(c, aiStatus(err), "extraction_failed", err)

	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}

func aiStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusRequestTimeout
	}
	return http.StatusBadGateway
}
