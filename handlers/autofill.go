package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"formfill/models"
	"formfill/services"
	"formfill/utils"
)

// AutofillHandler serves POST /autofill.
type AutofillHandler struct {
	service *services.AutofillService
}

func NewAutofillHandler(service *services.AutofillService) *AutofillHandler {
	return &AutofillHandler{service: service}
}

// Autofill fills the form at url with details and leaves the browser open for review.
func (h *AutofillHandler) Autofill(c *gin.Context) {
	var req models.AutofillRequest
	// Content-Type is not enforced; a body that does not decode counts as empty.
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogDebug("Autofill body did not decode", map[string]interface{}{"error": err.Error()})
	}
	if req.URL == "" || req.Details == "" {
		utils.BadRequestError(c, "url and details are mandatory")
		return
	}

	result, err := h.service.Fill(c.Request.Context(), req.URL, req.Details)
	if err != nil {
		var pe *services.PipelineError
		if errors.As(err, &pe) {
			utils.LogError("Autofill failed", err, map[string]interface{}{"url": req.URL, "session_id": pe.SessionID})
			utils.InternalServerError(c, pe.Message, pe.DetailKey, pe.Detail)
			return
		}
		utils.LogError("Autofill failed", err, map[string]interface{}{"url": req.URL})
		utils.InternalServerError(c, "Autofill failed", "details", err.Error())
		return
	}

	c.JSON(http.StatusOK, models.AutofillResponse{
		Status:       services.FilledStatus,
		Message:      services.FilledReviewMessage,
		URL:          result.URL,
		Title:        result.Title,
		MappedFields: result.Mapped,
		Errors:       result.Errors,
		Notes:        result.Notes,
		LLMRaw:       result.LLMRaw,
		SessionID:    result.SessionID,
		Screenshot:   result.Screenshot,
	})
}
