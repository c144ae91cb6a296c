package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "cadastre/internal/errors"
	"cadastre/internal/services"
)

// HistoryHandler serves the read side of the audit log.
type HistoryHandler struct {
	history services.HistoryService
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(history services.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// ListHistory handles GET /api/v1/properties/:id/history.
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	propertyID, ok := pathID(c)
	if !ok {
		return
	}

	entries, err := h.history.ListHistory(c.Request.Context(), propertyID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries, "count": len(entries)})
}

// GetHistoryDetail handles GET /api/v1/history/:id.
func (h *HistoryHandler) GetHistoryDetail(c *gin.Context) {
	historyID, ok := pathID(c)
	if !ok {
		return
	}

	detail, err := h.history.GetHistoryDetail(c.Request.Context(), historyID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
