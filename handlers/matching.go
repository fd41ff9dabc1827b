package handlers

import (
	"net/http"

	auditRepo "tidymatch/database/repository/audit"
	"tidymatch/models"
	"tidymatch/services/matching"
	"tidymatch/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MatchingHandler exposes the matching lifecycle endpoints: request
// creation, candidate responses, and the consumer's decision.
type MatchingHandler struct {
	Service matching.Service
	Audit   auditRepo.Repository
	Logger  *zap.Logger
}

// NewMatchingHandler creates a MatchingHandler.
func NewMatchingHandler(svc matching.Service, audit auditRepo.Repository, logger *zap.Logger) *MatchingHandler {
	return &MatchingHandler{Service: svc, Audit: audit, Logger: logger}
}

// CreateRequestHandler opens an AUTO matching request for a reservation.
func (h *MatchingHandler) CreateRequestHandler(c *gin.Context) {
	var input struct {
		ReservationID string `json:"reservationId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	req, err := h.Service.CreateRequest(c.Request.Context(), input.ReservationID, models.ModeAuto, matching.CreateOptions{})
	if err != nil {
		h.Logger.Warn("failed to create matching request",
			zap.String("reservationId", input.ReservationID), zap.Error(err))
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// CreateManualRequestHandler opens a MANUAL matching request with an
// operator-designated manager as the only candidate.
func (h *MatchingHandler) CreateManualRequestHandler(c *gin.Context) {
	var input struct {
		ReservationID string `json:"reservationId"`
		ManagerID     string `json:"managerId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	req, err := h.Service.CreateRequest(c.Request.Context(), input.ReservationID, models.ModeManual, matching.CreateOptions{ManagerID: input.ManagerID})
	if err != nil {
		h.Logger.Warn("failed to create manual matching request",
			zap.String("reservationId", input.ReservationID),
			zap.String("managerId", input.ManagerID), zap.Error(err))
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// GetRequestHandler returns one matching request with its candidate list.
func (h *MatchingHandler) GetRequestHandler(c *gin.Context) {
	req, err := h.Service.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// ListRequestsHandler returns every matching request (all attempts) for the
// reservation given in the query string.
func (h *MatchingHandler) ListRequestsHandler(c *gin.Context) {
	reservationID := c.Query("reservationId")
	if reservationID == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "reservationId query parameter is required")
		return
	}

	reqs, err := h.Service.ListRequests(c.Request.Context(), reservationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": reqs})
}

// RecordResponseHandler records a candidate's accept or decline. The answer
// is write-once; a second answer for the same candidate gets 409.
func (h *MatchingHandler) RecordResponseHandler(c *gin.Context) {
	var input struct {
		ManagerID string `json:"managerId"`
		Accept    bool   `json:"accept"`
		Reason    string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	entry, err := h.Service.RecordCandidateResponse(c.Request.Context(), c.Param("id"), input.ManagerID, input.Accept, input.Reason)
	if err != nil {
		h.Logger.Warn("failed to record candidate response",
			zap.String("requestId", c.Param("id")),
			zap.String("managerId", input.ManagerID), zap.Error(err))
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// ListRequestEventsHandler returns the recorded lifecycle events for one
// matching request, oldest first.
func (h *MatchingHandler) ListRequestEventsHandler(c *gin.Context) {
	// Resolve through the service first so an unknown id gets a clean 404.
	if _, err := h.Service.GetRequest(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	events, err := h.Audit.ListByRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Logger.Error("failed to list request events",
			zap.String("requestId", c.Param("id")), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to list events", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// ResolveDecisionHandler records the consumer's confirm or reject of an
// accepted candidate. Confirming closes the request and the reservation.
func (h *MatchingHandler) ResolveDecisionHandler(c *gin.Context) {
	var input struct {
		ManagerID string `json:"managerId"`
		Confirm   bool   `json:"confirm"`
		Reason    string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	req, err := h.Service.ResolveConsumerDecision(c.Request.Context(), c.Param("id"), input.ManagerID, input.Confirm, input.Reason)
	if err != nil {
		h.Logger.Warn("failed to resolve consumer decision",
			zap.String("requestId", c.Param("id")),
			zap.String("managerId", input.ManagerID), zap.Error(err))
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
