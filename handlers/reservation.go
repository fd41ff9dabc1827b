package handlers

import (
	"net/http"

	"tidymatch/models"
	"tidymatch/services/matching"
	"tidymatch/services/reservation"
	"tidymatch/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReservationHandler exposes reservation lifecycle endpoints.
type ReservationHandler struct {
	Service  reservation.Service
	Matching matching.Service
	Logger   *zap.Logger
}

// NewReservationHandler creates a ReservationHandler.
func NewReservationHandler(svc reservation.Service, matchSvc matching.Service, logger *zap.Logger) *ReservationHandler {
	return &ReservationHandler{Service: svc, Matching: matchSvc, Logger: logger}
}

// CreateReservationHandler registers a new reservation in PENDING state.
func (h *ReservationHandler) CreateReservationHandler(c *gin.Context) {
	var input reservation.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	res, err := h.Service.Create(c.Request.Context(), input)
	if err != nil {
		h.Logger.Error("failed to create reservation", zap.Error(err))
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GetReservationHandler returns one reservation together with its active
// matching request, when one is open.
func (h *ReservationHandler) GetReservationHandler(c *gin.Context) {
	id := c.Param("id")
	res, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var active *models.MatchingRequest
	if requests, err := h.Matching.ListRequests(c.Request.Context(), id); err == nil {
		for i := range requests {
			if !requests[i].Status.Terminal() {
				active = &requests[i]
				break
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"reservation": res, "activeRequest": active})
}

// CancelReservationHandler moves a pending reservation to CANCELLED.
func (h *ReservationHandler) CancelReservationHandler(c *gin.Context) {
	id := c.Param("id")
	if err := h.Service.Cancel(c.Request.Context(), id); err != nil {
		h.Logger.Warn("failed to cancel reservation", zap.String("id", id), zap.Error(err))
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reservation cancelled"})
}

// ListEscalationsHandler returns reservations waiting for an operator to
// open a manual matching request.
func (h *ReservationHandler) ListEscalationsHandler(c *gin.Context) {
	out, err := h.Service.ListNeedingManual(c.Request.Context())
	if err != nil {
		h.Logger.Error("failed to list escalations", zap.Error(err))
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": out})
}
