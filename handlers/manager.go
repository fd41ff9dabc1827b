package handlers

import (
	"errors"
	"net/http"
	"time"

	managerRepo "tidymatch/database/repository/manager"
	"tidymatch/models"
	"tidymatch/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ManagerHandler exposes the manager directory.
type ManagerHandler struct {
	Repo   managerRepo.Repository
	Logger *zap.Logger
}

// NewManagerHandler creates a ManagerHandler.
func NewManagerHandler(repo managerRepo.Repository, logger *zap.Logger) *ManagerHandler {
	return &ManagerHandler{Repo: repo, Logger: logger}
}

// RegisterManagerHandler creates a new manager record.
func (h *ManagerHandler) RegisterManagerHandler(c *gin.Context) {
	var m models.Manager
	if err := c.ShouldBindJSON(&m); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if m.Name == "" || len(m.ServiceTypes) == 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "name and serviceTypes are required")
		return
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now

	if err := h.Repo.Create(c.Request.Context(), &m); err != nil {
		h.Logger.Error("failed to register manager", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to register manager", err.Error())
		return
	}
	c.JSON(http.StatusCreated, m)
}

// GetManagerHandler returns one manager by id.
func (h *ManagerHandler) GetManagerHandler(c *gin.Context) {
	id := c.Param("id")
	m, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, managerRepo.ErrNotFound) {
			utils.JSONError(c, http.StatusNotFound, "not found", "manager "+id+" not found")
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "failed to get manager", err.Error())
		return
	}
	c.JSON(http.StatusOK, m)
}

// ListManagersHandler returns every manager.
func (h *ManagerHandler) ListManagersHandler(c *gin.Context) {
	managers, err := h.Repo.List(c.Request.Context())
	if err != nil {
		h.Logger.Error("failed to list managers", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to list managers", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"managers": managers})
}
