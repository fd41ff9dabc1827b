package handlers

import (
	"net/http"

	"tidymatch/services/matching"
	"tidymatch/utils"

	"github.com/gin-gonic/gin"
)

// CriteriaHandler exposes the ranking criterion registry. Weight and
// activation changes apply to future requests only; in-flight rankings keep
// the snapshot they started with.
type CriteriaHandler struct {
	Registry matching.CriterionRegistry
}

// NewCriteriaHandler creates a CriteriaHandler.
func NewCriteriaHandler(reg matching.CriterionRegistry) *CriteriaHandler {
	return &CriteriaHandler{Registry: reg}
}

// ListCriteriaHandler returns every criterion, active or not.
func (h *CriteriaHandler) ListCriteriaHandler(c *gin.Context) {
	criteria, err := h.Registry.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"criteria": criteria})
}

// SetCriterionWeightHandler updates one criterion's weight.
func (h *CriteriaHandler) SetCriterionWeightHandler(c *gin.Context) {
	var input struct {
		Weight int `json:"weight"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	if err := h.Registry.SetWeight(c.Request.Context(), c.Param("id"), input.Weight); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "criterion updated"})
}

// SetCriterionActiveHandler toggles a criterion in or out of ranking.
func (h *CriteriaHandler) SetCriterionActiveHandler(c *gin.Context) {
	var input struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	if err := h.Registry.SetActive(c.Request.Context(), c.Param("id"), input.Active); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "criterion updated"})
}
