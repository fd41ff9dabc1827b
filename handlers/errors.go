package handlers

import (
	"net/http"

	"tidymatch/services/matching"
	"tidymatch/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError translates engine errors into HTTP responses.
// Dependency failures surface as 502 so callers know a retry may succeed.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case matching.IsValidation(err):
		utils.JSONError(c, http.StatusBadRequest, "invalid request", err.Error())
	case matching.IsNotFound(err):
		utils.JSONError(c, http.StatusNotFound, "not found", err.Error())
	case matching.IsConflict(err):
		utils.JSONError(c, http.StatusConflict, "conflict", err.Error())
	default:
		utils.JSONError(c, http.StatusBadGateway, "upstream failure", err.Error())
	}
}
