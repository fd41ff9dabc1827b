// File: tidymatch/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all your endpoint handlers into one struct.
type HandlerBundle struct {
	// Reservation endpoints
	CreateReservationHandler gin.HandlerFunc
	GetReservationHandler    gin.HandlerFunc
	CancelReservationHandler gin.HandlerFunc

	// Matching endpoints
	CreateRequestHandler       gin.HandlerFunc
	CreateManualRequestHandler gin.HandlerFunc
	GetRequestHandler          gin.HandlerFunc
	ListRequestsHandler        gin.HandlerFunc
	RecordResponseHandler      gin.HandlerFunc
	ResolveDecisionHandler     gin.HandlerFunc
	ListRequestEventsHandler   gin.HandlerFunc
	ListEscalationsHandler     gin.HandlerFunc

	// Criteria endpoints
	ListCriteriaHandler       gin.HandlerFunc
	SetCriterionWeightHandler gin.HandlerFunc
	SetCriterionActiveHandler gin.HandlerFunc

	// Manager endpoints
	RegisterManagerHandler gin.HandlerFunc
	GetManagerHandler      gin.HandlerFunc
	ListManagersHandler    gin.HandlerFunc
}
