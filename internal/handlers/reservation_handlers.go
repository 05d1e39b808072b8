package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmapos_backend/internal/services"
)

// ReservationHandler exposes stock reservation endpoints.
type ReservationHandler struct {
	reservationService *services.ReservationService
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(reservationService *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

type createReservationRequest struct {
	BatchID  int64  `json:"batch_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
	Reason   string `json:"reason" binding:"required"`
}

// CreateReservation places a hold on a quantity of one batch.
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	reservation, err := h.reservationService.Reserve(req.BatchID, req.Quantity, req.Reason, userID)
	if err != nil {
		respondServiceError(c, err, "CreateReservation: failed to reserve stock")
		return
	}
	c.JSON(http.StatusCreated, reservation)
}

// ReleaseReservation cancels an active reservation, restoring stock.
func (h *ReservationHandler) ReleaseReservation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	reservationID, ok := idParam(c, "id")
	if !ok {
		return
	}

	reservation, err := h.reservationService.Release(reservationID, userID)
	if err != nil {
		respondServiceError(c, err, "ReleaseReservation: failed to release reservation")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

type confirmReservationRequest struct {
	ReferenceID *int64 `json:"reference_id,omitempty"`
}

// ConfirmReservation consumes an active reservation.
func (h *ReservationHandler) ConfirmReservation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	reservationID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req confirmReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondBindError(c, err)
		return
	}

	reservation, err := h.reservationService.Confirm(reservationID, userID, req.ReferenceID)
	if err != nil {
		respondServiceError(c, err, "ConfirmReservation: failed to confirm reservation")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// GetReservation returns one reservation.
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	reservationID, ok := idParam(c, "id")
	if !ok {
		return
	}

	reservation, err := h.reservationService.GetReservation(reservationID)
	if err != nil {
		respondServiceError(c, err, "GetReservation: failed to load reservation")
		return
	}
	c.JSON(http.StatusOK, reservation)
}

// GetActiveReservationsByBatch lists open holds on one batch.
func (h *ReservationHandler) GetActiveReservationsByBatch(c *gin.Context) {
	batchID, ok := idParam(c, "batchId")
	if !ok {
		return
	}

	reservations, err := h.reservationService.GetActiveReservationsByBatch(batchID)
	if err != nil {
		respondServiceError(c, err, "GetActiveReservationsByBatch: failed to list reservations")
		return
	}
	c.JSON(http.StatusOK, gin.H{"batch_id": batchID, "reservations": reservations})
}
