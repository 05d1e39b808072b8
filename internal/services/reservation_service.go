package services

import (
	"errors"
	"fmt"
	"time"

	"pharmapos_backend/internal/models"
	"pharmapos_backend/internal/repositories"
)

// ReservationService manages soft holds on batch stock. A reservation
// deducts from the batch immediately and stays deducted until it is released
// or confirmed; active is the only state that permits either transition.
type ReservationService struct {
	reservationRepo repositories.ReservationRepository
	ledger          *LedgerService
	transactor      Transactor
}

// NewReservationService creates a new instance of ReservationService.
func NewReservationService(
	reservationRepo repositories.ReservationRepository,
	ledger *LedgerService,
	transactor Transactor,
) *ReservationService {
	return &ReservationService{
		reservationRepo: reservationRepo,
		ledger:          ledger,
		transactor:      transactor,
	}
}

// Reserve places a hold on a quantity of one batch, deducting it from stock
// in the same transaction that creates the reservation record.
func (s *ReservationService) Reserve(batchID int64, quantity int, reason string, userID int64) (*models.Reservation, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: reservation quantity must be positive", ErrInvalidQuantity)
	}

	reservation := &models.Reservation{
		BatchID:  batchID,
		Quantity: quantity,
		Reason:   reason,
		Status:   models.ReservationStatusActive,
		UserID:   userID,
	}

	err := s.transactor.WithinTx(func(executor repositories.SQLExecutor) error {
		if _, err := s.reservationRepo.CreateReservation(executor, reservation); err != nil {
			return err
		}
		reservationID := reservation.ID
		_, err := s.ledger.Mutate(executor, batchID, -quantity,
			models.ChangeTypeReserve, userID, &reservationID, notesPtr(reason))
		return err
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// Release cancels an active reservation and restores the held quantity.
func (s *ReservationService) Release(reservationID, userID int64) (*models.Reservation, error) {
	return s.finish(reservationID, userID, models.ReservationStatusReleased, nil)
}

// Confirm consumes an active reservation. The stock already left the batch
// at reserve time, so the audit entry records a zero delta tying the
// consumption to its reference.
func (s *ReservationService) Confirm(reservationID, userID int64, referenceID *int64) (*models.Reservation, error) {
	return s.finish(reservationID, userID, models.ReservationStatusConfirmed, referenceID)
}

func (s *ReservationService) finish(reservationID, userID int64, targetStatus string, referenceID *int64) (*models.Reservation, error) {
	var reservation *models.Reservation

	err := s.transactor.WithinTx(func(executor repositories.SQLExecutor) error {
		var err error
		reservation, err = s.reservationRepo.GetReservationForUpdate(executor, reservationID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: reservation %d", ErrNotFound, reservationID)
			}
			return err
		}
		if reservation.Status != models.ReservationStatusActive {
			return fmt.Errorf("%w: reservation %d is %s", ErrInvalidState, reservationID, reservation.Status)
		}

		now := time.Now()
		if err := s.reservationRepo.UpdateReservationStatus(executor, reservationID, targetStatus, now); err != nil {
			return err
		}

		resID := reservationID
		switch targetStatus {
		case models.ReservationStatusReleased:
			_, err = s.ledger.Mutate(executor, reservation.BatchID, reservation.Quantity,
				models.ChangeTypeRelease, userID, &resID, nil)
		case models.ReservationStatusConfirmed:
			if referenceID == nil {
				referenceID = &resID
			}
			_, err = s.ledger.Mutate(executor, reservation.BatchID, 0,
				models.ChangeTypeConfirmReserve, userID, referenceID, nil)
		}
		if err != nil {
			return err
		}

		reservation.Status = targetStatus
		reservation.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// GetReservation returns one reservation by id.
func (s *ReservationService) GetReservation(reservationID int64) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetReservationByID(reservationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: reservation %d", ErrNotFound, reservationID)
		}
		return nil, err
	}
	return reservation, nil
}

// GetActiveReservationsByBatch lists the open holds against one batch.
func (s *ReservationService) GetActiveReservationsByBatch(batchID int64) ([]models.Reservation, error) {
	return s.reservationRepo.GetActiveReservationsByBatch(batchID)
}
