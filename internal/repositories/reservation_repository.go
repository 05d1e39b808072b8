package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pharmapos_backend/internal/models"
)

// ReservationRepository persists soft holds on batch stock.
type ReservationRepository interface {
	CreateReservation(executor SQLExecutor, reservation *models.Reservation) (int64, error)
	GetReservationByID(reservationID int64) (*models.Reservation, error)
	GetReservationForUpdate(executor SQLExecutor, reservationID int64) (*models.Reservation, error)
	UpdateReservationStatus(executor SQLExecutor, reservationID int64, status string, updatedAt time.Time) error
	GetActiveReservationsByBatch(batchID int64) ([]models.Reservation, error)
}

type reservationRepository struct {
	db *sql.DB
}

// NewReservationRepository creates a new instance of ReservationRepository.
func NewReservationRepository(db *sql.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

const reservationColumns = `id, batch_id, quantity, reason, status, user_id, created_at, updated_at`

func scanReservation(s scanner) (*models.Reservation, error) {
	res := &models.Reservation{}
	err := s.Scan(
		&res.ID, &res.BatchID, &res.Quantity, &res.Reason, &res.Status,
		&res.UserID, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *reservationRepository) CreateReservation(executor SQLExecutor, reservation *models.Reservation) (int64, error) {
	query := `INSERT INTO stock_reservations
	            (batch_id, quantity, reason, status, user_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	now := time.Now()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	err := executor.QueryRow(query,
		reservation.BatchID, reservation.Quantity, reservation.Reason, reservation.Status,
		reservation.UserID, reservation.CreatedAt, reservation.UpdatedAt,
	).Scan(&reservation.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating reservation: %v", ErrDatabaseError, err)
	}
	return reservation.ID, nil
}

func (r *reservationRepository) GetReservationByID(reservationID int64) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM stock_reservations WHERE id = $1`
	res, err := scanReservation(r.db.QueryRow(query, reservationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting reservation by ID %d: %v", ErrDatabaseError, reservationID, err)
	}
	return res, nil
}

func (r *reservationRepository) GetReservationForUpdate(executor SQLExecutor, reservationID int64) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM stock_reservations WHERE id = $1 FOR UPDATE`
	res, err := scanReservation(executor.QueryRow(query, reservationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking reservation ID %d: %v", ErrDatabaseError, reservationID, err)
	}
	return res, nil
}

func (r *reservationRepository) UpdateReservationStatus(executor SQLExecutor, reservationID int64, status string, updatedAt time.Time) error {
	query := `UPDATE stock_reservations SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, status, updatedAt, reservationID)
	if err != nil {
		return fmt.Errorf("%w: updating reservation status ID %d: %v", ErrDatabaseError, reservationID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for reservation update ID %d: %v", ErrDatabaseError, reservationID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reservationRepository) GetActiveReservationsByBatch(batchID int64) ([]models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
	          FROM stock_reservations
	          WHERE batch_id = $1 AND status = $2
	          ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(query, batchID, models.ReservationStatusActive)
	if err != nil {
		return nil, fmt.Errorf("%w: querying reservations: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	reservations := []models.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning reservation: %v", ErrDatabaseError, err)
		}
		reservations = append(reservations, *res)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating reservation rows: %v", ErrDatabaseError, err)
	}
	return reservations, nil
}
