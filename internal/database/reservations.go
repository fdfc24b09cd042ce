package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const reservationColumns = `id, user_id, party_size, reservation_time, status, special_requests`

func scanReservation(row interface{ Scan(dest ...any) error }) (Reservation, error) {
	var rs Reservation
	err := row.Scan(&rs.ID, &rs.UserID, &rs.PartySize, &rs.ReservationTime, &rs.Status, &rs.SpecialRequests)
	return rs, err
}

const createReservation = `
INSERT INTO reservations (user_id, party_size, reservation_time, special_requests)
VALUES ($1, $2, $3, $4)
RETURNING ` + reservationColumns + `
`

type CreateReservationParams struct {
	UserID          int64
	PartySize       int32
	ReservationTime time.Time
	SpecialRequests pgtype.Text
}

func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (Reservation, error) {
	return scanReservation(q.db.QueryRow(ctx, createReservation,
		arg.UserID,
		arg.PartySize,
		arg.ReservationTime,
		arg.SpecialRequests,
	))
}

const listReservationsByUser = `
SELECT ` + reservationColumns + `
FROM reservations
WHERE user_id = $1
ORDER BY reservation_time DESC
`

func (q *Queries) ListReservationsByUser(ctx context.Context, userID int64) ([]Reservation, error) {
	rows, err := q.db.Query(ctx, listReservationsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reservations []Reservation
	for rows.Next() {
		rs, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, rs)
	}
	return reservations, rows.Err()
}

const listReservationsWithCustomer = `
SELECT r.id, r.user_id, r.party_size, r.reservation_time, r.status, r.special_requests,
       u.username
FROM reservations r
JOIN users u ON u.id = r.user_id
ORDER BY r.reservation_time DESC
`

type ReservationWithCustomer struct {
	Reservation
	Username string
}

func (q *Queries) ListReservationsWithCustomer(ctx context.Context) ([]ReservationWithCustomer, error) {
	rows, err := q.db.Query(ctx, listReservationsWithCustomer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reservations []ReservationWithCustomer
	for rows.Next() {
		var rs ReservationWithCustomer
		if err := rows.Scan(&rs.ID, &rs.UserID, &rs.PartySize, &rs.ReservationTime, &rs.Status,
			&rs.SpecialRequests, &rs.Username); err != nil {
			return nil, err
		}
		reservations = append(reservations, rs)
	}
	return reservations, rows.Err()
}

const updateReservationStatus = `
UPDATE reservations
SET status = $2
WHERE id = $1
RETURNING ` + reservationColumns + `
`

type UpdateReservationStatusParams struct {
	ID     int64
	Status string
}

func (q *Queries) UpdateReservationStatus(ctx context.Context, arg UpdateReservationStatusParams) (Reservation, error) {
	return scanReservation(q.db.QueryRow(ctx, updateReservationStatus, arg.ID, arg.Status))
}
