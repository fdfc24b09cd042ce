package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             int64
	Username       string
	Email          string
	HashedPassword string
	Address        pgtype.Text
	Role           string
	CreatedAt      time.Time
}

type MenuItem struct {
	ID           int64
	Name         string
	Description  pgtype.Text
	Price        pgtype.Numeric
	Category     string
	ImageUrl     pgtype.Text
	IsDeal       bool
	Availability bool
}

type Category struct {
	ID          int64
	Name        string
	Description pgtype.Text
	IsActive    bool
	CreatedAt   time.Time
}

type ComboDeal struct {
	ID          int64
	Name        string
	Description pgtype.Text
	ComboPrice  pgtype.Numeric
	ImageUrl    pgtype.Text
	Category    pgtype.Text
	IsActive    bool
}

type ComboDealItem struct {
	ID          int64
	ComboDealID int64
	MenuItemID  int64
	Quantity    int32
}

type Order struct {
	ID            int64
	UserID        int64
	Status        string
	TotalAmount   pgtype.Numeric
	PaymentMethod string
	OrderType     string
	CreatedAt     time.Time
}

// OrderItem is a ledger line. MenuItemID/ComboDealID are nullable catalog
// references; Name and Price are the snapshot captured at order time and
// stay intact after the referenced catalog row is deleted.
type OrderItem struct {
	ID          int64
	OrderID     int64
	MenuItemID  pgtype.Int8
	ComboDealID pgtype.Int8
	Name        string
	Price       pgtype.Numeric
	Quantity    int32
}

type Review struct {
	ID          int64
	UserID      int64
	MenuItemID  pgtype.Int8
	ComboDealID pgtype.Int8
	Rating      int32
	Comment     pgtype.Text
	CreatedAt   time.Time
}

type Reservation struct {
	ID              int64
	UserID          int64
	PartySize       int32
	ReservationTime time.Time
	Status          string
	SpecialRequests pgtype.Text
}
