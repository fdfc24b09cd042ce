package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createUser = `
INSERT INTO users (username, email, hashed_password, address, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, username, email, hashed_password, address, role, created_at
`

type CreateUserParams struct {
	Username       string
	Email          string
	HashedPassword string
	Address        pgtype.Text
	Role           string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.Username,
		arg.Email,
		arg.HashedPassword,
		arg.Address,
		arg.Role,
	)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.Address, &u.Role, &u.CreatedAt)
	return u, err
}

const getUserByEmail = `
SELECT id, username, email, hashed_password, address, role, created_at
FROM users
WHERE email = $1
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.Address, &u.Role, &u.CreatedAt)
	return u, err
}

const getUserByID = `
SELECT id, username, email, hashed_password, address, role, created_at
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.Address, &u.Role, &u.CreatedAt)
	return u, err
}

const listUsers = `
SELECT id, username, email, hashed_password, address, role, created_at
FROM users
ORDER BY id
`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.Address, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const updateUserRole = `
UPDATE users
SET role = $2
WHERE id = $1
RETURNING id, username, email, hashed_password, address, role, created_at
`

type UpdateUserRoleParams struct {
	ID   int64
	Role string
}

func (q *Queries) UpdateUserRole(ctx context.Context, arg UpdateUserRoleParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUserRole, arg.ID, arg.Role)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.Address, &u.Role, &u.CreatedAt)
	return u, err
}

const countUsers = `
SELECT COUNT(*) FROM users
`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countUsers).Scan(&count)
	return count, err
}
