package sqlite

import (
	"database/sql"
	"fmt"
)

const (
	queryInsertUser = `
        INSERT INTO users (
            username, email, hashed_password, first_name, last_name,
            stripe_customer_id, ai_api_counter, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetUserByUsername = `
        SELECT id, username, COALESCE(email, ''), hashed_password, first_name, last_name,
               COALESCE(stripe_customer_id, ''), ai_api_counter, created_at, updated_at
        FROM users WHERE username = ?`

	queryGetUserByID = `
        SELECT id, username, COALESCE(email, ''), hashed_password, first_name, last_name,
               COALESCE(stripe_customer_id, ''), ai_api_counter, created_at, updated_at
        FROM users WHERE id = ?`

	queryIncrementCounter = `
        UPDATE users SET ai_api_counter = ai_api_counter + 1, updated_at = ? WHERE id = ?`

	querySetStripeCustomer = `
        UPDATE users SET stripe_customer_id = ?, updated_at = ? WHERE id = ?`
)

type statements struct {
	insert            *sql.Stmt
	getByUsername     *sql.Stmt
	getByID           *sql.Stmt
	incrementCounter  *sql.Stmt
	setStripeCustomer *sql.Stmt
}

func prepareStatements(db *sql.DB) (*statements, error) {
	s := &statements{}

	prepared := []struct {
		stmt  **sql.Stmt
		query string
	}{
		{&s.insert, queryInsertUser},
		{&s.getByUsername, queryGetUserByUsername},
		{&s.getByID, queryGetUserByID},
		{&s.incrementCounter, queryIncrementCounter},
		{&s.setStripeCustomer, querySetStripeCustomer},
	}

	for _, p := range prepared {
		stmt, err := db.Prepare(p.query)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("failed to prepare statement: %w", err)
		}
		*p.stmt = stmt
	}

	return s, nil
}

func (s *statements) close() {
	for _, stmt := range []*sql.Stmt{
		s.insert,
		s.getByUsername,
		s.getByID,
		s.incrementCounter,
		s.setStripeCustomer,
	} {
		if stmt != nil {
			stmt.Close()
		}
	}
}
