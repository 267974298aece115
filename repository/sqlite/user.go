package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"mediaforge/errors"
	"mediaforge/models"
)

type Repository struct {
	db    *sql.DB
	stmts *statements
}

func NewRepository(db *sql.DB) (*Repository, error) {
	stmts, err := prepareStatements(db)
	if err != nil {
		return nil, err
	}
	return &Repository{db: db, stmts: stmts}, nil
}

func (r *Repository) Close() error {
	r.stmts.close()
	return nil
}

func (r *Repository) Create(ctx context.Context, user *models.User) error {
	const op = "SQLiteRepository.Create"

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	// NULL keeps the UNIQUE constraints from colliding on empty values.
	var email, stripeID interface{}
	if user.Email != "" {
		email = user.Email
	}
	if user.StripeCustomerID != "" {
		stripeID = user.StripeCustomerID
	}

	var result sql.Result
	var err error
	for i := 0; i < 3; i++ { // Simple retry logic for lock contention
		result, err = r.stmts.insert.ExecContext(ctx,
			user.Username,
			email,
			user.HashedPassword,
			user.FirstName,
			user.LastName,
			stripeID,
			user.AIAPICounter,
			user.CreatedAt,
			user.UpdatedAt,
		)
		if err == nil {
			break
		}
		if !isLockError(err) {
			break
		}
		time.Sleep(time.Second * time.Duration(i+1))
	}
	if err != nil {
		if isUniqueViolation(err) {
			return errors.InvalidInput(op, err, "Username or email already taken")
		}
		return errors.Internal(op, err, "Failed to create user")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return errors.Internal(op, err, "Failed to read new user id")
	}
	user.ID = id

	return nil
}

func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "SQLiteRepository.FindByUsername"
	return r.scanUser(op, r.stmts.getByUsername.QueryRowContext(ctx, username))
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "SQLiteRepository.FindByID"
	return r.scanUser(op, r.stmts.getByID.QueryRowContext(ctx, id))
}

func (r *Repository) IncrementAPICounter(ctx context.Context, id int64) error {
	const op = "SQLiteRepository.IncrementAPICounter"

	if _, err := r.stmts.incrementCounter.ExecContext(ctx, time.Now(), id); err != nil {
		return errors.Internal(op, err, "Failed to increment API counter")
	}
	return nil
}

func (r *Repository) SetStripeCustomerID(ctx context.Context, id int64, customerID string) error {
	const op = "SQLiteRepository.SetStripeCustomerID"

	if _, err := r.stmts.setStripeCustomer.ExecContext(ctx, customerID, time.Now(), id); err != nil {
		return errors.Internal(op, err, "Failed to update Stripe customer")
	}
	return nil
}

func (r *Repository) scanUser(op string, row *sql.Row) (*models.User, error) {
	user := &models.User{}

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.HashedPassword,
		&user.FirstName,
		&user.LastName,
		&user.StripeCustomerID,
		&user.AIAPICounter,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound(op, nil, "User not found")
	}
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to query user")
	}

	return user, nil
}

func isLockError(err error) bool {
	return strings.Contains(err.Error(), "database is locked") ||
		strings.Contains(err.Error(), "busy")
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
