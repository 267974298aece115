package payment

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	apperrors "mediaforge/errors"
	"mediaforge/models"
	"mediaforge/repository"
)

// Intent is the client-facing view of a created payment intent.
type Intent struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// Service creates and manages manual-capture payment intents. Users get a
// Stripe customer lazily on first payment; the customer id is persisted so
// later intents reuse it.
type Service struct {
	api      *client.API
	repo     repository.UserRepository
	currency string
	logger   *logrus.Logger
}

func NewService(secretKey, currency string, repo repository.UserRepository) *Service {
	api := &client.API{}
	api.Init(secretKey, nil)
	if currency == "" {
		currency = "usd"
	}
	return &Service{
		api:      api,
		repo:     repo,
		currency: currency,
		logger:   logrus.StandardLogger(),
	}
}

// CreateIntent creates a manual-capture payment intent for the principal,
// provisioning a Stripe customer first if the user has none yet.
func (s *Service) CreateIntent(ctx context.Context, principal models.Principal, amount int64, firstName, lastName string) (*Intent, error) {
	const op = "payment.CreateIntent"

	if amount <= 0 {
		return nil, apperrors.InvalidInput(op, nil, "Amount must be positive")
	}

	user, err := s.repo.FindByUsername(ctx, principal.Username)
	if err != nil {
		return nil, err
	}

	customerID := user.StripeCustomerID
	if customerID == "" {
		cust, err := s.api.Customers.New(&stripe.CustomerParams{
			Name: stripe.String(firstName + " " + lastName),
		})
		if err != nil {
			return nil, apperrors.Internal(op, errors.Wrap(err, "failed to create customer"), "Payment setup failed")
		}
		customerID = cust.ID

		if err := s.repo.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
			return nil, err
		}
		s.logger.WithField("username", user.Username).Info("Created payment customer")
	}

	intent, err := s.api.PaymentIntents.New(&stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amount),
		Currency:      stripe.String(s.currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Customer:      stripe.String(customerID),
	})
	if err != nil {
		return nil, apperrors.InvalidInput(op, err, "Failed to create payment intent")
	}

	return &Intent{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

// Capture settles a previously authorized payment intent and returns its
// resulting status.
func (s *Service) Capture(ctx context.Context, intentID string) (string, error) {
	const op = "payment.Capture"

	if intentID == "" {
		return "", apperrors.InvalidInput(op, nil, "Payment intent id is required")
	}

	intent, err := s.api.PaymentIntents.Capture(intentID, nil)
	if err != nil {
		return "", apperrors.InvalidInput(op, err, "Failed to capture payment")
	}
	return string(intent.Status), nil
}

// Cancel voids an uncaptured payment intent and returns its resulting
// status.
func (s *Service) Cancel(ctx context.Context, intentID string) (string, error) {
	const op = "payment.Cancel"

	if intentID == "" {
		return "", apperrors.InvalidInput(op, nil, "Payment intent id is required")
	}

	intent, err := s.api.PaymentIntents.Cancel(intentID, nil)
	if err != nil {
		return "", apperrors.InvalidInput(op, err, "Failed to cancel payment")
	}
	return string(intent.Status), nil
}
