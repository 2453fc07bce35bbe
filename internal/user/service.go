package user

import (
	"context"
	"fmt"

	"github.com/homwrkk/IUI/internal/models"
	"github.com/stripe/stripe-go/v84"
)

type Service interface {
	GetOrCreate(ctx context.Context, userID, email, firstName, lastName string) (*models.User, error)
}

// CustomerCreator creates the payment-provider customer attached to a user.
type CustomerCreator interface {
	CreateCustomer(ctx context.Context, userID, email string) (*stripe.Customer, error)
}

type UserService struct {
	repo      Repository
	customers CustomerCreator
}

func NewUserService(repo Repository, customers CustomerCreator) *UserService {
	return &UserService{
		repo:      repo,
		customers: customers,
	}
}

// GetOrCreate loads the user, creating the row and the Stripe customer on first sight.
func (s *UserService) GetOrCreate(ctx context.Context, userID, email, firstName, lastName string) (*models.User, error) {
	user, err := s.repo.GetOrCreate(ctx, userID, email, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	if user.StripeCustomerID == nil {
		customer, err := s.customers.CreateCustomer(ctx, userID, email)
		if err != nil {
			return nil, fmt.Errorf("failed to create stripe customer for %s: %w", userID, err)
		}
		if err := s.repo.UpdateStripeCustomerID(ctx, userID, customer.ID); err != nil {
			return nil, fmt.Errorf("failed to store stripe customer for %s: %w", userID, err)
		}
		user.StripeCustomerID = &customer.ID
	}

	return user, nil
}
