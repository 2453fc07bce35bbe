package user

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/homwrkk/IUI/internal/auth"
	"github.com/homwrkk/IUI/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockRepository) GetByStripeCustomerID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockRepository) GetOrCreate(ctx context.Context, userID, email, firstName, lastName string) (*models.User, error) {
	args := m.Called(ctx, userID, email, firstName, lastName)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockRepository) UpdateStripeCustomerID(ctx context.Context, userID, customerID string) error {
	return m.Called(ctx, userID, customerID).Error(0)
}

func (m *mockRepository) UpdateMembership(ctx context.Context, customerID string, change models.MembershipChange) error {
	return m.Called(ctx, customerID, change).Error(0)
}

func (m *mockRepository) ResetBillingPeriod(ctx context.Context, customerID string, start, end time.Time) error {
	return m.Called(ctx, customerID, start, end).Error(0)
}

func (m *mockRepository) SetCancelAtPeriodEnd(ctx context.Context, customerID string, cancel bool) error {
	return m.Called(ctx, customerID, cancel).Error(0)
}

func (m *mockRepository) ClearMembership(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}

func (m *mockRepository) MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	args := m.Called(ctx, eventID, eventType)
	return args.Bool(0), args.Error(1)
}

type mockCustomers struct {
	mock.Mock
}

func (m *mockCustomers) CreateCustomer(ctx context.Context, userID, email string) (*stripe.Customer, error) {
	args := m.Called(ctx, userID, email)
	c, _ := args.Get(0).(*stripe.Customer)
	return c, args.Error(1)
}

func TestUserServiceGetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("existing customer is returned untouched", func(t *testing.T) {
		repo := new(mockRepository)
		customers := new(mockCustomers)
		customerID := "cus_1"
		repo.On("GetOrCreate", ctx, "user_1", "a@example.com", "Ada", "L").
			Return(&models.User{ID: "user_1", StripeCustomerID: &customerID}, nil)

		u, err := NewUserService(repo, customers).GetOrCreate(ctx, "user_1", "a@example.com", "Ada", "L")
		require.NoError(t, err)
		assert.Equal(t, "cus_1", *u.StripeCustomerID)
		customers.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stripe customer created on first sight", func(t *testing.T) {
		repo := new(mockRepository)
		customers := new(mockCustomers)
		repo.On("GetOrCreate", ctx, "user_2", "b@example.com", "", "").
			Return(&models.User{ID: "user_2"}, nil)
		customers.On("CreateCustomer", ctx, "user_2", "b@example.com").
			Return(&stripe.Customer{ID: "cus_2"}, nil)
		repo.On("UpdateStripeCustomerID", ctx, "user_2", "cus_2").Return(nil)

		u, err := NewUserService(repo, customers).GetOrCreate(ctx, "user_2", "b@example.com", "", "")
		require.NoError(t, err)
		require.NotNil(t, u.StripeCustomerID)
		assert.Equal(t, "cus_2", *u.StripeCustomerID)
		repo.AssertExpectations(t)
		customers.AssertExpectations(t)
	})

	t.Run("stripe failure is wrapped", func(t *testing.T) {
		repo := new(mockRepository)
		customers := new(mockCustomers)
		repo.On("GetOrCreate", ctx, "user_3", "c@example.com", "", "").
			Return(&models.User{ID: "user_3"}, nil)
		stripeErr := errors.New("stripe down")
		customers.On("CreateCustomer", ctx, "user_3", "c@example.com").Return(nil, stripeErr)

		_, err := NewUserService(repo, customers).GetOrCreate(ctx, "user_3", "c@example.com", "", "")
		assert.ErrorIs(t, err, stripeErr)
		repo.AssertNotCalled(t, "UpdateStripeCustomerID", mock.Anything, mock.Anything, mock.Anything)
	})
}

type stubService struct {
	user *models.User
	err  error
}

func (s stubService) GetOrCreate(ctx context.Context, userID, email, firstName, lastName string) (*models.User, error) {
	return s.user, s.err
}

func TestUserMiddleware(t *testing.T) {
	var seen *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetDBUserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("requires an authenticated identity", func(t *testing.T) {
		rec := httptest.NewRecorder()
		UserMiddleware(stubService{})(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("stores the db user", func(t *testing.T) {
		want := &models.User{ID: "user_1", Email: "a@example.com"}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(auth.WithUser(req.Context(), &auth.User{ID: "user_1", Email: "a@example.com"}))

		rec := httptest.NewRecorder()
		UserMiddleware(stubService{user: want})(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Same(t, want, seen)
	})

	t.Run("lookup failure", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(auth.WithUser(req.Context(), &auth.User{ID: "user_1"}))

		rec := httptest.NewRecorder()
		UserMiddleware(stubService{err: errors.New("db down")})(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
