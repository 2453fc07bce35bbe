package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/homwrkk/IUI/internal/models"
	"github.com/uptrace/bun"
)

var ErrNotFound = errors.New("user not found")

type Repository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	GetOrCreate(ctx context.Context, userID, email, firstName, lastName string) (*models.User, error)
	UpdateStripeCustomerID(ctx context.Context, userID, stripeCustomerID string) error
	UpdateMembership(ctx context.Context, stripeCustomerID string, change models.MembershipChange) error
	ResetBillingPeriod(ctx context.Context, stripeCustomerID string, periodStart, periodEnd time.Time) error
	SetCancelAtPeriodEnd(ctx context.Context, stripeCustomerID string, cancel bool) error
	ClearMembership(ctx context.Context, stripeCustomerID string) error
	// MarkEventProcessed records a webhook event id and reports whether it was new.
	MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error)
}

type UserRepository struct {
	db bun.IDB
}

func NewUserRepository(db bun.IDB) *UserRepository {
	return &UserRepository{db: db}
}

// RunInTx calls fn with a repository bound to a single transaction. The transaction commits
// when fn returns nil and rolls back otherwise.
func (r *UserRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, repo *UserRepository) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &UserRepository{db: tx})
	})
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	userDB := new(models.UserDB)
	err := r.db.NewSelect().
		Model(userDB).
		Where("id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return userDB.ToUser(), nil
}

func (r *UserRepository) GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*models.User, error) {
	userDB := new(models.UserDB)
	err := r.db.NewSelect().
		Model(userDB).
		Where("stripe_customer_id = ?", stripeCustomerID).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return userDB.ToUser(), nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	userDB := models.UserFromDomain(user)
	now := time.Now()
	userDB.CreatedAt = now
	userDB.UpdatedAt = now
	_, err := r.db.NewInsert().Model(userDB).Exec(ctx)
	return err
}

func (r *UserRepository) GetOrCreate(ctx context.Context, userID, email, firstName, lastName string) (*models.User, error) {
	user, err := r.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	newUser := &models.User{
		ID:        userID,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	}

	if err := r.Create(ctx, newUser); err != nil {
		return nil, err
	}

	return newUser, nil
}

func (r *UserRepository) UpdateStripeCustomerID(ctx context.Context, userID, stripeCustomerID string) error {
	res, err := r.db.NewUpdate().
		Model((*models.UserDB)(nil)).
		Set("stripe_customer_id = ?", stripeCustomerID).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	return requireRow(res, err)
}

func (r *UserRepository) UpdateMembership(ctx context.Context, stripeCustomerID string, change models.MembershipChange) error {
	res, err := r.db.NewUpdate().
		Model((*models.UserDB)(nil)).
		Set("membership_tier = ?", change.Tier).
		Set("billing_cycle = ?", change.BillingCycle).
		Set("stripe_subscription_id = ?", change.StripeSubscriptionID).
		Set("current_period_start = ?", change.PeriodStart).
		Set("current_period_end = ?", change.PeriodEnd).
		Set("cancel_at_period_end = ?", false).
		Set("updated_at = ?", time.Now()).
		Where("stripe_customer_id = ?", stripeCustomerID).
		Exec(ctx)
	return requireRow(res, err)
}

func (r *UserRepository) ResetBillingPeriod(ctx context.Context, stripeCustomerID string, periodStart, periodEnd time.Time) error {
	res, err := r.db.NewUpdate().
		Model((*models.UserDB)(nil)).
		Set("current_period_start = ?", periodStart).
		Set("current_period_end = ?", periodEnd).
		Set("updated_at = ?", time.Now()).
		Where("stripe_customer_id = ?", stripeCustomerID).
		Exec(ctx)
	return requireRow(res, err)
}

func (r *UserRepository) SetCancelAtPeriodEnd(ctx context.Context, stripeCustomerID string, cancel bool) error {
	res, err := r.db.NewUpdate().
		Model((*models.UserDB)(nil)).
		Set("cancel_at_period_end = ?", cancel).
		Set("updated_at = ?", time.Now()).
		Where("stripe_customer_id = ?", stripeCustomerID).
		Exec(ctx)
	return requireRow(res, err)
}

func (r *UserRepository) ClearMembership(ctx context.Context, stripeCustomerID string) error {
	res, err := r.db.NewUpdate().
		Model((*models.UserDB)(nil)).
		Set("membership_tier = NULL").
		Set("billing_cycle = NULL").
		Set("stripe_subscription_id = NULL").
		Set("current_period_start = NULL").
		Set("current_period_end = NULL").
		Set("cancel_at_period_end = ?", false).
		Set("updated_at = ?", time.Now()).
		Where("stripe_customer_id = ?", stripeCustomerID).
		Exec(ctx)
	return requireRow(res, err)
}

func (r *UserRepository) MarkEventProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	res, err := r.db.NewInsert().
		Model(&models.ProcessedEventDB{EventID: eventID, EventType: eventType, ProcessedAt: time.Now()}).
		On("CONFLICT (event_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func requireRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
