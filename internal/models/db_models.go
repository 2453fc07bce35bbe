package models

import (
	"time"

	"github.com/uptrace/bun"
)

type UserDB struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                   string     `bun:"id,pk" json:"id"`
	Email                string     `bun:"email,notnull" json:"email"`
	FirstName            string     `bun:"first_name" json:"first_name"`
	LastName             string     `bun:"last_name" json:"last_name"`
	StripeCustomerID     *string    `bun:"stripe_customer_id,unique" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string    `bun:"stripe_subscription_id" json:"stripe_subscription_id,omitempty"`
	MembershipTier       *string    `bun:"membership_tier" json:"membership_tier,omitempty"`
	BillingCycle         *string    `bun:"billing_cycle" json:"billing_cycle,omitempty"`
	CurrentPeriodStart   *time.Time `bun:"current_period_start" json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `bun:"current_period_end" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `bun:"cancel_at_period_end,notnull,default:false" json:"cancel_at_period_end"`
	CreatedAt            time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt            time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (u *UserDB) ToUser() *User {
	return &User{
		ID:                   u.ID,
		Email:                u.Email,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		StripeCustomerID:     u.StripeCustomerID,
		StripeSubscriptionID: u.StripeSubscriptionID,
		MembershipTier:       u.MembershipTier,
		BillingCycle:         u.BillingCycle,
		CurrentPeriodStart:   u.CurrentPeriodStart,
		CurrentPeriodEnd:     u.CurrentPeriodEnd,
		CancelAtPeriodEnd:    u.CancelAtPeriodEnd,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

func UserFromDomain(u *User) *UserDB {
	return &UserDB{
		ID:                   u.ID,
		Email:                u.Email,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		StripeCustomerID:     u.StripeCustomerID,
		StripeSubscriptionID: u.StripeSubscriptionID,
		MembershipTier:       u.MembershipTier,
		BillingCycle:         u.BillingCycle,
		CurrentPeriodStart:   u.CurrentPeriodStart,
		CurrentPeriodEnd:     u.CurrentPeriodEnd,
		CancelAtPeriodEnd:    u.CancelAtPeriodEnd,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

// ProcessedEventDB records Stripe webhook events that have already been applied.
type ProcessedEventDB struct {
	bun.BaseModel `bun:"table:processed_events,alias:pe"`

	EventID     string    `bun:"event_id,pk" json:"event_id"`
	EventType   string    `bun:"event_type,notnull" json:"event_type"`
	ProcessedAt time.Time `bun:"processed_at,notnull,default:current_timestamp" json:"processed_at"`
}
