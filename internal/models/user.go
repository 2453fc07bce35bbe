package models

import "time"

// User is an authenticated account and its membership record. MembershipTier and BillingCycle
// hold the raw persisted identifiers; they are validated against the catalog when read.
type User struct {
	ID                   string     `json:"id"`
	Email                string     `json:"email"`
	FirstName            string     `json:"first_name"`
	LastName             string     `json:"last_name"`
	StripeCustomerID     *string    `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id,omitempty"`
	MembershipTier       *string    `json:"membership_tier,omitempty"`
	BillingCycle         *string    `json:"billing_cycle,omitempty"`
	CurrentPeriodStart   *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool       `json:"cancel_at_period_end"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// HasMembership reports whether a tier is recorded for the user.
func (u *User) HasMembership() bool {
	return u.MembershipTier != nil && *u.MembershipTier != ""
}

// MembershipChange is what a confirmed payment writes to the user record.
type MembershipChange struct {
	Tier                 string
	BillingCycle         string
	StripeSubscriptionID string
	PeriodStart          time.Time
	PeriodEnd            time.Time
}
