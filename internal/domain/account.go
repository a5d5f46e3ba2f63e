package domain

import (
	"context"
	"time"
)

// Account links a user to an external identity provider. A user may hold
// a local password, one or more provider accounts, or both; the pair
// (provider, provider_account_id) is unique.
type Account struct {
	ID                int64
	UserID            int64
	Provider          string
	ProviderAccountID string
	CreatedAt         time.Time
}

// AccountRepository defines persistence operations for provider accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByProviderAccount(ctx context.Context, provider, providerAccountID string) (*Account, error)
}
