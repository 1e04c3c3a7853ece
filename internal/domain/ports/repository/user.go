package repository

import (
	"context"

	"interpreter-booking/internal/domain/model"
)

// UserRepository reads accounts and their booking-relevant metadata. The
// rows are owned by the account system; this side only queries them.
type UserRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
	GetMeta(ctx context.Context, tx Tx, userID string) (*model.UserMeta, error)

	FindTranslatorProfile(ctx context.Context, tx Tx, userID string) (*model.TranslatorProfile, error)

	// ListActiveTranslators returns enabled translators of the given type,
	// with meta and language ids loaded, for job fan-out.
	ListActiveTranslators(ctx context.Context, tx Tx, t model.TranslatorType) ([]*model.TranslatorProfile, error)

	// IsBlacklisted reports whether the customer has excluded the
	// translator from their bookings.
	IsBlacklisted(ctx context.Context, tx Tx, customerID, translatorID string) (bool, error)
}
