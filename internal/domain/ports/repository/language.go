package repository

import (
	"context"

	"interpreter-booking/internal/domain/model"
)

// LanguageRepository resolves languages for message composition.
type LanguageRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Language, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Language, error)
}
