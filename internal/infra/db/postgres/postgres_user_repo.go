package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"interpreter-booking/internal/domain"
	"interpreter-booking/internal/domain/model"
	"interpreter-booking/internal/domain/ports/repository"
	"interpreter-booking/internal/infra/metrics"
)

type UserRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

var _ repository.UserRepository = (*UserRepo)(nil)

func NewUserRepo(pool *pgxpool.Pool, logger *zerolog.Logger) *UserRepo {
	return &UserRepo{
		pool:   pool,
		logger: logger.With().Str("component", "user_repo").Logger(),
	}
}

func (r *UserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	defer metrics.ObserveQuery("users", "FindByID", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = `SELECT id, user_type, email, name, mobile, enabled FROM users WHERE id = $1`
	u, err := scanUser(ex.QueryRow(ctx, q, id))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	defer metrics.ObserveQuery("users", "FindByEmail", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = `SELECT id, user_type, email, name, mobile, enabled FROM users WHERE email = $1`
	u, err := scanUser(ex.QueryRow(ctx, q, email))
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (r *UserRepo) GetMeta(ctx context.Context, tx repository.Tx, userID string) (*model.UserMeta, error) {
	defer metrics.ObserveQuery("users", "GetMeta", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT user_id, consumer_type, customer_type, translator_type,
			translator_level, gender, city, address, instructions,
			not_get_emergency, not_get_nighttime, not_get_notification
		FROM user_meta WHERE user_id = $1`
	m, err := scanMeta(ex.QueryRow(ctx, q, userID))
	if err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

func (r *UserRepo) FindTranslatorProfile(ctx context.Context, tx repository.Tx, userID string) (*model.TranslatorProfile, error) {
	defer metrics.ObserveQuery("users", "FindTranslatorProfile", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = profileQuery + ` WHERE u.id = $1 GROUP BY u.id, m.user_id`
	p, err := scanProfile(ex.QueryRow(ctx, q, userID))
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (r *UserRepo) ListActiveTranslators(ctx context.Context, tx repository.Tx, t model.TranslatorType) ([]*model.TranslatorProfile, error) {
	defer metrics.ObserveQuery("users", "ListActiveTranslators", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}

	const q = profileQuery + `
		WHERE u.user_type = 'translator' AND u.enabled AND m.translator_type = $1
		GROUP BY u.id, m.user_id`
	rows, err := ex.Query(ctx, q, string(t))
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []*model.TranslatorProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return out, nil
}

func (r *UserRepo) IsBlacklisted(ctx context.Context, tx repository.Tx, customerID, translatorID string) (bool, error) {
	defer metrics.ObserveQuery("users", "IsBlacklisted", time.Now())
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}

	const q = `
		SELECT EXISTS (
			SELECT 1 FROM users_blacklist
			WHERE customer_id = $1 AND translator_id = $2
		)`
	var banned bool
	if err := ex.QueryRow(ctx, q, customerID, translatorID).Scan(&banned); err != nil {
		return false, mapError(err)
	}
	return banned, nil
}

const profileQuery = `
	SELECT u.id, u.user_type, u.email, u.name, u.mobile, u.enabled,
		m.user_id, m.consumer_type, m.customer_type, m.translator_type,
		m.translator_level, m.gender, m.city, m.address, m.instructions,
		m.not_get_emergency, m.not_get_nighttime, m.not_get_notification,
		COALESCE(array_agg(tl.language_id) FILTER (WHERE tl.language_id IS NOT NULL), '{}')
	FROM users u
	JOIN user_meta m ON m.user_id = u.id
	LEFT JOIN translator_languages tl ON tl.user_id = u.id`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var userType string
	if err := row.Scan(&u.ID, &userType, &u.Email, &u.Name, &u.Mobile, &u.Enabled); err != nil {
		return nil, err
	}
	u.Type = model.UserType(userType)
	return &u, nil
}

func scanMeta(row pgx.Row) (*model.UserMeta, error) {
	var m model.UserMeta
	var consumer, translator, level, gender string
	err := row.Scan(&m.UserID, &consumer, &m.CustomerType, &translator,
		&level, &gender, &m.City, &m.Address, &m.Instructions,
		&m.NotGetEmergency, &m.NotGetNighttime, &m.NotGetNotification)
	if err != nil {
		return nil, err
	}
	m.ConsumerType = model.ConsumerType(consumer)
	m.TranslatorType = model.TranslatorType(translator)
	m.TranslatorLevel = model.TranslatorLevel(level)
	m.Gender = model.Gender(gender)
	return &m, nil
}

func scanProfile(row pgx.Row) (*model.TranslatorProfile, error) {
	var p model.TranslatorProfile
	var userType, consumer, translator, level, gender string
	err := row.Scan(
		&p.User.ID, &userType, &p.User.Email, &p.User.Name, &p.User.Mobile,
		&p.User.Enabled,
		&p.Meta.UserID, &consumer, &p.Meta.CustomerType, &translator,
		&level, &gender, &p.Meta.City, &p.Meta.Address, &p.Meta.Instructions,
		&p.Meta.NotGetEmergency, &p.Meta.NotGetNighttime,
		&p.Meta.NotGetNotification,
		&p.LanguageIDs)
	if err != nil {
		return nil, err
	}
	p.User.Type = model.UserType(userType)
	p.Meta.ConsumerType = model.ConsumerType(consumer)
	p.Meta.TranslatorType = model.TranslatorType(translator)
	p.Meta.TranslatorLevel = model.TranslatorLevel(level)
	p.Meta.Gender = model.Gender(gender)
	return &p, nil
}
