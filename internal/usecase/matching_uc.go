package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"interpreter-booking/internal/domain"
	"interpreter-booking/internal/domain/model"
	"interpreter-booking/internal/domain/ports/repository"
)

// Compile-time check
var _ MatchingUseCase = (*matchingUC)(nil)

// MatchingUseCase answers the two symmetric eligibility questions: which
// open bookings a translator may take, and which translators qualify for a
// booking. The second form feeds notification fan-out.
type MatchingUseCase interface {
	JobsForTranslator(ctx context.Context, translatorID string) ([]*model.Job, error)
	TranslatorsForJob(ctx context.Context, job *model.Job) ([]*model.TranslatorProfile, error)
}

type matchingUC struct {
	jobs  repository.JobRepository
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewMatchingUseCase(jobs repository.JobRepository, users repository.UserRepository, logger *zerolog.Logger) *matchingUC {
	l := logger.With().Str("component", "matching").Logger()
	return &matchingUC{jobs: jobs, users: users, log: &l}
}

func (m *matchingUC) JobsForTranslator(ctx context.Context, translatorID string) ([]*model.Job, error) {
	profile, err := m.users.FindTranslatorProfile(ctx, repository.NoTX, translatorID)
	if err != nil {
		return nil, err
	}
	if !profile.User.Enabled || profile.Meta.NotGetNotification {
		return nil, nil
	}

	jobType := model.JobTypeForTranslator(profile.Meta.TranslatorType)
	candidates, err := m.jobs.FindPending(ctx, repository.NoTX, jobType, profile.LanguageIDs)
	if err != nil {
		return nil, err
	}

	var out []*model.Job
	for _, job := range candidates {
		ok, err := m.eligible(ctx, job, profile)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, job)
		}
	}
	return out, nil
}

func (m *matchingUC) TranslatorsForJob(ctx context.Context, job *model.Job) ([]*model.TranslatorProfile, error) {
	profiles, err := m.users.ListActiveTranslators(ctx, repository.NoTX, model.TranslatorTypeForJob(job.JobType))
	if err != nil {
		return nil, err
	}

	var out []*model.TranslatorProfile
	for _, p := range profiles {
		if p.Meta.NotGetNotification || !p.KnowsLanguage(job.FromLanguageID) {
			continue
		}
		ok, err := m.eligible(ctx, job, p)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// eligible applies the per-pair filters shared by both query directions:
// gender preference, certification level, town match for in-person-only
// bookings, specific-job earmarking, and the customer's blacklist.
func (m *matchingUC) eligible(ctx context.Context, job *model.Job, p *model.TranslatorProfile) (bool, error) {
	if job.Gender != "" && p.Meta.Gender != job.Gender {
		return false, nil
	}
	if !model.LevelAcceptable(job.Certified, p.Meta.TranslatorLevel) {
		return false, nil
	}
	if job.PhysicalOnly() && !sameTown(job.Town, p.Meta.City) {
		return false, nil
	}
	if job.ForTranslatorID != "" && job.ForTranslatorID != p.User.ID {
		return false, nil
	}

	blacklisted, err := m.users.IsBlacklisted(ctx, repository.NoTX, job.CustomerID, p.User.ID)
	if err != nil {
		if err == domain.ErrNotFound {
			return true, nil
		}
		return false, err
	}
	return !blacklisted, nil
}

func sameTown(a, b string) bool {
	return a != "" && a == b
}
