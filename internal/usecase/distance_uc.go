package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"interpreter-booking/internal/domain"
	"interpreter-booking/internal/domain/model"
	"interpreter-booking/internal/domain/ports/repository"
)

// Compile-time check
var _ DistanceUseCase = (*distanceUC)(nil)

// DistanceUpdate carries the travel-feed fields an operator may post for a
// physical booking alongside administrative annotations.
type DistanceUpdate struct {
	JobID           string
	Distance        string
	TravelTime      string
	AdminComments   string
	SessionTime     string
	Flagged         bool
	ManuallyHandled bool
	ByAdmin         bool
}

type DistanceUseCase interface {
	UpdateFeed(ctx context.Context, upd *DistanceUpdate) error
}

type distanceUC struct {
	jobs      repository.JobRepository
	distances repository.DistanceRepository
	log       *zerolog.Logger
}

func NewDistanceUseCase(jobs repository.JobRepository, distances repository.DistanceRepository, logger *zerolog.Logger) *distanceUC {
	l := logger.With().Str("component", "distance").Logger()
	return &distanceUC{jobs: jobs, distances: distances, log: &l}
}

func (u *distanceUC) UpdateFeed(ctx context.Context, upd *DistanceUpdate) error {
	if upd.JobID == "" {
		return &domain.ValidationError{Field: "jobid"}
	}
	// Flagging a booking without saying why is useless to the next operator.
	if upd.Flagged && upd.AdminComments == "" {
		return &domain.ValidationError{Field: "admincomment", Reason: "please add comment"}
	}

	if upd.Distance != "" || upd.TravelTime != "" {
		d := &model.Distance{JobID: upd.JobID, Distance: upd.Distance, TravelTime: upd.TravelTime}
		if err := u.distances.UpdateByJob(ctx, repository.NoTX, d); err != nil {
			return err
		}
	}

	if upd.AdminComments == "" && upd.SessionTime == "" && !upd.Flagged && !upd.ManuallyHandled && !upd.ByAdmin {
		return nil
	}
	job, err := u.jobs.FindByID(ctx, repository.NoTX, upd.JobID)
	if err != nil {
		return err
	}
	if upd.AdminComments != "" {
		job.AdminComments = upd.AdminComments
	}
	if upd.SessionTime != "" {
		job.SessionTime = upd.SessionTime
	}
	job.Flagged = upd.Flagged
	job.ManuallyHandled = upd.ManuallyHandled
	job.ByAdmin = upd.ByAdmin
	return u.jobs.Save(ctx, repository.NoTX, job)
}
