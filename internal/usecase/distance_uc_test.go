package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"interpreter-booking/internal/domain"
	"interpreter-booking/internal/domain/model"
	"interpreter-booking/internal/domain/ports/repository"
)

func TestUpdateFeed_FlagWithoutCommentRefused(t *testing.T) {
	t.Parallel()

	f := newFixture()
	log := zerolog.Nop()
	uc := NewDistanceUseCase(f.jobs, f.distances, &log)

	err := uc.UpdateFeed(context.Background(), &DistanceUpdate{JobID: "j1", Flagged: true})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestUpdateFeed_StoresDistanceAndJobFields(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	log := zerolog.Nop()
	uc := NewDistanceUseCase(f.jobs, f.distances, &log)

	job := f.addJob(&model.Job{
		ID:             uuid.NewString(),
		CustomerID:     "c1",
		Status:         model.StatusCompleted,
		JobType:        model.JobTypePaid,
		FromLanguageID: "1",
		Due:            time.Now().Add(-time.Hour),
		CreatedAt:      time.Now().Add(-2 * time.Hour),
	})

	err := uc.UpdateFeed(ctx, &DistanceUpdate{
		JobID:           job.ID,
		Distance:        "12.4 km",
		TravelTime:      "22 min",
		AdminComments:   "recalculated after venue change",
		SessionTime:     "1:10:00",
		Flagged:         true,
		ManuallyHandled: true,
	})
	if err != nil {
		t.Fatalf("UpdateFeed: %v", err)
	}

	d, err := f.distances.FindByJob(ctx, repository.NoTX, job.ID)
	if err != nil {
		t.Fatalf("distance row missing: %v", err)
	}
	if d.Distance != "12.4 km" || d.TravelTime != "22 min" {
		t.Fatalf("distance row = %+v", d)
	}

	got, _ := f.jobs.FindByID(ctx, repository.NoTX, job.ID)
	if got.AdminComments != "recalculated after venue change" || got.SessionTime != "1:10:00" {
		t.Fatalf("job fields = %+v", got)
	}
	if !got.Flagged || !got.ManuallyHandled {
		t.Fatalf("job flags = flagged %v manual %v", got.Flagged, got.ManuallyHandled)
	}
}

func TestUpdateFeed_DistanceOnlySkipsJobLoad(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	log := zerolog.Nop()
	uc := NewDistanceUseCase(f.jobs, f.distances, &log)

	// No job row exists; a pure distance update must still succeed.
	if err := uc.UpdateFeed(ctx, &DistanceUpdate{JobID: "ghost", Distance: "3 km"}); err != nil {
		t.Fatalf("UpdateFeed: %v", err)
	}
	if _, err := f.distances.FindByJob(ctx, repository.NoTX, "ghost"); err != nil {
		t.Fatalf("distance row missing: %v", err)
	}
}
