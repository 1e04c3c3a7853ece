package application

import "interpreter-booking/internal/usecase"

// App composes the booking use cases behind a single handle, so embedding
// callers (a transport layer, the sweep worker) take one dependency instead
// of six.
type App struct {
	Booking   usecase.BookingUseCase
	Lifecycle usecase.LifecycleUseCase
	Matching  usecase.MatchingUseCase
	Notifier  usecase.NotificationDispatcher
	Sweep     usecase.SweepUseCase
	Distance  usecase.DistanceUseCase
}

func New(
	booking usecase.BookingUseCase,
	lifecycle usecase.LifecycleUseCase,
	matching usecase.MatchingUseCase,
	notifier usecase.NotificationDispatcher,
	sweep usecase.SweepUseCase,
	distance usecase.DistanceUseCase,
) *App {
	return &App{
		Booking:   booking,
		Lifecycle: lifecycle,
		Matching:  matching,
		Notifier:  notifier,
		Sweep:     sweep,
		Distance:  distance,
	}
}
