package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"clinicdesk/internal/overview"
	"clinicdesk/internal/repositories"
	"clinicdesk/internal/scheduler"
)

type OverviewService struct {
	appointments repositories.AppointmentRepository
	clients      repositories.ClientRepository
	clock        *scheduler.Clock
	log          *zap.Logger
}

func NewOverviewService(appointments repositories.AppointmentRepository, clients repositories.ClientRepository, clock *scheduler.Clock, log *zap.Logger) *OverviewService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OverviewService{appointments: appointments, clients: clients, clock: clock, log: log}
}

// Get recomputes the dashboard from both lists.
func (s *OverviewService) Get(ctx context.Context) (overview.Overview, error) {
	list, err := s.appointments.List(ctx)
	if err != nil {
		s.log.Error("[overview] load appointments failed", zap.Error(err))
		return overview.Overview{}, fmt.Errorf("%w: %w", ErrLoadAppointments, err)
	}
	count, err := s.clients.Count(ctx)
	if err != nil {
		s.log.Error("[overview] count clients failed", zap.Error(err))
		return overview.Overview{}, fmt.Errorf("%w: %w", ErrLoadClients, err)
	}
	return overview.Summarize(list, count, s.clock.Now(), s.clock.Location()), nil
}
