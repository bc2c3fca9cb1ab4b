package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"clinicdesk/internal/events"
	"clinicdesk/internal/models"
	"clinicdesk/internal/monitoring"
	"clinicdesk/internal/repositories"
	"clinicdesk/internal/session"
)

const entityClient = "client"

// ClientResult carries a registry mutation's notice and the reloaded list.
type ClientResult struct {
	Message   string           `json:"message"`
	Client    *models.Client   `json:"client,omitempty"`
	Clients   []*models.Client `json:"clients"`
	LoadError string           `json:"load_error,omitempty"`
}

type ClientService struct {
	repo    repositories.ClientRepository
	log     *zap.Logger
	metrics *monitoring.Metrics
	events  events.Publisher
}

func NewClientService(repo repositories.ClientRepository, log *zap.Logger, metrics *monitoring.Metrics, publisher events.Publisher) *ClientService {
	if log == nil {
		log = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.Nop()
	}
	return &ClientService{repo: repo, log: log, metrics: metrics, events: publisher}
}

// List returns every client, newest first.
func (s *ClientService) List(ctx context.Context) ([]*models.Client, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("[clients][list] load failed", zap.Error(err))
		return []*models.Client{}, fmt.Errorf("%w: %w", ErrLoadClients, err)
	}
	return list, nil
}

func (s *ClientService) Roster(ctx context.Context) ([]models.RosterEntry, error) {
	roster, err := s.repo.Roster(ctx)
	if err != nil {
		s.log.Error("[clients][roster] load failed", zap.Error(err))
		return []models.RosterEntry{}, fmt.Errorf("%w: %w", ErrLoadClients, err)
	}
	return roster, nil
}

func (s *ClientService) Get(ctx context.Context, id int64) (*models.Client, error) {
	c, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotFound
	}
	return c, err
}

func (s *ClientService) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrLoadClients, err)
	}
	return n, nil
}

func (s *ClientService) Create(ctx context.Context, in models.ClientInput) (*ClientResult, error) {
	c := in.Client()
	if err := s.repo.Create(ctx, c); err != nil {
		if repositories.IsUniqueViolation(err) {
			s.metrics.ObserveWrite(entityClient, monitoring.OutcomeConflict)
			s.log.Info("[clients][create] duplicate id number", zap.String("id_number", c.IDNumber))
			return nil, fmt.Errorf("%w: %w", ErrDuplicateClient, err)
		}
		s.metrics.ObserveWrite(entityClient, monitoring.OutcomeError)
		s.log.Error("[clients][create] failed", zap.String("id_number", c.IDNumber), zap.Error(err))
		return nil, err
	}
	s.metrics.ObserveWrite(entityClient, monitoring.OutcomeCreated)
	s.log.Info("[clients][create] ok", zap.Int64("id", c.ID))
	s.publish(ctx, events.ClientCreated, c.ID, c)

	res := &ClientResult{Message: "client registered", Client: c}
	s.reload(ctx, res)
	return res, nil
}

// Update rewrites name and contact details. The id number never changes.
func (s *ClientService) Update(ctx context.Context, id int64, in models.ClientUpdate) (*ClientResult, error) {
	c := in.Client(id)
	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.metrics.ObserveWrite(entityClient, monitoring.OutcomeError)
		s.log.Error("[clients][update] failed", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	s.metrics.ObserveWrite(entityClient, monitoring.OutcomeUpdated)
	s.log.Info("[clients][update] ok", zap.Int64("id", id))
	s.publish(ctx, events.ClientUpdated, id, c)

	res := &ClientResult{Message: "client updated", Client: c}
	s.reload(ctx, res)
	return res, nil
}

// Delete removes the client only. Appointments keep their snapshot of the
// client's name and id number.
func (s *ClientService) Delete(ctx context.Context, id int64, confirmed bool) (*ClientResult, error) {
	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.metrics.ObserveWrite(entityClient, monitoring.OutcomeError)
		s.log.Error("[clients][delete] failed", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrDeleteClient, err)
	}
	s.metrics.ObserveWrite(entityClient, monitoring.OutcomeDeleted)
	s.log.Info("[clients][delete] ok", zap.Int64("id", id))
	s.publish(ctx, events.ClientDeleted, id, nil)

	res := &ClientResult{Message: "client deleted"}
	s.reload(ctx, res)
	return res, nil
}

func (s *ClientService) reload(ctx context.Context, res *ClientResult) {
	list, err := s.List(ctx)
	res.Clients = list
	if err != nil {
		res.LoadError = UserMessage(err)
	}
}

func (s *ClientService) publish(ctx context.Context, eventType string, id int64, payload interface{}) {
	e := events.Event{Type: eventType, EntityID: id, Payload: payload}
	if who, ok := session.FromContext(ctx); ok {
		e.ActorID = who.UserID
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("[clients][events] publish failed", zap.String("type", eventType), zap.Error(err))
	}
}
