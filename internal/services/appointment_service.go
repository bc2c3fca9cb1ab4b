package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"clinicdesk/internal/events"
	"clinicdesk/internal/models"
	"clinicdesk/internal/monitoring"
	"clinicdesk/internal/repositories"
	"clinicdesk/internal/scheduler"
	"clinicdesk/internal/session"
)

const entityAppointment = "appointment"

// AppointmentResult is what every scheduler mutation hands back: a notice,
// the reset form and the freshly reloaded list. LoadError is set when the
// write succeeded but the reload did not.
type AppointmentResult struct {
	Message      string                `json:"message"`
	Appointment  *models.Appointment   `json:"appointment,omitempty"`
	Form         scheduler.Form        `json:"form"`
	Appointments []*models.Appointment `json:"appointments"`
	LoadError    string                `json:"load_error,omitempty"`
}

type AppointmentService struct {
	repo     repositories.AppointmentRepository
	clients  repositories.ClientRepository
	clock    *scheduler.Clock
	log      *zap.Logger
	metrics  *monitoring.Metrics
	events   events.Publisher
	notifier Notifier
}

func NewAppointmentService(
	repo repositories.AppointmentRepository,
	clients repositories.ClientRepository,
	clock *scheduler.Clock,
	log *zap.Logger,
	metrics *monitoring.Metrics,
	publisher events.Publisher,
	notifier Notifier,
) *AppointmentService {
	if log == nil {
		log = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.Nop()
	}
	if notifier == nil {
		notifier = NopNotifier()
	}
	return &AppointmentService{
		repo:     repo,
		clients:  clients,
		clock:    clock,
		log:      log,
		metrics:  metrics,
		events:   publisher,
		notifier: notifier,
	}
}

func (s *AppointmentService) Location() *time.Location { return s.clock.Location() }

func (s *AppointmentService) Now() time.Time { return s.clock.Now() }

// List loads every appointment, earliest first.
func (s *AppointmentService) List(ctx context.Context) ([]*models.Appointment, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("[appointments][list] load failed", zap.Error(err))
		return []*models.Appointment{}, fmt.Errorf("%w: %w", ErrLoadAppointments, err)
	}
	return list, nil
}

func (s *AppointmentService) Roster(ctx context.Context) (scheduler.Roster, error) {
	roster, err := s.clients.Roster(ctx)
	if err != nil {
		s.log.Error("[appointments][roster] load failed", zap.Error(err))
		return scheduler.Roster{}, fmt.Errorf("%w: %w", ErrLoadClients, err)
	}
	return scheduler.Roster(roster), nil
}

func (s *AppointmentService) Get(ctx context.Context, id int64) (*models.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotFound
	}
	return a, err
}

// Board renders the day grid for date, or the full table. An empty date
// means today in the clinic zone.
func (s *AppointmentService) Board(ctx context.Context, date string, view scheduler.ViewMode) (scheduler.Board, error) {
	if date == "" {
		date = s.clock.Today()
	}
	if _, err := time.ParseInLocation(models.DateLayout, date, s.clock.Location()); err != nil {
		return scheduler.Board{}, ErrInvalidDate
	}
	// a failed load still renders, with no appointments
	list, err := s.List(ctx)
	if view == scheduler.ViewTable {
		return scheduler.BuildTable(list, s.clock.Location()), err
	}
	return scheduler.BuildGrid(list, date, s.clock.Location()), err
}

// DayAppointments returns the appointments on date, used by the day sheet.
func (s *AppointmentService) DayAppointments(ctx context.Context, date string) ([]*models.Appointment, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return scheduler.ForDate(list, date, s.clock.Location()), nil
}

// DefaultForm is the blank form. Cancelling an edit returns it without
// touching the store.
func (s *AppointmentService) DefaultForm() scheduler.Form {
	return scheduler.DefaultForm(s.clock)
}

// SelectClient picks idNumber on form, filling the name from the roster.
func (s *AppointmentService) SelectClient(ctx context.Context, form scheduler.Form, idNumber string) (scheduler.Form, error) {
	roster, err := s.Roster(ctx)
	if err != nil {
		return form, err
	}
	return roster.Fill(form, idNumber), nil
}

// BeginEdit loads appointment id into the form and marks it pending.
func (s *AppointmentService) BeginEdit(ctx context.Context, id int64) (scheduler.Form, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return scheduler.Form{}, err
	}
	return scheduler.FormFor(a, s.clock.Location()), nil
}

// Create books a new appointment from form, ignoring any editing id.
func (s *AppointmentService) Create(ctx context.Context, form scheduler.Form) (*AppointmentResult, error) {
	form.EditingID = nil
	return s.Submit(ctx, form)
}

// Update rewrites appointment id from form.
func (s *AppointmentService) Update(ctx context.Context, id int64, form scheduler.Form) (*AppointmentResult, error) {
	form.EditingID = &id
	return s.Submit(ctx, form)
}

// Submit inserts when the form has no editing id and updates otherwise.
func (s *AppointmentService) Submit(ctx context.Context, form scheduler.Form) (*AppointmentResult, error) {
	if form.Cost != nil && *form.Cost < 0 {
		return nil, ErrNegativeCost
	}
	a, err := form.Appointment(s.clock.Location())
	if err != nil {
		return nil, err
	}

	editing := form.Editing()
	op, outcome, notice, eventType := "create", monitoring.OutcomeCreated, "appointment created", events.AppointmentCreated
	if editing {
		op, outcome, notice, eventType = "update", monitoring.OutcomeUpdated, "appointment updated", events.AppointmentUpdated
		err = s.repo.Update(ctx, a)
	} else {
		err = s.repo.Create(ctx, a)
	}
	if err != nil {
		return nil, s.writeFailed(op, a, err)
	}

	s.metrics.ObserveWrite(entityAppointment, outcome)
	s.log.Info("[appointments]["+op+"] ok",
		zap.Int64("id", a.ID),
		zap.Time("appointment_at", a.AppointmentAt),
		zap.String("client_id_number", a.ClientIDNumber),
	)
	s.publish(ctx, eventType, a.ID, a)
	if editing {
		s.notifier.AppointmentMoved(ctx, a)
	} else {
		s.notifier.AppointmentBooked(ctx, a)
	}

	res := &AppointmentResult{Message: notice, Appointment: a, Form: s.DefaultForm()}
	s.reload(ctx, res)
	return res, nil
}

// Delete removes appointment id. Without confirmation nothing happens.
func (s *AppointmentService) Delete(ctx context.Context, id int64, confirmed bool) (*AppointmentResult, error) {
	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.metrics.ObserveWrite(entityAppointment, monitoring.OutcomeError)
		s.log.Error("[appointments][delete] failed", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrDeleteAppointment, err)
	}

	s.metrics.ObserveWrite(entityAppointment, monitoring.OutcomeDeleted)
	s.log.Info("[appointments][delete] ok", zap.Int64("id", id))
	s.publish(ctx, events.AppointmentDeleted, id, nil)
	s.notifier.AppointmentCancelled(ctx, id)

	res := &AppointmentResult{Message: "appointment deleted", Form: s.DefaultForm()}
	s.reload(ctx, res)
	return res, nil
}

func (s *AppointmentService) writeFailed(op string, a *models.Appointment, err error) error {
	fields := []zap.Field{
		zap.Time("appointment_at", a.AppointmentAt),
		zap.String("client_id_number", a.ClientIDNumber),
		zap.Error(err),
	}
	switch {
	case repositories.IsUniqueViolation(err):
		s.metrics.ObserveWrite(entityAppointment, monitoring.OutcomeConflict)
		s.log.Info("[appointments]["+op+"] slot taken", fields...)
		return fmt.Errorf("%w: %w", ErrAppointmentConflict, err)
	case repositories.IsForeignKeyViolation(err):
		s.metrics.ObserveWrite(entityAppointment, monitoring.OutcomeMissingClient)
		s.log.Info("[appointments]["+op+"] unknown client", fields...)
		return fmt.Errorf("%w: %w", ErrClientNotRegistered, err)
	case errors.Is(err, repositories.ErrNotFound):
		return ErrNotFound
	}
	s.metrics.ObserveWrite(entityAppointment, monitoring.OutcomeError)
	s.log.Error("[appointments]["+op+"] failed", fields...)
	return err
}

func (s *AppointmentService) reload(ctx context.Context, res *AppointmentResult) {
	list, err := s.List(ctx)
	res.Appointments = list
	if err != nil {
		res.LoadError = UserMessage(err)
	}
}

func (s *AppointmentService) publish(ctx context.Context, eventType string, id int64, payload interface{}) {
	e := events.Event{Type: eventType, EntityID: id, Payload: payload}
	if who, ok := session.FromContext(ctx); ok {
		e.ActorID = who.UserID
	}
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("[appointments][events] publish failed", zap.String("type", eventType), zap.Error(err))
	}
}
