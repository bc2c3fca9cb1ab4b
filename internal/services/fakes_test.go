package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"clinicdesk/internal/models"
	"clinicdesk/internal/repositories"
)

type fakeAppointmentRepo struct {
	mu       sync.Mutex
	rows     map[int64]*models.Appointment
	clients  map[string]bool
	nextID   int64
	writes   int
	reads    int
	listErr  error
	writeErr error
}

func newFakeAppointmentRepo(clientIDs ...string) *fakeAppointmentRepo {
	r := &fakeAppointmentRepo{rows: map[int64]*models.Appointment{}, clients: map[string]bool{}}
	for _, id := range clientIDs {
		r.clients[id] = true
	}
	return r
}

func (r *fakeAppointmentRepo) check(a *models.Appointment) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	for id, row := range r.rows {
		if id != a.ID && row.AppointmentAt.Equal(a.AppointmentAt) {
			return &repositories.StoreError{Op: "write appointment", Kind: repositories.KindUnique, Code: "23505", Message: "duplicate key value violates unique constraint"}
		}
	}
	if !r.clients[a.ClientIDNumber] {
		return &repositories.StoreError{Op: "write appointment", Kind: repositories.KindForeignKey, Code: "23503", Message: "client does not exist"}
	}
	return nil
}

func (r *fakeAppointmentRepo) Create(_ context.Context, a *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	if err := r.check(a); err != nil {
		return err
	}
	r.nextID++
	a.ID = r.nextID
	n := r.nextID
	a.AppointmentNumber = &n
	a.CreatedAt = time.Now()
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, a *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	existing, ok := r.rows[a.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if err := r.check(a); err != nil {
		return err
	}
	cp := *a
	cp.AppointmentNumber = existing.AppointmentNumber
	cp.CreatedAt = existing.CreatedAt
	r.rows[a.ID] = &cp
	return nil
}

func (r *fakeAppointmentRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	if r.writeErr != nil {
		return r.writeErr
	}
	if _, ok := r.rows[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeAppointmentRepo) GetByID(_ context.Context, id int64) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	a, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAppointmentRepo) List(_ context.Context) ([]*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*models.Appointment, 0, len(r.rows))
	for _, a := range r.rows {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppointmentAt.Before(out[j].AppointmentAt) })
	return out, nil
}

func (r *fakeAppointmentRepo) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads + r.writes
}

type fakeClientRepo struct {
	rows    map[int64]*models.Client
	nextID  int64
	writes  int
	listErr error
	delErr  error
}

func newFakeClientRepo(clients ...models.Client) *fakeClientRepo {
	r := &fakeClientRepo{rows: map[int64]*models.Client{}}
	for _, c := range clients {
		c := c
		r.nextID++
		c.ID = r.nextID
		r.rows[c.ID] = &c
	}
	return r
}

func (r *fakeClientRepo) Create(_ context.Context, c *models.Client) error {
	r.writes++
	for _, row := range r.rows {
		if row.IDNumber == c.IDNumber {
			return &repositories.StoreError{Op: "create client", Kind: repositories.KindUnique, Code: "23505", Message: "duplicate key value"}
		}
	}
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now().Add(time.Duration(r.nextID) * time.Second)
	cp := *c
	r.rows[c.ID] = &cp
	return nil
}

func (r *fakeClientRepo) Update(_ context.Context, c *models.Client) error {
	r.writes++
	row, ok := r.rows[c.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	row.Name, row.Phone, row.Email, row.Address = c.Name, c.Phone, c.Email, c.Address
	return nil
}

func (r *fakeClientRepo) Delete(_ context.Context, id int64) error {
	r.writes++
	if r.delErr != nil {
		return r.delErr
	}
	if _, ok := r.rows[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeClientRepo) GetByID(_ context.Context, id int64) (*models.Client, error) {
	c, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClientRepo) List(_ context.Context) ([]*models.Client, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := []*models.Client{}
	for _, c := range r.rows {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeClientRepo) Roster(_ context.Context) ([]models.RosterEntry, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := []models.RosterEntry{}
	for _, c := range r.rows {
		out = append(out, models.RosterEntry{IDNumber: c.IDNumber, Name: c.Name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeClientRepo) Count(_ context.Context) (int, error) {
	if r.listErr != nil {
		return 0, r.listErr
	}
	return len(r.rows), nil
}

type fakeUserRepo struct {
	byID        map[int64]*models.User
	cleared     []int64
	passwordSet map[int64]string
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{byID: map[int64]*models.User{}, passwordSet: map[int64]string{}}
	for _, u := range users {
		r.byID[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return &repositories.StoreError{Kind: repositories.KindUnique, Code: "23505", Message: "duplicate email"}
		}
	}
	u.ID = int64(len(r.byID) + 1)
	r.byID[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := r.byID[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, userID int64, hash string) error {
	u, ok := r.byID[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.PasswordHash = hash
	r.passwordSet[userID] = hash
	return nil
}

func (r *fakeUserRepo) UpdateRefresh(_ context.Context, userID int64, token string, expiresAt time.Time) error {
	u, ok := r.byID[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.RefreshToken = &token
	u.RefreshExpiresAt = &expiresAt
	u.RefreshRevoked = false
	return nil
}

func (r *fakeUserRepo) GetByRefreshToken(_ context.Context, token string) (*models.User, error) {
	for _, u := range r.byID {
		if u.RefreshToken != nil && *u.RefreshToken == token {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) ClearRefresh(_ context.Context, userID int64) error {
	u, ok := r.byID[userID]
	if !ok {
		return errors.New("no such user")
	}
	u.RefreshToken = nil
	u.RefreshExpiresAt = nil
	u.RefreshRevoked = true
	r.cleared = append(r.cleared, userID)
	return nil
}

type fakeResetRepo struct {
	rows map[string]*models.PasswordReset
}

func (r *fakeResetRepo) Create(_ context.Context, userID int64, token string, expiresAt time.Time) (*models.PasswordReset, error) {
	if r.rows == nil {
		r.rows = map[string]*models.PasswordReset{}
	}
	pr := &models.PasswordReset{ID: int64(len(r.rows) + 1), UserID: userID, Token: token, ExpiresAt: expiresAt}
	r.rows[token] = pr
	return pr, nil
}

func (r *fakeResetRepo) GetByToken(_ context.Context, token string) (*models.PasswordReset, error) {
	if pr, ok := r.rows[token]; ok {
		cp := *pr
		return &cp, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeResetRepo) MarkUsed(_ context.Context, id int64) error {
	for _, pr := range r.rows {
		if pr.ID == id {
			if pr.UsedAt != nil {
				return repositories.ErrNotFound
			}
			now := time.Now()
			pr.UsedAt = &now
		}
	}
	return nil
}

type fakeEmails struct {
	resets   map[string]string
	welcomes []string
}

func (f *fakeEmails) SendWelcomeEmail(email, _ string) error {
	f.welcomes = append(f.welcomes, email)
	return nil
}

func (f *fakeEmails) SendPasswordResetEmail(email, token string) error {
	if f.resets == nil {
		f.resets = map[string]string{}
	}
	f.resets[email] = token
	return nil
}

type recordingNotifier struct {
	booked, moved []*models.Appointment
	cancelled     []int64
}

func (n *recordingNotifier) AppointmentBooked(_ context.Context, a *models.Appointment) {
	n.booked = append(n.booked, a)
}

func (n *recordingNotifier) AppointmentMoved(_ context.Context, a *models.Appointment) {
	n.moved = append(n.moved, a)
}

func (n *recordingNotifier) AppointmentCancelled(_ context.Context, id int64) {
	n.cancelled = append(n.cancelled, id)
}
