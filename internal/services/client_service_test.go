package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicdesk/internal/models"
	"clinicdesk/internal/scheduler"
)

func TestClientService_CreateAndDuplicate(t *testing.T) {
	svc := NewClientService(newFakeClientRepo(), nil, nil, nil)
	ctx := context.Background()

	res, err := svc.Create(ctx, models.ClientInput{IDNumber: " 111 ", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "111", res.Client.IDNumber)
	assert.Len(t, res.Clients, 1)

	_, err = svc.Create(ctx, models.ClientInput{IDNumber: "111", Name: "Other"})
	assert.ErrorIs(t, err, ErrDuplicateClient)
	assert.Equal(t, "A client with this id number already exists.", UserMessage(err))
}

func TestClientService_UpdateKeepsIDNumber(t *testing.T) {
	repo := newFakeClientRepo(models.Client{IDNumber: "111", Name: "Ana"})
	svc := NewClientService(repo, nil, nil, nil)

	res, err := svc.Update(context.Background(), 1, models.ClientUpdate{Name: "Ana María", Phone: "600"})
	require.NoError(t, err)
	require.Len(t, res.Clients, 1)
	assert.Equal(t, "111", res.Clients[0].IDNumber)
	assert.Equal(t, "Ana María", res.Clients[0].Name)

	_, err = svc.Update(context.Background(), 42, models.ClientUpdate{Name: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientService_DeleteLeavesAppointments(t *testing.T) {
	clients := newFakeClientRepo(models.Client{IDNumber: "111", Name: "Ana"})
	appts := newFakeAppointmentRepo("111")
	scheduling := NewAppointmentService(appts, clients, scheduler.FixedClock(clinicNow, time.UTC), nil, nil, nil, nil)
	registry := NewClientService(clients, nil, nil, nil)
	ctx := context.Background()

	_, err := scheduling.Submit(ctx, bookingForm("2024-06-05", "10:00"))
	require.NoError(t, err)

	_, err = registry.Delete(ctx, 1, false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Len(t, clients.rows, 1)

	res, err := registry.Delete(ctx, 1, true)
	require.NoError(t, err)
	assert.Empty(t, res.Clients)

	list, err := scheduling.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ana", list[0].ClientName)
	assert.Equal(t, "111", list[0].ClientIDNumber)
}

func TestClientService_DeleteFailure(t *testing.T) {
	repo := newFakeClientRepo(models.Client{IDNumber: "111", Name: "Ana"})
	repo.delErr = errors.New("deadlock detected")
	svc := NewClientService(repo, nil, nil, nil)

	_, err := svc.Delete(context.Background(), 1, true)
	assert.ErrorIs(t, err, ErrDeleteClient)
	assert.Equal(t, "Failed to delete client.", UserMessage(err))
}

func TestClientService_ListFailure(t *testing.T) {
	repo := newFakeClientRepo()
	repo.listErr = errors.New("connection refused")
	svc := NewClientService(repo, nil, nil, nil)

	list, err := svc.List(context.Background())
	assert.ErrorIs(t, err, ErrLoadClients)
	assert.Empty(t, list)
	assert.Equal(t, "Failed to load clients.", UserMessage(err))
}

func TestOverviewService_Get(t *testing.T) {
	clients := newFakeClientRepo(models.Client{IDNumber: "111", Name: "Ana"}, models.Client{IDNumber: "222", Name: "Luis"})
	appts := newFakeAppointmentRepo("111")
	clock := scheduler.FixedClock(clinicNow, time.UTC)
	scheduling := NewAppointmentService(appts, clients, clock, nil, nil, nil, nil)
	ctx := context.Background()

	for _, f := range []scheduler.Form{
		bookingForm("2024-06-05", "10:00"),
		bookingForm("2024-06-05", "15:00"),
		bookingForm("2024-06-06", "09:00"),
		bookingForm("2024-06-08", "10:00"),
	} {
		_, err := scheduling.Submit(ctx, f)
		require.NoError(t, err)
	}

	o, err := NewOverviewService(appts, clients, clock, nil).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, o.Stats.TotalAppointments)
	assert.Equal(t, 2, o.Stats.RegisteredClients)
	assert.Equal(t, 3, o.Stats.ThisWeek)
	require.Len(t, o.Upcoming, 3)
	assert.Equal(t, "today", o.Upcoming[0].Label)
	assert.Equal(t, "tomorrow", o.Upcoming[1].Label)
}

func TestOverviewService_LoadFailure(t *testing.T) {
	appts := newFakeAppointmentRepo()
	appts.listErr = errors.New("boom")
	_, err := NewOverviewService(appts, newFakeClientRepo(), scheduler.FixedClock(clinicNow, time.UTC), nil).Get(context.Background())
	assert.ErrorIs(t, err, ErrLoadAppointments)
}
