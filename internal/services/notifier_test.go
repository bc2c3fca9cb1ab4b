package services

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicdesk/internal/models"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func TestTelegramNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := newTelegramNotifier(sender, 555, time.UTC, nil)

	a := &models.Appointment{
		ClientName:      "Ana",
		ClientIDNumber:  "111",
		AppointmentAt:   time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC),
		Reason:          "cleaning",
		AttendingDoctor: "Dr. Ruiz",
	}
	n.AppointmentBooked(context.Background(), a)
	n.AppointmentCancelled(context.Background(), 9)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, int64(555), sender.sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, sender.sent[0].ParseMode)
	assert.Contains(t, sender.sent[0].Text, "05/06/2024, 10:00")
	assert.Contains(t, sender.sent[0].Text, "Doctor: Dr. Ruiz")
	assert.Contains(t, sender.sent[1].Text, "id: 9")
}

func TestTelegramNotifierSwallowsErrors(t *testing.T) {
	sender := &fakeSender{err: errors.New("bot blocked")}
	n := newTelegramNotifier(sender, 555, nil, nil)
	n.AppointmentCancelled(context.Background(), 1)
	assert.Len(t, sender.sent, 1)

	silent := newTelegramNotifier(sender, 0, nil, nil)
	silent.AppointmentCancelled(context.Background(), 2)
	assert.Len(t, sender.sent, 1)
}
