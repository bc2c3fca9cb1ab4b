package services

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"clinicdesk/internal/models"
)

// Notifier tells the clinic about booking changes. Failures are the
// notifier's problem and never fail the write.
type Notifier interface {
	AppointmentBooked(ctx context.Context, a *models.Appointment)
	AppointmentMoved(ctx context.Context, a *models.Appointment)
	AppointmentCancelled(ctx context.Context, id int64)
}

type nopNotifier struct{}

func NopNotifier() Notifier { return nopNotifier{} }

func (nopNotifier) AppointmentBooked(context.Context, *models.Appointment) {}
func (nopNotifier) AppointmentMoved(context.Context, *models.Appointment)  {}
func (nopNotifier) AppointmentCancelled(context.Context, int64)            {}

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	bot    messageSender
	chatID int64
	loc    *time.Location
	log    *zap.Logger
}

// NewTelegramNotifier authenticates the bot and posts to chatID.
func NewTelegramNotifier(token string, chatID int64, loc *time.Location, log *zap.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newTelegramNotifier(bot, chatID, loc, log), nil
}

func newTelegramNotifier(bot messageSender, chatID int64, loc *time.Location, log *zap.Logger) *TelegramNotifier {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, loc: loc, log: log}
}

func (t *TelegramNotifier) AppointmentBooked(_ context.Context, a *models.Appointment) {
	t.send("New appointment", a)
}

func (t *TelegramNotifier) AppointmentMoved(_ context.Context, a *models.Appointment) {
	t.send("Appointment updated", a)
}

func (t *TelegramNotifier) AppointmentCancelled(_ context.Context, id int64) {
	t.deliver(fmt.Sprintf("<b>Appointment cancelled</b>\nid: %d", id))
}

func (t *TelegramNotifier) send(title string, a *models.Appointment) {
	text := fmt.Sprintf("<b>%s</b>\n%s, %s\n%s (%s)\n%s",
		title,
		a.AppointmentAt.In(t.loc).Format("02/01/2006"),
		a.AppointmentAt.In(t.loc).Format(models.ClockLayout),
		a.ClientName,
		a.ClientIDNumber,
		a.Reason,
	)
	if a.AttendingDoctor != "" {
		text += "\nDoctor: " + a.AttendingDoctor
	}
	t.deliver(text)
}

func (t *TelegramNotifier) deliver(text string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Warn("[tg][send] failed", zap.Int64("chat_id", t.chatID), zap.Error(err))
	}
}
