package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	_ "clinicdesk/docs"
	"clinicdesk/internal/config"
	"clinicdesk/internal/events"
	"clinicdesk/internal/handlers"
	"clinicdesk/internal/logger"
	"clinicdesk/internal/middleware"
	"clinicdesk/internal/monitoring"
	"clinicdesk/internal/pdf"
	"clinicdesk/internal/realtime"
	"clinicdesk/internal/repositories"
	"clinicdesk/internal/routes"
	"clinicdesk/internal/scheduler"
	"clinicdesk/internal/services"
	"clinicdesk/internal/session"
)

const shutdownTimeout = 10 * time.Second

func Run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	flush, err := monitoring.InitSentry(cfg.Sentry.DSN, cfg.Sentry.Environment, cfg.Sentry.Release)
	if err != nil {
		log.Warn("[app] sentry disabled", zap.Error(err))
		flush = func() {}
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("[app] close db", zap.Error(err))
		}
	}()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}

	loc := cfg.Location()
	clock := scheduler.NewClock(loc)
	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	// === Side channels ===
	denylist := session.NewMemoryDenylist()
	if cfg.Redis.Addr != "" {
		rdb, err := session.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("[app] redis unavailable, using in-memory deny-list", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			defer rdb.Close()
			denylist = session.NewRedisDenylist(rdb)
		}
	}

	hub := realtime.NewHub(log)
	publisher := events.Multi(hub)
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.Multi(hub, events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		log.Info("[app] publishing change events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("[app] close publisher", zap.Error(err))
		}
	}()

	var notifier services.Notifier = services.NopNotifier()
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		tg, err := services.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, loc, log)
		if err != nil {
			log.Warn("[app] telegram notifier disabled", zap.Error(err))
		} else {
			notifier = tg
		}
	}

	tracker := session.NewTracker()
	defer tracker.Subscribe(sessionObserver(log, metrics, publisher))()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)
	clientRepo := repositories.NewClientRepository(db)
	appointmentRepo := repositories.NewAppointmentRepository(db, loc)

	// === Services ===
	authService := services.NewAuthService(userRepo, denylist, tracker, cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, log)
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Clinic.Name,
	)
	resetService := services.NewPasswordResetService(userRepo, resetRepo, emailService, authService, log)
	clientService := services.NewClientService(clientRepo, log, metrics, publisher)
	appointmentService := services.NewAppointmentService(appointmentRepo, clientRepo, clock, log, metrics, publisher, notifier)
	overviewService := services.NewOverviewService(appointmentRepo, clientRepo, clock, log)

	// === Handlers ===
	h := routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService, resetService, tracker),
		Clients:      handlers.NewClientHandler(clientService),
		Appointments: handlers.NewAppointmentHandler(appointmentService, pdf.NewDaySheetGenerator(cfg.Clinic.Name, cfg.PDF.FontPath)),
		Overview:     handlers.NewOverviewHandler(overviewService),
		Feed:         handlers.NewFeedHandler(hub),
	}

	// === Gin ===
	router := gin.New()
	router.Use(middleware.RequestLogger(log, metrics))
	router.Use(middleware.SentryMiddleware())
	router.Use(corsMiddleware())
	routes.SetupRoutes(router, h, authService, metrics)

	// === Run ===
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("[app] listening", zap.String("addr", srv.Addr), zap.String("clinic", cfg.Clinic.Name), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("[app] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sessionObserver fans session transitions out to the log, the metrics and
// the change event stream.
func sessionObserver(log *zap.Logger, metrics *monitoring.Metrics, publisher events.Publisher) session.Observer {
	return func(t session.Transition) {
		log.Info("[session] transition",
			zap.String("from", string(t.From)),
			zap.String("to", string(t.To)),
			zap.Int64("user_id", t.Identity.UserID),
		)
		metrics.ObserveSession(string(t.To))

		eventType := events.SessionSignedIn
		if t.To == session.StateSignedOut {
			eventType = events.SessionSignedOut
		}
		e := events.Event{Type: eventType, EntityID: t.Identity.UserID, ActorID: t.Identity.UserID, At: t.At}
		if err := publisher.Publish(context.Background(), e); err != nil {
			log.Warn("[session][events] publish failed", zap.Error(err))
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
