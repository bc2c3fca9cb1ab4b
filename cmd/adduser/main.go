// Command adduser creates a staff account that can sign in.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"clinicdesk/internal/config"
	"clinicdesk/internal/logger"
	"clinicdesk/internal/repositories"
	"clinicdesk/internal/services"
)

func main() {
	cfgPath := flag.String("config", "", "path to config.yaml")
	email := flag.String("email", "", "staff email")
	name := flag.String("name", "", "full name")
	password := flag.String("password", "", "initial password (min 6 characters)")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("-email and -password are required")
	}

	_ = godotenv.Load()
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zlog, err := logger.New(cfg.Log.Level, "console")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		zlog.Fatal("[adduser] open db", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	users := repositories.NewUserRepository(db)
	auth := services.NewAuthService(users, nil, nil, cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, zlog)
	var emails services.EmailService
	if cfg.Email.SMTPHost != "" {
		emails = services.NewEmailService(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPUser, cfg.Email.SMTPPassword, cfg.Email.FromEmail, cfg.Clinic.Name)
	}
	svc := services.NewUserService(users, emails, auth, zlog)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	u, err := svc.CreateWithPassword(ctx, *email, *name, *password)
	if err != nil {
		zlog.Fatal("[adduser] create failed", zap.String("email", *email), zap.Error(err))
	}
	zlog.Info("[adduser] created", zap.Int64("id", u.ID), zap.String("email", u.Email))
}
