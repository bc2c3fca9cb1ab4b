// @title           clinicdesk API
// @version         1.0
// @description     Clinic back office: client registry, appointment scheduler and overview.
// @BasePath        /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"clinicdesk/internal/app"
)

func main() {
	cfgPath := flag.String("config", "", "path to config.yaml (defaults to $CONFIG_PATH or config/config.yaml)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	if err := app.Run(*cfgPath); err != nil {
		log.Fatal(err)
	}
}
