package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/kubecostopt/costopt-backend/internal/config"
	"github.com/kubecostopt/costopt-backend/internal/logging"
)

var db *gorm.DB = nil

func initDB() {
	cfg := config.GetConfig()
	log := logging.GetLogger()
	dsn := fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%s sslmode=%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBHost, cfg.DBPort, cfg.DBssl,
	)

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal(err)
	}

	db = conn
	log.Info("DB initialization complete")
}

func GetDB() *gorm.DB {
	if db == nil {
		initDB()
	}
	return db
}
