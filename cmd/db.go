package cmd

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kubecostopt/costopt-backend/internal/config"
)

var migrateCmd = &cobra.Command{Use: "migrate", Short: "migrate database"}

func migrationInstance() *migrate.Migrate {
	cfg := config.GetConfig()
	db, err := sql.Open("pgx", fmt.Sprintf("postgres://%s:%s@%s:%s/%s", cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		fmt.Printf("Unable to get *sql.DB: %v\n", err)
		os.Exit(1)
	}
	driver, err := pgxv5.WithInstance(db, &pgxv5.Config{})
	if err != nil {
		fmt.Printf("Unable to get db driver: %v\n", err)
		os.Exit(1)
	}
	m, err := migrate.NewWithDatabaseInstance("file://./migrations", cfg.DBName, driver)
	if err != nil {
		fmt.Printf("Unable to get migration instance: %v\n", err)
		os.Exit(1)
	}
	return m
}

var migrateUp = &cobra.Command{
	Use:   "up",
	Short: "Forward database migration",
	Long:  "Forward database migration",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Forward database migration")
		if err := migrationInstance().Up(); err != nil && err != migrate.ErrNoChange {
			fmt.Println(err)
		}
	},
}

var migratedown = &cobra.Command{
	Use:   "down",
	Short: "Reverse database migration",
	Long:  "Reverse database migration",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Reverse database migration")
		if err := migrationInstance().Steps(-1); err != nil {
			fmt.Println(err)
		}
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "seed database with demo clusters and telemetry",
	Long:  "seed database with demo clusters and telemetry",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("seed database")
		if err := seedDemoData(); err != nil {
			fmt.Printf("Unable to seed database: %v\n", err)
			os.Exit(1)
		}
	},
}

var dbCmd = &cobra.Command{Use: "db", Short: "Use to migrate or seed database"}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(migrateCmd)
	dbCmd.AddCommand(seedCmd)
	migrateCmd.AddCommand(migrateUp)
	migrateCmd.AddCommand(migratedown)
}
