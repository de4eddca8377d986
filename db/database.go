package db

import (
	"database/sql"
	"fmt"
	"log"

	"ajnadfm/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createNasheedsTable(); err != nil {
		return err
	}
	if err := createFavoritesTable(); err != nil {
		return err
	}
	if err := createAdminsTable(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func createNasheedsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS nasheeds (
		id VARCHAR(36) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		artist VARCHAR(255) NOT NULL,
		duration INT NULL,
		file_url VARCHAR(1024) NOT NULL,
		cover_url VARCHAR(1024) NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_nasheeds_created_at (created_at)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create nasheeds table: %w", err)
	}
	return nil
}

func createFavoritesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS favorites (
		id VARCHAR(36) PRIMARY KEY,
		user_id BIGINT NOT NULL,
		nasheed_id VARCHAR(512) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY idx_user_nasheed (user_id, nasheed_id)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create favorites table: %w", err)
	}
	return nil
}

func createAdminsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS admins (
		email VARCHAR(255) PRIMARY KEY
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create admins table: %w", err)
	}
	return nil
}
