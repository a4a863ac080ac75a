package main

import (
	"context"
	"flag"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/faridz/amlak/internal/auth"
	"github.com/faridz/amlak/internal/database"
	"github.com/faridz/amlak/internal/server"
)

// Seeds the initial admin account. Self-service registration always produces
// plain users, so the first admin has to come from here.
func main() {
	username := flag.String("username", "admin", "admin username")
	password := flag.String("password", "", "admin password (required)")
	name := flag.String("name", "System Administrator", "admin display name")
	phone := flag.String("phone", "09123456789", "admin phone number")
	flag.Parse()

	if *password == "" {
		log.Fatal("-password is required")
	}

	if os.Getenv("APP_ENV") == "" {
		os.Setenv("APP_ENV", "development")
	}

	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := server.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	manager, err := database.NewManager(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	repo := auth.NewRepository(manager.DB())

	if _, err := repo.GetUserByUsername(ctx, *username); err == nil {
		log.Printf("Admin user already exists: %s", *username)
		return
	}

	cost := cfg.Auth.BcryptCost
	if cost <= 0 {
		cost = 12
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(*password), cost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	admin := &auth.User{
		Name:         *name,
		Phone:        *phone,
		Username:     *username,
		PasswordHash: string(hash),
		Role:         auth.RoleAdmin,
		IsActive:     true,
	}
	if err := repo.CreateUser(ctx, admin); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	log.Printf("Admin user created successfully (id=%d, username=%s)", admin.ID, admin.Username)
}
