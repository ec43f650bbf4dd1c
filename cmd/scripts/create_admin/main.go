// Command create_admin registers a back-office user in MongoDB.
//
//	go run ./cmd/scripts/create_admin -email ops@example.com
//
// The password is read from the terminal unless -password is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ArowuTest/tonlotto-backend/internal/config"
	mongorepo "github.com/ArowuTest/tonlotto-backend/internal/repositories/mongodb"
	"github.com/ArowuTest/tonlotto-backend/internal/services"
	"github.com/ArowuTest/tonlotto-backend/pkg/mongodb"
	"golang.org/x/term"
)

func main() {
	email := flag.String("email", "", "admin email (required)")
	password := flag.String("password", "", "admin password; prompted for when empty")
	role := flag.String("role", services.RoleAdmin, "admin role")
	flag.Parse()

	if strings.TrimSpace(*email) == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Storage.Driver != "mongodb" {
		log.Fatalf("Storage driver is %q; admins can only be created in mongodb", cfg.Storage.Driver)
	}

	pw := *password
	if pw == "" {
		pw, err = readPassword()
		if err != nil {
			log.Fatalf("Failed to read password: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongodb.NewClient(ctx, cfg.MongoDB.URI, cfg.MongoDB.ConnectTimeout)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	db := client.Database(cfg.MongoDB.Database)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	auth := services.NewAuthService(mongorepo.NewAdminUserRepository(db), cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)
	admin, err := auth.CreateAdmin(ctx, *email, pw, *role)
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}

	fmt.Printf("Created admin %s (%s) with role %s\n", admin.Email, admin.ID.Hex(), admin.Role)
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal; pass -password")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
