// Command devtool mints access tokens and provisions users for local testing.
//
//	devtool token -user emp-001 -department sales
//	devtool seed-user -id emp-001 -name "Sari" -department Sales
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cmlabs-hris/attendance-backend-go/internal/config"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-backend-go/internal/repository/postgresql"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: devtool <token|seed-user> [flags]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "token":
		err = issueToken(cfg, os.Args[2:])
	case "seed-user":
		err = seedUser(cfg, os.Args[2:])
	default:
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}
	if err != nil {
		slog.Error("devtool failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func issueToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	userID := fs.String("user", "", "user id to put in the user_id claim")
	dept := fs.String("department", "", "optional department claim")
	if err := fs.Parse(args); err != nil {
		return err
	}

	svc, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	if err != nil {
		return err
	}
	token, _, err := svc.GenerateAccessToken(*userID, *dept)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func seedUser(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("seed-user", flag.ContinueOnError)
	id := fs.String("id", "", "user id")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	dept := fs.String("department", "general", "department name")
	inactive := fs.Bool("inactive", false, "mark the user inactive")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *name == "" {
		return fmt.Errorf("-id and -name are required")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{MaxConns: 2, MinConns: 1})
	if err != nil {
		return err
	}
	defer db.Close()

	u, err := postgresql.NewUserRepository(db).Upsert(ctx, user.User{
		ID:          *id,
		DisplayName: *name,
		Email:       *email,
		Department:  *dept,
		IsActive:    !*inactive,
	})
	if err != nil {
		return err
	}

	if _, known := u.DepartmentKey(); !known {
		slog.Warn("department is not in the catalogue, the default shift will apply", "department", u.Department)
	}
	slog.Info("user provisioned", "user_id", u.ID, "department", u.Department, "active", u.IsActive)
	return nil
}
