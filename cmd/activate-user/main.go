// Command activate-user marks an account active by username or email.
//
//	activate-user <username|email>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/SAP-F-2025/school-service/internal/config"
	"github.com/SAP-F-2025/school-service/internal/events"
	"github.com/SAP-F-2025/school-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/school-service/internal/services"
	"github.com/SAP-F-2025/school-service/pkg"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s <username|email>\n", os.Args[0])
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(identifier string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}

	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{DB: db})
	if err := repoManager.Initialize(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer repoManager.Shutdown(ctx)

	pubSub, err := events.NewPubSub(cfg.Kafka, logger)
	if err != nil {
		return err
	}
	defer pubSub.Close()

	activation := services.NewActivationService(
		repoManager.GetRepository(),
		logger,
		nil,
		events.NewWatermillPublisher(pubSub.Publisher, logger),
	)

	user, err := activation.ActivateByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return fmt.Errorf("user with username or email %q does not exist", identifier)
		}
		return err
	}

	fmt.Printf("User %q has been activated successfully.\n", user.Username)
	return nil
}
