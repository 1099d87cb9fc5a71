package server

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/agrocms/internal/cryptox"
	"github.com/dmitrijs2005/agrocms/internal/logging"
	"github.com/dmitrijs2005/agrocms/internal/server/config"
	"github.com/dmitrijs2005/agrocms/internal/server/services"
)

// ProvisionAdmin opens the configured storage, applies migrations and
// creates username as an admin unless it already is one. It returns
// services.SeedCreated or services.SeedExists. Logs, including the audit
// record, go to w.
func ProvisionAdmin(ctx context.Context, c *config.Config, username, password string, w io.Writer) (string, error) {
	logger, err := logging.New(c.LogFormat, c.LogLevel, w)
	if err != nil {
		return "", err
	}

	repos, err := openStorage(ctx, c)
	if err != nil {
		return "", fmt.Errorf("storage init error: %w", err)
	}
	defer repos.Close()

	if err := repos.RunMigrations(ctx); err != nil {
		return "", fmt.Errorf("migrations: %w", err)
	}

	seeder := services.NewSeedService(repos, cryptox.NewScryptHasher(cryptox.DefaultScryptParams), logger)
	return seeder.SeedAdmin(ctx, username, password, "cli")
}
