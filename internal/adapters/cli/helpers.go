package cli

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/andrescamacho/stockcore-go/internal/adapters/persistence"
	"github.com/andrescamacho/stockcore-go/internal/domain/ports"
	"github.com/andrescamacho/stockcore-go/internal/infrastructure/config"
	"github.com/andrescamacho/stockcore-go/internal/infrastructure/database"
	"github.com/andrescamacho/stockcore-go/internal/infrastructure/logging"
)

// app bundles the pieces every command needs: configuration, logger,
// database handle, and the repository layer over it
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	repos  ports.Repos
	uow    *persistence.GormUnitOfWork
}

// newApp loads configuration and opens the database connection
func newApp() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, err
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		repos:  persistence.NewRepos(db),
		uow:    persistence.NewGormUnitOfWork(db),
	}, nil
}

// close releases the database connection and flushes buffered log entries
func (a *app) close() {
	_ = database.Close(a.db)
	_ = a.logger.Sync()
}

// truncate shortens a string to max characters for table output
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
