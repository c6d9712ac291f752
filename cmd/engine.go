package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/comedorlabs/suministro/internal/cloudwriter"
	"github.com/comedorlabs/suministro/internal/engine"
	"github.com/comedorlabs/suministro/internal/models"
	"github.com/comedorlabs/suministro/internal/notify"
	"github.com/comedorlabs/suministro/internal/repositories/postgres"
)

// buildEngine assembles the engine and its collaborators from configuration.
// The returned cleanup closes the pool and the output sink.
func buildEngine(ctx context.Context, cfg *models.Config) (*engine.Engine, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var gateway notify.Gateway
	if cfg.Telegram.BotToken != "" {
		gateway, err = notify.NewTelegramGateway(cfg.Telegram.BotToken)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
	} else {
		log.Printf("No Telegram bot token configured, alerts will not be delivered")
	}

	output, err := engine.DetermineOutputDestination(cfg)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}

	var archive cloudwriter.CloudWriterFactory
	if cfg.Archive.Enabled {
		archive, err = cloudwriter.NewS3WriterFactory(cfg.Archive.Region)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to init report archive: %w", err)
		}
	}

	eng := engine.New(cfg, engine.Deps{
		Periods:    postgres.NewPeriodRepository(pool),
		Menu:       postgres.NewMenuRepository(pool),
		Inventory:  postgres.NewInventoryRepository(pool),
		Suppliers:  postgres.NewSupplierRepository(pool),
		Orders:     postgres.NewOrderRepository(pool),
		Alerts:     postgres.NewAlertRepository(pool),
		Attendance: postgres.NewAttendanceRepository(pool),
		Gateway:    gateway,
		Output:     output,
		Archive:    archive,
	})

	cleanup := func() {
		if err := output.Close(); err != nil {
			log.Printf("Error closing output: %v", err)
		}
		pool.Close()
	}
	return eng, cleanup, nil
}
