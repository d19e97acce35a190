package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/wolfman30/barber-availability/cmd/mainconfig"
	"github.com/wolfman30/barber-availability/internal/app/bootstrap"
	"github.com/wolfman30/barber-availability/internal/availability"
	appconfig "github.com/wolfman30/barber-availability/internal/config"
	"github.com/wolfman30/barber-availability/internal/store"
	"github.com/wolfman30/barber-availability/pkg/logging"
)

// fixtureWriter is implemented by DynamoStore and PostgresStore.
type fixtureWriter interface {
	PutBusiness(ctx context.Context, b availability.Business) error
	PutService(ctx context.Context, svc availability.Service) error
	PutStaffMember(ctx context.Context, m availability.StaffMember) error
	PutAppointment(ctx context.Context, businessID string, a availability.Appointment) error
}

func main() {
	_ = mainconfig.LoadDotEnv()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	path := cfg.FixturePath
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	fixture, err := store.LoadFixture(path)
	if err != nil {
		logger.Error("load fixture", "path", path, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	writer, closeWriter, err := openWriter(ctx, cfg)
	if err != nil {
		logger.Error("open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer closeWriter()

	if err := seed(ctx, writer, fixture, logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func openWriter(ctx context.Context, cfg *appconfig.Config) (fixtureWriter, func(), error) {
	noop := func() {}
	switch cfg.StoreBackend {
	case appconfig.BackendDynamoDB:
		client, err := mainconfig.NewDynamoDBClient(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return store.NewDynamoStore(client, cfg.AppointmentTableName, logging.Default()), noop, nil
	case appconfig.BackendPostgres:
		pool, err := bootstrap.BuildPostgresPool(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return store.NewPostgresStore(pool), pool.Close, nil
	default:
		return nil, noop, fmt.Errorf("seed: backend %q cannot be seeded", cfg.StoreBackend)
	}
}

// seed writes parents before children so foreign keys hold in Postgres.
func seed(ctx context.Context, w fixtureWriter, f *store.Fixture, logger *logging.Logger) error {
	for _, b := range f.Businesses {
		if err := w.PutBusiness(ctx, b); err != nil {
			return fmt.Errorf("seed: business %s: %w", b.ID, err)
		}
	}
	for _, svc := range f.Services {
		if err := w.PutService(ctx, svc); err != nil {
			return fmt.Errorf("seed: service %s: %w", svc.ID, err)
		}
	}
	for _, m := range f.Staff {
		if err := w.PutStaffMember(ctx, m); err != nil {
			return fmt.Errorf("seed: staff %s: %w", m.ID, err)
		}
	}
	for _, a := range f.Appointments {
		if err := w.PutAppointment(ctx, a.BusinessID, a.Appointment); err != nil {
			return fmt.Errorf("seed: appointment %s: %w", a.ID, err)
		}
	}
	logger.Info("fixture seeded",
		"businesses", len(f.Businesses),
		"services", len(f.Services),
		"staff", len(f.Staff),
		"appointments", len(f.Appointments),
	)
	return nil
}
