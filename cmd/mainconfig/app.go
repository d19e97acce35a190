package mainconfig

import (
	"context"
	"fmt"

	"github.com/wolfman30/barber-availability/internal/app/bootstrap"
	appconfig "github.com/wolfman30/barber-availability/internal/config"
	"github.com/wolfman30/barber-availability/pkg/logging"
)

// BuildApp creates the external clients the configured backend needs and wires
// the availability service. Callers own the returned App and must Close it.
func BuildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*bootstrap.App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var deps bootstrap.Deps
	if cfg.StoreBackend == appconfig.BackendDynamoDB {
		client, err := NewDynamoDBClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("mainconfig: dynamodb client: %w", err)
		}
		deps.Dynamo = client
	}
	deps.Redis = bootstrap.BuildRedisClient(ctx, cfg, logger, true)

	app, err := bootstrap.NewApp(ctx, cfg, deps, logger)
	if err != nil {
		if deps.Redis != nil {
			_ = deps.Redis.Close()
		}
		return nil, err
	}
	if deps.Redis != nil {
		app.AddCloser(func() { _ = deps.Redis.Close() })
	}
	return app, nil
}
