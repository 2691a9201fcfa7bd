package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/kschlt/btznstn-sub003/internal/config"
	"github.com/kschlt/btznstn-sub003/internal/notify"
	"github.com/kschlt/btznstn-sub003/internal/service"
	"github.com/kschlt/btznstn-sub003/internal/store/postgres"
)

// runtime bundles everything a command needs after wiring: the store for
// migrations, the coordinator for operations and the shared pieces
// around them.
type runtime struct {
	cfg   config.Config
	log   zerolog.Logger
	store *postgres.Store
	clock service.WallClock
	coord *service.Coordinator
}

func (rt *runtime) close() { rt.store.Close() }

// newRuntime loads the config, opens the database and builds the
// coordinator. Migrations run when migrate is set.
func newRuntime(ctx context.Context, migrate bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("HOUSE_TZ: %w", err)
	}

	st, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Ping(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if migrate {
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
	}

	clock := service.WallClock{Loc: loc}
	dispatcher := &notify.LogDispatcher{Log: log}
	coord := service.New(st, clock, cfg.Rules(), cfg.Approvers(), dispatcher, log)

	return &runtime{cfg: cfg, log: log, store: st, clock: clock, coord: coord}, nil
}
