package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kschlt/btznstn-sub003/internal/scheduler"
	"github.com/kschlt/btznstn-sub003/internal/token"
	"github.com/kschlt/btznstn-sub003/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the booking API + daily scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			rt, err := newRuntime(ctx, migrateUp)
			if err != nil {
				return err
			}
			defer rt.close()

			hashKey, blockKey, err := rt.cfg.TokenKeys()
			if err != nil {
				return err
			}

			sched := &scheduler.Scheduler{
				Coord:    rt.coord,
				Clock:    rt.clock,
				Interval: rt.cfg.TickInterval,
				RunHour:  rt.cfg.DigestHour,
				Log:      rt.log,
			}
			go func() { _ = sched.Run(ctx) }()

			ws := &web.Server{
				Coord:   rt.coord,
				Tokens:  token.New(hashKey, blockKey),
				Clock:   rt.clock,
				BaseURL: rt.cfg.BaseURL,
				Log:     rt.log,
			}
			return web.Start(ctx, rt.cfg.ListenAddr, ws.Routes(), rt.log)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
