package cli

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/filevault/pkg/errors"
	"github.com/DeBrosOfficial/filevault/pkg/gateway"
	"github.com/DeBrosOfficial/filevault/pkg/logging"
	"github.com/DeBrosOfficial/filevault/pkg/tui"
)

// handleUI runs the interactive terminal UI. Wallet detection happens up
// front; connecting is left to the user.
func (a *App) handleUI(ctx context.Context) error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	// The UI owns the terminal, so approvals cannot prompt on it.
	a.opts.Yes = true

	ctrl, err := a.controller(ctx, false)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	return tui.Run(ctx, ctrl)
}

func (a *App) handleServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	listen := fs.String("listen", "", "Listen address (overrides gateway.listen_addr)")
	connect := fs.Bool("connect", false, "Connect the wallet before serving")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.loadConfig(); err != nil {
		return err
	}
	if *listen != "" {
		a.cfg.Gateway.ListenAddr = *listen
	}
	if errs := a.cfg.Validate(); len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintf(a.errOut, "❌ %v\n", err)
		}
		return fmt.Errorf("configuration has %d error(s)", len(errs))
	}
	// Requests arrive over HTTP, nobody is at the terminal to approve them.
	a.opts.Yes = true

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl, err := a.controller(ctx, *connect)
	if err != nil {
		return fmt.Errorf("%s", errors.Describe(errors.ActionConnect, err))
	}
	defer ctrl.Close()

	gw := gateway.New(a.cfg, ctrl, a.logger)
	a.logger.ComponentInfo(logging.ComponentCLI, "Starting gateway",
		zap.String("listen_addr", a.cfg.Gateway.ListenAddr),
		zap.Bool("https", a.cfg.Gateway.HTTPS.Enabled))
	a.printf("🚀 Gateway listening on %s (Ctrl+C to stop)\n", a.cfg.Gateway.ListenAddr)

	return gw.Start(ctx)
}
