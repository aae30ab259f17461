// Package cli implements the fvault commands.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/filevault/pkg/config"
	"github.com/DeBrosOfficial/filevault/pkg/ipfs"
	"github.com/DeBrosOfficial/filevault/pkg/logging"
	"github.com/DeBrosOfficial/filevault/pkg/session"
	"github.com/DeBrosOfficial/filevault/pkg/wallet"
	"github.com/DeBrosOfficial/filevault/pkg/workflow"
)

// Options are the global flags.
type Options struct {
	ConfigPath string        // -c, --config
	Timeout    time.Duration // -t, --timeout
	Yes        bool          // -y, --yes: approve wallet requests without prompting
	Format     string        // -f, --format: table or json
	Verbose    bool          // -v, --verbose
}

// DefaultOptions returns the flag defaults.
func DefaultOptions() Options {
	return Options{
		Timeout: 2 * time.Minute,
		Format:  "table",
	}
}

// App runs one command.
type App struct {
	opts   Options
	in     *bufio.Reader
	stdin  io.Reader
	out    io.Writer
	errOut io.Writer

	cfg    *config.Config
	logger *logging.ColoredLogger

	// detect replaces wallet detection; nil uses the configured backends.
	detect session.DetectFunc
	// store replaces the IPFS client; nil builds one when IPFS is configured.
	store ipfs.ContentStore
}

// New creates an App reading from stdin and writing to stdout and stderr.
func New(opts Options, stdin io.Reader, stdout, stderr io.Writer) *App {
	if opts.Format == "" {
		opts.Format = "table"
	}
	return &App{
		opts:   opts,
		stdin:  stdin,
		in:     bufio.NewReader(stdin),
		out:    stdout,
		errOut: stderr,
	}
}

// Run dispatches command.
func (a *App) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "hash":
		return a.handleHash(args)
	case "store":
		return a.handleStore(ctx, args)
	case "verify":
		return a.handleVerify(ctx, args)
	case "share":
		return a.handleShare(ctx, args)
	case "delete":
		return a.handleDelete(ctx, args)
	case "balance":
		return a.handleBalance(ctx)
	case "network":
		return a.handleNetwork()
	case "account":
		return a.handleAccount(args)
	case "config":
		return a.handleConfig(args)
	case "ui":
		return a.handleUI(ctx)
	case "serve":
		return a.handleServe(ctx, args)
	case "help", "--help", "-h":
		ShowHelp(a.out)
		return nil
	default:
		ShowHelp(a.errOut)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func (a *App) configPath() (string, error) {
	if a.opts.ConfigPath != "" {
		return a.opts.ConfigPath, nil
	}
	return config.DefaultPath(config.DefaultConfigName)
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist, and builds the logger.
func (a *App) loadConfig() error {
	if a.cfg != nil {
		return nil
	}
	path, err := a.configPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path, a.opts.ConfigPath == "")
	if err != nil {
		return err
	}
	if cfg.Wallet.KeystoreDir == "" {
		if dir, err := config.DefaultKeystoreDir(); err == nil {
			cfg.Wallet.KeystoreDir = dir
		}
	}

	logCfg := cfg.Logging
	if a.opts.Verbose {
		logCfg.Level = "debug"
	} else if logCfg.Level == "" || logCfg.Level == "info" {
		// One-shot commands print their own results.
		logCfg.Level = "warn"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *App) detectFunc() session.DetectFunc {
	if a.detect != nil {
		return a.detect
	}
	return func(ctx context.Context) (wallet.Provider, error) {
		p, err := wallet.Detect(ctx, wallet.Options{
			KeystoreDir:    a.cfg.Wallet.KeystoreDir,
			ExternalSigner: a.cfg.Wallet.ExternalSigner,
			ScryptLight:    a.cfg.Wallet.ScryptLight,
			RPCURL:         a.cfg.Network.RPCURL(),
			Dial:           wallet.ProxyDialer(a.cfg.Network.SOCKS5Proxy),
			Approver:       a.approver(),
			Passphrase:     a.passphrase(),
			Logger:         a.logger,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

func (a *App) contentStore() ipfs.ContentStore {
	if a.store != nil {
		return a.store
	}
	if !a.cfg.IPFS.Enabled() {
		return nil
	}
	return ipfs.NewClient(a.cfg.IPFS, a.logger.Logger)
}

// controller builds the workflow controller. With connect set the wallet is
// connected before returning. The caller closes the controller.
func (a *App) controller(ctx context.Context, connect bool) (*workflow.Controller, error) {
	if err := a.loadConfig(); err != nil {
		return nil, err
	}
	mgr := session.New(session.ConfigFrom(a.cfg), a.detectFunc(), a.logger)
	ctrl := workflow.New(a.cfg, mgr, a.contentStore(), a.logger)

	if err := mgr.Init(ctx); err != nil && connect {
		ctrl.Close()
		return nil, err
	}
	if connect {
		if err := mgr.Connect(ctx); err != nil {
			ctrl.Close()
			return nil, err
		}
		snap := mgr.Snapshot()
		a.logger.ComponentDebug(logging.ComponentCLI, "Wallet connected",
			zap.String("account", snap.Account.Hex()),
			zap.Uint64("chain_id", snap.ChainID))
	}
	return ctrl, nil
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.opts.Timeout)
}

func (a *App) jsonOutput() bool {
	return a.opts.Format == "json"
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// stdinFile returns stdin as a file when it is one.
func (a *App) stdinFile() (*os.File, bool) {
	f, ok := a.stdin.(*os.File)
	return f, ok
}
