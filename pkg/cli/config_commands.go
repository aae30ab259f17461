package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/DeBrosOfficial/filevault/pkg/config"
	"github.com/DeBrosOfficial/filevault/pkg/wallet"
)

func (a *App) handleConfig(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: fvault config <init|show|validate>")
	}
	switch args[0] {
	case "init":
		return a.configInit(args[1:])
	case "show":
		return a.configShow()
	case "validate":
		return a.configValidate()
	default:
		return fmt.Errorf("unknown config subcommand: %s", args[0])
	}
}

func (a *App) configInit(args []string) error {
	fs := flag.NewFlagSet("config init", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	contract := fs.String("contract", "", "FileIntegrity contract address")
	rpcURL := fs.String("rpc-url", "", "Ethereum JSON-RPC endpoint")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := a.configPath()
	if err != nil {
		return err
	}
	if a.opts.ConfigPath == "" {
		if _, err := config.EnsureConfigDir(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	cfg := config.DefaultConfig()
	if dir, err := config.DefaultKeystoreDir(); err == nil {
		cfg.Wallet.KeystoreDir = dir
	}
	if *contract != "" {
		cfg.Contract.Address = *contract
	}
	if *rpcURL != "" {
		cfg.Network.RPCURLs = []string{*rpcURL}
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	a.printf("✅ Wrote %s\n", path)
	for _, err := range cfg.Validate() {
		a.printf("⚠️  %v\n", err)
	}
	return nil
}

func (a *App) configShow() error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	if a.jsonOutput() {
		return a.printJSON(a.cfg)
	}
	data, err := a.cfg.Encode()
	if err != nil {
		return err
	}
	_, err = a.out.Write(data)
	return err
}

func (a *App) configValidate() error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	errs := a.cfg.Validate()
	if len(errs) == 0 {
		a.printf("✅ Configuration is valid\n")
		return nil
	}
	for _, err := range errs {
		fmt.Fprintf(a.errOut, "❌ %v\n", err)
	}
	return fmt.Errorf("configuration has %d error(s)", len(errs))
}

func (a *App) handleAccount(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: fvault account <new|list>")
	}
	if err := a.loadConfig(); err != nil {
		return err
	}
	dir := a.cfg.Wallet.KeystoreDir

	switch args[0] {
	case "new":
		pass := a.cfg.Wallet.Passphrase
		if pass == "" {
			var err error
			if pass, err = a.readSecret("Passphrase for the new account: "); err != nil {
				return err
			}
			confirm, err := a.readSecret("Repeat passphrase: ")
			if err != nil {
				return err
			}
			if confirm != pass {
				return fmt.Errorf("passphrases do not match")
			}
		}
		addr, err := wallet.NewKeystoreAccount(dir, pass, a.cfg.Wallet.ScryptLight)
		if err != nil {
			return err
		}
		a.printf("✅ Created account %s\n", addr.Hex())
		a.printf("   Keystore: %s\n", dir)
		return nil

	case "list":
		accounts := wallet.KeystoreAccounts(dir)
		if a.jsonOutput() {
			return a.printJSON(accounts)
		}
		if len(accounts) == 0 {
			a.printf("No accounts in %s\n", dir)
			return nil
		}
		for i, acct := range accounts {
			a.printf("%d. %s\n", i+1, acct.Hex())
		}
		return nil

	default:
		return fmt.Errorf("unknown account subcommand: %s", args[0])
	}
}
