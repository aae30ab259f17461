package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/DeBrosOfficial/filevault/pkg/errors"
	"github.com/DeBrosOfficial/filevault/pkg/hashing"
	"github.com/DeBrosOfficial/filevault/pkg/wallet"
	"github.com/DeBrosOfficial/filevault/pkg/workflow"
)

func (a *App) handleHash(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: fvault hash <file>")
	}
	sum, err := hashing.File(args[0])
	if err != nil {
		return fmt.Errorf("%s", errors.Describe(errors.ActionHash, err))
	}
	if a.jsonOutput() {
		return a.printJSON(map[string]string{"file": args[0], "hash": sum})
	}
	a.printf("%s  %s\n", sum, args[0])
	return nil
}

func (a *App) handleStore(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("store", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	name := fs.String("name", "", "Name recorded on chain (default: the file's base name)")
	hash := fs.String("hash", "", "Record this hash instead of hashing the file")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("usage: fvault store [file] [--name <name>] [--hash <hash>]")
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	ctrl, err := a.controller(ctx, true)
	if err != nil {
		return fmt.Errorf("%s", errors.Describe(errors.ActionConnect, err))
	}
	defer ctrl.Close()

	if len(positional) == 1 {
		if _, err := ctrl.SelectFile(positional[0]); err != nil && *hash == "" {
			return fmt.Errorf("%s", errors.Describe(errors.ActionHash, err))
		}
	}
	if *name != "" {
		ctrl.SetFilename(*name)
	} else if ctrl.Record().Name == "" && *hash != "" {
		return fmt.Errorf("%s", errors.Describe(errors.ActionStore,
			errors.NewValidationError("name", "--name is required when no file is given", nil)))
	}
	if *hash != "" {
		ctrl.SetHash(strings.TrimSpace(*hash))
	}

	res, err := ctrl.Submit(ctx, func(tx common.Hash, url string) {
		if a.jsonOutput() {
			return
		}
		a.printf("⏳ Transaction submitted: %s\n", tx.Hex())
		if url != "" {
			a.printf("   %s\n", url)
		}
	})
	if err != nil {
		return fmt.Errorf("%s", errors.Describe(errors.ActionStore, err))
	}

	if a.jsonOutput() {
		return a.printJSON(res)
	}
	a.printf("✅ %s\n", res.Message)
	a.printf("   Hash:     %s\n", res.FileHash)
	a.printf("   Filename: %s\n", res.Filename)
	a.printf("   IPFS CID: %s\n", res.IPFSCid)
	a.printf("   Block:    %d\n", res.BlockNumber)
	return nil
}

func (a *App) handleVerify(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: fvault verify <hash|file>")
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	ctrl, err := a.controller(ctx, true)
	if err != nil {
		return fmt.Errorf("%s", errors.Describe(errors.ActionConnect, err))
	}
	defer ctrl.Close()

	hash, err := resolveHash(ctrl, args[0])
	if err != nil {
		return fmt.Errorf("%s", errors.Describe(errors.ActionHash, err))
	}
	res, err := ctrl.Verify(ctx, hash)
	if err != nil {
		return fmt.Errorf("%s", errors.Describe(errors.ActionVerify, err))
	}

	if a.jsonOutput() {
		return a.printJSON(res)
	}
	if !res.Valid {
		a.printf("❌ %s\n", res.Message)
		return nil
	}
	a.printf("✅ %s\n", res.Message)
	a.printf("   Hash:      %s\n", res.Entry.FileHash)
	a.printf("   Filename:  %s\n", res.Entry.Filename)
	a.printf("   IPFS CID:  %s\n", res.Entry.IPFSCid)
	a.printf("   Uploader:  %s\n", res.Entry.Uploader.Hex())
	a.printf("   Timestamp: %s\n", res.Entry.Timestamp.UTC().Format("2006-01-02 15:04:05 MST"))
	return nil
}

// resolveHash returns arg itself, or the digest of the regular file it
// names.
func resolveHash(ctrl *workflow.Controller, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if hashing.Valid(arg) {
		return arg, nil
	}
	if fi, err := os.Stat(arg); err == nil && fi.Mode().IsRegular() {
		return ctrl.HashFile(filepath.Clean(arg))
	}
	return arg, nil
}

func (a *App) handleShare(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: fvault share <hash> <address>")
	}
	if !common.IsHexAddress(args[1]) {
		return fmt.Errorf("%s", errors.Describe(errors.ActionShare,
			errors.NewValidationError("address", workflow.MsgEnterAddress, args[1])))
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	ctrl, err := a.controller(ctx, true)
	if err != nil {
		return fmt.Errorf("%s", errors.Describe(errors.ActionConnect, err))
	}
	defer ctrl.Close()

	res, err := ctrl.Share(ctx, args[0], common.HexToAddress(args[1]))
	return a.printTx(errors.ActionShare, res, err)
}

func (a *App) handleDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: fvault delete <hash>")
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	ctrl, err := a.controller(ctx, true)
	if err != nil {
		return fmt.Errorf("%s", errors.Describe(errors.ActionConnect, err))
	}
	defer ctrl.Close()

	res, err := ctrl.Delete(ctx, args[0])
	return a.printTx(errors.ActionDelete, res, err)
}

func (a *App) printTx(action errors.Action, res *workflow.TxResult, err error) error {
	if err != nil {
		if res != nil && res.TxHash != (common.Hash{}) {
			fmt.Fprintf(a.errOut, "⚠️  Transaction %s was broadcast but not confirmed\n", res.TxHash.Hex())
		}
		return fmt.Errorf("%s", errors.Describe(action, err))
	}
	if a.jsonOutput() {
		return a.printJSON(res)
	}
	a.printf("✅ %s\n", res.Message)
	a.printf("   Transaction: %s\n", res.TxHash.Hex())
	if res.TxURL != "" {
		a.printf("   %s\n", res.TxURL)
	}
	return nil
}

func (a *App) handleBalance(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	ctrl, err := a.controller(ctx, true)
	if err != nil {
		return fmt.Errorf("%s", errors.Describe(errors.ActionConnect, err))
	}
	defer ctrl.Close()

	mgr := ctrl.Session()
	balance, err := mgr.RefreshBalance(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch balance: %w", err)
	}
	snap := mgr.Snapshot()
	symbol := mgr.Network().NativeCurrency.Symbol

	if a.jsonOutput() {
		return a.printJSON(snap)
	}
	a.printf("Account: %s\n", snap.Account.Hex())
	a.printf("Balance: %s\n", wallet.DisplayBalance(balance, symbol))
	return nil
}

func (a *App) handleNetwork() error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	params := wallet.ParamsFromConfig(a.cfg.Network)
	if a.jsonOutput() {
		return a.printJSON(params)
	}
	a.printf("Network:  %s\n", params.ChainName)
	a.printf("Chain ID: %s\n", params.ChainID)
	a.printf("Currency: %s (%s, %d decimals)\n", params.NativeCurrency.Name, params.NativeCurrency.Symbol, params.NativeCurrency.Decimals)
	a.printf("RPC:      %s\n", strings.Join(params.RPCURLs, ", "))
	a.printf("Explorer: %s\n", strings.Join(params.BlockExplorerURLs, ", "))
	a.printf("Contract: %s\n", a.cfg.Contract.Address)
	return nil
}

// parseInterspersed parses flags that may appear before or after positional
// arguments.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}
