package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/term"

	"github.com/DeBrosOfficial/filevault/pkg/wallet"
)

// approver asks on the terminal before handing out accounts or adding a
// network, unless --yes was given.
func (a *App) approver() wallet.Approver {
	if a.opts.Yes {
		return wallet.AutoApprove{}
	}
	return wallet.ApproverFuncs{
		Accounts: func(ctx context.Context, accounts []common.Address) (bool, error) {
			names := make([]string, len(accounts))
			for i, acct := range accounts {
				names[i] = acct.Hex()
			}
			return a.confirm(fmt.Sprintf("Allow fvault to use account %s?", strings.Join(names, ", ")))
		},
		Network: func(ctx context.Context, params wallet.ChainParams) (bool, error) {
			return a.confirm(fmt.Sprintf("Add network %s (chain id %s)?", params.ChainName, params.ChainID))
		},
	}
}

// passphrase unlocks keystore accounts with FILEVAULT_PASSPHRASE when set
// and prompts otherwise.
func (a *App) passphrase() wallet.PassphraseFunc {
	if a.cfg != nil && a.cfg.Wallet.Passphrase != "" {
		return wallet.StaticPassphrase(a.cfg.Wallet.Passphrase)
	}
	return func(account common.Address) (string, error) {
		return a.readSecret(fmt.Sprintf("Passphrase for %s: ", account.Hex()))
	}
}

func (a *App) confirm(question string) (bool, error) {
	fmt.Fprintf(a.errOut, "%s [y/N]: ", question)
	line, err := a.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (a *App) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readSecret reads without echo from a terminal, or a plain line otherwise.
func (a *App) readSecret(prompt string) (string, error) {
	fmt.Fprint(a.errOut, prompt)
	if f, ok := a.stdinFile(); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.errOut)
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase: %w", err)
		}
		return string(b), nil
	}
	return a.readLine()
}
