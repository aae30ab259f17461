// Package wallet is the boundary to whatever holds the user's keys. It plays
// the role of an injected browser wallet: it hands out accounts after the user
// approves, knows a set of networks it can switch between, signs transactions
// and notifies subscribers when accounts or the active chain change.
package wallet

import (
	"context"
	"math/big"

	"github.com/DeBrosOfficial/filevault/pkg/config"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
)

// Backend is the chain access a wallet exposes to contract bindings.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Provider is a detected wallet.
type Provider interface {
	// RequestAccounts asks the user for account access. A refusal is a
	// UserRejected error; an empty slice means the wallet holds no accounts.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// ChainID returns the id of the active chain.
	ChainID(ctx context.Context) (*big.Int, error)

	// BalanceAt returns the latest balance of account in wei.
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)

	// SwitchChain activates a known network. An unknown id fails with an
	// UnknownChain error.
	SwitchChain(ctx context.Context, chainID *big.Int) error

	// AddChain registers a network and makes it active.
	AddChain(ctx context.Context, params ChainParams) error

	// Backend returns the client for the active chain.
	Backend() Backend

	// Signer returns transaction options that sign as account for chainID.
	Signer(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error)

	SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription
	SubscribeChainChanged(ch chan<- *big.Int) event.Subscription

	Close() error
}

// NativeCurrency describes a chain's gas token.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// ChainParams are the parameters needed to add a network to a wallet.
type ChainParams struct {
	ChainID           *big.Int       `json:"chainId"`
	ChainName         string         `json:"chainName"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
}

// ParamsFromConfig converts the network section of the config.
func ParamsFromConfig(nc config.NetworkConfig) ChainParams {
	p := ChainParams{
		ChainID:   new(big.Int).SetUint64(nc.ChainID),
		ChainName: nc.ChainName,
		RPCURLs:   append([]string(nil), nc.RPCURLs...),
		NativeCurrency: NativeCurrency{
			Name:     nc.NativeCurrency.Name,
			Symbol:   nc.NativeCurrency.Symbol,
			Decimals: nc.NativeCurrency.Decimals,
		},
	}
	if nc.BlockExplorerURL != "" {
		p.BlockExplorerURLs = []string{nc.BlockExplorerURL}
	}
	return p
}

// Approver stands in for the wallet's confirmation dialogs.
type Approver interface {
	ApproveAccounts(ctx context.Context, accounts []common.Address) (bool, error)
	ApproveNetwork(ctx context.Context, params ChainParams) (bool, error)
}

// AutoApprove approves every request. Used for --yes and tests.
type AutoApprove struct{}

func (AutoApprove) ApproveAccounts(context.Context, []common.Address) (bool, error) { return true, nil }
func (AutoApprove) ApproveNetwork(context.Context, ChainParams) (bool, error)       { return true, nil }

// ApproverFuncs adapts plain functions to Approver. A nil function approves.
type ApproverFuncs struct {
	Accounts func(ctx context.Context, accounts []common.Address) (bool, error)
	Network  func(ctx context.Context, params ChainParams) (bool, error)
}

func (f ApproverFuncs) ApproveAccounts(ctx context.Context, accounts []common.Address) (bool, error) {
	if f.Accounts == nil {
		return true, nil
	}
	return f.Accounts(ctx, accounts)
}

func (f ApproverFuncs) ApproveNetwork(ctx context.Context, params ChainParams) (bool, error) {
	if f.Network == nil {
		return true, nil
	}
	return f.Network(ctx, params)
}

// PassphraseFunc returns the passphrase that unlocks account for one signature.
type PassphraseFunc func(account common.Address) (string, error)

// StaticPassphrase always returns pass.
func StaticPassphrase(pass string) PassphraseFunc {
	return func(common.Address) (string, error) { return pass, nil }
}
