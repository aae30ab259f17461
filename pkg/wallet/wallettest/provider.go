package wallettest

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/DeBrosOfficial/filevault/pkg/errors"
	"github.com/DeBrosOfficial/filevault/pkg/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/params"
)

// Provider is an in-memory wallet.Provider. Its exported knobs mirror the
// choices a user makes in a wallet's dialogs.
type Provider struct {
	// RejectAccounts makes RequestAccounts fail with UserRejected.
	RejectAccounts bool
	// RejectAddChain makes AddChain fail with UserRejected.
	RejectAddChain bool
	// RejectSign makes every signature fail with UserRejected.
	RejectSign bool
	// BalanceErr is returned by BalanceAt.
	BalanceErr error
	// SwitchErr, when set, is returned by SwitchChain for known chains.
	SwitchErr error
	// HideAccounts makes RequestAccounts return an empty list.
	HideAccounts bool
	// AccountsGate, when set, holds RequestAccounts until it is closed.
	AccountsGate chan struct{}

	mu        sync.Mutex
	keys      map[common.Address]*ecdsa.PrivateKey
	accounts  []common.Address
	known     map[uint64]*Chain
	reachable map[uint64]*Chain
	active    *Chain
	calls     []string
	closed    bool

	accountsFeed event.Feed
	chainFeed    event.Feed
	scope        event.SubscriptionScope
}

// NewProvider creates a wallet with one funded account, active on chain.
func NewProvider(chain *Chain) *Provider {
	p := &Provider{
		keys:      make(map[common.Address]*ecdsa.PrivateKey),
		known:     map[uint64]*Chain{chain.ID().Uint64(): chain},
		reachable: map[uint64]*Chain{chain.ID().Uint64(): chain},
		active:    chain,
	}
	p.NewAccount()
	return p
}

// NewAccount generates a key, funds it with one ether on every reachable
// chain and appends it to the wallet's accounts.
func (p *Provider) NewAccount() common.Address {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys[addr] = key
	p.accounts = append(p.accounts, addr)
	for _, c := range p.reachable {
		c.SetBalance(addr, big.NewInt(params.Ether))
	}
	return addr
}

// Accounts returns the wallet's accounts.
func (p *Provider) Accounts() []common.Address {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]common.Address(nil), p.accounts...)
}

// Reachable makes chain available to AddChain without registering it, as a
// network the wallet has never seen but whose RPC works.
func (p *Provider) Reachable(chain *Chain) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reachable[chain.ID().Uint64()] = chain
	for addr := range p.keys {
		chain.SetBalance(addr, big.NewInt(params.Ether))
	}
}

// Register makes chain a network the wallet already knows, so SwitchChain
// succeeds without AddChain.
func (p *Provider) Register(chain *Chain) {
	p.Reachable(chain)
	p.mu.Lock()
	p.known[chain.ID().Uint64()] = chain
	p.mu.Unlock()
}

// Active returns the chain the wallet is on.
func (p *Provider) Active() *Chain {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Calls returns the provider methods invoked so far, in order.
func (p *Provider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Closed reports whether Close was called.
func (p *Provider) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// EmitAccounts delivers an accountsChanged notification.
func (p *Provider) EmitAccounts(accounts []common.Address) {
	p.accountsFeed.Send(accounts)
}

// EmitChain switches to a reachable chain from outside, as a user picking a
// network in the wallet would, and delivers chainChanged.
func (p *Provider) EmitChain(chainID uint64) {
	p.mu.Lock()
	if c, ok := p.reachable[chainID]; ok {
		p.active = c
	}
	p.mu.Unlock()
	p.chainFeed.Send(new(big.Int).SetUint64(chainID))
}

func (p *Provider) record(call string) {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()
}

func (p *Provider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	p.record("eth_requestAccounts")
	if p.AccountsGate != nil {
		select {
		case <-p.AccountsGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.RejectAccounts {
		return nil, errors.Classify("eth_requestAccounts", fmt.Errorf("MetaMask Tx Signature: User denied account authorization."))
	}
	if p.HideAccounts {
		return []common.Address{}, nil
	}
	return p.Accounts(), nil
}

func (p *Provider) ChainID(ctx context.Context) (*big.Int, error) {
	p.record("eth_chainId")
	return p.Active().ID(), nil
}

func (p *Provider) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	p.record("eth_getBalance")
	if p.BalanceErr != nil {
		return nil, p.BalanceErr
	}
	return p.Active().BalanceAt(ctx, account, nil)
}

func (p *Provider) SwitchChain(ctx context.Context, chainID *big.Int) error {
	p.record("wallet_switchEthereumChain")
	p.mu.Lock()
	c, ok := p.known[chainID.Uint64()]
	if !ok {
		p.mu.Unlock()
		return errors.NewUnknownChainError(chainID.Uint64())
	}
	if p.SwitchErr != nil {
		p.mu.Unlock()
		return p.SwitchErr
	}
	p.active = c
	p.mu.Unlock()

	p.chainFeed.Send(chainID)
	return nil
}

func (p *Provider) AddChain(ctx context.Context, cp wallet.ChainParams) error {
	p.record("wallet_addEthereumChain")
	if p.RejectAddChain {
		return errors.NewUserRejectedError("wallet_addEthereumChain", nil)
	}

	id := cp.ChainID.Uint64()
	p.mu.Lock()
	c, ok := p.reachable[id]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("could not fetch chain id from %v", cp.RPCURLs)
	}
	p.known[id] = c
	p.active = c
	p.mu.Unlock()

	p.chainFeed.Send(cp.ChainID)
	return nil
}

func (p *Provider) Backend() wallet.Backend {
	return p.Active()
}

func (p *Provider) Signer(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	p.record("signer")
	p.mu.Lock()
	key, ok := p.keys[account]
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown account %s", account.Hex())
	}

	signer := types.LatestSignerForChainID(chainID)
	return &bind.TransactOpts{
		From:    account,
		Context: ctx,
		Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if addr != account {
				return nil, bind.ErrNotAuthorized
			}
			if p.RejectSign {
				return nil, errors.Classify("eth_signTransaction", fmt.Errorf("user rejected transaction"))
			}
			return types.SignTx(tx, signer, key)
		},
	}, nil
}

func (p *Provider) SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription {
	return p.scope.Track(p.accountsFeed.Subscribe(ch))
}

func (p *Provider) SubscribeChainChanged(ch chan<- *big.Int) event.Subscription {
	return p.scope.Track(p.chainFeed.Subscribe(ch))
}

// Subscribers returns the number of live subscriptions.
func (p *Provider) Subscribers() int {
	return p.scope.Count()
}

func (p *Provider) Close() error {
	p.record("close")
	p.scope.Close()
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

var _ wallet.Provider = (*Provider)(nil)
