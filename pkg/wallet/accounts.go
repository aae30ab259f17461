package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/DeBrosOfficial/filevault/pkg/errors"
	"github.com/DeBrosOfficial/filevault/pkg/logging"
	"github.com/DeBrosOfficial/filevault/pkg/rpcproxy"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/external"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/zap"
)

// ChainClient is a connection to one chain. *ethclient.Client satisfies it.
type ChainClient interface {
	Backend
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	Close()
}

// Dialer opens a ChainClient for an RPC endpoint.
type Dialer func(ctx context.Context, rawurl string) (ChainClient, error)

// ProxyDialer dials through rpcproxy, optionally via a SOCKS5 proxy.
func ProxyDialer(socksAddr string) Dialer {
	return func(ctx context.Context, rawurl string) (ChainClient, error) {
		c, err := rpcproxy.Dial(ctx, rawurl, socksAddr)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Options configure Detect.
type Options struct {
	KeystoreDir    string
	ExternalSigner string
	ScryptLight    bool
	RPCURL         string // endpoint of the network the wallet starts on
	Dial           Dialer
	Approver       Approver
	Passphrase     PassphraseFunc
	Logger         *logging.ColoredLogger
}

// AccountsProvider is a Provider built on go-ethereum's account manager over
// a local keystore and/or an external Clef-compatible signer.
type AccountsProvider struct {
	manager    *accounts.Manager
	approver   Approver
	passphrase PassphraseFunc
	dial       Dialer
	logger     *logging.ColoredLogger

	mu       sync.RWMutex
	client   ChainClient
	activeID *big.Int
	networks map[uint64]ChainParams

	approved     atomic.Bool
	accountsFeed event.Feed
	chainFeed    event.Feed
	scope        event.SubscriptionScope

	walletEvents chan accounts.WalletEvent
	walletSub    event.Subscription
	quit         chan struct{}
	wg           sync.WaitGroup
	closeOnce    sync.Once
}

// Detect builds a provider from the configured backends and connects it to
// its starting network. It fails with ProviderUnavailable when no backend can
// be opened or the starting network cannot be reached.
func Detect(ctx context.Context, opts Options) (*AccountsProvider, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	var backends []accounts.Backend
	if opts.KeystoreDir != "" {
		n, p := keystore.StandardScryptN, keystore.StandardScryptP
		if opts.ScryptLight {
			n, p = keystore.LightScryptN, keystore.LightScryptP
		}
		backends = append(backends, keystore.NewKeyStore(opts.KeystoreDir, n, p))
		logger.ComponentDebug(logging.ComponentWallet, "Keystore backend opened", zap.String("dir", opts.KeystoreDir))
	}
	if opts.ExternalSigner != "" {
		ext, err := external.NewExternalBackend(opts.ExternalSigner)
		if err != nil {
			logger.ComponentWarn(logging.ComponentWallet, "External signer unreachable",
				zap.String("endpoint", opts.ExternalSigner),
				zap.Error(err))
		} else {
			backends = append(backends, ext)
		}
	}
	if len(backends) == 0 {
		return nil, errors.NewProviderUnavailableError(fmt.Errorf("no keystore or external signer available"))
	}
	if opts.RPCURL == "" {
		return nil, errors.NewProviderUnavailableError(fmt.Errorf("no RPC endpoint configured"))
	}

	dial := opts.Dial
	if dial == nil {
		dial = ProxyDialer("")
	}
	client, err := dial(ctx, opts.RPCURL)
	if err != nil {
		return nil, errors.NewProviderUnavailableError(fmt.Errorf("dial %s: %w", opts.RPCURL, err))
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, errors.NewProviderUnavailableError(fmt.Errorf("query chain id: %w", err))
	}

	approver := opts.Approver
	if approver == nil {
		approver = AutoApprove{}
	}

	p := &AccountsProvider{
		manager:    accounts.NewManager(&accounts.Config{}, backends...),
		approver:   approver,
		passphrase: opts.Passphrase,
		dial:       dial,
		logger:     logger,
		client:     client,
		activeID:   chainID,
		networks: map[uint64]ChainParams{
			chainID.Uint64(): {ChainID: chainID, RPCURLs: []string{opts.RPCURL}},
		},
		walletEvents: make(chan accounts.WalletEvent, 16),
		quit:         make(chan struct{}),
	}
	p.walletSub = p.manager.Subscribe(p.walletEvents)

	p.wg.Add(1)
	go p.watchWallets()

	logger.ComponentInfo(logging.ComponentWallet, "Wallet provider detected",
		zap.Int("backends", len(backends)),
		zap.String("chain_id", chainID.String()))
	return p, nil
}

// watchWallets turns wallet arrivals and drops into accountsChanged
// notifications once the user has granted access.
func (p *AccountsProvider) watchWallets() {
	defer p.wg.Done()
	for {
		select {
		case ev := <-p.walletEvents:
			if ev.Kind == accounts.WalletOpened || !p.approved.Load() {
				continue
			}
			accts := p.manager.Accounts()
			p.logger.ComponentDebug(logging.ComponentWallet, "Accounts changed", zap.Int("count", len(accts)))
			p.accountsFeed.Send(accts)
		case <-p.walletSub.Err():
			return
		case <-p.quit:
			return
		}
	}
}

func (p *AccountsProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	accts := p.manager.Accounts()
	if len(accts) == 0 {
		return nil, nil
	}

	ok, err := p.approver.ApproveAccounts(ctx, accts)
	if err != nil {
		return nil, errors.Classify("eth_requestAccounts", err)
	}
	if !ok {
		return nil, errors.NewUserRejectedError("eth_requestAccounts", nil)
	}
	p.approved.Store(true)
	return accts, nil
}

func (p *AccountsProvider) ChainID(ctx context.Context) (*big.Int, error) {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()
	return client.ChainID(ctx)
}

func (p *AccountsProvider) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()
	return client.BalanceAt(ctx, account, nil)
}

func (p *AccountsProvider) SwitchChain(ctx context.Context, chainID *big.Int) error {
	p.mu.RLock()
	params, known := p.networks[chainID.Uint64()]
	active := p.activeID.Cmp(chainID) == 0
	p.mu.RUnlock()

	if !known {
		return errors.NewUnknownChainError(chainID.Uint64())
	}
	if active {
		return nil
	}
	return p.activate(ctx, params)
}

func (p *AccountsProvider) AddChain(ctx context.Context, params ChainParams) error {
	if params.ChainID == nil || len(params.RPCURLs) == 0 {
		return errors.NewValidationError("chain", "chain id and at least one RPC URL are required", params.ChainName)
	}

	ok, err := p.approver.ApproveNetwork(ctx, params)
	if err != nil {
		return errors.Classify("wallet_addEthereumChain", err)
	}
	if !ok {
		return errors.NewUserRejectedError("wallet_addEthereumChain", nil)
	}
	if err := p.activate(ctx, params); err != nil {
		return err
	}

	p.mu.Lock()
	p.networks[params.ChainID.Uint64()] = params
	p.mu.Unlock()
	return nil
}

// activate dials the first working endpoint of params, swaps it in as the
// active client and announces the chain change.
func (p *AccountsProvider) activate(ctx context.Context, params ChainParams) error {
	var lastErr error
	for _, url := range params.RPCURLs {
		client, err := p.dial(ctx, url)
		if err != nil {
			lastErr = fmt.Errorf("dial %s: %w", url, err)
			continue
		}
		id, err := client.ChainID(ctx)
		if err != nil || id.Cmp(params.ChainID) != 0 {
			client.Close()
			if err == nil {
				err = fmt.Errorf("endpoint serves chain %s, expected %s", id, params.ChainID)
			}
			lastErr = fmt.Errorf("%s: %w", url, err)
			continue
		}

		p.mu.Lock()
		old := p.client
		p.client = client
		p.activeID = new(big.Int).Set(params.ChainID)
		p.mu.Unlock()
		old.Close()

		p.logger.ComponentInfo(logging.ComponentWallet, "Switched network",
			zap.String("chain_id", params.ChainID.String()),
			zap.String("chain_name", params.ChainName))
		p.chainFeed.Send(new(big.Int).Set(params.ChainID))
		return nil
	}
	return lastErr
}

func (p *AccountsProvider) Backend() Backend {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

func (p *AccountsProvider) Signer(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	acct := accounts.Account{Address: account}
	w, err := p.manager.Find(acct)
	if err != nil {
		return nil, fmt.Errorf("account %s not available: %w", account.Hex(), err)
	}
	id := new(big.Int).Set(chainID)

	return &bind.TransactOpts{
		From:    account,
		Context: ctx,
		Signer: func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
			if addr != account {
				return nil, bind.ErrNotAuthorized
			}
			return p.sign(w, acct, tx, id)
		},
	}, nil
}

// sign asks the wallet to sign tx. Locked keystore accounts are unlocked for
// this one signature with the passphrase callback.
func (p *AccountsProvider) sign(w accounts.Wallet, acct accounts.Account, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	const method = "eth_signTransaction"

	signed, err := w.SignTx(acct, tx, chainID)
	if err == nil {
		return signed, nil
	}
	if err != keystore.ErrLocked || p.passphrase == nil {
		return nil, errors.Classify(method, err)
	}

	pass, err := p.passphrase(acct.Address)
	if err != nil {
		return nil, errors.Classify(method, err)
	}
	signed, err = w.SignTxWithPassphrase(acct, pass, tx, chainID)
	if err != nil {
		return nil, errors.Classify(method, err)
	}
	return signed, nil
}

func (p *AccountsProvider) SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription {
	return p.scope.Track(p.accountsFeed.Subscribe(ch))
}

func (p *AccountsProvider) SubscribeChainChanged(ch chan<- *big.Int) event.Subscription {
	return p.scope.Track(p.chainFeed.Subscribe(ch))
}

func (p *AccountsProvider) Close() error {
	p.closeOnce.Do(func() {
		close(p.quit)
		p.walletSub.Unsubscribe()
		p.wg.Wait()
		p.scope.Close()

		p.mu.Lock()
		p.client.Close()
		p.mu.Unlock()
		p.manager.Close()
		p.logger.ComponentDebug(logging.ComponentWallet, "Wallet provider closed")
	})
	return nil
}

// NewKeystoreAccount creates a new encrypted key in dir.
func NewKeystoreAccount(dir, passphrase string, light bool) (common.Address, error) {
	n, p := keystore.StandardScryptN, keystore.StandardScryptP
	if light {
		n, p = keystore.LightScryptN, keystore.LightScryptP
	}
	acct, err := keystore.NewKeyStore(dir, n, p).NewAccount(passphrase)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to create account: %w", err)
	}
	return acct.Address, nil
}

// KeystoreAccounts lists the accounts stored in dir.
func KeystoreAccounts(dir string) []common.Address {
	ks := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)
	var out []common.Address
	for _, a := range ks.Accounts() {
		out = append(out, a.Address)
	}
	return out
}

var _ Provider = (*AccountsProvider)(nil)
