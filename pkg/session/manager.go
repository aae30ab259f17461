// Package session manages the lifecycle of a wallet session: detecting the
// wallet, connecting an account on the required network, binding the
// contract gateway and reacting to account and chain changes pushed by the
// wallet. Observers receive snapshots over an event feed.
package session

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/DeBrosOfficial/filevault/pkg/errors"
	"github.com/DeBrosOfficial/filevault/pkg/filecontract"
	"github.com/DeBrosOfficial/filevault/pkg/logging"
	"github.com/DeBrosOfficial/filevault/pkg/metrics"
	"github.com/DeBrosOfficial/filevault/pkg/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"go.uber.org/zap"
)

// DetectFunc locates the wallet provider.
type DetectFunc func(ctx context.Context) (wallet.Provider, error)

var errNoAccounts = errors.New("No accounts found")

// Manager owns one wallet session.
type Manager struct {
	cfg    Config
	detect DetectFunc
	logger *logging.ColoredLogger

	state     atomic.Int32
	published atomic.Int32 // last state counted in metrics

	mu       sync.RWMutex
	sess     Session
	gen      uint64 // bumped whenever sess is replaced
	provider wallet.Provider

	initMu sync.Mutex
	subs   []event.Subscription

	updates event.Feed
	scope   event.SubscriptionScope

	ctx       context.Context
	cancel    context.CancelFunc
	quit      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a manager in the Uninitialized state. Call Init to detect the
// wallet.
func New(cfg Config, detect DetectFunc, logger *logging.ColoredLogger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:    cfg,
		detect: detect,
		logger: logger,
		sess:   emptySession(),
		ctx:    ctx,
		cancel: cancel,
		quit:   make(chan struct{}),
	}
	m.published.Store(-1)
	return m
}

// Network returns the chain the session is bound to.
func (m *Manager) Network() wallet.ChainParams { return m.cfg.Network }

// Contract returns the contract address sessions bind to.
func (m *Manager) Contract() common.Address { return m.cfg.Contract }

// State returns the current lifecycle state.
func (m *Manager) State() State { return State(m.state.Load()) }

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return m.sess.snapshot(m.State())
}

// Provider returns the detected wallet, or nil before Init succeeds.
func (m *Manager) Provider() wallet.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.provider
}

// Gateway returns the contract gateway of the connected session.
func (m *Manager) Gateway() (*filecontract.Gateway, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.sess.Connected || m.sess.Gateway == nil {
		return nil, errors.NewNotConnectedError("gateway")
	}
	return m.sess.Gateway, nil
}

// SubscribeUpdates delivers a snapshot on every session change. Subscribers
// must keep draining ch.
func (m *Manager) SubscribeUpdates(ch chan<- Snapshot) event.Subscription {
	return m.scope.Track(m.updates.Subscribe(ch))
}

func (m *Manager) publish(snap Snapshot) {
	if prev := m.published.Swap(int32(snap.State)); prev != int32(snap.State) {
		metrics.SessionTransition(snap.State.String())
	}
	metrics.SessionConnected(snap.Connected)
	m.updates.Send(snap)
}

// Init detects the wallet provider and starts listening to its account and
// chain notifications. Without a provider the manager stays Uninitialized
// and the session carries the error.
func (m *Manager) Init(ctx context.Context) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	if m.State() != StateUninitialized {
		return nil
	}
	select {
	case <-m.quit:
		return errors.NewNotConnectedError("init")
	default:
	}

	p, err := m.detect(ctx)
	if err == nil && p == nil {
		err = errors.NewProviderUnavailableError(nil)
	}
	if err != nil {
		if !errors.IsProviderUnavailable(err) {
			err = errors.NewProviderUnavailableError(err)
		}
		m.mu.Lock()
		m.sess.Error = errors.Describe(errors.ActionConnect, err)
		snap := m.snapshotLocked()
		m.mu.Unlock()

		m.logger.ComponentWarn(logging.ComponentSession, "No wallet provider detected", zap.Error(err))
		m.publish(snap)
		return err
	}

	accounts := make(chan []common.Address, 8)
	chains := make(chan *big.Int, 8)
	m.subs = []event.Subscription{
		p.SubscribeAccountsChanged(accounts),
		p.SubscribeChainChanged(chains),
	}

	m.mu.Lock()
	m.provider = p
	m.sess = emptySession()
	m.state.Store(int32(StateDisconnected))
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.wg.Add(1)
	go m.watch(accounts, chains)

	m.logger.ComponentInfo(logging.ComponentSession, "Wallet provider ready")
	m.publish(snap)
	return nil
}

// Connect requests account access, moves the wallet to the required network
// and binds the contract gateway. On failure the session is left cleared
// with its Error set. A Connect issued while another is in flight fails with
// ConnectInProgress; connecting an already connected session is a no-op.
// An Uninitialized manager runs detection again first.
func (m *Manager) Connect(ctx context.Context) error {
	if m.State() == StateUninitialized {
		if err := m.Init(ctx); err != nil {
			return err
		}
	}
	if !m.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		switch m.State() {
		case StateConnected:
			return nil
		case StateUninitialized:
			return errors.NewProviderUnavailableError(nil)
		default:
			return errors.NewConnectInProgressError()
		}
	}

	m.mu.Lock()
	p := m.provider
	if p == nil {
		m.state.Store(int32(StateDisconnected))
		m.mu.Unlock()
		return errors.NewProviderUnavailableError(nil)
	}
	m.gen++
	gen := m.gen
	m.sess = emptySession()
	m.sess.Loading = true
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(snap)

	m.logger.ComponentInfo(logging.ComponentSession, "Connecting wallet")
	sess, err := m.connect(ctx, p)

	m.mu.Lock()
	if m.gen != gen {
		// Disconnected or closed while the wallet was busy.
		m.mu.Unlock()
		if sess.Gateway != nil {
			sess.Gateway.Invalidate()
		}
		return errors.NewNotConnectedError("connect")
	}
	if err != nil {
		m.sess = emptySession()
		m.sess.Error = errors.Describe(errors.ActionConnect, err)
		m.state.Store(int32(StateDisconnected))
	} else {
		m.sess = sess
		m.state.Store(int32(StateConnected))
	}
	snap = m.snapshotLocked()
	m.mu.Unlock()

	if err != nil {
		m.logger.ComponentWarn(logging.ComponentSession, "Wallet connection failed", zap.Error(err))
	} else {
		m.logger.ComponentInfo(logging.ComponentSession, "Wallet connected",
			zap.String("account", sess.Account.Hex()),
			zap.String("balance", sess.Balance),
			zap.String("chain_id", sess.ChainID.String()))
	}
	m.publish(snap)
	return err
}

func (m *Manager) connect(ctx context.Context, p wallet.Provider) (Session, error) {
	accounts, err := p.RequestAccounts(ctx)
	if err != nil {
		return Session{}, errors.Classify("eth_requestAccounts", err)
	}
	if len(accounts) == 0 {
		return Session{}, errNoAccounts
	}
	account := accounts[0]
	balance := m.fetchBalance(ctx, p, account)

	switched, err := m.ensureNetwork(ctx, p)
	if err != nil {
		return Session{}, err
	}
	if switched {
		balance = m.fetchBalance(ctx, p, account)
	}

	signer, gw, err := m.bindContract(ctx, p, account)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Provider:  p,
		Signer:    signer,
		Gateway:   gw,
		Account:   account,
		Balance:   balance,
		ChainID:   new(big.Int).Set(m.cfg.Network.ChainID),
		Connected: true,
	}, nil
}

// ensureNetwork switches the wallet to the required chain, registering it
// first when the wallet does not know it. It reports whether a switch
// happened.
func (m *Manager) ensureNetwork(ctx context.Context, p wallet.Provider) (bool, error) {
	want := m.cfg.Network
	current, err := p.ChainID(ctx)
	if err != nil {
		return false, errors.Classify("eth_chainId", err)
	}
	if current.Cmp(want.ChainID) == 0 {
		return false, nil
	}

	m.logger.ComponentInfo(logging.ComponentSession, "Wallet on wrong network, switching",
		zap.String("current", current.String()),
		zap.String("required", want.ChainID.String()))

	err = p.SwitchChain(ctx, want.ChainID)
	if err == nil {
		return true, nil
	}
	if !errors.IsUnknownChain(err) {
		return false, errors.NewNetworkMismatchError(want.ChainName, want.ChainID.Uint64(), err)
	}

	m.logger.ComponentInfo(logging.ComponentSession, "Network unknown to wallet, adding it",
		zap.String("chain_name", want.ChainName))
	if err := p.AddChain(ctx, want); err != nil {
		return false, errors.NewNetworkAddFailedError(want.ChainName, want.ChainID.Uint64(), err)
	}
	if err := p.SwitchChain(ctx, want.ChainID); err != nil {
		return false, errors.NewNetworkMismatchError(want.ChainName, want.ChainID.Uint64(), err)
	}
	return true, nil
}

func (m *Manager) bindContract(ctx context.Context, p wallet.Provider, account common.Address) (*bind.TransactOpts, *filecontract.Gateway, error) {
	signer, err := p.Signer(ctx, account, m.cfg.Network.ChainID)
	if err != nil {
		return nil, nil, errors.Classify("signer", err)
	}
	gw, err := filecontract.NewGateway(m.cfg.Contract, p.Backend(), signer, m.logger)
	if err != nil {
		return nil, nil, err
	}
	return signer, gw, nil
}

// fetchBalance returns the formatted balance, or "0" when the query fails.
func (m *Manager) fetchBalance(ctx context.Context, p wallet.Provider, account common.Address) string {
	wei, err := p.BalanceAt(ctx, account)
	if err != nil {
		m.logger.ComponentWarn(logging.ComponentSession, "Balance fetch failed",
			zap.String("account", account.Hex()),
			zap.Error(err))
		return "0"
	}
	return wallet.FormatEther(wei)
}

// RefreshBalance re-reads the balance of the connected account.
func (m *Manager) RefreshBalance(ctx context.Context) (string, error) {
	m.mu.RLock()
	sess, gen := m.sess, m.gen
	m.mu.RUnlock()
	if !sess.Connected {
		return "", errors.NewNotConnectedError("balance")
	}

	wei, err := sess.Provider.BalanceAt(ctx, sess.Account)
	if err != nil {
		return "", errors.Classify("eth_getBalance", err)
	}
	balance := wallet.FormatEther(wei)

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return balance, nil
	}
	m.sess.Balance = balance
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.publish(snap)
	return balance, nil
}

// Disconnect clears the session and invalidates its contract gateway. The
// detected provider is kept so Connect can be called again.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	old := m.sess
	prev := m.State()
	m.gen++
	m.sess = emptySession()
	if prev != StateUninitialized {
		m.state.Store(int32(StateDisconnected))
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if old.Gateway != nil {
		old.Gateway.Invalidate()
	}
	if prev == StateDisconnected && old.Error == "" {
		return
	}
	if old.Connected {
		m.logger.ComponentInfo(logging.ComponentSession, "Wallet disconnected", zap.String("account", old.Account.Hex()))
	}
	m.publish(snap)
}

// watch applies the wallet's notifications to the session.
func (m *Manager) watch(accounts <-chan []common.Address, chains <-chan *big.Int) {
	defer m.wg.Done()
	for {
		select {
		case accts := <-accounts:
			m.handleAccounts(accts)
		case id := <-chains:
			m.handleChain(id)
		case <-m.quit:
			return
		}
	}
}

func (m *Manager) handleAccounts(accounts []common.Address) {
	if m.State() != StateConnected {
		return
	}
	if len(accounts) == 0 {
		m.logger.ComponentInfo(logging.ComponentSession, "Wallet revoked account access")
		m.Disconnect()
		return
	}

	m.mu.RLock()
	current, p, gen := m.sess.Account, m.sess.Provider, m.gen
	m.mu.RUnlock()
	next := accounts[0]
	if next == current {
		return
	}

	m.logger.ComponentInfo(logging.ComponentSession, "Active account changed",
		zap.String("from", current.Hex()),
		zap.String("to", next.Hex()))

	signer, gw, err := m.bindContract(m.ctx, p, next)
	if err != nil {
		m.logger.ComponentWarn(logging.ComponentSession, "Rebinding to new account failed", zap.Error(err))
		m.mu.Lock()
		if m.gen != gen {
			m.mu.Unlock()
			return
		}
		old := m.sess
		m.gen++
		m.sess = emptySession()
		m.sess.Error = errors.Describe(errors.ActionConnect, err)
		m.state.Store(int32(StateDisconnected))
		snap := m.snapshotLocked()
		m.mu.Unlock()
		if old.Gateway != nil {
			old.Gateway.Invalidate()
		}
		m.publish(snap)
		return
	}
	balance := m.fetchBalance(m.ctx, p, next)

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		gw.Invalidate()
		return
	}
	old := m.sess.Gateway
	m.gen++
	m.sess.Account = next
	m.sess.Signer = signer
	m.sess.Gateway = gw
	m.sess.Balance = balance
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if old != nil {
		old.Invalidate()
	}
	m.publish(snap)
}

// handleChain discards a connected session when the wallet moves to another
// chain. Notifications for the chain the session is already on, including
// those raised by Connect's own network switch, are ignored.
func (m *Manager) handleChain(id *big.Int) {
	if id == nil || m.State() != StateConnected {
		return
	}

	m.mu.Lock()
	if m.sess.ChainID != nil && m.sess.ChainID.Cmp(id) == 0 {
		m.mu.Unlock()
		return
	}
	old := m.sess
	m.gen++
	m.sess = emptySession()
	m.state.Store(int32(StateDisconnected))
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if old.Gateway != nil {
		old.Gateway.Invalidate()
	}
	snap.Reloaded = true
	snap.ChainID = id.Uint64()

	m.logger.ComponentInfo(logging.ComponentSession, "Wallet changed chain, session reloaded",
		zap.String("chain_id", id.String()))
	m.publish(snap)
}

// Close stops listening to the wallet, clears the session and closes the
// provider.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.cancel()
		close(m.quit)
		m.scope.Close()

		m.initMu.Lock()
		for _, sub := range m.subs {
			sub.Unsubscribe()
		}
		m.subs = nil
		m.initMu.Unlock()
		m.wg.Wait()

		m.Disconnect()

		m.mu.Lock()
		p := m.provider
		m.provider = nil
		m.mu.Unlock()
		if p != nil {
			err = p.Close()
		}
		m.logger.ComponentDebug(logging.ComponentSession, "Session manager closed")
	})
	return err
}
