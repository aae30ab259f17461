package session

import (
	"fmt"
	"math/big"

	"github.com/DeBrosOfficial/filevault/pkg/config"
	"github.com/DeBrosOfficial/filevault/pkg/filecontract"
	"github.com/DeBrosOfficial/filevault/pkg/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// State is the lifecycle state of the wallet session.
type State int32

const (
	StateUninitialized State = iota
	StateDisconnected
	StateConnecting
	StateConnected
)

var stateNames = [...]string{"uninitialized", "disconnected", "connecting", "connected"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Session is the live record of a connected wallet. The zero value, with
// Balance "0", is the disconnected session.
type Session struct {
	Provider  wallet.Provider
	Signer    *bind.TransactOpts
	Gateway   *filecontract.Gateway
	Account   common.Address
	Balance   string
	ChainID   *big.Int
	Connected bool
	Loading   bool
	Error     string
}

func emptySession() Session {
	return Session{Balance: "0"}
}

// Snapshot is an immutable copy of the session handed to observers.
type Snapshot struct {
	State     State          `json:"state"`
	Account   common.Address `json:"account"`
	Balance   string         `json:"balance"`
	ChainID   uint64         `json:"chain_id,omitempty"`
	Connected bool           `json:"connected"`
	Loading   bool           `json:"loading"`
	Error     string         `json:"error,omitempty"`

	// Reloaded is set on the snapshot published after the wallet moved to
	// another chain and the session was discarded.
	Reloaded bool `json:"reloaded,omitempty"`
}

func (s Session) snapshot(state State) Snapshot {
	snap := Snapshot{
		State:     state,
		Account:   s.Account,
		Balance:   s.Balance,
		Connected: s.Connected,
		Loading:   s.Loading,
		Error:     s.Error,
	}
	if s.ChainID != nil {
		snap.ChainID = s.ChainID.Uint64()
	}
	return snap
}

// Config is what the session needs to know about the target deployment.
type Config struct {
	// Network is the chain the contract lives on. The wallet is switched to
	// it, or asked to add it, during Connect.
	Network wallet.ChainParams
	// Contract is the FileIntegrity address on Network.
	Contract common.Address
}

// ConfigFrom extracts the session settings from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Network:  wallet.ParamsFromConfig(cfg.Network),
		Contract: common.HexToAddress(cfg.Contract.Address),
	}
}
