// Package filecontract is the typed gateway to the FileIntegrity contract.
// Every call goes straight to the chain: nothing is cached, validated locally
// or retried. Remote failures come back classified through pkg/errors.
package filecontract

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/DeBrosOfficial/filevault/pkg/errors"
	"github.com/DeBrosOfficial/filevault/pkg/logging"
	"github.com/DeBrosOfficial/filevault/pkg/metrics"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// Backend is what the gateway needs from a chain client: calls, transactions
// and receipts. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// FileEntry is the on-chain record returned by verifyFile.
type FileEntry struct {
	Exists    bool           `json:"exists"`
	FileHash  string         `json:"file_hash"`
	Filename  string         `json:"filename,omitempty"`
	IPFSCid   string         `json:"ipfs_cid,omitempty"`
	Uploader  common.Address `json:"uploader"`
	Timestamp time.Time      `json:"timestamp"`
}

// Gateway binds the FileIntegrity contract to one signer. It stays usable
// until Invalidate is called, after which every call fails with NotConnected.
type Gateway struct {
	address  common.Address
	contract *FileIntegrity
	backend  Backend
	signer   *bind.TransactOpts
	logger   *logging.ColoredLogger
	valid    atomic.Bool
}

// NewGateway binds the contract at address for signer.
func NewGateway(address common.Address, backend Backend, signer *bind.TransactOpts, logger *logging.ColoredLogger) (*Gateway, error) {
	if backend == nil || signer == nil {
		return nil, fmt.Errorf("contract gateway needs a backend and a signer")
	}
	contract, err := NewFileIntegrity(address, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to bind contract %s: %w", address.Hex(), err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	g := &Gateway{
		address:  address,
		contract: contract,
		backend:  backend,
		signer:   signer,
		logger:   logger,
	}
	g.valid.Store(true)
	return g, nil
}

// Address returns the contract address.
func (g *Gateway) Address() common.Address { return g.address }

// Account returns the signing account.
func (g *Gateway) Account() common.Address { return g.signer.From }

// Invalidate detaches the gateway from its session.
func (g *Gateway) Invalidate() { g.valid.Store(false) }

// Valid reports whether the gateway has not been invalidated.
func (g *Gateway) Valid() bool { return g.valid.Load() }

func (g *Gateway) check(method string) error {
	if !g.valid.Load() {
		return errors.NewNotConnectedError(method)
	}
	return nil
}

func (g *Gateway) transact(ctx context.Context, method string, send func(*bind.TransactOpts) (*types.Transaction, error)) (*types.Transaction, error) {
	if err := g.check(method); err != nil {
		return nil, err
	}

	start := time.Now()
	opts := *g.signer
	opts.Context = ctx

	tx, err := send(&opts)
	err = errors.Classify(method, err)
	metrics.ContractCall(method, start, err)
	if err != nil {
		g.logger.ComponentWarn(logging.ComponentContract, "Transaction failed",
			zap.String("method", method),
			zap.Error(err))
		return nil, err
	}

	g.logger.ComponentInfo(logging.ComponentContract, "Transaction submitted",
		zap.String("method", method),
		zap.String("tx", tx.Hash().Hex()))
	return tx, nil
}

// UploadFile records fileHash with its name and content id.
func (g *Gateway) UploadFile(ctx context.Context, fileHash, filename, ipfsCid string) (*types.Transaction, error) {
	return g.transact(ctx, "uploadFile", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return g.contract.UploadFile(opts, fileHash, filename, ipfsCid)
	})
}

// ShareFile grants grantee access to fileHash.
func (g *Gateway) ShareFile(ctx context.Context, fileHash string, grantee common.Address) (*types.Transaction, error) {
	return g.transact(ctx, "shareFile", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return g.contract.ShareFile(opts, fileHash, grantee)
	})
}

// DeleteFile removes the record for fileHash.
func (g *Gateway) DeleteFile(ctx context.Context, fileHash string) (*types.Transaction, error) {
	return g.transact(ctx, "deleteFile", func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return g.contract.DeleteFile(opts, fileHash)
	})
}

// VerifyFile reads the record for fileHash. A missing record is a FileEntry
// with Exists false, not an error.
func (g *Gateway) VerifyFile(ctx context.Context, fileHash string) (FileEntry, error) {
	const method = "verifyFile"
	if err := g.check(method); err != nil {
		return FileEntry{}, err
	}

	start := time.Now()
	opts := &bind.CallOpts{Context: ctx, From: g.signer.From}
	exists, filename, cid, uploader, ts, err := g.contract.VerifyFile(opts, fileHash)
	err = errors.Classify(method, err)
	metrics.ContractCall(method, start, err)
	if err != nil {
		return FileEntry{}, err
	}

	entry := FileEntry{
		Exists:   exists,
		FileHash: fileHash,
		Filename: filename,
		IPFSCid:  cid,
		Uploader: uploader,
	}
	if ts != nil && ts.Sign() > 0 {
		entry.Timestamp = time.Unix(ts.Int64(), 0).UTC()
	}
	return entry, nil
}

// WaitMined blocks until tx is mined. A reverted receipt is a remote failure.
func (g *Gateway) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	const method = "waitMined"
	if err := g.check(method); err != nil {
		return nil, err
	}

	start := time.Now()
	receipt, err := bind.WaitMined(ctx, g.backend, tx)
	if err == nil && receipt.Status == types.ReceiptStatusFailed {
		err = errors.NewRemoteCallError(method, fmt.Errorf("transaction reverted"))
	}
	err = errors.Classify(method, err)
	metrics.ContractCall(method, start, err)
	if err != nil {
		return receipt, err
	}

	g.logger.ComponentInfo(logging.ComponentContract, "Transaction mined",
		zap.String("tx", tx.Hash().Hex()),
		zap.Uint64("block", blockNumber(receipt)),
		zap.Uint64("gas_used", receipt.GasUsed))
	return receipt, nil
}

// UploadedEvent returns the FileUploaded event carried by receipt, or nil.
func (g *Gateway) UploadedEvent(receipt *types.Receipt) *FileIntegrityFileUploaded {
	if receipt == nil {
		return nil
	}
	for _, l := range receipt.Logs {
		if l == nil || l.Address != g.address {
			continue
		}
		if ev, err := g.contract.ParseFileUploaded(*l); err == nil {
			return ev
		}
	}
	return nil
}

// TxURL returns the block-explorer page for txHash.
func TxURL(explorerBase string, txHash common.Hash) string {
	if explorerBase == "" {
		return ""
	}
	return strings.TrimSuffix(explorerBase, "/") + "/tx/" + txHash.Hex()
}

func blockNumber(r *types.Receipt) uint64 {
	if r == nil || r.BlockNumber == nil {
		return 0
	}
	return r.BlockNumber.Uint64()
}
