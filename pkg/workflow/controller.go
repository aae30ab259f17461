// Package workflow drives the user-facing operations: selecting and hashing a
// file, anchoring its hash on chain, verifying a hash and managing existing
// records. Every surface (CLI, terminal UI, HTTP gateway) goes through a
// Controller.
package workflow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/DeBrosOfficial/filevault/pkg/config"
	"github.com/DeBrosOfficial/filevault/pkg/errors"
	"github.com/DeBrosOfficial/filevault/pkg/filecontract"
	"github.com/DeBrosOfficial/filevault/pkg/hashing"
	"github.com/DeBrosOfficial/filevault/pkg/ipfs"
	"github.com/DeBrosOfficial/filevault/pkg/logging"
	"github.com/DeBrosOfficial/filevault/pkg/metrics"
	"github.com/DeBrosOfficial/filevault/pkg/session"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// DummyIPFSCid is recorded when no content store is configured.
const DummyIPFSCid = "dummy_ipfsCid"

// User-facing messages.
const (
	MsgSelectFile   = "Please select a file first"
	MsgEnterHash    = "Please enter a file hash or select a file"
	MsgEnterAddress = "Please enter a valid address"
	MsgValid        = "File is valid and exists on blockchain!"
	MsgNotFound     = "File not found or invalid!"
	MsgShared       = "File shared successfully!"
	MsgDeleted      = "File record deleted successfully!"
)

// Operation names used for metrics and logs.
const (
	OpHash   = "hash"
	OpStore  = "store"
	OpVerify = "verify"
	OpShare  = "share"
	OpDelete = "delete"
)

// FileRecord is the file currently selected in the store form.
type FileRecord struct {
	Path string `json:"path,omitempty"`
	Hash string `json:"hash"`
	Name string `json:"name"`
}

// TxResult describes a mined transaction.
type TxResult struct {
	TxHash      common.Hash `json:"tx_hash"`
	TxURL       string      `json:"tx_url,omitempty"`
	BlockNumber uint64      `json:"block_number"`
	Message     string      `json:"message"`
}

// StoreRequest is one upload. Path is optional; when set and a content store
// is configured, the file content is added to IPFS.
type StoreRequest struct {
	Hash string
	Name string
	Path string

	// OnSubmitted, if set, is called once the transaction is broadcast and
	// before waiting for it to be mined.
	OnSubmitted func(txHash common.Hash, txURL string)
}

// StoreResult is the outcome of a successful upload.
type StoreResult struct {
	TxResult
	FileHash string `json:"file_hash"`
	Filename string `json:"filename"`
	IPFSCid  string `json:"ipfs_cid"`
}

// VerifyResult is the outcome of a verification. A hash with no record is a
// result with Valid false, not an error.
type VerifyResult struct {
	Valid   bool                  `json:"valid"`
	Message string                `json:"message"`
	Entry   filecontract.FileEntry `json:"entry"`
}

// Controller runs workflow operations against the session's contract gateway.
type Controller struct {
	manager   *session.Manager
	store     ipfs.ContentStore
	explorer  string
	chainName string
	logger    *logging.ColoredLogger

	mu     sync.Mutex
	record FileRecord

	submitting atomic.Bool
}

// New creates a controller that owns manager. store may be nil, in which case
// DummyIPFSCid is recorded for every upload.
func New(cfg *config.Config, manager *session.Manager, store ipfs.ContentStore, logger *logging.ColoredLogger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		manager:   manager,
		store:     store,
		explorer:  cfg.Network.BlockExplorerURL,
		chainName: cfg.Network.ChainName,
		logger:    logger,
	}
}

// Session returns the session manager.
func (c *Controller) Session() *session.Manager { return c.manager }

// Close releases the session and its wallet subscriptions.
func (c *Controller) Close() error {
	return c.manager.Close()
}

// HashFile computes the SHA-256 digest of the file at path.
func (c *Controller) HashFile(path string) (string, error) {
	sum, err := hashing.File(path)
	metrics.WorkflowOp(OpHash, err)
	if err != nil {
		c.logger.ComponentWarn(logging.ComponentHash, "Error calculating file hash",
			zap.String("path", path),
			zap.Error(err))
		return "", err
	}
	if fi, statErr := os.Stat(path); statErr == nil {
		metrics.BytesHashed(fi.Size())
	}
	c.logger.ComponentDebug(logging.ComponentHash, "File hashed",
		zap.String("path", path),
		zap.String("hash", sum))
	return sum, nil
}

// SelectFile replaces the form's record with the file at path, its digest and
// its base name. When hashing fails the record keeps the name with an empty
// hash.
func (c *Controller) SelectFile(path string) (FileRecord, error) {
	rec := FileRecord{Path: path, Name: filepath.Base(path)}
	sum, err := c.HashFile(path)
	rec.Hash = sum

	c.mu.Lock()
	c.record = rec
	c.mu.Unlock()
	return rec, err
}

// SetFilename edits the record's display name.
func (c *Controller) SetFilename(name string) {
	c.mu.Lock()
	c.record.Name = name
	c.mu.Unlock()
}

// SetHash replaces the record's hash with a hand-edited value.
func (c *Controller) SetHash(hash string) {
	c.mu.Lock()
	c.record.Hash = hash
	c.mu.Unlock()
}

// Record returns the current form record.
func (c *Controller) Record() FileRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record
}

// Reset clears the form.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.record = FileRecord{}
	c.mu.Unlock()
}

// Submitting reports whether a Submit is in flight.
func (c *Controller) Submitting() bool { return c.submitting.Load() }

// Submit stores the form's record and clears the form once the transaction
// is mined. On failure the form is left untouched.
func (c *Controller) Submit(ctx context.Context, onSubmitted func(common.Hash, string)) (*StoreResult, error) {
	if !c.submitting.CompareAndSwap(false, true) {
		return nil, errors.New("Transaction already in progress")
	}
	defer c.submitting.Store(false)

	rec := c.Record()
	res, err := c.Store(ctx, StoreRequest{
		Hash:        rec.Hash,
		Name:        rec.Name,
		Path:        rec.Path,
		OnSubmitted: onSubmitted,
	})
	if err != nil {
		return res, err
	}
	c.Reset()
	return res, nil
}

// Store records a file hash on chain and waits for the transaction to be
// mined. If the transaction was broadcast but not confirmed, the returned
// result carries its hash alongside the error.
func (c *Controller) Store(ctx context.Context, req StoreRequest) (res *StoreResult, err error) {
	defer func() { metrics.WorkflowOp(OpStore, err) }()

	if req.Hash == "" || req.Name == "" {
		return nil, errors.NewValidationError("file", MsgSelectFile, nil)
	}
	gw, err := c.manager.Gateway()
	if err != nil {
		return nil, err
	}
	if !hashing.Valid(req.Hash) {
		c.logger.ComponentWarn(logging.ComponentWorkflow, "Storing a value that is not a SHA-256 digest",
			zap.String("hash", req.Hash))
	}

	cid, err := c.contentID(ctx, req)
	if err != nil {
		return nil, err
	}

	tx, err := gw.UploadFile(ctx, req.Hash, req.Name, cid)
	if err != nil {
		return nil, err
	}
	res = &StoreResult{
		TxResult: c.txResult(tx),
		FileHash: req.Hash,
		Filename: req.Name,
		IPFSCid:  cid,
	}
	if req.OnSubmitted != nil {
		req.OnSubmitted(res.TxHash, res.TxURL)
	}

	receipt, err := gw.WaitMined(ctx, tx)
	if err != nil {
		return res, err
	}
	res.BlockNumber = receipt.BlockNumber.Uint64()
	res.Message = fmt.Sprintf("File hash stored successfully on %s!", c.chainName)

	if ev := gw.UploadedEvent(receipt); ev != nil && ev.FileHash != req.Hash {
		c.logger.ComponentWarn(logging.ComponentWorkflow, "Uploaded event does not match request",
			zap.String("requested", req.Hash),
			zap.String("recorded", ev.FileHash))
	}
	c.logger.ComponentInfo(logging.ComponentWorkflow, "File hash stored",
		zap.String("hash", req.Hash),
		zap.String("name", req.Name),
		zap.String("cid", cid),
		zap.String("tx", res.TxHash.Hex()))
	return res, nil
}

// contentID uploads the file content when possible and returns the CID to
// record.
func (c *Controller) contentID(ctx context.Context, req StoreRequest) (string, error) {
	if c.store == nil || req.Path == "" {
		return DummyIPFSCid, nil
	}
	added, err := c.store.AddFile(ctx, req.Path)
	if err != nil {
		return "", errors.NewStorageError("add", err)
	}
	if err := c.store.Pin(ctx, added.Cid, req.Name); err != nil {
		return "", errors.NewStorageError("pin", err)
	}
	c.logger.ComponentInfo(logging.ComponentStorage, "File content pinned",
		zap.String("cid", added.Cid),
		zap.Int64("size", added.Size))
	return added.Cid, nil
}

// Verify looks up hash on chain.
func (c *Controller) Verify(ctx context.Context, hash string) (res *VerifyResult, err error) {
	defer func() { metrics.WorkflowOp(OpVerify, err) }()

	if hash == "" {
		return nil, errors.NewValidationError("hash", MsgEnterHash, nil)
	}
	gw, err := c.manager.Gateway()
	if err != nil {
		return nil, err
	}
	if !hashing.Valid(hash) {
		c.logger.ComponentDebug(logging.ComponentWorkflow, "Verifying a value that is not a SHA-256 digest",
			zap.String("hash", hash))
	}

	entry, err := gw.VerifyFile(ctx, hash)
	if err != nil {
		return nil, err
	}
	res = &VerifyResult{Valid: entry.Exists, Entry: entry, Message: MsgNotFound}
	if entry.Exists {
		res.Message = MsgValid
	}
	c.logger.ComponentInfo(logging.ComponentWorkflow, "File verified",
		zap.String("hash", hash),
		zap.Bool("exists", entry.Exists))
	return res, nil
}

// Share grants grantee access to the record for hash.
func (c *Controller) Share(ctx context.Context, hash string, grantee common.Address) (res *TxResult, err error) {
	defer func() { metrics.WorkflowOp(OpShare, err) }()

	if hash == "" {
		return nil, errors.NewValidationError("hash", MsgEnterHash, nil)
	}
	if grantee == (common.Address{}) {
		return nil, errors.NewValidationError("address", MsgEnterAddress, nil)
	}
	gw, err := c.manager.Gateway()
	if err != nil {
		return nil, err
	}

	tx, err := gw.ShareFile(ctx, hash, grantee)
	if err != nil {
		return nil, err
	}
	return c.await(ctx, gw, tx, MsgShared)
}

// Delete removes the record for hash. Content pinned for the record is
// unpinned once the deletion is mined; unpin failures are only logged.
func (c *Controller) Delete(ctx context.Context, hash string) (res *TxResult, err error) {
	defer func() { metrics.WorkflowOp(OpDelete, err) }()

	if hash == "" {
		return nil, errors.NewValidationError("hash", MsgEnterHash, nil)
	}
	gw, err := c.manager.Gateway()
	if err != nil {
		return nil, err
	}

	var cid string
	if c.store != nil {
		if entry, verr := gw.VerifyFile(ctx, hash); verr == nil && entry.Exists {
			cid = entry.IPFSCid
		}
	}

	tx, err := gw.DeleteFile(ctx, hash)
	if err != nil {
		return nil, err
	}
	res, err = c.await(ctx, gw, tx, MsgDeleted)
	if err != nil {
		return res, err
	}

	if cid != "" && cid != DummyIPFSCid {
		if uerr := c.store.Unpin(ctx, cid); uerr != nil {
			c.logger.ComponentWarn(logging.ComponentStorage, "Failed to unpin deleted content",
				zap.String("cid", cid),
				zap.Error(uerr))
		}
	}
	return res, nil
}

func (c *Controller) await(ctx context.Context, gw *filecontract.Gateway, tx *types.Transaction, msg string) (*TxResult, error) {
	res := c.txResult(tx)
	receipt, err := gw.WaitMined(ctx, tx)
	if err != nil {
		return &res, err
	}
	res.BlockNumber = receipt.BlockNumber.Uint64()
	res.Message = msg
	return &res, nil
}

func (c *Controller) txResult(tx *types.Transaction) TxResult {
	return TxResult{
		TxHash: tx.Hash(),
		TxURL:  filecontract.TxURL(c.explorer, tx.Hash()),
	}
}
