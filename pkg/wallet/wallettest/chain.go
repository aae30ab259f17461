// Package wallettest provides an in-memory wallet provider and a chain that
// executes the FileIntegrity contract, for tests of everything above the
// wallet boundary.
package wallettest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/DeBrosOfficial/filevault/pkg/filecontract"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// DefaultContract is the address the fake chain serves the contract at.
var DefaultContract = common.HexToAddress("0x2D1FB38A63dF7f9e0Fe55beCE97F2981C32febCB")

const (
	gasPrice = 1_000_000_000 // 1 gwei
	gasLimit = 100_000
)

// Record is a stored file entry.
type Record struct {
	Filename  string
	IPFSCid   string
	Uploader  common.Address
	Timestamp uint64
	SharedTo  []common.Address
}

// Call is a decoded contract transaction.
type Call struct {
	Method string
	From   common.Address
	Args   []interface{}
	Tx     *types.Transaction
}

// Chain is a single-node chain that mines every transaction immediately and
// runs the FileIntegrity contract at Contract.
type Chain struct {
	Contract common.Address

	// Injected failures. SendErr is returned by SendTransaction, CallErr by
	// CallContract. RevertAll makes every mined receipt fail.
	SendErr   error
	CallErr   error
	RevertAll bool

	id  *big.Int
	abi *abi.ABI

	mu       sync.Mutex
	block    uint64
	clock    uint64
	nonces   map[common.Address]uint64
	balances map[common.Address]*big.Int
	records  map[string]*Record
	receipts map[common.Hash]*types.Receipt
	calls    []Call
	closed   bool
}

// NewChain creates a chain with the given id serving the contract at
// DefaultContract.
func NewChain(chainID uint64) *Chain {
	parsed, err := filecontract.FileIntegrityMetaData.GetAbi()
	if err != nil {
		panic(err)
	}
	return &Chain{
		Contract: DefaultContract,
		id:       new(big.Int).SetUint64(chainID),
		abi:      parsed,
		block:    1,
		clock:    1_700_000_000,
		nonces:   make(map[common.Address]uint64),
		balances: make(map[common.Address]*big.Int),
		records:  make(map[string]*Record),
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

// ID returns the chain id.
func (c *Chain) ID() *big.Int { return new(big.Int).Set(c.id) }

// SetBalance funds account with wei.
func (c *Chain) SetBalance(account common.Address, wei *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[account] = new(big.Int).Set(wei)
}

// Put stores a record directly, bypassing transactions.
func (c *Chain) Put(fileHash string, rec Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := rec
	c.records[fileHash] = &r
}

// Get returns the stored record for fileHash.
func (c *Chain) Get(fileHash string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[fileHash]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// Calls returns every transaction accepted so far, decoded.
func (c *Chain) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Closed reports whether Close was called.
func (c *Chain) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Chain) ChainID(ctx context.Context) (*big.Int, error) { return c.ID(), nil }

func (c *Chain) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (c *Chain) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Chain) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return c.code(contract), nil
}

func (c *Chain) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return c.code(account), nil
}

func (c *Chain) code(addr common.Address) []byte {
	if addr == c.Contract {
		return []byte{0x60, 0x80, 0x60, 0x40}
	}
	return nil
}

func (c *Chain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &types.Header{Number: new(big.Int).SetUint64(c.block), Time: c.clock}, nil
}

func (c *Chain) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonces[account], nil
}

func (c *Chain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(gasPrice), nil
}

func (c *Chain) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(gasPrice), nil
}

// EstimateGas dry-runs the call so contract reverts surface before signing,
// as they do against a real node.
func (c *Chain) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if call.To == nil || *call.To != c.Contract {
		return 21_000, nil
	}
	method, args, err := c.decode(call.Data)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check(method, call.From, args); err != nil {
		return 0, err
	}
	return gasLimit, nil
}

func (c *Chain) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if c.CallErr != nil {
		return nil, c.CallErr
	}
	method, args, err := c.decode(call.Data)
	if err != nil {
		return nil, err
	}
	if method.Name != "verifyFile" {
		return nil, fmt.Errorf("execution reverted: %s is not a view", method.Name)
	}

	c.mu.Lock()
	rec, ok := c.records[args[0].(string)]
	c.mu.Unlock()
	if !ok {
		return method.Outputs.Pack(false, "", "", common.Address{}, new(big.Int))
	}
	return method.Outputs.Pack(true, rec.Filename, rec.IPFSCid, rec.Uploader, new(big.Int).SetUint64(rec.Timestamp))
}

func (c *Chain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if c.SendErr != nil {
		return c.SendErr
	}
	from, err := types.Sender(types.LatestSignerForChainID(c.id), tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cost := new(big.Int).Mul(tx.GasPrice(), new(big.Int).SetUint64(tx.Gas()))
	cost.Add(cost, tx.Value())
	balance, ok := c.balances[from]
	if !ok {
		balance = new(big.Int)
	}
	if balance.Cmp(cost) < 0 {
		return fmt.Errorf("insufficient funds for gas * price + value: address %s have %s want %s", from.Hex(), balance, cost)
	}
	if tx.Nonce() != c.nonces[from] {
		return fmt.Errorf("nonce too low: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), c.nonces[from])
	}

	c.nonces[from]++
	c.balances[from] = new(big.Int).Sub(balance, cost)
	c.block++
	c.clock += 12

	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(c.block),
		GasUsed:     tx.Gas(),
	}

	if tx.To() != nil && *tx.To() == c.Contract {
		method, args, err := c.decode(tx.Data())
		if err != nil {
			return err
		}
		c.calls = append(c.calls, Call{Method: method.Name, From: from, Args: args, Tx: tx})
		if c.RevertAll || c.check(method, from, args) != nil {
			receipt.Status = types.ReceiptStatusFailed
		} else {
			receipt.Logs = c.apply(method, from, args, tx)
		}
	}
	c.receipts[tx.Hash()] = receipt
	return nil
}

func (c *Chain) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (c *Chain) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (c *Chain) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	}), nil
}

func (c *Chain) decode(data []byte) (*abi.Method, []interface{}, error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("execution reverted")
	}
	method, err := c.abi.MethodById(data[:4])
	if err != nil {
		return nil, nil, fmt.Errorf("execution reverted: %v", err)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, fmt.Errorf("execution reverted: %v", err)
	}
	return method, args, nil
}

// check enforces the contract's require statements. Caller holds c.mu.
func (c *Chain) check(method *abi.Method, from common.Address, args []interface{}) error {
	fileHash := args[0].(string)
	rec, exists := c.records[fileHash]
	switch method.Name {
	case "uploadFile":
		if exists {
			return fmt.Errorf("execution reverted: File already exists")
		}
	case "shareFile", "deleteFile":
		if !exists {
			return fmt.Errorf("execution reverted: File does not exist")
		}
		if rec.Uploader != from {
			return fmt.Errorf("execution reverted: Only the uploader can do this")
		}
	}
	return nil
}

// apply executes a successful call and returns its logs. Caller holds c.mu.
func (c *Chain) apply(method *abi.Method, from common.Address, args []interface{}, tx *types.Transaction) []*types.Log {
	fileHash := args[0].(string)

	var (
		eventName string
		values    []interface{}
	)
	switch method.Name {
	case "uploadFile":
		c.records[fileHash] = &Record{
			Filename:  args[1].(string),
			IPFSCid:   args[2].(string),
			Uploader:  from,
			Timestamp: c.clock,
		}
		eventName, values = "FileUploaded", []interface{}{fileHash, args[1], args[2], from}
	case "shareFile":
		grantee := args[1].(common.Address)
		c.records[fileHash].SharedTo = append(c.records[fileHash].SharedTo, grantee)
		eventName, values = "FileShared", []interface{}{fileHash, grantee}
	case "deleteFile":
		delete(c.records, fileHash)
		eventName, values = "FileDeleted", []interface{}{fileHash}
	default:
		return nil
	}

	ev := c.abi.Events[eventName]
	data, err := ev.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		panic(err)
	}
	return []*types.Log{{
		Address:     c.Contract,
		Topics:      []common.Hash{ev.ID},
		Data:        data,
		BlockNumber: c.block,
		TxHash:      tx.Hash(),
	}}
}
