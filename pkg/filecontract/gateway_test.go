package filecontract_test

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/DeBrosOfficial/filevault/pkg/errors"
	"github.com/DeBrosOfficial/filevault/pkg/filecontract"
	"github.com/DeBrosOfficial/filevault/pkg/wallet/wallettest"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloHash = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

type fixture struct {
	chain    *wallettest.Chain
	provider *wallettest.Provider
	account  common.Address
	gateway  *filecontract.Gateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	chain := wallettest.NewChain(11155111)
	provider := wallettest.NewProvider(chain)
	account := provider.Accounts()[0]

	signer, err := provider.Signer(context.Background(), account, chain.ID())
	require.NoError(t, err)
	gw, err := filecontract.NewGateway(chain.Contract, chain, signer, nil)
	require.NoError(t, err)

	return &fixture{chain: chain, provider: provider, account: account, gateway: gw}
}

func TestNewGatewayRequiresSigner(t *testing.T) {
	chain := wallettest.NewChain(1)
	_, err := filecontract.NewGateway(chain.Contract, chain, nil, nil)
	assert.Error(t, err)
}

func TestUploadFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.gateway.UploadFile(ctx, helloHash, "hello.txt", "dummy_ipfsCid")
	require.NoError(t, err)

	receipt, err := f.gateway.WaitMined(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), receipt.TxHash)

	calls := f.chain.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "uploadFile", calls[0].Method)
	assert.Equal(t, f.account, calls[0].From)
	assert.Equal(t, []interface{}{helloHash, "hello.txt", "dummy_ipfsCid"}, calls[0].Args)

	ev := f.gateway.UploadedEvent(receipt)
	require.NotNil(t, ev)
	assert.Equal(t, helloHash, ev.FileHash)
	assert.Equal(t, "hello.txt", ev.Filename)
	assert.Equal(t, f.account, ev.Uploader)
}

func TestUploadFileTwiceReverts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.gateway.UploadFile(ctx, helloHash, "hello.txt", "dummy_ipfsCid")
	require.NoError(t, err)
	_, err = f.gateway.WaitMined(ctx, tx)
	require.NoError(t, err)

	_, err = f.gateway.UploadFile(ctx, helloHash, "hello.txt", "dummy_ipfsCid")
	require.Error(t, err)
	assert.True(t, errors.IsRemoteCall(err), "unexpected error %v", err)
	assert.Contains(t, err.Error(), "File already exists")
}

func TestVerifyFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.gateway.VerifyFile(ctx, helloHash)
	require.NoError(t, err)
	assert.False(t, entry.Exists)
	assert.Equal(t, helloHash, entry.FileHash)
	assert.True(t, entry.Timestamp.IsZero())

	uploader := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	f.chain.Put(helloHash, wallettest.Record{
		Filename:  "hello.txt",
		IPFSCid:   "bafy",
		Uploader:  uploader,
		Timestamp: 1_700_000_000,
	})

	entry, err = f.gateway.VerifyFile(ctx, helloHash)
	require.NoError(t, err)
	assert.True(t, entry.Exists)
	assert.Equal(t, "hello.txt", entry.Filename)
	assert.Equal(t, "bafy", entry.IPFSCid)
	assert.Equal(t, uploader, entry.Uploader)
	assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), entry.Timestamp)
}

func TestVerifyFileRemoteError(t *testing.T) {
	f := newFixture(t)
	f.chain.CallErr = fmt.Errorf("header not found")

	_, err := f.gateway.VerifyFile(context.Background(), helloHash)
	require.Error(t, err)
	assert.True(t, errors.IsRemoteCall(err))
	assert.Equal(t, "header not found", errors.GetErrorMessage(err))
}

func TestShareAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grantee := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	// Only existing files can be shared.
	_, err := f.gateway.ShareFile(ctx, helloHash, grantee)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File does not exist")

	tx, err := f.gateway.UploadFile(ctx, helloHash, "hello.txt", "dummy_ipfsCid")
	require.NoError(t, err)
	_, err = f.gateway.WaitMined(ctx, tx)
	require.NoError(t, err)

	tx, err = f.gateway.ShareFile(ctx, helloHash, grantee)
	require.NoError(t, err)
	_, err = f.gateway.WaitMined(ctx, tx)
	require.NoError(t, err)

	rec, ok := f.chain.Get(helloHash)
	require.True(t, ok)
	assert.Equal(t, []common.Address{grantee}, rec.SharedTo)

	tx, err = f.gateway.DeleteFile(ctx, helloHash)
	require.NoError(t, err)
	_, err = f.gateway.WaitMined(ctx, tx)
	require.NoError(t, err)

	_, ok = f.chain.Get(helloHash)
	assert.False(t, ok)
}

func TestInvalidatedGatewayFailsFast(t *testing.T) {
	f := newFixture(t)
	f.gateway.Invalidate()
	ctx := context.Background()

	_, err := f.gateway.UploadFile(ctx, helloHash, "hello.txt", "dummy_ipfsCid")
	assert.True(t, errors.IsNotConnected(err))
	_, err = f.gateway.VerifyFile(ctx, helloHash)
	assert.True(t, errors.IsNotConnected(err))
	_, err = f.gateway.DeleteFile(ctx, helloHash)
	assert.True(t, errors.IsNotConnected(err))

	assert.Empty(t, f.chain.Calls())
}

func TestTransactionFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		check func(t *testing.T, err error)
	}{
		{
			name:  "insufficient funds",
			setup: func(f *fixture) { f.chain.SetBalance(f.account, big.NewInt(0)) },
			check: func(t *testing.T, err error) { assert.True(t, errors.IsInsufficientFunds(err), "got %v", err) },
		},
		{
			name:  "rejected signature",
			setup: func(f *fixture) { f.provider.RejectSign = true },
			check: func(t *testing.T, err error) { assert.True(t, errors.IsUserRejected(err), "got %v", err) },
		},
		{
			name:  "node error",
			setup: func(f *fixture) { f.chain.SendErr = fmt.Errorf("replacement transaction underpriced") },
			check: func(t *testing.T, err error) {
				assert.True(t, errors.IsRemoteCall(err), "got %v", err)
				assert.Contains(t, err.Error(), "replacement transaction underpriced")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)
			_, err := f.gateway.UploadFile(context.Background(), helloHash, "hello.txt", "dummy_ipfsCid")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestWaitMinedReverted(t *testing.T) {
	f := newFixture(t)
	f.chain.RevertAll = true
	ctx := context.Background()

	tx, err := f.gateway.UploadFile(ctx, helloHash, "hello.txt", "dummy_ipfsCid")
	require.NoError(t, err)

	_, err = f.gateway.WaitMined(ctx, tx)
	require.Error(t, err)
	assert.True(t, errors.IsRemoteCall(err))
	assert.Equal(t, "transaction reverted", errors.GetErrorMessage(err))
}

func TestTxURL(t *testing.T) {
	hash := common.HexToHash("0x01")
	assert.Equal(t, "https://sepolia.etherscan.io/tx/"+hash.Hex(), filecontract.TxURL("https://sepolia.etherscan.io/", hash))
	assert.Equal(t, "https://sepolia.etherscan.io/tx/"+hash.Hex(), filecontract.TxURL("https://sepolia.etherscan.io", hash))
	assert.Equal(t, "", filecontract.TxURL("", hash))
}
