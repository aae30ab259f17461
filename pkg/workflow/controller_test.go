package workflow_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/DeBrosOfficial/filevault/pkg/config"
	"github.com/DeBrosOfficial/filevault/pkg/errors"
	"github.com/DeBrosOfficial/filevault/pkg/ipfs"
	"github.com/DeBrosOfficial/filevault/pkg/session"
	"github.com/DeBrosOfficial/filevault/pkg/wallet"
	"github.com/DeBrosOfficial/filevault/pkg/wallet/wallettest"
	"github.com/DeBrosOfficial/filevault/pkg/workflow"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloHash = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

type fakeStore struct {
	mu       sync.Mutex
	added    []string
	pinned   []string
	unpinned []string
	addErr   error
}

func (f *fakeStore) AddFile(ctx context.Context, path string) (*ipfs.AddResponse, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, path)
	return &ipfs.AddResponse{Name: filepath.Base(path), Cid: "bafy-" + filepath.Base(path), Size: 5}, nil
}

func (f *fakeStore) Add(ctx context.Context, r io.Reader, name string) (*ipfs.AddResponse, error) {
	return nil, fmt.Errorf("not used")
}

func (f *fakeStore) Pin(ctx context.Context, cid, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pinned = append(f.pinned, cid)
	return nil
}

func (f *fakeStore) Unpin(ctx context.Context, cid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unpinned = append(f.unpinned, cid)
	return nil
}

func (f *fakeStore) Health(ctx context.Context) error { return nil }

type env struct {
	ctrl     *workflow.Controller
	provider *wallettest.Provider
	chain    *wallettest.Chain
}

func newEnv(t *testing.T, store ipfs.ContentStore) *env {
	t.Helper()
	cfg := config.DefaultConfig()
	chain := wallettest.NewChain(cfg.Network.ChainID)
	p := wallettest.NewProvider(chain)

	m := session.New(session.ConfigFrom(cfg), func(context.Context) (wallet.Provider, error) { return p, nil }, nil)
	require.NoError(t, m.Init(context.Background()))
	require.NoError(t, m.Connect(context.Background()))

	ctrl := workflow.New(cfg, m, store, nil)
	t.Cleanup(func() { _ = ctrl.Close() })
	return &env{ctrl: ctrl, provider: p, chain: chain}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSubmitHello(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	rec, err := e.ctrl.SelectFile(writeFile(t, "hello.txt", "hello"))
	require.NoError(t, err)
	assert.Equal(t, helloHash, rec.Hash)
	assert.Equal(t, "hello.txt", rec.Name)

	var announced common.Hash
	res, err := e.ctrl.Submit(ctx, func(tx common.Hash, url string) { announced = tx })
	require.NoError(t, err)

	calls := e.chain.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "uploadFile", calls[0].Method)
	assert.Equal(t, []interface{}{helloHash, "hello.txt", workflow.DummyIPFSCid}, calls[0].Args)

	assert.Equal(t, announced, res.TxHash)
	assert.Equal(t, "https://sepolia.etherscan.io/tx/"+res.TxHash.Hex(), res.TxURL)
	assert.Equal(t, workflow.DummyIPFSCid, res.IPFSCid)
	assert.NotZero(t, res.BlockNumber)
	assert.Equal(t, "File hash stored successfully on Sepolia Test Network!", res.Message)

	// The form is cleared after a successful submission.
	assert.Equal(t, workflow.FileRecord{}, e.ctrl.Record())
}

func TestSubmitEditedRecord(t *testing.T) {
	e := newEnv(t, nil)

	_, err := e.ctrl.SelectFile(writeFile(t, "draft.txt", "draft"))
	require.NoError(t, err)
	e.ctrl.SetFilename("final.txt")
	e.ctrl.SetHash("abc")

	_, err = e.ctrl.Submit(context.Background(), nil)
	require.NoError(t, err)

	calls := e.chain.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []interface{}{"abc", "final.txt", workflow.DummyIPFSCid}, calls[0].Args)
}

func TestVerify(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	res, err := e.ctrl.Verify(ctx, helloHash)
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, workflow.MsgNotFound, res.Message)

	_, err = e.ctrl.Store(ctx, workflow.StoreRequest{Hash: helloHash, Name: "hello.txt"})
	require.NoError(t, err)

	res, err = e.ctrl.Verify(ctx, helloHash)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, workflow.MsgValid, res.Message)
	assert.Equal(t, "hello.txt", res.Entry.Filename)
	assert.Equal(t, e.provider.Accounts()[0], res.Entry.Uploader)
}

func TestInputChecks(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	_, err := e.ctrl.Submit(ctx, nil)
	require.Error(t, err)
	assert.Equal(t, workflow.MsgSelectFile, errors.Describe(errors.ActionStore, err))

	_, err = e.ctrl.Store(ctx, workflow.StoreRequest{Hash: helloHash})
	assert.Equal(t, workflow.MsgSelectFile, errors.Describe(errors.ActionStore, err))

	_, err = e.ctrl.Verify(ctx, "")
	assert.Equal(t, workflow.MsgEnterHash, errors.Describe(errors.ActionVerify, err))

	_, err = e.ctrl.Share(ctx, helloHash, common.Address{})
	assert.Equal(t, workflow.MsgEnterAddress, errors.Describe(errors.ActionShare, err))

	_, err = e.ctrl.Delete(ctx, "")
	assert.Equal(t, workflow.MsgEnterHash, errors.Describe(errors.ActionDelete, err))

	assert.Empty(t, e.chain.Calls())
}

func TestOperationsRequireSession(t *testing.T) {
	e := newEnv(t, nil)
	e.ctrl.Session().Disconnect()
	ctx := context.Background()

	_, err := e.ctrl.Store(ctx, workflow.StoreRequest{Hash: helloHash, Name: "hello.txt"})
	assert.True(t, errors.IsNotConnected(err))
	assert.Equal(t, "Please connect your wallet first", errors.Describe(errors.ActionStore, err))

	_, err = e.ctrl.Verify(ctx, helloHash)
	assert.True(t, errors.IsNotConnected(err))
}

func TestSubmitFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *env)
		want  string
	}{
		{
			name:  "insufficient funds",
			setup: func(e *env) { e.chain.SetBalance(e.provider.Accounts()[0], common.Big0) },
			want:  "Transaction failed: Insufficient funds for gas",
		},
		{
			name:  "rejected",
			setup: func(e *env) { e.provider.RejectSign = true },
			want:  "Transaction failed: Transaction rejected by user",
		},
		{
			name:  "node error",
			setup: func(e *env) { e.chain.SendErr = fmt.Errorf("nonce too low") },
			want:  "Transaction failed: nonce too low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, nil)
			_, err := e.ctrl.SelectFile(writeFile(t, "hello.txt", "hello"))
			require.NoError(t, err)
			tt.setup(e)

			_, err = e.ctrl.Submit(context.Background(), nil)
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.Describe(errors.ActionStore, err))

			// A failed submission keeps the form for another attempt.
			assert.Equal(t, helloHash, e.ctrl.Record().Hash)
		})
	}
}

func TestVerifyFailure(t *testing.T) {
	e := newEnv(t, nil)
	e.chain.CallErr = fmt.Errorf("header not found")

	_, err := e.ctrl.Verify(context.Background(), helloHash)
	require.Error(t, err)
	assert.Equal(t, "Verification failed: header not found", errors.Describe(errors.ActionVerify, err))
}

func TestSelectFileMissing(t *testing.T) {
	e := newEnv(t, nil)
	path := filepath.Join(t.TempDir(), "gone.txt")

	rec, err := e.ctrl.SelectFile(path)
	require.Error(t, err)
	assert.True(t, errors.IsHashFailure(err))
	assert.Equal(t, "Error calculating file hash", errors.Describe(errors.ActionHash, err))
	assert.Equal(t, "gone.txt", rec.Name)
	assert.Empty(t, rec.Hash)
}

func TestShareAndDelete(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()
	grantee := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	_, err := e.ctrl.Store(ctx, workflow.StoreRequest{Hash: helloHash, Name: "hello.txt"})
	require.NoError(t, err)

	res, err := e.ctrl.Share(ctx, helloHash, grantee)
	require.NoError(t, err)
	assert.Equal(t, workflow.MsgShared, res.Message)
	assert.True(t, strings.HasPrefix(res.TxURL, "https://sepolia.etherscan.io/tx/"))

	rec, ok := e.chain.Get(helloHash)
	require.True(t, ok)
	assert.Equal(t, []common.Address{grantee}, rec.SharedTo)

	res, err = e.ctrl.Delete(ctx, helloHash)
	require.NoError(t, err)
	assert.Equal(t, workflow.MsgDeleted, res.Message)

	_, ok = e.chain.Get(helloHash)
	assert.False(t, ok)

	_, err = e.ctrl.Delete(ctx, helloHash)
	require.Error(t, err)
	assert.Contains(t, errors.Describe(errors.ActionDelete, err), "File does not exist")
}

func TestContentStore(t *testing.T) {
	store := &fakeStore{}
	e := newEnv(t, store)
	ctx := context.Background()

	path := writeFile(t, "hello.txt", "hello")
	_, err := e.ctrl.SelectFile(path)
	require.NoError(t, err)

	res, err := e.ctrl.Submit(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "bafy-hello.txt", res.IPFSCid)
	assert.Equal(t, []string{path}, store.added)
	assert.Equal(t, []string{"bafy-hello.txt"}, store.pinned)

	calls := e.chain.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "bafy-hello.txt", calls[0].Args[2])

	_, err = e.ctrl.Delete(ctx, helloHash)
	require.NoError(t, err)
	assert.Equal(t, []string{"bafy-hello.txt"}, store.unpinned)

	// Requests without a path fall back to the placeholder.
	res, err = e.ctrl.Store(ctx, workflow.StoreRequest{Hash: "abc", Name: "manual"})
	require.NoError(t, err)
	assert.Equal(t, workflow.DummyIPFSCid, res.IPFSCid)
}

func TestContentStoreFailureAbortsUpload(t *testing.T) {
	store := &fakeStore{addErr: fmt.Errorf("cluster unreachable")}
	e := newEnv(t, store)

	_, err := e.ctrl.SelectFile(writeFile(t, "hello.txt", "hello"))
	require.NoError(t, err)

	_, err = e.ctrl.Submit(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeStorageError, errors.GetErrorCode(err))
	assert.Empty(t, e.chain.Calls())
}
