package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeBrosOfficial/filevault/pkg/config"
	"github.com/DeBrosOfficial/filevault/pkg/wallet"
	"github.com/DeBrosOfficial/filevault/pkg/wallet/wallettest"
	"github.com/DeBrosOfficial/filevault/pkg/workflow"
)

const helloHash = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

type harness struct {
	dir     string
	cfgPath string
	chain   *wallettest.Chain
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Wallet.KeystoreDir = filepath.Join(dir, "keystore")
	cfg.Wallet.ScryptLight = true
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, cfg.Save(cfgPath))

	return &harness{
		dir:     dir,
		cfgPath: cfgPath,
		chain:   wallettest.NewChain(cfg.Network.ChainID),
	}
}

type result struct {
	out    string
	errOut string
	err    error
}

// run executes one command with p as the detected wallet. A nil p gets a
// fresh wallet on the harness chain.
func (h *harness) run(t *testing.T, p *wallettest.Provider, stdin string, opts Options, command string, args ...string) result {
	t.Helper()
	if p == nil {
		p = wallettest.NewProvider(h.chain)
	}
	opts.ConfigPath = h.cfgPath
	var out, errOut bytes.Buffer
	app := New(opts, strings.NewReader(stdin), &out, &errOut)
	app.detect = func(context.Context) (wallet.Provider, error) { return p, nil }

	err := app.Run(context.Background(), command, args)
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func (h *harness) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestHash(t *testing.T) {
	h := newHarness(t)
	path := h.writeFile(t, "hello.txt", "hello")

	res := h.run(t, nil, "", DefaultOptions(), "hash", path)
	require.NoError(t, res.err)
	assert.Equal(t, helloHash+"  "+path+"\n", res.out)

	res = h.run(t, nil, "", DefaultOptions(), "hash", filepath.Join(h.dir, "missing"))
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "Error calculating file hash")

	res = h.run(t, nil, "", DefaultOptions(), "hash")
	assert.EqualError(t, res.err, "usage: fvault hash <file>")
}

func TestStoreAndVerify(t *testing.T) {
	h := newHarness(t)
	path := h.writeFile(t, "hello.txt", "hello")

	res := h.run(t, nil, "", DefaultOptions(), "store", path, "--name", "greeting.txt")
	require.NoError(t, res.err, res.errOut)
	assert.Contains(t, res.out, "⏳ Transaction submitted: 0x")
	assert.Contains(t, res.out, "✅ File hash stored successfully on Sepolia Test Network!")
	assert.Contains(t, res.out, "IPFS CID: "+workflow.DummyIPFSCid)

	rec, ok := h.chain.Get(helloHash)
	require.True(t, ok)
	assert.Equal(t, "greeting.txt", rec.Filename)

	res = h.run(t, nil, "", DefaultOptions(), "verify", path)
	require.NoError(t, res.err, res.errOut)
	assert.Contains(t, res.out, "✅ "+workflow.MsgValid)
	assert.Contains(t, res.out, "Filename:  greeting.txt")

	res = h.run(t, nil, "", DefaultOptions(), "verify", helloHash)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, workflow.MsgValid)
}

func TestStoreJSON(t *testing.T) {
	h := newHarness(t)
	path := h.writeFile(t, "hello.txt", "hello")

	opts := DefaultOptions()
	opts.Format = "json"
	res := h.run(t, nil, "", opts, "store", path)
	require.NoError(t, res.err, res.errOut)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.out), &out))
	assert.Equal(t, helloHash, out["file_hash"])
	assert.Equal(t, "hello.txt", out["filename"])
	assert.Equal(t, workflow.DummyIPFSCid, out["ipfs_cid"])
	assert.NotEmpty(t, out["tx_hash"])
}

func TestStoreHashWithoutName(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, nil, "", DefaultOptions(), "store", "--hash", helloHash)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "--name is required")

	res = h.run(t, nil, "", DefaultOptions(), "store", "--hash", helloHash, "--name", "manual.txt")
	require.NoError(t, res.err, res.errOut)
	rec, ok := h.chain.Get(helloHash)
	require.True(t, ok)
	assert.Equal(t, "manual.txt", rec.Filename)
}

func TestStoreNothingSelected(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, nil, "", DefaultOptions(), "store")
	require.Error(t, res.err)
	assert.Equal(t, workflow.MsgSelectFile, res.err.Error())
	assert.Empty(t, h.chain.Calls())
}

func TestStoreRejected(t *testing.T) {
	h := newHarness(t)
	path := h.writeFile(t, "hello.txt", "hello")

	p := wallettest.NewProvider(h.chain)
	p.RejectSign = true
	res := h.run(t, p, "", DefaultOptions(), "store", path)
	require.Error(t, res.err)
	assert.Equal(t, "Transaction failed: Transaction rejected by user", res.err.Error())

	_, ok := h.chain.Get(helloHash)
	assert.False(t, ok)
}

func TestConnectRejected(t *testing.T) {
	h := newHarness(t)

	p := wallettest.NewProvider(h.chain)
	p.RejectAccounts = true
	res := h.run(t, p, "", DefaultOptions(), "balance")
	require.Error(t, res.err)
	assert.True(t, p.Closed())
}

func TestVerifyNotFound(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, nil, "", DefaultOptions(), "verify", helloHash)
	require.NoError(t, res.err)
	assert.Equal(t, "❌ "+workflow.MsgNotFound+"\n", res.out)
}

func TestShareAndDelete(t *testing.T) {
	h := newHarness(t)
	p := wallettest.NewProvider(h.chain)
	h.chain.Put(helloHash, wallettest.Record{
		Filename:  "hello.txt",
		IPFSCid:   workflow.DummyIPFSCid,
		Uploader:  p.Accounts()[0],
		Timestamp: 1_700_000_000,
	})
	grantee := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	res := h.run(t, p, "", DefaultOptions(), "share", helloHash, grantee.Hex())
	require.NoError(t, res.err, res.errOut)
	assert.Contains(t, res.out, "✅ "+workflow.MsgShared)
	rec, _ := h.chain.Get(helloHash)
	assert.Equal(t, []common.Address{grantee}, rec.SharedTo)

	res = h.run(t, wallettest.NewProvider(h.chain), "", DefaultOptions(), "delete", helloHash)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "Transaction failed: ")

	res = h.run(t, p, "", DefaultOptions(), "delete", helloHash)
	require.NoError(t, res.err, res.errOut)
	assert.Contains(t, res.out, "✅ "+workflow.MsgDeleted)
	_, ok := h.chain.Get(helloHash)
	assert.False(t, ok)
}

func TestShareInvalidAddress(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, nil, "", DefaultOptions(), "share", helloHash, "not-an-address")
	require.Error(t, res.err)
	assert.Equal(t, workflow.MsgEnterAddress, res.err.Error())
	assert.Empty(t, h.chain.Calls())
}

func TestBalance(t *testing.T) {
	h := newHarness(t)
	p := wallettest.NewProvider(h.chain)

	res := h.run(t, p, "", DefaultOptions(), "balance")
	require.NoError(t, res.err, res.errOut)
	assert.Contains(t, res.out, "Account: "+p.Accounts()[0].Hex())
	assert.Contains(t, res.out, "Balance: 1.0000 SEP")
}

func TestNetwork(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, nil, "", DefaultOptions(), "network")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Network:  Sepolia Test Network")
	assert.Contains(t, res.out, "Chain ID: 11155111")
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fvault.yaml")
	opts := DefaultOptions()
	opts.ConfigPath = path
	contract := "0x00000000000000000000000000000000000000bb"

	var out bytes.Buffer
	app := New(opts, strings.NewReader(""), &out, &out)
	require.NoError(t, app.Run(context.Background(), "config", []string{"init", "--contract", contract}))
	assert.Contains(t, out.String(), "✅ Wrote "+path)

	app = New(opts, strings.NewReader(""), &out, &out)
	err := app.Run(context.Background(), "config", []string{"init"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	out.Reset()
	app = New(opts, strings.NewReader(""), &out, &out)
	require.NoError(t, app.Run(context.Background(), "config", []string{"show"}))
	assert.Contains(t, out.String(), "chain_id: 11155111")
	assert.Contains(t, out.String(), contract)
}

func TestConfigMissingExplicitPath(t *testing.T) {
	opts := DefaultOptions()
	opts.ConfigPath = filepath.Join(t.TempDir(), "nope.yaml")

	var out bytes.Buffer
	app := New(opts, strings.NewReader(""), &out, &out)
	err := app.Run(context.Background(), "network", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open config file")
}

func TestAccountNewAndList(t *testing.T) {
	h := newHarness(t)

	res := h.run(t, nil, "secret\nsecret\n", DefaultOptions(), "account", "new")
	require.NoError(t, res.err, res.errOut)
	assert.Contains(t, res.out, "✅ Created account 0x")

	res = h.run(t, nil, "", DefaultOptions(), "account", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "1. 0x")

	res = h.run(t, nil, "secret\nother\n", DefaultOptions(), "account", "new")
	assert.EqualError(t, res.err, "passphrases do not match")
}

func TestApprover(t *testing.T) {
	accounts := []common.Address{common.HexToAddress("0x01")}
	var errOut bytes.Buffer

	app := New(DefaultOptions(), strings.NewReader("y\n"), &bytes.Buffer{}, &errOut)
	ok, err := app.approver().ApproveAccounts(context.Background(), accounts)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, errOut.String(), "[y/N]")

	app = New(DefaultOptions(), strings.NewReader("\n"), &bytes.Buffer{}, &errOut)
	ok, err = app.approver().ApproveNetwork(context.Background(), wallet.ChainParams{ChainName: "Sepolia Test Network"})
	require.NoError(t, err)
	assert.False(t, ok)

	opts := DefaultOptions()
	opts.Yes = true
	app = New(opts, strings.NewReader(""), &bytes.Buffer{}, &errOut)
	assert.Equal(t, wallet.AutoApprove{}, app.approver())
}

func TestUnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	app := New(DefaultOptions(), strings.NewReader(""), &out, &errOut)
	err := app.Run(context.Background(), "frobnicate", nil)
	assert.EqualError(t, err, "unknown command: frobnicate")
	assert.Contains(t, errOut.String(), "Usage: fvault")
}

func TestParseInterspersed(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	name := fs.String("name", "", "")
	positional, err := parseInterspersed(fs, []string{"a.txt", "--name", "b", "c.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "c.txt"}, positional)
	assert.Equal(t, "b", *name)
}
