// Package tui is the interactive terminal front end: connect a wallet, pick a
// file to anchor on chain and verify hashes.
package tui

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	"github.com/DeBrosOfficial/filevault/pkg/errors"
	"github.com/DeBrosOfficial/filevault/pkg/session"
	"github.com/DeBrosOfficial/filevault/pkg/workflow"
)

// Screen identifies the view being shown.
type Screen int

const (
	ScreenHome Screen = iota
	ScreenStore
	ScreenVerify
	ScreenResult
)

// Home menu entries.
const (
	menuConnect = iota
	menuStore
	menuVerify
	menuRefresh
	menuQuit
	menuLen
)

// Store form fields.
const (
	fieldPath = iota
	fieldName
	fieldHash
	fieldLen
)

type snapshotMsg session.Snapshot

type connectDoneMsg struct{ err error }

type balanceMsg struct{ err error }

type selectedMsg struct {
	rec workflow.FileRecord
	err error
}

type submittedMsg struct {
	tx  common.Hash
	url string
}

type storeDoneMsg struct {
	res *workflow.StoreResult
	err error
}

type verifyDoneMsg struct {
	res    *workflow.VerifyResult
	action errors.Action
	err    error
}

// result is what the result screen displays.
type result struct {
	ok    bool
	title string
	lines []string
}

// Model is the bubbletea model for the terminal UI.
type Model struct {
	ctx  context.Context
	ctrl *workflow.Controller

	updates chan session.Snapshot
	notices chan tea.Msg
	sub     event.Subscription

	screen Screen
	cursor int
	snap   session.Snapshot

	inputs []textinput.Model
	focus  int
	verify textinput.Model

	busy   bool
	status string
	err    string
	result result

	width  int
	height int
}

// NewModel builds the UI over ctrl and subscribes to its session updates.
// Call Close once the program has exited.
func NewModel(ctx context.Context, ctrl *workflow.Controller) Model {
	m := Model{
		ctx:     ctx,
		ctrl:    ctrl,
		updates: make(chan session.Snapshot, 16),
		notices: make(chan tea.Msg, 4),
		snap:    ctrl.Session().Snapshot(),
		inputs:  make([]textinput.Model, fieldLen),
	}
	m.sub = ctrl.Session().SubscribeUpdates(m.updates)

	placeholders := [fieldLen]string{
		fieldPath: "path/to/file",
		fieldName: "file name",
		fieldHash: "sha-256 hex digest",
	}
	for i := range m.inputs {
		ti := textinput.New()
		ti.CharLimit = 512
		ti.Width = 64
		ti.Placeholder = placeholders[i]
		m.inputs[i] = ti
	}

	m.verify = textinput.New()
	m.verify.CharLimit = 512
	m.verify.Width = 64
	m.verify.Placeholder = "file hash or path"
	return m
}

// Close stops listening for session updates.
func (m Model) Close() {
	if m.sub != nil {
		m.sub.Unsubscribe()
	}
}

// Screen returns the current screen.
func (m Model) Screen() Screen { return m.screen }

// Init starts listening for session updates.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitSnapshot(m.updates), waitNotice(m.notices))
}

func waitSnapshot(ch <-chan session.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func waitNotice(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		m.snap = session.Snapshot(msg)
		if m.snap.Reloaded {
			m.status = "Network changed, session reset"
		}
		return m, waitSnapshot(m.updates)

	case connectDoneMsg:
		m.busy = false
		m.status = ""
		m.snap = m.ctrl.Session().Snapshot()
		if msg.err != nil {
			m.err = errors.Describe(errors.ActionConnect, msg.err)
		}
		return m, nil

	case balanceMsg:
		m.busy = false
		m.status = ""
		m.snap = m.ctrl.Session().Snapshot()
		if msg.err != nil {
			m.err = errors.GetErrorMessage(msg.err)
		}
		return m, nil

	case selectedMsg:
		m.busy = false
		m.status = ""
		if msg.err != nil {
			m.err = errors.Describe(errors.ActionHash, msg.err)
			return m, nil
		}
		m.err = ""
		m.inputs[fieldName].SetValue(msg.rec.Name)
		m.inputs[fieldHash].SetValue(msg.rec.Hash)
		cmd := m.setFocus(fieldName)
		return m, cmd

	case submittedMsg:
		m.status = "Transaction submitted: " + msg.tx.Hex()
		return m, waitNotice(m.notices)

	case storeDoneMsg:
		m.busy = false
		m.status = ""
		if msg.err != nil {
			m.err = errors.Describe(errors.ActionStore, msg.err)
			return m, nil
		}
		for i := range m.inputs {
			m.inputs[i].Reset()
		}
		m.showResult(storeResult(msg.res))
		return m, nil

	case verifyDoneMsg:
		m.busy = false
		m.status = ""
		if msg.err != nil {
			m.err = errors.Describe(msg.action, msg.err)
			return m, nil
		}
		m.verify.Reset()
		m.showResult(verifyResult(msg.res))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch m.screen {
		case ScreenHome:
			return m.updateHome(msg)
		case ScreenStore:
			return m.updateStore(msg)
		case ScreenVerify:
			return m.updateVerify(msg)
		case ScreenResult:
			switch msg.String() {
			case "enter", "esc", "q":
				m.screen = ScreenHome
			}
			return m, nil
		}
	}

	return m.updateInputs(msg)
}

func (m Model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < menuLen-1 {
			m.cursor++
		}
	case "c":
		return m.toggleConnection()
	case "enter":
		m.err = ""
		switch m.cursor {
		case menuConnect:
			return m.toggleConnection()
		case menuStore:
			m.screen = ScreenStore
			cmd := m.setFocus(fieldPath)
			return m, cmd
		case menuVerify:
			m.screen = ScreenVerify
			cmd := m.verify.Focus()
			return m, cmd
		case menuRefresh:
			m.busy = true
			m.status = "Refreshing balance..."
			return m, m.refreshCmd()
		case menuQuit:
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) toggleConnection() (tea.Model, tea.Cmd) {
	m.err = ""
	if m.snap.Connected {
		m.ctrl.Session().Disconnect()
		m.snap = m.ctrl.Session().Snapshot()
		return m, nil
	}
	m.busy = true
	m.status = "Connecting..."
	return m, m.connectCmd()
}

func (m Model) updateStore(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.err = ""
		m.screen = ScreenHome
		return m, nil
	case "tab", "down":
		cmd := m.setFocus((m.focus + 1) % fieldLen)
		return m, cmd
	case "shift+tab", "up":
		cmd := m.setFocus((m.focus + fieldLen - 1) % fieldLen)
		return m, cmd
	case "enter":
		switch m.focus {
		case fieldPath:
			path := strings.TrimSpace(m.inputs[fieldPath].Value())
			if path == "" {
				m.err = workflow.MsgSelectFile
				return m, nil
			}
			m.busy = true
			m.status = "Hashing " + path + "..."
			return m, m.selectCmd(path)
		case fieldName:
			cmd := m.setFocus(fieldHash)
			return m, cmd
		default:
			m.err = ""
			m.ctrl.SetFilename(strings.TrimSpace(m.inputs[fieldName].Value()))
			m.ctrl.SetHash(strings.TrimSpace(m.inputs[fieldHash].Value()))
			m.busy = true
			m.status = "Storing file hash..."
			return m, m.submitCmd()
		}
	}
	return m.updateInputs(msg)
}

func (m Model) updateVerify(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.err = ""
		m.screen = ScreenHome
		return m, nil
	case "enter":
		m.err = ""
		m.busy = true
		m.status = "Verifying..."
		return m, m.verifyCmd(strings.TrimSpace(m.verify.Value()))
	}
	return m.updateInputs(msg)
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case ScreenStore:
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	case ScreenVerify:
		m.verify, cmd = m.verify.Update(msg)
	}
	return m, cmd
}

func (m *Model) setFocus(field int) tea.Cmd {
	m.focus = field
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == field {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) showResult(r result) {
	m.err = ""
	m.result = r
	m.screen = ScreenResult
}

func (m Model) connectCmd() tea.Cmd {
	ctx, mgr := m.ctx, m.ctrl.Session()
	return func() tea.Msg {
		return connectDoneMsg{err: mgr.Connect(ctx)}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, mgr := m.ctx, m.ctrl.Session()
	return func() tea.Msg {
		_, err := mgr.RefreshBalance(ctx)
		return balanceMsg{err: err}
	}
}

func (m Model) selectCmd(path string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		rec, err := ctrl.SelectFile(path)
		return selectedMsg{rec: rec, err: err}
	}
}

func (m Model) submitCmd() tea.Cmd {
	ctx, ctrl, notices := m.ctx, m.ctrl, m.notices
	return func() tea.Msg {
		res, err := ctrl.Submit(ctx, func(tx common.Hash, url string) {
			select {
			case notices <- submittedMsg{tx: tx, url: url}:
			default:
			}
		})
		return storeDoneMsg{res: res, err: err}
	}
}

// verifyCmd accepts either a digest or the path of a local file, which is
// hashed first.
func (m Model) verifyCmd(input string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		hash := input
		if fi, err := os.Stat(input); err == nil && fi.Mode().IsRegular() {
			sum, err := ctrl.HashFile(input)
			if err != nil {
				return verifyDoneMsg{action: errors.ActionHash, err: err}
			}
			hash = sum
		}
		res, err := ctrl.Verify(ctx, hash)
		return verifyDoneMsg{res: res, action: errors.ActionVerify, err: err}
	}
}
