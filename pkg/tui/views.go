package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/DeBrosOfficial/filevault/pkg/session"
	"github.com/DeBrosOfficial/filevault/pkg/wallet"
	"github.com/DeBrosOfficial/filevault/pkg/workflow"
)

func renderHeader() string {
	return titleStyle.Render("File Integrity Vault") + "\n" +
		subtitleStyle.Render("Anchor SHA-256 file hashes on chain")
}

// View renders the UI.
func (m Model) View() string {
	var s strings.Builder
	s.WriteString(renderHeader())
	s.WriteString("\n\n")
	s.WriteString(m.sessionBox())
	s.WriteString("\n\n")

	switch m.screen {
	case ScreenHome:
		s.WriteString(m.homeView())
	case ScreenStore:
		s.WriteString(m.storeView())
	case ScreenVerify:
		s.WriteString(m.verifyView())
	case ScreenResult:
		s.WriteString(m.resultView())
	}

	if m.status != "" {
		s.WriteString("\n\n" + warningStyle.Render(m.status))
	}
	if m.err != "" {
		s.WriteString("\n\n" + errorStyle.Render("✗ "+m.err))
	}
	return s.String()
}

func (m Model) sessionBox() string {
	network := m.ctrl.Session().Network()
	var b strings.Builder
	fmt.Fprintf(&b, "Network:  %s (%s)\n", network.ChainName, network.ChainID)
	if m.snap.Connected {
		fmt.Fprintf(&b, "Account:  %s\n", wallet.ShortAddress(m.snap.Account))
		fmt.Fprintf(&b, "Balance:  %s", wallet.DisplayBalance(m.snap.Balance, network.NativeCurrency.Symbol))
	} else {
		b.WriteString("Account:  " + blurredStyle.Render(stateLabel(m.snap)))
	}
	return boxStyle.Render(b.String())
}

func stateLabel(snap session.Snapshot) string {
	switch {
	case snap.Loading || snap.State == session.StateConnecting:
		return "connecting..."
	case snap.State == session.StateUninitialized:
		return "no wallet provider"
	default:
		return "not connected"
	}
}

func (m Model) homeView() string {
	var s strings.Builder
	connect := "Connect wallet"
	if m.snap.Connected {
		connect = "Disconnect wallet"
	}
	options := [menuLen]string{
		menuConnect: connect,
		menuStore:   "Store a file hash",
		menuVerify:  "Verify a file",
		menuRefresh: "Refresh balance",
		menuQuit:    "Quit",
	}
	for i, opt := range options {
		if i == m.cursor {
			s.WriteString(cursorStyle.Render("→ ") + focusedStyle.Render(opt) + "\n")
		} else {
			s.WriteString("  " + blurredStyle.Render(opt) + "\n")
		}
	}
	s.WriteString(helpStyle.Render("↑/↓ to select • Enter to confirm • c to connect • q to quit"))
	return s.String()
}

func (m Model) storeView() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Store File Hash") + "\n")
	labels := [fieldLen]string{fieldPath: "File", fieldName: "Name", fieldHash: "Hash"}
	for i, in := range m.inputs {
		label := blurredStyle.Render(fmt.Sprintf("%-5s", labels[i]))
		if i == m.focus {
			label = focusedStyle.Render(fmt.Sprintf("%-5s", labels[i]))
		}
		s.WriteString(label + " " + in.View() + "\n")
	}
	s.WriteString(helpStyle.Render("Enter on File to hash it • Enter on Hash to submit • Tab to move • Esc to go back"))
	return s.String()
}

func (m Model) verifyView() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Verify File") + "\n")
	s.WriteString("Enter a file hash or the path of a local file:\n\n")
	s.WriteString(m.verify.View() + "\n")
	s.WriteString(helpStyle.Render("Enter to verify • Esc to go back"))
	return s.String()
}

func (m Model) resultView() string {
	title := errorStyle.Render("✗ " + m.result.title)
	if m.result.ok {
		title = successStyle.Render("✓ " + m.result.title)
	}
	body := title
	if len(m.result.lines) > 0 {
		body += "\n\n" + strings.Join(m.result.lines, "\n")
	}
	return boxStyle.Render(body) + "\n" + helpStyle.Render("Press Enter to continue")
}

func storeResult(res *workflow.StoreResult) result {
	lines := []string{
		"File:     " + res.Filename,
		"Hash:     " + res.FileHash,
		"Tx:       " + res.TxHash.Hex(),
	}
	if res.TxURL != "" {
		lines = append(lines, "Explorer: "+res.TxURL)
	}
	if res.IPFSCid != workflow.DummyIPFSCid {
		lines = append(lines, "IPFS:     "+res.IPFSCid)
	}
	return result{ok: true, title: res.Message, lines: lines}
}

func verifyResult(res *workflow.VerifyResult) result {
	if !res.Valid {
		return result{title: res.Message}
	}
	e := res.Entry
	lines := []string{
		"File:     " + e.Filename,
		"Uploader: " + e.Uploader.Hex(),
		"Stored:   " + e.Timestamp.UTC().Format(time.RFC3339),
	}
	if e.IPFSCid != "" && e.IPFSCid != workflow.DummyIPFSCid {
		lines = append(lines, "IPFS:     "+e.IPFSCid)
	}
	return result{ok: true, title: res.Message, lines: lines}
}
