package gateway

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/filevault/pkg/errors"
	"github.com/DeBrosOfficial/filevault/pkg/logging"
	"github.com/DeBrosOfficial/filevault/pkg/session"
	"github.com/DeBrosOfficial/filevault/pkg/wallet"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

func (g *Gateway) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"session": g.ctrl.Session().State().String(),
		"uptime":  time.Since(g.startedAt).Round(time.Second).String(),
	})
}

type networkResponse struct {
	ChainID          uint64                `json:"chain_id"`
	ChainName        string                `json:"chain_name"`
	BlockExplorerURL string                `json:"block_explorer_url,omitempty"`
	NativeCurrency   wallet.NativeCurrency `json:"native_currency"`
	Contract         string                `json:"contract"`
}

func (g *Gateway) networkHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, networkResponse{
		ChainID:          g.network.ChainID,
		ChainName:        g.network.ChainName,
		BlockExplorerURL: g.network.BlockExplorerURL,
		NativeCurrency:   wallet.NativeCurrency(g.network.NativeCurrency),
		Contract:         g.contract,
	})
}

func (g *Gateway) sessionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.ctrl.Session().Snapshot())
}

func (g *Gateway) connectHandler(w http.ResponseWriter, r *http.Request) {
	mgr := g.ctrl.Session()
	if err := mgr.Connect(r.Context()); err != nil {
		writeError(w, r, errors.ActionConnect, err)
		return
	}
	writeJSON(w, http.StatusOK, mgr.Snapshot())
}

func (g *Gateway) disconnectHandler(w http.ResponseWriter, r *http.Request) {
	mgr := g.ctrl.Session()
	mgr.Disconnect()
	writeJSON(w, http.StatusOK, mgr.Snapshot())
}

func (g *Gateway) balanceHandler(w http.ResponseWriter, r *http.Request) {
	mgr := g.ctrl.Session()
	if _, err := mgr.RefreshBalance(r.Context()); err != nil {
		writeError(w, r, errors.ActionConnect, err)
		return
	}
	writeJSON(w, http.StatusOK, mgr.Snapshot())
}

// sessionWebsocketHandler streams session snapshots, starting with the
// current one, until the client goes away.
func (g *Gateway) sessionWebsocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.ComponentWarn(logging.ComponentGateway, "session ws: upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	log := func(msg string, fields ...zap.Field) {
		g.logger.ComponentDebug(logging.ComponentGateway, msg, append(fields, zap.String("conn_id", connID))...)
	}
	log("session ws: client connected", zap.String("remote", r.RemoteAddr))

	mgr := g.ctrl.Session()
	updates := make(chan session.Snapshot, 16)
	sub := mgr.SubscribeUpdates(updates)
	defer sub.Unsubscribe()

	// The read side only handles control frames; it ends when the client
	// closes the connection.
	done := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(snap session.Snapshot) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(snap)
	}
	if err := write(mgr.Snapshot()); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case snap := <-updates:
			if err := write(snap); err != nil {
				log("session ws: write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case err := <-sub.Err():
			if err != nil {
				log("session ws: subscription ended", zap.Error(err))
			}
			return
		case <-done:
			log("session ws: client disconnected")
			return
		case <-r.Context().Done():
			return
		}
	}
}
