// Package gateway exposes the workflow controller over HTTP: session control,
// hashing, storing, verifying and managing file records, plus a WebSocket
// stream of session snapshots.
package gateway

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/DeBrosOfficial/filevault/pkg/config"
	"github.com/DeBrosOfficial/filevault/pkg/logging"
	"github.com/DeBrosOfficial/filevault/pkg/workflow"
)

// Gateway serves the HTTP API.
type Gateway struct {
	cfg       config.GatewayConfig
	network   config.NetworkConfig
	contract  string
	ctrl      *workflow.Controller
	logger    *logging.ColoredLogger
	router    chi.Router
	upgrader  websocket.Upgrader
	startedAt time.Time

	certManager *autocert.Manager

	mu      sync.Mutex
	servers []*http.Server
}

// New builds the gateway and its routes. Nothing listens until Start.
func New(cfg *config.Config, ctrl *workflow.Controller, logger *logging.ColoredLogger) *Gateway {
	if logger == nil {
		logger = logging.NewNop()
	}
	g := &Gateway{
		cfg:       cfg.Gateway,
		network:   cfg.Network,
		contract:  cfg.Contract.Address,
		ctrl:      ctrl,
		logger:    logger,
		startedAt: time.Now(),
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     g.checkOrigin,
	}
	g.router = g.routes()

	logger.ComponentInfo(logging.ComponentGateway, "HTTP gateway initialized",
		zap.String("listen_addr", g.cfg.ListenAddr),
		zap.Bool("https", g.cfg.HTTPS.Enabled))
	return g
}

// Router returns the chi router for testing or extension.
func (g *Gateway) Router() chi.Router {
	return g.router
}

// checkOrigin admits same-host requests and those from an allowed origin.
// Requests without an Origin header come from non-browser clients.
func (g *Gateway) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range g.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
