// Package rpcproxy routes chain RPC traffic through an optional SOCKS5 proxy.
// Loopback, private and link-local targets always bypass the proxy so a local
// node or devnet keeps working.
package rpcproxy

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gorilla/websocket"
	goproxy "golang.org/x/net/proxy"
)

// socksContextDialer dials through a SOCKS5 proxy.
type socksContextDialer struct{ addr string }

func (d *socksContextDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	// Derive timeout from context deadline if present
	var timeout time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	base := &net.Dialer{Timeout: timeout}
	socksDialer, err := goproxy.SOCKS5("tcp", d.addr, nil, base)
	if err != nil {
		return nil, err
	}
	return socksDialer.Dial(network, address)
}

// Bypass reports whether host should be dialled directly.
func Bypass(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}

// DialContextFunc returns a dial function that uses socksAddr unless it is
// empty or the target is local.
func DialContextFunc(socksAddr string) func(ctx context.Context, network, addr string) (net.Conn, error) {
	direct := &net.Dialer{Timeout: 30 * time.Second}
	if socksAddr == "" {
		return direct.DialContext
	}
	socks := &socksContextDialer{addr: socksAddr}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		if Bypass(host) {
			return direct.DialContext(ctx, network, addr)
		}
		return socks.DialContext(ctx, network, addr)
	}
}

// NewHTTPClient returns an *http.Client whose connections follow DialContextFunc.
// Without a proxy address it returns http.DefaultClient.
func NewHTTPClient(socksAddr string) *http.Client {
	if socksAddr == "" {
		return http.DefaultClient
	}
	return &http.Client{Transport: &http.Transport{
		DialContext:         DialContextFunc(socksAddr),
		TLSHandshakeTimeout: 15 * time.Second,
	}}
}

// Dial connects a go-ethereum client to rawurl, routing http(s) and ws(s)
// transports through socksAddr when set.
func Dial(ctx context.Context, rawurl, socksAddr string) (*ethclient.Client, error) {
	opts := []rpc.ClientOption{
		rpc.WithHTTPClient(NewHTTPClient(socksAddr)),
	}
	if socksAddr != "" {
		opts = append(opts, rpc.WithWebsocketDialer(websocket.Dialer{
			NetDialContext:   DialContextFunc(socksAddr),
			HandshakeTimeout: 15 * time.Second,
		}))
	}

	rc, err := rpc.DialOptions(ctx, rawurl, opts...)
	if err != nil {
		return nil, err
	}
	return ethclient.NewClient(rc), nil
}

// Running reports whether a SOCKS5 proxy answers at socksAddr.
func Running(socksAddr string) bool {
	if socksAddr == "" {
		return false
	}
	conn, err := net.DialTimeout("tcp", socksAddr, 200*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
