package gateway

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme"
	"golang.org/x/crypto/acme/autocert"

	"github.com/DeBrosOfficial/filevault/pkg/certutil"
	"github.com/DeBrosOfficial/filevault/pkg/config"
	"github.com/DeBrosOfficial/filevault/pkg/logging"
)

const (
	letsEncryptProduction = "https://acme-v02.api.letsencrypt.org/directory"
	letsEncryptStaging    = "https://acme-staging-v02.api.letsencrypt.org/directory"
)

// Start serves until ctx is cancelled, then shuts down gracefully. With
// HTTPS enabled it also runs a plain HTTP listener for ACME challenges and
// redirects.
func (g *Gateway) Start(ctx context.Context) error {
	var err error
	if g.cfg.HTTPS.Enabled {
		err = g.startHTTPS()
	} else {
		err = g.startHTTP()
	}
	if err != nil {
		return err
	}

	<-ctx.Done()
	return g.Stop()
}

func (g *Gateway) startHTTP() error {
	ln, err := net.Listen("tcp", g.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", g.cfg.ListenAddr, err)
	}
	srv := &http.Server{
		Handler:           g.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.serve(srv, ln, "HTTP gateway")
	return nil
}

func (g *Gateway) startHTTPS() error {
	https := g.cfg.HTTPS
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	switch {
	case https.CertFile != "" && https.KeyFile != "":
		cert, err := tls.LoadX509KeyPair(https.CertFile, https.KeyFile)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	case https.AutoCert:
		g.certManager = newCertManager(https, g.logger)
		tlsConfig.GetCertificate = g.certManager.GetCertificate
		tlsConfig.NextProtos = []string{"h2", "http/1.1", acme.ALPNProto}
	case https.SelfSigned:
		cert, err := certutil.NewCertificateManager(certCacheDir(https)).EnsureCertificate(https.Domain)
		if err != nil {
			return fmt.Errorf("failed to prepare self-signed certificate: %w", err)
		}
		g.logger.ComponentWarn(logging.ComponentGateway, "Serving a self-signed certificate",
			zap.String("domain", https.Domain))
		tlsConfig.Certificates = []tls.Certificate{cert}
	default:
		return fmt.Errorf("HTTPS enabled but no certificate source configured")
	}

	httpPort := https.HTTPPort
	if httpPort == 0 {
		httpPort = 80
	}
	httpsPort := https.HTTPSPort
	if httpsPort == 0 {
		httpsPort = 443
	}

	httpLn, err := net.Listen("tcp", fmt.Sprintf(":%d", httpPort))
	if err != nil {
		return fmt.Errorf("failed to listen on :%d: %w", httpPort, err)
	}
	tlsLn, err := tls.Listen("tcp", fmt.Sprintf(":%d", httpsPort), tlsConfig)
	if err != nil {
		httpLn.Close()
		return fmt.Errorf("failed to create TLS listener: %w", err)
	}

	g.serve(&http.Server{Handler: g.redirectHandler(httpsPort), ReadHeaderTimeout: 10 * time.Second}, httpLn, "HTTP listener (ACME/redirect)")
	g.serve(&http.Server{Handler: g.router, TLSConfig: tlsConfig, ReadHeaderTimeout: 10 * time.Second}, tlsLn, "HTTPS gateway")
	return nil
}

func certCacheDir(https config.HTTPSConfig) string {
	if https.CacheDir != "" {
		return https.CacheDir
	}
	if dir, err := config.ConfigDir(); err == nil {
		return filepath.Join(dir, "tls-cache")
	}
	return "tls-cache"
}

func newCertManager(https config.HTTPSConfig, logger *logging.ColoredLogger) *autocert.Manager {
	cacheDir := certCacheDir(https)

	directoryURL := letsEncryptProduction
	if os.Getenv("FILEVAULT_ACME_STAGING") != "" {
		directoryURL = letsEncryptStaging
		logger.ComponentWarn(logging.ComponentGateway,
			"Using Let's Encrypt STAGING - certificates will not be trusted by production clients",
			zap.String("domain", https.Domain))
	}

	logger.ComponentInfo(logging.ComponentGateway, "Let's Encrypt autocert configured",
		zap.String("domain", https.Domain),
		zap.String("cache_dir", cacheDir))

	return &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(https.Domain),
		Cache:      autocert.DirCache(cacheDir),
		Email:      https.Email,
		Client:     &acme.Client{DirectoryURL: directoryURL},
	}
}

// redirectHandler answers ACME HTTP-01 challenges and sends everything else
// to the HTTPS listener.
func (g *Gateway) redirectHandler(httpsPort int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.certManager != nil && strings.HasPrefix(r.URL.Path, "/.well-known/acme-challenge/") {
			g.certManager.HTTPHandler(nil).ServeHTTP(w, r)
			return
		}

		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		target := "https://" + host + r.URL.RequestURI()
		if httpsPort != 443 {
			target = fmt.Sprintf("https://%s:%d%s", host, httpsPort, r.URL.RequestURI())
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})
}

func (g *Gateway) serve(srv *http.Server, ln net.Listener, name string) {
	g.mu.Lock()
	g.servers = append(g.servers, srv)
	g.mu.Unlock()

	g.logger.ComponentInfo(logging.ComponentGateway, name+" starting",
		zap.String("addr", ln.Addr().String()))
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			g.logger.ComponentError(logging.ComponentGateway, name+" error", zap.Error(err))
		}
	}()
}

// Stop gracefully stops every listener.
func (g *Gateway) Stop() error {
	g.mu.Lock()
	servers := g.servers
	g.servers = nil
	g.mu.Unlock()
	if len(servers) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	g.logger.ComponentInfo(logging.ComponentGateway, "HTTP gateway shutting down")

	var errs []error
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	g.logger.ComponentInfo(logging.ComponentGateway, "HTTP gateway shutdown complete")
	return nil
}
