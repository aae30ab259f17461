// Package ipfs stores file content in an IPFS Cluster so the on-chain record
// can point at a real content id instead of a placeholder.
package ipfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/DeBrosOfficial/filevault/pkg/config"
	"go.uber.org/zap"
)

const (
	defaultAPIURL            = "http://localhost:9094"
	defaultTimeout           = 60 * time.Second
	defaultReplicationFactor = 3
)

// ContentStore is the subset of IPFS Cluster the workflow relies on.
type ContentStore interface {
	AddFile(ctx context.Context, path string) (*AddResponse, error)
	Add(ctx context.Context, r io.Reader, name string) (*AddResponse, error)
	Pin(ctx context.Context, cid, name string) error
	Unpin(ctx context.Context, cid string) error
	Health(ctx context.Context) error
}

// Client talks to the IPFS Cluster HTTP API.
type Client struct {
	apiURL            string
	replicationFactor int
	httpClient        *http.Client
	logger            *zap.Logger
}

// AddResponse is the final object of the cluster's /add stream.
type AddResponse struct {
	Name string `json:"name"`
	Cid  string `json:"cid"`
	Size int64  `json:"size"`
}

// NewClient creates a cluster client. Zero values fall back to a local
// cluster, a 60s timeout and a replication factor of 3.
func NewClient(cfg config.IPFSConfig, logger *zap.Logger) *Client {
	apiURL := strings.TrimSuffix(cfg.ClusterAPIURL, "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	rf := cfg.ReplicationFactor
	if rf <= 0 {
		rf = defaultReplicationFactor
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiURL:            apiURL,
		replicationFactor: rf,
		httpClient:        &http.Client{Timeout: timeout},
		logger:            logger,
	}
}

// Health checks that the cluster API answers.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/id", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// AddFile uploads the file at path under its base name.
func (c *Client) AddFile(ctx context.Context, path string) (*AddResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return c.Add(ctx, f, filepath.Base(path))
}

// Add streams r to the cluster and returns the resulting CID. Size is the
// number of bytes read from r, not the DAG size.
func (c *Client) Add(ctx context.Context, r io.Reader, name string) (*AddResponse, error) {
	pr, pw := io.Pipe()
	defer pr.Close()
	form := multipart.NewWriter(pw)
	counter := &countingReader{r: r}
	done := make(chan struct{})

	go func() {
		defer close(done)
		part, err := form.CreateFormFile("file", name)
		if err == nil {
			_, err = io.Copy(part, counter)
		}
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/add", pr)
	if err != nil {
		return nil, fmt.Errorf("failed to create add request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("add request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("add failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// The cluster streams NDJSON and only starts pinning once the stream has
	// been drained, so read every object and keep the last.
	dec := json.NewDecoder(resp.Body)
	var last AddResponse
	for {
		var chunk AddResponse
		if err := dec.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode add response: %w", err)
		}
		last = chunk
	}
	if last.Cid == "" {
		return nil, fmt.Errorf("add response missing CID")
	}
	if last.Name == "" {
		last.Name = name
	}
	pr.Close()
	<-done
	last.Size = counter.n

	c.logger.Debug("Content added",
		zap.String("name", last.Name),
		zap.String("cid", last.Cid),
		zap.Int64("size", last.Size))
	return &last, nil
}

// Pin pins cid across the configured number of cluster peers.
func (c *Client) Pin(ctx context.Context, cid, name string) error {
	values := url.Values{}
	values.Set("replication-min", strconv.Itoa(c.replicationFactor))
	values.Set("replication-max", strconv.Itoa(c.replicationFactor))
	if name != "" {
		values.Set("name", name)
	}
	reqURL := c.apiURL + "/pins/" + url.PathEscape(cid) + "?" + values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create pin request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pin request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pin failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// Unpin removes the pin for cid. A CID the cluster does not track is not an
// error.
func (c *Client) Unpin(ctx context.Context, cid string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.apiURL+"/pins/"+url.PathEscape(cid), nil)
	if err != nil {
		return fmt.Errorf("failed to create unpin request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("unpin request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusNotFound:
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("unpin failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

var _ ContentStore = (*Client)(nil)
