//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DeBrosOfficial/filevault/pkg/hashing"
)

func TestGateway_Health(t *testing.T) {
	SkipIfMissingGateway(t)

	req := &HTTPRequest{Method: http.MethodGet, Path: "/health", Timeout: 10 * time.Second}
	body, status, err := req.Do(context.Background())
	if err != nil {
		t.Fatalf("health request error: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d", status)
	}
	var out map[string]interface{}
	if err := DecodeJSON(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["status"] != "ok" {
		t.Fatalf("status field: %v", out["status"])
	}
}

func TestGateway_HashUpload(t *testing.T) {
	SkipIfMissingGateway(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "hello.txt")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("hello"))
	mw.Close()

	resp, err := NewHTTPClient(10*time.Second).Post(GetGatewayURL()+"/v1/files/hash", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var out map[string]interface{}
	if err := DecodeJSONFrom(resp, &out); err != nil {
		t.Fatal(err)
	}
	if out["hash"] != "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824" {
		t.Fatalf("hash: %v", out["hash"])
	}
}

// TestGateway_FileLifecycle stores, verifies and deletes a record. It needs a
// connected, funded wallet and spends gas on the configured network.
func TestGateway_FileLifecycle(t *testing.T) {
	SkipIfMissingGateway(t)
	ctx := context.Background()

	var sess map[string]interface{}
	body, _, err := (&HTTPRequest{Method: http.MethodGet, Path: "/v1/session"}).Do(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := DecodeJSON(body, &sess); err != nil {
		t.Fatal(err)
	}
	if sess["connected"] != true {
		t.Skip("gateway wallet not connected; start it with `fvault serve --connect`")
	}

	content := GenerateUniqueContent("e2e")
	hash := hashing.Bytes(content)

	body, status, err := (&HTTPRequest{
		Method: http.MethodPost,
		Path:   "/v1/files",
		Body:   map[string]string{"hash": hash, "filename": "e2e.txt"},
	}).Do(ctx)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if status != http.StatusOK {
		t.Fatalf("store status %d: %s", status, body)
	}

	body, status, err = (&HTTPRequest{Method: http.MethodGet, Path: "/v1/files/" + hash}).Do(ctx)
	if err != nil || status != http.StatusOK {
		t.Fatalf("verify: %v status %d", err, status)
	}
	var verify map[string]interface{}
	if err := DecodeJSON(body, &verify); err != nil {
		t.Fatal(err)
	}
	if verify["valid"] != true {
		t.Fatalf("expected valid record, got %s", body)
	}

	body, status, err = (&HTTPRequest{Method: http.MethodDelete, Path: "/v1/files/" + hash}).Do(ctx)
	if err != nil || status != http.StatusOK {
		t.Fatalf("delete: %v status %d: %s", err, status, body)
	}
}

func TestGateway_SessionWebsocket(t *testing.T) {
	SkipIfMissingGateway(t)

	wsURL := "ws" + strings.TrimPrefix(GetGatewayURL(), "http") + "/v1/session/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var snap map[string]interface{}
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if _, ok := snap["state"]; !ok {
		t.Fatalf("snapshot without state: %v", snap)
	}
}
