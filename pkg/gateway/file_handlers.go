package gateway

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/filevault/pkg/errors"
	"github.com/DeBrosOfficial/filevault/pkg/hashing"
	"github.com/DeBrosOfficial/filevault/pkg/logging"
	"github.com/DeBrosOfficial/filevault/pkg/metrics"
	"github.com/DeBrosOfficial/filevault/pkg/workflow"
)

type hashResponse struct {
	Hash     string `json:"hash"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// hashHandler digests the multipart field "file" as it streams in. Nothing
// is written to disk.
func (g *Gateway) hashHandler(w http.ResponseWriter, r *http.Request) {
	if g.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, g.cfg.MaxUploadBytes)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, r, errors.ActionHash, errors.NewValidationError("file", workflow.MsgSelectFile, nil))
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			g.writeUploadError(w, r, err)
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		h := hashing.New()
		n, err := io.Copy(h, part)
		_ = part.Close()
		metrics.WorkflowOp(workflow.OpHash, err)
		if err != nil {
			g.writeUploadError(w, r, errors.NewHashError(part.FileName(), err))
			return
		}
		metrics.BytesHashed(n)

		writeJSON(w, http.StatusOK, hashResponse{
			Hash:     h.SumHex(),
			Filename: part.FileName(),
			Size:     n,
		})
		return
	}
	writeError(w, r, errors.ActionHash, errors.NewValidationError("file", workflow.MsgSelectFile, nil))
}

func (g *Gateway) writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errors.HTTPError{
			Code:    errors.CodeValidation,
			Message: "file exceeds the upload limit",
			Details: map[string]string{"limit_bytes": strconv.FormatInt(tooLarge.Limit, 10)},
		})
		return
	}
	g.logger.ComponentWarn(logging.ComponentGateway, "Hash upload failed", zap.Error(err))
	writeError(w, r, errors.ActionHash, err)
}

type storeRequest struct {
	Hash     string `json:"hash"`
	Filename string `json:"filename"`
}

func (g *Gateway) storeHandler(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, errors.ActionStore, err)
		return
	}
	res, err := g.ctrl.Store(r.Context(), workflow.StoreRequest{
		Hash: strings.TrimSpace(req.Hash),
		Name: strings.TrimSpace(req.Filename),
	})
	if err != nil {
		var tx *workflow.TxResult
		if res != nil {
			tx = &res.TxResult
		}
		g.writeTxError(w, r, errors.ActionStore, tx, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (g *Gateway) verifyHandler(w http.ResponseWriter, r *http.Request) {
	res, err := g.ctrl.Verify(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		writeError(w, r, errors.ActionVerify, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type shareRequest struct {
	Address string `json:"address"`
}

func (g *Gateway) shareHandler(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, errors.ActionShare, err)
		return
	}
	if !common.IsHexAddress(req.Address) {
		writeError(w, r, errors.ActionShare, errors.NewValidationError("address", workflow.MsgEnterAddress, req.Address))
		return
	}
	res, err := g.ctrl.Share(r.Context(), chi.URLParam(r, "hash"), common.HexToAddress(req.Address))
	if err != nil {
		g.writeTxError(w, r, errors.ActionShare, res, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (g *Gateway) deleteHandler(w http.ResponseWriter, r *http.Request) {
	res, err := g.ctrl.Delete(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		g.writeTxError(w, r, errors.ActionDelete, res, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeTxError reports a failed transaction. When the transaction was
// broadcast before the failure its hash is included so the client can
// follow it up.
func (g *Gateway) writeTxError(w http.ResponseWriter, r *http.Request, action errors.Action, res *workflow.TxResult, err error) {
	if res != nil && res.TxHash != (common.Hash{}) {
		g.logger.ComponentWarn(logging.ComponentGateway, "Transaction broadcast but not confirmed",
			zap.String("tx", res.TxHash.Hex()),
			zap.Error(err))
		w.Header().Set("X-Transaction-Hash", res.TxHash.Hex())
	}
	writeError(w, r, action, err)
}
