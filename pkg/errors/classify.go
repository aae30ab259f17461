package errors

import (
	"context"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// EIP-1193 provider error codes.
const (
	ProviderCodeUserRejected = 4001
	ProviderCodeUnauthorized = 4100
	ProviderCodeUnknownChain = 4902
)

var rejectionPhrases = []string{
	"user rejected",
	"user denied",
	"rejected by user",
	"request denied",
	"action_rejected",
}

// Classify converts a raw wallet or chain-client error into the typed
// taxonomy. Errors that are already typed, and context cancellation, pass
// through unchanged; anything unrecognized becomes a RemoteCallError for method.
func Classify(method string, err error) error {
	if err == nil {
		return nil
	}
	var typed Error
	if errors.As(err, &typed) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case ProviderCodeUserRejected, ProviderCodeUnauthorized:
			return NewUserRejectedError(method, err)
		case ProviderCodeUnknownChain:
			return &NetworkError{BaseError: newBase(CodeUnknownChain, err.Error(), nil)}
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "insufficient funds") {
		return NewInsufficientFundsError(method, err)
	}
	for _, phrase := range rejectionPhrases {
		if strings.Contains(msg, phrase) {
			return NewUserRejectedError(method, err)
		}
	}
	return NewRemoteCallError(method, err)
}
