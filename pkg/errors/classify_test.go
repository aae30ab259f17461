package errors

import (
	"context"
	"fmt"
	"testing"
)

type providerError struct {
	code int
	msg  string
}

func (e *providerError) Error() string  { return e.msg }
func (e *providerError) ErrorCode() int { return e.code }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"eip-1193 rejection", &providerError{4001, "User rejected the request."}, CodeUserRejected},
		{"eip-1193 unauthorized", &providerError{4100, "not authorized"}, CodeUserRejected},
		{"eip-1193 unknown chain", &providerError{4902, "Unrecognized chain ID"}, CodeUnknownChain},
		{"clef denial", fmt.Errorf("Request denied"), CodeUserRejected},
		{"insufficient funds", fmt.Errorf("insufficient funds for gas * price + value: balance 0"), CodeInsufficientFunds},
		{"wrapped insufficient funds", fmt.Errorf("send: %w", fmt.Errorf("INSUFFICIENT FUNDS")), CodeInsufficientFunds},
		{"revert", fmt.Errorf("execution reverted: File already exists"), CodeRemoteCall},
		{"unknown rpc code", &providerError{-32000, "nonce too low"}, CodeRemoteCall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("uploadFile", tt.err)
			if GetErrorCode(got) != tt.code {
				t.Errorf("Classify(%v) code = %s, want %s", tt.err, GetErrorCode(got), tt.code)
			}
		})
	}
}

func TestClassifyPassThrough(t *testing.T) {
	if Classify("x", nil) != nil {
		t.Error("nil must stay nil")
	}

	typed := NewNotConnectedError("verifyFile")
	if Classify("verifyFile", typed) != error(typed) {
		t.Error("typed errors must pass through unchanged")
	}

	if Classify("verifyFile", context.Canceled) != context.Canceled {
		t.Error("cancellation must pass through unchanged")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		err    error
		want   string
	}{
		{"store insufficient funds", ActionStore, NewInsufficientFundsError("uploadFile", nil), "Transaction failed: Insufficient funds for gas"},
		{"store rejected", ActionStore, NewUserRejectedError("uploadFile", nil), "Transaction failed: Transaction rejected by user"},
		{"store remote", ActionStore, NewRemoteCallError("uploadFile", fmt.Errorf("execution reverted")), "Transaction failed: execution reverted"},
		{"store validation", ActionStore, NewValidationError("file_hash", "Please select a file first", ""), "Please select a file first"},
		{"verify remote", ActionVerify, NewRemoteCallError("verifyFile", fmt.Errorf("timeout")), "Verification failed: timeout"},
		{"not connected", ActionVerify, NewNotConnectedError("verifyFile"), "Please connect your wallet first"},
		{"hash failure", ActionHash, NewHashError("a.txt", fmt.Errorf("eof")), "Error calculating file hash"},
		{"connect mismatch", ActionConnect, NewNetworkMismatchError("Sepolia Test Network", 11155111, nil), "please switch to Sepolia Test Network manually"},
		{"nil", ActionStore, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.action, tt.err); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}
