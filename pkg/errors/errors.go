package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Common sentinel errors for quick checks. Typed errors created by this
// package match the sentinel of their code under errors.Is.
var (
	// ErrProviderUnavailable is returned when no wallet provider can be detected.
	ErrProviderUnavailable = errors.New("no wallet provider detected")

	// ErrUserRejected is returned when the user declines a wallet request.
	ErrUserRejected = errors.New("request rejected by user")

	// ErrInsufficientFunds is returned when the account cannot pay for gas.
	ErrInsufficientFunds = errors.New("insufficient funds for gas")

	// ErrNetworkMismatch is returned when the wallet stays on the wrong chain.
	ErrNetworkMismatch = errors.New("wrong network")

	// ErrNetworkAddFailed is returned when the wallet refuses to add a chain.
	ErrNetworkAddFailed = errors.New("failed to add network")

	// ErrUnknownChain is returned by a wallet that has no network for a chain id.
	ErrUnknownChain = errors.New("unrecognized chain id")

	// ErrNotConnected is returned when an operation needs a connected session.
	ErrNotConnected = errors.New("wallet not connected")

	// ErrConnectInProgress is returned when a connect attempt is already running.
	ErrConnectInProgress = errors.New("connect already in progress")

	// ErrInvalidInput is returned when request input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
)

var sentinelByCode = map[string]error{
	CodeProviderUnavailable: ErrProviderUnavailable,
	CodeUserRejected:        ErrUserRejected,
	CodeInsufficientFunds:   ErrInsufficientFunds,
	CodeNetworkMismatch:     ErrNetworkMismatch,
	CodeNetworkAddFailed:    ErrNetworkAddFailed,
	CodeUnknownChain:        ErrUnknownChain,
	CodeNotConnected:        ErrNotConnected,
	CodeConnectInProgress:   ErrConnectInProgress,
	CodeValidation:          ErrInvalidInput,
	CodeNotFound:            ErrNotFound,
}

// Error is the base interface for all custom errors in the system.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
	stack   []uintptr
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// Is reports whether target is the sentinel registered for this error's code.
func (e *BaseError) Is(target error) bool {
	sentinel, ok := sentinelByCode[e.code]
	return ok && sentinel == target
}

// Stack returns the captured stack trace.
func (e *BaseError) Stack() []uintptr {
	return e.stack
}

// captureStack captures the current stack trace.
func captureStack(skip int) []uintptr {
	const maxDepth = 32
	stack := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, stack)
	return stack[:n]
}

// StackTrace returns a formatted stack trace string.
func (e *BaseError) StackTrace() string {
	if len(e.stack) == 0 {
		return ""
	}

	var buf strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&buf, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return buf.String()
}

func newBase(code, message string, cause error) *BaseError {
	return &BaseError{
		code:    code,
		message: message,
		cause:   cause,
		stack:   captureStack(2),
	}
}

// ValidationError represents an input validation error.
type ValidationError struct {
	*BaseError
	Field string
	Value interface{}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		BaseError: newBase(CodeValidation, message, nil),
		Field:     field,
		Value:     value,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// WalletError represents a refusal by the wallet provider or its user.
type WalletError struct {
	*BaseError
	Op string
}

// NewProviderUnavailableError reports that no wallet provider was detected.
func NewProviderUnavailableError(cause error) *WalletError {
	return &WalletError{
		BaseError: newBase(CodeProviderUnavailable, "no wallet provider detected", cause),
		Op:        "detect",
	}
}

// NewUserRejectedError reports that the user declined op.
func NewUserRejectedError(op string, cause error) *WalletError {
	return &WalletError{
		BaseError: newBase(CodeUserRejected, "request rejected by user", cause),
		Op:        op,
	}
}

// NewInsufficientFundsError reports that op could not pay for gas.
func NewInsufficientFundsError(op string, cause error) *WalletError {
	return &WalletError{
		BaseError: newBase(CodeInsufficientFunds, "insufficient funds for gas", cause),
		Op:        op,
	}
}

// NetworkError represents a failure to reach the required chain.
type NetworkError struct {
	*BaseError
	ChainID   uint64
	ChainName string
}

// NewNetworkMismatchError reports that the wallet could not be switched to chainID.
func NewNetworkMismatchError(chainName string, chainID uint64, cause error) *NetworkError {
	return &NetworkError{
		BaseError: newBase(CodeNetworkMismatch, fmt.Sprintf("please switch to %s manually", chainName), cause),
		ChainID:   chainID,
		ChainName: chainName,
	}
}

// NewNetworkAddFailedError reports that the wallet refused to register chainID.
func NewNetworkAddFailedError(chainName string, chainID uint64, cause error) *NetworkError {
	return &NetworkError{
		BaseError: newBase(CodeNetworkAddFailed, fmt.Sprintf("failed to add %s", chainName), cause),
		ChainID:   chainID,
		ChainName: chainName,
	}
}

// NewUnknownChainError reports that the wallet has no network for chainID.
func NewUnknownChainError(chainID uint64) *NetworkError {
	return &NetworkError{
		BaseError: newBase(CodeUnknownChain, fmt.Sprintf("unrecognized chain id %d", chainID), nil),
		ChainID:   chainID,
	}
}

// HashError represents a local read or digest failure.
type HashError struct {
	*BaseError
	Path string
}

// NewHashError creates a hash computation error for path.
func NewHashError(path string, cause error) *HashError {
	return &HashError{
		BaseError: newBase(CodeHashFailed, "error calculating file hash", cause),
		Path:      path,
	}
}

// RemoteCallError is the catch-all for a remote rejection. Its message is the
// remote message, verbatim.
type RemoteCallError struct {
	*BaseError
	Method string
}

// NewRemoteCallError creates a remote call error for method.
func NewRemoteCallError(method string, cause error) *RemoteCallError {
	msg := "remote call failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &RemoteCallError{
		BaseError: newBase(CodeRemoteCall, msg, cause),
		Method:    method,
	}
}

// Error implements the error interface.
func (e *RemoteCallError) Error() string {
	return e.message
}

// SessionError represents an operation attempted in the wrong session state.
type SessionError struct {
	*BaseError
	Op string
}

// NewNotConnectedError reports that op needs a connected session.
func NewNotConnectedError(op string) *SessionError {
	return &SessionError{
		BaseError: newBase(CodeNotConnected, "wallet not connected", nil),
		Op:        op,
	}
}

// NewConnectInProgressError reports that another connect attempt is running.
func NewConnectInProgressError() *SessionError {
	return &SessionError{
		BaseError: newBase(CodeConnectInProgress, "connect already in progress", nil),
		Op:        "connect",
	}
}

// NewStorageError wraps an IPFS failure during op.
func NewStorageError(op string, cause error) error {
	return newBase(CodeStorageError, fmt.Sprintf("storage %s failed", op), cause)
}

// Wrap wraps an error with additional context.
// If the error is already one of our custom types, it preserves the code
// and adds the cause chain. Otherwise the code is CodeInternal.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	code := CodeInternal
	var e Error
	if errors.As(err, &e) {
		code = e.Code()
	}

	return &BaseError{
		code:    code,
		message: message,
		cause:   err,
		stack:   captureStack(1),
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// New creates a new error with a message.
func New(message string) error {
	return &BaseError{
		code:    CodeInternal,
		message: message,
		stack:   captureStack(1),
	}
}

// Newf creates a new error with a formatted message.
func Newf(format string, args ...interface{}) error {
	return New(fmt.Sprintf(format, args...))
}
