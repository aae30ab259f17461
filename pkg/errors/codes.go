package errors

// Error codes for categorizing errors.
const (
	// CodeOK indicates success (not an error).
	CodeOK = "OK"

	// CodeCancelled indicates the operation was cancelled by the caller.
	CodeCancelled = "CANCELLED"

	// CodeInternal indicates internal errors.
	CodeInternal = "INTERNAL"

	// CodeValidation indicates input validation failed.
	CodeValidation = "VALIDATION_ERROR"

	// CodeConfigError indicates a configuration error.
	CodeConfigError = "CONFIG_ERROR"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound = "NOT_FOUND"

	// Wallet and chain error codes

	// CodeProviderUnavailable indicates no wallet provider was detected.
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"

	// CodeUserRejected indicates the user declined account access or a transaction.
	CodeUserRejected = "USER_REJECTED"

	// CodeInsufficientFunds indicates the account cannot pay for gas.
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"

	// CodeNetworkMismatch indicates the wallet could not be switched to the required chain.
	CodeNetworkMismatch = "NETWORK_MISMATCH"

	// CodeNetworkAddFailed indicates the wallet refused to register the required chain.
	CodeNetworkAddFailed = "NETWORK_ADD_FAILED"

	// CodeUnknownChain indicates the wallet has no network for a chain id.
	CodeUnknownChain = "UNKNOWN_CHAIN"

	// CodeHashFailed indicates a local file could not be read or digested.
	CodeHashFailed = "HASH_COMPUTATION_FAILED"

	// CodeRemoteCall is the catch-all for any other remote rejection.
	CodeRemoteCall = "REMOTE_CALL_FAILED"

	// CodeNotConnected indicates an operation needs a connected session.
	CodeNotConnected = "NOT_CONNECTED"

	// CodeConnectInProgress indicates another connect attempt is in flight.
	CodeConnectInProgress = "CONNECT_IN_PROGRESS"

	// CodeStorageError indicates an IPFS storage operation failed.
	CodeStorageError = "STORAGE_ERROR"
)

// ErrorCategory represents a high-level error category.
type ErrorCategory string

const (
	// CategoryClient indicates bad input or state on the caller side.
	CategoryClient ErrorCategory = "CLIENT_ERROR"

	// CategoryWallet indicates the wallet or its user refused.
	CategoryWallet ErrorCategory = "WALLET_ERROR"

	// CategoryNetwork indicates a chain or network failure.
	CategoryNetwork ErrorCategory = "NETWORK_ERROR"

	// CategoryServer indicates a local failure.
	CategoryServer ErrorCategory = "SERVER_ERROR"
)

// GetCategory returns the category for an error code.
func GetCategory(code string) ErrorCategory {
	switch code {
	case CodeValidation, CodeNotFound, CodeNotConnected,
		CodeConnectInProgress, CodeHashFailed, CodeCancelled:
		return CategoryClient

	case CodeProviderUnavailable, CodeUserRejected, CodeInsufficientFunds:
		return CategoryWallet

	case CodeNetworkMismatch, CodeNetworkAddFailed, CodeUnknownChain,
		CodeRemoteCall, CodeStorageError:
		return CategoryNetwork

	default:
		return CategoryServer
	}
}

// IsClientError returns true if the code describes a caller-side problem.
func IsClientError(code string) bool {
	return GetCategory(code) == CategoryClient
}

// IsWalletError returns true if the code describes a wallet-side refusal.
func IsWalletError(code string) bool {
	return GetCategory(code) == CategoryWallet
}
