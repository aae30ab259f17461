package errors

import "errors"

// IsProviderUnavailable checks if no wallet provider could be detected.
func IsProviderUnavailable(err error) bool {
	return err != nil && errors.Is(err, ErrProviderUnavailable)
}

// IsUserRejected checks if the user declined a wallet request.
func IsUserRejected(err error) bool {
	return err != nil && errors.Is(err, ErrUserRejected)
}

// IsInsufficientFunds checks if a transaction could not pay for gas.
func IsInsufficientFunds(err error) bool {
	return err != nil && errors.Is(err, ErrInsufficientFunds)
}

// IsUnknownChain checks if the wallet had no network for a chain id.
func IsUnknownChain(err error) bool {
	return err != nil && errors.Is(err, ErrUnknownChain)
}

// IsNetwork checks if the wallet could not be moved to the required chain.
func IsNetwork(err error) bool {
	if err == nil {
		return false
	}

	var networkErr *NetworkError
	return errors.As(err, &networkErr)
}

// IsNotConnected checks if an operation needed a connected session.
func IsNotConnected(err error) bool {
	return err != nil && errors.Is(err, ErrNotConnected)
}

// IsConnectInProgress checks if a connect attempt was refused as concurrent.
func IsConnectInProgress(err error) bool {
	return err != nil && errors.Is(err, ErrConnectInProgress)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}

	var validationErr *ValidationError
	return errors.As(err, &validationErr) || errors.Is(err, ErrInvalidInput)
}

// IsHashFailure checks if a local file could not be hashed.
func IsHashFailure(err error) bool {
	if err == nil {
		return false
	}

	var hashErr *HashError
	return errors.As(err, &hashErr)
}

// IsRemoteCall checks if an error is the remote catch-all.
func IsRemoteCall(err error) bool {
	if err == nil {
		return false
	}

	var remoteErr *RemoteCallError
	return errors.As(err, &remoteErr)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	if err == nil {
		return CodeOK
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Code()
	}

	for code, sentinel := range sentinelByCode {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return CodeInternal
}

// GetErrorMessage extracts a human-readable message from an error.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return customErr.Message()
	}

	return err.Error()
}

// Cause returns the underlying cause of an error.
// It unwraps the error chain until it finds the root cause.
func Cause(err error) error {
	for {
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		underlying := unwrapper.Unwrap()
		if underlying == nil {
			return err
		}
		err = underlying
	}
}
