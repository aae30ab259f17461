package errors

// Action names the user-facing action an error surfaced from.
type Action string

const (
	ActionConnect Action = "connect"
	ActionHash    Action = "hash"
	ActionStore   Action = "store"
	ActionVerify  Action = "verify"
	ActionShare   Action = "share"
	ActionDelete  Action = "delete"
)

// Describe converts err into the message shown to the user for action.
func Describe(action Action, err error) string {
	if err == nil {
		return ""
	}

	switch {
	case IsProviderUnavailable(err):
		return "No wallet provider detected. Configure a keystore or an external signer."
	case IsNotConnected(err):
		return "Please connect your wallet first"
	case IsConnectInProgress(err):
		return "Connection already in progress"
	case IsHashFailure(err):
		return "Error calculating file hash"
	}

	switch action {
	case ActionStore, ActionShare, ActionDelete:
		msg := "Transaction failed: "
		switch {
		case IsInsufficientFunds(err):
			return msg + "Insufficient funds for gas"
		case IsUserRejected(err):
			return msg + "Transaction rejected by user"
		case IsValidation(err):
			return GetErrorMessage(err)
		default:
			return msg + GetErrorMessage(err)
		}
	case ActionVerify:
		if IsValidation(err) {
			return GetErrorMessage(err)
		}
		return "Verification failed: " + GetErrorMessage(err)
	default:
		return GetErrorMessage(err)
	}
}
