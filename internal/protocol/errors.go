package protocol

// Wire error codes carried in server.error.
const (
	ErrAuthFailed       = "auth_failed"
	ErrAlreadyConnected = "already_connected"
	ErrInvalidSignature = "invalid_signature"
	ErrRateLimited      = "rate_limited"
	ErrMoveBlocked      = "move_blocked"
	ErrRoomAccessDenied = "room_access_denied"
	ErrInsufficientFunds = "insufficient_funds"
	ErrWalletError      = "wallet_error"
	ErrInvalidCommand   = "invalid_command"
)

var knownCodes = map[string]struct{}{
	ErrAuthFailed:        {},
	ErrAlreadyConnected:  {},
	ErrInvalidSignature:  {},
	ErrRateLimited:       {},
	ErrMoveBlocked:       {},
	ErrRoomAccessDenied:  {},
	ErrInsufficientFunds: {},
	ErrWalletError:       {},
	ErrInvalidCommand:    {},
}

func IsKnownCode(code string) bool {
	_, ok := knownCodes[code]
	return ok
}
