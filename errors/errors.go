package errors

import "fmt"

// Relay event taxonomy. Acknowledged events surface all of these to the
// caller; fire-and-forget events log and drop them.
var (
	ErrInvalidPayload       = fmt.Errorf("invalid data")
	ErrAuthentication       = fmt.Errorf("authentication error")
	ErrAccessDenied         = fmt.Errorf("access denied")
	ErrConversationNotFound = fmt.Errorf("conversation not found")
	ErrMessageNotFound      = fmt.Errorf("message not found")
	ErrServer               = fmt.Errorf("server error")
)

// Account flow.
var (
	ErrUserAlreadyExists  = fmt.Errorf("username or email already in use")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("invalid password")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)
