package crypt

// Purpose identifies the encryption purpose.
type Purpose string

const (
	// PurposeChallengeCode scopes encryption to challenge passcodes at rest.
	PurposeChallengeCode Purpose = "challenge_code"
	// PurposeTOTPSecret scopes encryption to authenticator-app secrets.
	PurposeTOTPSecret Purpose = "totp_secret"
)

// Scope binds encryption to owner-specific identifiers.
// This is used as AAD (Additional Authenticated Data) in AES-GCM.
type Scope struct {
	// UserID is the user identifier for scoping.
	UserID int64
	// Purpose is the encryption purpose.
	Purpose Purpose
}
