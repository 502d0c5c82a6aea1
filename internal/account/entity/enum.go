package entity

import "errors"

var (
	ErrUserStatusUnknown    = errors.New("account: user status is unknown")
	ErrUserStatusBanned     = errors.New("account: user status is banned")
	ErrUserStatusUnverified = errors.New("account: user status is unverified")
)

type UserStatus int16

const (
	// UserStatusUnknown is mean status is not known / not set.
	UserStatusUnknown UserStatus = 0

	// UserStatusUnverified mean user exists but has not completed verification.
	UserStatusUnverified UserStatus = 1

	// UserStatusActive mean user is verified and allowed to use the app.
	UserStatusActive UserStatus = 2

	// UserStatusBanned mean user is blocked from using the app (policy/abuse/etc).
	UserStatusBanned UserStatus = 3

	// UserStatusInactive mean user is not currently active (e.g., deactivated, closed).
	UserStatusInactive UserStatus = 4
)

func (us UserStatus) String() string {
	switch us {
	case UserStatusActive:
		return "Active"
	case UserStatusBanned:
		return "Banned"
	case UserStatusInactive:
		return "Inactive"
	case UserStatusUnverified:
		return "Unverified"
	default:
		return "Unknown"
	}
}

func (us UserStatus) IsUnknown() bool {
	switch us {
	case UserStatusUnverified, UserStatusActive, UserStatusBanned, UserStatusInactive:
		return false
	default:
		return true
	}
}

func (us UserStatus) Ensure() UserStatus {
	switch us {
	case UserStatusActive:
		return UserStatusActive
	case UserStatusBanned:
		return UserStatusBanned
	case UserStatusInactive:
		return UserStatusInactive
	case UserStatusUnverified:
		return UserStatusUnverified
	default:
		return UserStatusUnknown
	}
}

type ChallengePurpose int16

const (
	ChallengePurposeUnknown           ChallengePurpose = 0
	ChallengePurposeEmailVerification ChallengePurpose = 1
	ChallengePurposeLogin             ChallengePurpose = 2
	ChallengePurposeTwoFactor         ChallengePurpose = 3
	ChallengePurposePasswordReset     ChallengePurpose = 4
	ChallengePurposeEmailChange       ChallengePurpose = 5
	ChallengePurposeTOTPSetup         ChallengePurpose = 6
)

func ChallengePurposeFromString(str string) ChallengePurpose {
	switch str {
	case "email_verification":
		return ChallengePurposeEmailVerification
	case "login":
		return ChallengePurposeLogin
	case "two_factor":
		return ChallengePurposeTwoFactor
	case "password_reset":
		return ChallengePurposePasswordReset
	case "email_change":
		return ChallengePurposeEmailChange
	case "totp_setup":
		return ChallengePurposeTOTPSetup
	default:
		return ChallengePurposeUnknown
	}
}

func (cp ChallengePurpose) String() string {
	switch cp {
	case ChallengePurposeEmailVerification:
		return "email_verification"
	case ChallengePurposeLogin:
		return "login"
	case ChallengePurposeTwoFactor:
		return "two_factor"
	case ChallengePurposePasswordReset:
		return "password_reset"
	case ChallengePurposeEmailChange:
		return "email_change"
	case ChallengePurposeTOTPSetup:
		return "totp_setup"
	default:
		return "unknown"
	}
}

func (cp ChallengePurpose) IsUnknown() bool {
	switch cp {
	case ChallengePurposeEmailVerification, ChallengePurposeLogin,
		ChallengePurposeTwoFactor, ChallengePurposePasswordReset,
		ChallengePurposeEmailChange, ChallengePurposeTOTPSetup:
		return false
	default:
		return true
	}
}
