package entity

import (
	"time"

	"github.com/inkflow/inkflow/internal/pkg/valueobject"
)

type User struct {
	ID        int64
	Email     string
	FullName  string
	AvatarURL string
	Status    UserStatus
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type UserCredential struct {
	UserID    int64
	Password  string // hashed
	UpdatedAt time.Time
}

type Challenge struct {
	ID        int64
	UserID    int64
	Contact   string
	Purpose   ChallengePurpose
	Code      []byte // AES-GCM encrypted passcode
	Attempts  int32
	Used      bool
	UsedAt    *time.Time
	CreatedAt time.Time
	ExpiresAt time.Time
	Metadata  valueobject.JSONMap
}

type TOTPFactor struct {
	ID         int64
	UserID     int64
	Secret     []byte // AES-GCM encrypted
	KeyVersion int16  // key rotation version
	Confirmed  bool
}

type RefreshToken struct {
	ID                int64
	UserID            int64
	TokenHash         string
	ExpiresAt         time.Time
	Revoked           bool
	ReplacedByTokenID *int64
	Metadata          valueobject.JSONMap
}

// ---- //

type NewUser struct {
	ID       int64
	Email    string
	FullName string
	Password string // hashed
	Status   UserStatus
}

type NewChallenge struct {
	ID        int64
	UserID    int64
	Contact   string
	Purpose   ChallengePurpose
	Code      []byte
	ExpiresAt time.Time
	Metadata  valueobject.JSONMap
}

type UserLoginInfo struct {
	ID       int64
	Email    string
	Status   UserStatus
	Password string
	HasTOTP  bool
}

type UserCredentialInfo struct {
	ID       int64
	Email    string
	Status   UserStatus
	Password string
}

type RotateRefreshToken struct {
	NewID        int64
	OldID        int64
	UserID       int64
	NewTokenHash string
	NewExpiresAt time.Time
}

type UserRefreshToken struct {
	UserID                   int64
	UserEmail                string
	UserStatus               UserStatus
	RefreshID                int64
	RefreshTokenHash         string
	RefreshRevoked           bool
	RefreshReplacedByTokenID *int64
	RefreshExpiresAt         time.Time
}
