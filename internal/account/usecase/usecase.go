package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/inkflow/inkflow/internal/account/entity"
	"github.com/inkflow/inkflow/internal/pkg/clock"
	"github.com/inkflow/inkflow/internal/pkg/config"
	"github.com/inkflow/inkflow/internal/pkg/crypt"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
	"github.com/inkflow/inkflow/internal/pkg/goroutine"
	"github.com/inkflow/inkflow/internal/pkg/hash"
	"github.com/inkflow/inkflow/internal/pkg/idempotency"
	"github.com/inkflow/inkflow/internal/pkg/instrument"
	"github.com/inkflow/inkflow/internal/pkg/passcode"
	"github.com/inkflow/inkflow/internal/pkg/storage"
	"github.com/inkflow/inkflow/internal/pkg/token"
	"github.com/inkflow/inkflow/internal/pkg/totp"
	"github.com/inkflow/inkflow/internal/pkg/uid"
	"github.com/inkflow/inkflow/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type ChallengeVerifiedEvent struct {
	UserID     int64
	Email      string
	Purpose    string
	VerifiedAt time.Time
}

type PasswordChangedEvent struct {
	UserID    int64
	Email     string
	ChangedAt time.Time
}

type EmailChangedEvent struct {
	UserID    int64
	OldEmail  string
	NewEmail  string
	ChangedAt time.Time
}

type repoMessaging interface {
	PublishChallengeVerified(ctx context.Context, msg ChallengeVerifiedEvent) error
	PublishPasswordChanged(ctx context.Context, msg PasswordChangedEvent) error
	PublishEmailChanged(ctx context.Context, msg EmailChangedEvent) error
}

type repoEmail interface {
	SendChallengeCode(ctx context.Context, to string, purpose entity.ChallengePurpose, code string, ttl time.Duration) error
}

type repoDB interface {
	GetActiveChallenge(ctx context.Context, userID int64, purpose entity.ChallengePurpose) (*entity.Challenge, error)
	GetLatestChallenge(ctx context.Context, userID int64, purpose entity.ChallengePurpose) (*entity.Challenge, error)
	CreateChallenge(ctx context.Context, chal entity.NewChallenge) error
	RecordChallengeAttempt(ctx context.Context, id int64) (int32, error)
	MarkChallengeUsed(ctx context.Context, id int64) error
	InvalidateActiveChallenges(ctx context.Context, userID int64, purpose entity.ChallengePurpose) (int64, error)
	PurgeExpiredChallenges(ctx context.Context) (int64, error)

	GetUserLoginByEmail(ctx context.Context, email string) (*entity.UserLoginInfo, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUserCredential(ctx context.Context, userID int64) (*entity.UserCredentialInfo, error)
	ExistsUserByEmail(ctx context.Context, email string) (bool, error)
	NewRegistration(ctx context.Context, user entity.NewUser, chal entity.NewChallenge) error
	MarkEmailVerified(ctx context.Context, userID int64, oldStatus, newStatus entity.UserStatus) error
	UpdateUserEmail(ctx context.Context, userID int64, email string) error
	UpdateUserCredential(ctx context.Context, userID int64, hash string) error
	UpdateUserProfile(ctx context.Context, userID int64, fullName string) error
	UpdateUserAvatar(ctx context.Context, userID int64, avatarURL string) error

	CreateRefreshToken(ctx context.Context, ref entity.RefreshToken) error
	GetUserRefreshToken(ctx context.Context, tokenHash string) (*entity.UserRefreshToken, error)
	RotateRefreshToken(ctx context.Context, ro entity.RotateRefreshToken) error
	RevokeRefreshToken(ctx context.Context, userID int64, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID int64) (int64, error)
	DeleteExpiredRefreshTokens(ctx context.Context) (int64, error)

	GetConfirmedTOTPFactor(ctx context.Context, userID int64) (*entity.TOTPFactor, error)
	ConfirmTOTPFactor(ctx context.Context, factor entity.TOTPFactor, challengeID int64) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	repoEmail     repoEmail
	idemp         idempotency.Idempotency
	validator     validator.Validator
	cfg           config.Config
	storage       storage.Storage
	hmac          hash.Hash
	bcrypt        hash.Hash
	encryptor     crypt.Encryptor
	passcode      passcode.Generator
	uid           uid.NumberID
	uuid          uid.StringID
	oid           uid.StringID
	totp          totp.TOTPer
	clock         clock.Clocker
	accessToken   token.Issuer
	recoveryToken token.Issuer
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	RepoEmail     repoEmail
	Idempotency   idempotency.Idempotency
	Validator     validator.Validator
	Config        config.Config
	Storage       storage.Storage
	HMAC          hash.Hash
	Bcrypt        hash.Hash
	Encryptor     crypt.Encryptor
	Passcode      passcode.Generator
	UID           uid.NumberID
	UUID          uid.StringID
	OID           uid.StringID
	Totp          totp.TOTPer
	Clock         clock.Clocker
	AccessToken   token.Issuer
	RecoveryToken token.Issuer
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		repoEmail:     dep.RepoEmail,
		idemp:         dep.Idempotency,
		validator:     dep.Validator,
		cfg:           dep.Config,
		storage:       dep.Storage,
		hmac:          dep.HMAC,
		bcrypt:        dep.Bcrypt,
		encryptor:     dep.Encryptor,
		passcode:      dep.Passcode,
		uid:           dep.UID,
		uuid:          dep.UUID,
		oid:           dep.OID,
		totp:          dep.Totp,
		clock:         dep.Clock,
		accessToken:   dep.AccessToken,
		recoveryToken: dep.RecoveryToken,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("account.usecase").Start(ctx, name)
}

func (s *Usecase) ensureUserStatusAllowed(ctx context.Context, userID int64, status entity.UserStatus) error {
	sts := status.Ensure()
	switch sts {
	case entity.UserStatusUnknown:
		slog.WarnContext(ctx, "user account status is unrecognized", "user_id", userID)
		return goerror.NewBusiness("account status is unrecognized", goerror.CodeForbidden)

	case entity.UserStatusUnverified:
		slog.WarnContext(ctx, "user account is unverified", "user_id", userID)
		return goerror.NewBusiness("email not verified", goerror.CodeForbidden)

	case entity.UserStatusBanned:
		slog.WarnContext(ctx, "user account is banned", "user_id", userID)
		return goerror.NewBusiness("account is banned", goerror.CodeForbidden)

	case entity.UserStatusInactive:
		slog.WarnContext(ctx, "user account is deleted", "user_id", userID)
		return goerror.NewBusiness("account is deleted", goerror.CodeForbidden)

	default:
		return nil
	}
}

// verificationProof is the only accepted evidence that a challenge was
// verified. Its fields are unexported so account mutations cannot be driven
// by values arriving in request bodies.
type verificationProof struct {
	challengeID int64
	userID      int64
	email       string
	purpose     entity.ChallengePurpose
	metadata    map[string]any
}

// verifyChallengeCode runs the shared verification algorithm: fetch the
// newest unused challenge, reject expired ones without an attempt charge,
// atomically count the attempt, then compare codes. A proof is returned only
// after the challenge is marked used.
func (s *Usecase) verifyChallengeCode(ctx context.Context, userID int64, email string, purpose entity.ChallengePurpose, code string) (*verificationProof, error) {
	chal, err := s.repoDB.GetLatestChallenge(ctx, userID, purpose)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no active challenge", "user_id", userID, "purpose", purpose.String())
		return nil, goerror.NewBusiness("invalid or expired code", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get latest challenge", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	// Expiry never consumes an attempt.
	if !s.clock.Now().Before(chal.ExpiresAt) {
		slog.WarnContext(ctx, "challenge has expired", "user_id", userID, "challenge_id", chal.ID)
		return nil, goerror.NewBusiness("code has expired", goerror.CodeExpired)
	}

	attempts, err := s.repoDB.RecordChallengeAttempt(ctx, chal.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo record challenge attempt", "challenge_id", chal.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	// Over the cap even a correct code is rejected.
	maxAttempts := int32(s.cfg.GetInt("modules.account.otp_max_attempts"))
	if attempts > maxAttempts {
		slog.WarnContext(ctx, "challenge attempts exhausted", "user_id", userID, "challenge_id", chal.ID)
		return nil, goerror.NewBusiness("too many attempts, request a new code", goerror.CodeTooManyRequest)
	}

	plain, err := s.encryptor.Decrypt(chal.Code, crypt.Scope{UserID: userID, Purpose: crypt.PurposeChallengeCode})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt challenge code", "challenge_id", chal.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if subtle.ConstantTimeCompare(plain, []byte(code)) != 1 {
		// A miss on the final allowed attempt already exhausts the budget.
		if attempts >= maxAttempts {
			slog.WarnContext(ctx, "challenge attempts exhausted", "user_id", userID, "challenge_id", chal.ID)
			return nil, goerror.NewBusiness("too many attempts, request a new code", goerror.CodeTooManyRequest)
		}
		slog.WarnContext(ctx, "challenge code mismatch", "user_id", userID, "challenge_id", chal.ID)
		return nil, goerror.NewBusiness("invalid code", goerror.CodeUnauthorized)
	}

	if err := s.repoDB.MarkChallengeUsed(ctx, chal.ID); err != nil {
		slog.ErrorContext(ctx, "failed to repo mark challenge used", "challenge_id", chal.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publishChallengeVerified(ctx, userID, email, purpose)

	return &verificationProof{
		challengeID: chal.ID,
		userID:      userID,
		email:       email,
		purpose:     purpose,
		metadata:    chal.Metadata,
	}, nil
}

// deliveryError classifies a failed code delivery. A missing mail provider and
// a transient send failure surface as distinct codes; anything else is a plain
// server error.
func (s *Usecase) deliveryError(ctx context.Context, userID int64, err error) error {
	switch {
	case errors.Is(err, goerror.ErrUnavailable):
		slog.ErrorContext(ctx, "email delivery is not configured", "user_id", userID, "error", err)
		return goerror.NewUnavailable(err)

	case errors.Is(err, goerror.ErrDeliveryFailed):
		slog.ErrorContext(ctx, "failed to deliver challenge code", "user_id", userID, "error", err)
		return goerror.NewDeliveryFailed(err)

	default:
		slog.ErrorContext(ctx, "failed to deliver challenge code", "user_id", userID, "error", err)
		return goerror.NewServer(err)
	}
}

func (s *Usecase) publishChallengeVerified(ctx context.Context, userID int64, email string, purpose entity.ChallengePurpose) {
	msg := ChallengeVerifiedEvent{
		UserID:     userID,
		Email:      email,
		Purpose:    purpose.String(),
		VerifiedAt: s.clock.Now(),
	}

	s.goroutine.Go(ctx, func(ctx context.Context) error {
		if err := s.repoMessaging.PublishChallengeVerified(ctx, msg); err != nil {
			slog.WarnContext(ctx, "failed to publish challenge verified event", "user_id", msg.UserID, "error", err)
		}
		return nil
	})
}

// mintChallenge generates, encrypts and persists a fresh challenge, then
// returns the plaintext code for delivery. Delivery always happens after the
// insert has committed.
func (s *Usecase) mintChallenge(ctx context.Context, userID int64, contact string, purpose entity.ChallengePurpose, metadata map[string]any) (code string, expiresAt time.Time, err error) {
	code, err = s.passcode.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate passcode", "user_id", userID, "error", err)
		return "", time.Time{}, goerror.NewServer(err)
	}

	encrypted, err := s.encryptor.Encrypt([]byte(code), crypt.Scope{UserID: userID, Purpose: crypt.PurposeChallengeCode})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt passcode", "user_id", userID, "error", err)
		return "", time.Time{}, goerror.NewServer(err)
	}

	expiresAt = s.clock.Now().Add(s.cfg.GetMinute("modules.account.otp_ttl_minutes"))
	if err := s.repoDB.CreateChallenge(ctx, entity.NewChallenge{
		ID:        s.uid.Generate(),
		UserID:    userID,
		Contact:   contact,
		Purpose:   purpose,
		Code:      encrypted,
		ExpiresAt: expiresAt,
		Metadata:  metadata,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create challenge", "user_id", userID, "error", err)
		return "", time.Time{}, goerror.NewServer(err)
	}

	return code, expiresAt, nil
}

// issueSessionTokens creates the access/refresh pair for an authenticated
// session. The refresh token is stored HMAC-hashed, the caller gets the raw
// value once.
func (s *Usecase) issueSessionTokens(ctx context.Context, userID int64, email string) (accessToken, refreshToken string, err error) {
	accessToken, err = s.accessToken.Generate(userID, email, "")
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access token", "user_id", userID, "error", err)
		return "", "", goerror.NewServer(err)
	}

	refreshToken = s.oid.Generate()
	refTokenHash, err := s.hmac.Hash(refreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "user_id", userID, "error", err)
		return "", "", goerror.NewServer(err)
	}

	if err := s.repoDB.CreateRefreshToken(ctx, entity.RefreshToken{
		ID:        s.uid.Generate(),
		UserID:    userID,
		TokenHash: string(refTokenHash),
		ExpiresAt: s.clock.Now().Add(s.cfg.GetDay("modules.account.refresh_token_ttl_days")),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create refresh token", "user_id", userID, "error", err)
		return "", "", goerror.NewServer(err)
	}

	return accessToken, refreshToken, nil
}
