package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
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
	"github.com/inkflow/inkflow/internal/pkg/token"
	"github.com/inkflow/inkflow/internal/pkg/totp"
	"github.com/inkflow/inkflow/internal/pkg/validator"
	libOTP "github.com/pquerna/otp"
)

const testConfigYAML = `
modules:
  account:
    otp_ttl_minutes: 10
    otp_max_attempts: 3
    refresh_token_ttl_days: 30
    recovery_token_ttl_minutes: 15
    totp_setup_ttl_minutes: 10
    cleanup_interval_minutes: 60
    avatar_bucket: "avatars"
    avatar_base_url: "http://cdn.local/avatars"
    avatar_max_size_bytes: 1048576
`

// memDB is an in-memory repoDB sharing the test clock so expiry behaves like
// the SQL "expires_at > now()" predicates.
type memDB struct {
	mu         sync.Mutex
	clock      *clock.StaticClocker
	users      map[int64]*entity.User
	creds      map[int64]string
	challenges map[int64]*entity.Challenge
	refresh    map[int64]*entity.RefreshToken
	factors    map[int64]*entity.TOTPFactor
	seq        int64
}

func newMemDB(clk *clock.StaticClocker) *memDB {
	return &memDB{
		clock:      clk,
		users:      map[int64]*entity.User{},
		creds:      map[int64]string{},
		challenges: map[int64]*entity.Challenge{},
		refresh:    map[int64]*entity.RefreshToken{},
		factors:    map[int64]*entity.TOTPFactor{},
	}
}

func (m *memDB) nextSeq() int64 {
	m.seq++
	return m.seq
}

func (m *memDB) userByEmail(email string) *entity.User {
	for _, u := range m.users {
		if u.Email == email && u.DeletedAt == nil {
			return u
		}
	}
	return nil
}

func (m *memDB) hasConfirmedTOTP(userID int64) bool {
	for _, f := range m.factors {
		if f.UserID == userID && f.Confirmed {
			return true
		}
	}
	return false
}

func (m *memDB) GetActiveChallenge(_ context.Context, userID int64, purpose entity.ChallengePurpose) (*entity.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var active []*entity.Challenge
	for _, c := range m.challenges {
		if c.UserID == userID && c.Purpose == purpose && !c.Used && c.ExpiresAt.After(m.clock.Now()) {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return nil, goerror.ErrNotFound
	}

	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.After(active[j].CreatedAt) })
	cp := *active[0]
	return &cp, nil
}

func (m *memDB) GetLatestChallenge(_ context.Context, userID int64, purpose entity.ChallengePurpose) (*entity.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var unused []*entity.Challenge
	for _, c := range m.challenges {
		if c.UserID == userID && c.Purpose == purpose && !c.Used {
			unused = append(unused, c)
		}
	}
	if len(unused) == 0 {
		return nil, goerror.ErrNotFound
	}

	sort.Slice(unused, func(i, j int) bool { return unused[i].CreatedAt.After(unused[j].CreatedAt) })
	cp := *unused[0]
	return &cp, nil
}

func (m *memDB) CreateChallenge(_ context.Context, chal entity.NewChallenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.challenges[chal.ID] = &entity.Challenge{
		ID:        chal.ID,
		UserID:    chal.UserID,
		Contact:   chal.Contact,
		Purpose:   chal.Purpose,
		Code:      chal.Code,
		CreatedAt: m.clock.Now().Add(time.Duration(m.nextSeq())), // keep insertion order
		ExpiresAt: chal.ExpiresAt,
		Metadata:  chal.Metadata,
	}
	return nil
}

func (m *memDB) RecordChallengeAttempt(_ context.Context, id int64) (int32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.challenges[id]
	if !ok {
		return 0, goerror.ErrNotFound
	}
	c.Attempts++
	return c.Attempts, nil
}

func (m *memDB) MarkChallengeUsed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.challenges[id]
	if !ok {
		return goerror.ErrNotFound
	}
	c.Used = true
	if c.UsedAt == nil {
		now := m.clock.Now()
		c.UsedAt = &now
	}
	return nil
}

func (m *memDB) InvalidateActiveChallenges(_ context.Context, userID int64, purpose entity.ChallengePurpose) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, c := range m.challenges {
		if c.UserID == userID && c.Purpose == purpose && !c.Used && c.ExpiresAt.After(m.clock.Now()) {
			c.Used = true
			n++
		}
	}
	return n, nil
}

func (m *memDB) PurgeExpiredChallenges(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, c := range m.challenges {
		if !c.ExpiresAt.After(m.clock.Now()) {
			delete(m.challenges, id)
			n++
		}
	}
	return n, nil
}

func (m *memDB) GetUserLoginByEmail(_ context.Context, email string) (*entity.UserLoginInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.userByEmail(email)
	if u == nil {
		return nil, goerror.ErrNotFound
	}
	return &entity.UserLoginInfo{
		ID:       u.ID,
		Email:    u.Email,
		Status:   u.Status,
		Password: m.creds[u.ID],
		HasTOTP:  m.hasConfirmedTOTP(u.ID),
	}, nil
}

func (m *memDB) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, goerror.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memDB) GetUserCredential(_ context.Context, userID int64) (*entity.UserCredentialInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok || u.DeletedAt != nil {
		return nil, goerror.ErrNotFound
	}
	return &entity.UserCredentialInfo{
		ID:       u.ID,
		Email:    u.Email,
		Status:   u.Status,
		Password: m.creds[u.ID],
	}, nil
}

func (m *memDB) ExistsUserByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.userByEmail(email) != nil, nil
}

func (m *memDB) NewRegistration(ctx context.Context, user entity.NewUser, chal entity.NewChallenge) error {
	m.mu.Lock()
	if m.userByEmail(user.Email) != nil {
		m.mu.Unlock()
		return goerror.ErrConflict
	}
	m.users[user.ID] = &entity.User{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Status:   user.Status,
	}
	m.creds[user.ID] = user.Password
	m.mu.Unlock()

	return m.CreateChallenge(ctx, chal)
}

func (m *memDB) MarkEmailVerified(_ context.Context, userID int64, oldStatus, newStatus entity.UserStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok || u.Status != oldStatus {
		return goerror.ErrNotFound
	}
	u.Status = newStatus
	return nil
}

func (m *memDB) UpdateUserEmail(_ context.Context, userID int64, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if other := m.userByEmail(email); other != nil && other.ID != userID {
		return goerror.ErrConflict
	}
	u, ok := m.users[userID]
	if !ok {
		return goerror.ErrNotFound
	}
	u.Email = email
	return nil
}

func (m *memDB) UpdateUserCredential(_ context.Context, userID int64, hashed string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return goerror.ErrNotFound
	}
	m.creds[userID] = hashed
	return nil
}

func (m *memDB) UpdateUserProfile(_ context.Context, userID int64, fullName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return goerror.ErrNotFound
	}
	u.FullName = fullName
	return nil
}

func (m *memDB) UpdateUserAvatar(_ context.Context, userID int64, avatarURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return goerror.ErrNotFound
	}
	u.AvatarURL = avatarURL
	return nil
}

func (m *memDB) CreateRefreshToken(_ context.Context, ref entity.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := ref
	m.refresh[ref.ID] = &cp
	return nil
}

func (m *memDB) GetUserRefreshToken(_ context.Context, tokenHash string) (*entity.UserRefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.refresh {
		if r.TokenHash != tokenHash {
			continue
		}
		u, ok := m.users[r.UserID]
		if !ok || u.DeletedAt != nil {
			return nil, goerror.ErrNotFound
		}
		return &entity.UserRefreshToken{
			UserID:                   u.ID,
			UserEmail:                u.Email,
			UserStatus:               u.Status,
			RefreshID:                r.ID,
			RefreshTokenHash:         r.TokenHash,
			RefreshRevoked:           r.Revoked,
			RefreshReplacedByTokenID: r.ReplacedByTokenID,
			RefreshExpiresAt:         r.ExpiresAt,
		}, nil
	}
	return nil, goerror.ErrNotFound
}

func (m *memDB) RotateRefreshToken(_ context.Context, ro entity.RotateRefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.refresh[ro.OldID]
	if !ok || old.Revoked {
		return goerror.ErrNotFound
	}
	old.Revoked = true
	old.ReplacedByTokenID = &ro.NewID

	m.refresh[ro.NewID] = &entity.RefreshToken{
		ID:        ro.NewID,
		UserID:    ro.UserID,
		TokenHash: ro.NewTokenHash,
		ExpiresAt: ro.NewExpiresAt,
	}
	return nil
}

func (m *memDB) RevokeRefreshToken(_ context.Context, userID int64, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.refresh {
		if r.UserID == userID && r.TokenHash == tokenHash && !r.Revoked {
			r.Revoked = true
			return nil
		}
	}
	return goerror.ErrNotFound
}

func (m *memDB) RevokeAllRefreshTokens(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, r := range m.refresh {
		if r.UserID == userID && !r.Revoked {
			r.Revoked = true
			n++
		}
	}
	return n, nil
}

func (m *memDB) DeleteExpiredRefreshTokens(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, r := range m.refresh {
		if !r.ExpiresAt.After(m.clock.Now()) {
			delete(m.refresh, id)
			n++
		}
	}
	return n, nil
}

func (m *memDB) GetConfirmedTOTPFactor(_ context.Context, userID int64) (*entity.TOTPFactor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.factors {
		if f.UserID == userID && f.Confirmed {
			cp := *f
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (m *memDB) ConfirmTOTPFactor(ctx context.Context, factor entity.TOTPFactor, challengeID int64) error {
	m.mu.Lock()
	for _, f := range m.factors {
		if f.UserID == factor.UserID && f.Confirmed {
			m.mu.Unlock()
			return goerror.ErrConflict
		}
	}
	cp := factor
	m.factors[factor.ID] = &cp
	m.mu.Unlock()

	return m.MarkChallengeUsed(ctx, challengeID)
}

type sentMail struct {
	to      string
	purpose entity.ChallengePurpose
	code    string
}

type memEmail struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (m *memEmail) SendChallengeCode(_ context.Context, to string, purpose entity.ChallengePurpose, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{to: to, purpose: purpose, code: code})
	return nil
}

func (m *memEmail) lastSent() (sentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sent) == 0 {
		return sentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

func (m *memEmail) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sent)
}

type memMessaging struct{}

func (m *memMessaging) PublishChallengeVerified(context.Context, ChallengeVerifiedEvent) error {
	return nil
}
func (m *memMessaging) PublishPasswordChanged(context.Context, PasswordChangedEvent) error { return nil }
func (m *memMessaging) PublishEmailChanged(context.Context, EmailChangedEvent) error      { return nil }

// memIdemp replays the stored state instead of talking to redis.
type memIdemp struct {
	mu     sync.Mutex
	states map[string]idempotency.State
}

func newMemIdemp() *memIdemp {
	return &memIdemp{states: map[string]idempotency.State{}}
}

func (m *memIdemp) Acquire(_ context.Context, key string, _ time.Duration) (idempotency.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.states[key]; ok {
		return st, nil
	}
	m.states[key] = idempotency.StateInProgress
	return idempotency.StateNone, nil
}

func (m *memIdemp) MarkCompleted(_ context.Context, key string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[key] = idempotency.StateCompleted
	return nil
}

func (m *memIdemp) MarkFailed(_ context.Context, key string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[key] = idempotency.StateFailed
	return nil
}

func (m *memIdemp) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	st, err := m.Acquire(ctx, key, 0)
	if err != nil {
		return err
	}

	switch st {
	case idempotency.StateInProgress:
		return idempotency.ErrAlreadyInProgress
	case idempotency.StateCompleted:
		return idempotency.ErrAlreadyCompleted
	case idempotency.StateFailed:
		return idempotency.ErrAlreadyFailed
	}

	if err := fn(ctx); err != nil {
		_ = m.MarkFailed(ctx, key, 0)
		return err
	}
	return m.MarkCompleted(ctx, key, 0)
}

type numberSeq struct {
	mu sync.Mutex
	n  int64
}

func (s *numberSeq) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.n++
	return s.n
}

type stringSeq struct {
	mu     sync.Mutex
	n      int
	prefix string
}

func (s *stringSeq) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.n++
	return fmt.Sprintf("%s%04d", s.prefix, s.n)
}

// hexSeq mimics the object-id refresh token generator: opaque 64-char values.
type hexSeq struct {
	mu sync.Mutex
	n  int
}

func (s *hexSeq) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.n++
	return fmt.Sprintf("%064d", s.n)
}

type fixture struct {
	uc    *Usecase
	db    *memDB
	email *memEmail
	idemp *memIdemp
	clock *clock.StaticClocker
	enc   crypt.Encryptor
	totp  totp.TOTPer

	accessToken   token.Issuer
	recoveryToken token.Issuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfigYAML))
	if err != nil {
		t.Fatalf("failed to build test config: %v", err)
	}

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	clk := clock.NewStatic(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	db := newMemDB(clk)
	email := &memEmail{}
	idemp := newMemIdemp()
	enc := crypt.NewAESGCMEncryptor(crypt.StaticKeyProvider{KeyBytes: []byte("0123456789abcdef0123456789abcdef")})
	totper := totp.New("inkflow-test", 30, 1, libOTP.DigitsSix)

	secret := make([]byte, 64)
	for i := range secret {
		secret[i] = byte('a' + i%26)
	}

	accessToken, err := token.NewHS512(token.Config{
		Secret: secret,
		Issuer: "inkflow-test",
		TTL:    15 * time.Minute,
		Clock:  clk,
		UUID:   &stringSeq{prefix: "jti-"},
	})
	if err != nil {
		t.Fatalf("failed to build access token issuer: %v", err)
	}

	recoverySecret := make([]byte, 64)
	for i := range recoverySecret {
		recoverySecret[i] = byte('A' + i%26)
	}

	recoveryToken, err := token.NewHS512(token.Config{
		Secret: recoverySecret,
		Issuer: "inkflow-test",
		TTL:    15 * time.Minute,
		Clock:  clk,
		UUID:   &stringSeq{prefix: "rti-"},
	})
	if err != nil {
		t.Fatalf("failed to build recovery token issuer: %v", err)
	}

	uc := New(Dependency{
		RepoDB:        db,
		RepoMessaging: &memMessaging{},
		RepoEmail:     email,
		Idempotency:   idemp,
		Validator:     v10,
		Config:        cfg,
		HMAC:          hash.NewHMACSHA256("test-hmac-secret"),
		Bcrypt:        hash.NewBcrypt(4, ""),
		Encryptor:     enc,
		Passcode:      passcode.NewNumeric(6),
		UID:           &numberSeq{},
		UUID:          &stringSeq{prefix: "uuid-"},
		OID:           &hexSeq{},
		Totp:          totper,
		Clock:         clk,
		AccessToken:   accessToken,
		RecoveryToken: recoveryToken,
		Instrument:    instrument.NewNoop(),
		Goroutine:     goroutine.NewManager(16),
	})

	return &fixture{
		uc:            uc,
		db:            db,
		email:         email,
		idemp:         idemp,
		clock:         clk,
		enc:           enc,
		totp:          totper,
		accessToken:   accessToken,
		recoveryToken: recoveryToken,
	}
}

// seedUser inserts an active user with the given password and returns its ID.
func (f *fixture) seedUser(t *testing.T, email, password string) int64 {
	t.Helper()

	hashed, err := hash.NewBcrypt(4, "").Hash(password)
	if err != nil {
		t.Fatalf("failed to hash seed password: %v", err)
	}

	id := f.db.nextSeq() + 1000
	f.db.users[id] = &entity.User{
		ID:       id,
		Email:    email,
		FullName: "Test User",
		Status:   entity.UserStatusActive,
	}
	f.db.creds[id] = string(hashed)
	return id
}

// seedUserWithTOTP seeds an active user with a confirmed authenticator
// factor and returns the user ID and the plaintext TOTP secret.
func (f *fixture) seedUserWithTOTP(t *testing.T, email, password string) (int64, string) {
	t.Helper()

	userID := f.seedUser(t, email, password)

	secret, _, err := f.totp.Generate(email)
	if err != nil {
		t.Fatalf("failed to generate totp secret: %v", err)
	}

	encrypted, err := f.enc.Encrypt([]byte(secret), crypt.Scope{UserID: userID, Purpose: crypt.PurposeTOTPSecret})
	if err != nil {
		t.Fatalf("failed to encrypt totp secret: %v", err)
	}

	factorID := f.db.nextSeq() + 5000
	f.db.factors[factorID] = &entity.TOTPFactor{
		ID:         factorID,
		UserID:     userID,
		Secret:     encrypted,
		KeyVersion: 1,
		Confirmed:  true,
	}
	return userID, secret
}

// authCtx returns a context carrying verified claims, the way the router
// middleware populates it for protected endpoints.
func (f *fixture) authCtx(userID int64, email string) context.Context {
	return token.SetAuth(context.Background(), token.Claims{
		UserID:    userID,
		UserEmail: email,
	})
}

// lastEmailedCode fetches the most recently delivered passcode.
func (f *fixture) lastEmailedCode(t *testing.T) string {
	t.Helper()

	m, ok := f.email.lastSent()
	if !ok {
		t.Fatalf("expected at least one delivered email")
	}
	return m.code
}

// storedCode decrypts the code of the active challenge straight from the
// fake store, for flows that deliver email in the background.
func (f *fixture) storedCode(t *testing.T, userID int64, purpose entity.ChallengePurpose) string {
	t.Helper()

	chal, err := f.db.GetActiveChallenge(context.Background(), userID, purpose)
	if err != nil {
		t.Fatalf("expected an active challenge: %v", err)
	}

	plain, err := f.enc.Decrypt(chal.Code, crypt.Scope{UserID: userID, Purpose: crypt.PurposeChallengeCode})
	if err != nil {
		t.Fatalf("failed to decrypt stored code: %v", err)
	}
	return string(plain)
}

// wrongCode returns a valid-looking code guaranteed to differ from code.
func wrongCode(code string) string {
	if code[0] == '9' {
		return "0" + code[1:]
	}
	return "9" + code[1:]
}

func codeOf(t *testing.T, err error) goerror.Code {
	t.Helper()

	if err == nil {
		t.Fatalf("expected an error")
	}
	return goerror.CodeOf(err)
}
