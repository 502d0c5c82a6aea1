package inbound

import "time"

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type RegisterResponse struct {
	ExpiresIn int64 `json:"expires_in"`
}

func (RegisterResponse) Message() string {
	return "Registration successful. Please check your email for the verification code."
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	TwoFactorRequired bool   `json:"two_factor_required,omitempty"`
	ExpiresIn         int64  `json:"expires_in,omitempty"`
	AccessToken       string `json:"access_token,omitempty"`
	RefreshToken      string `json:"refresh_token,omitempty"`
}

type LoginOTPRequest struct {
	Email string `json:"email"`
}

type LoginOTPResponse struct {
	ExpiresIn int64 `json:"expires_in"`
}

func (LoginOTPResponse) Message() string {
	return "If an account with that email exists, we have sent a sign-in code."
}

type OTPRequestRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

type OTPRequestResponse struct {
	ExpiresIn int64 `json:"expires_in"`
}

func (OTPRequestResponse) Message() string {
	return "If an account with that email exists, we have sent a code."
}

type OTPResendRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

type OTPResendResponse struct {
	ExpiresIn int64 `json:"expires_in"`
}

func (OTPResendResponse) Message() string {
	return "If an account with that email exists, we have sent a new code."
}

type OTPVerifyRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	Code    string `json:"code"`
}

type OTPVerifyResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type OTPStatusResponse struct {
	HasActive         bool       `json:"has_active"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	RemainingAttempts int32      `json:"remaining_attempts"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type PasswordForgotRequest struct {
	Email string `json:"email"`
}

type PasswordForgotResponse struct {
	ExpiresIn int64 `json:"expires_in"`
}

func (PasswordForgotResponse) Message() string {
	return "If an account with that email exists, we have sent a password reset code."
}

type PasswordVerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type PasswordVerifyOTPResponse struct {
	RecoveryToken string `json:"recovery_token"`
	ExpiresIn     int64  `json:"expires_in"`
}

type PasswordResetRequest struct {
	RecoveryToken string `json:"recovery_token"`
	NewPassword   string `json:"new_password"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutAllResponse struct {
	RevokedSessions int64 `json:"revoked_sessions"`
}

type EmailChangeRequest struct {
	NewEmail string `json:"new_email"`
}

type EmailChangeResponse struct {
	ExpiresIn int64 `json:"expires_in"`
}

func (EmailChangeResponse) Message() string {
	return "We have sent a confirmation code to the new address."
}

type EmailChangeVerifyRequest struct {
	Code string `json:"code"`
}

type EmailChangeVerifyResponse struct {
	Email string `json:"email"`
}

type ProfileResponse struct {
	ID        int64     `json:"id,string"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name"`
}

type TOTPSetupResponse struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
}

type TOTPConfirmRequest struct {
	Code string `json:"code"`
}
