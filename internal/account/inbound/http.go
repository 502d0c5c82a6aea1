package inbound

import (
	"context"

	"github.com/inkflow/inkflow/internal/account/usecase"
	"github.com/inkflow/inkflow/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	LoginOTP(ctx context.Context, in usecase.LoginOTPInput) (*usecase.LoginOTPOutput, error)
	RefreshToken(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error)

	RequestChallenge(ctx context.Context, in usecase.RequestChallengeInput) (*usecase.RequestChallengeOutput, error)
	ResendChallenge(ctx context.Context, in usecase.ResendChallengeInput) (*usecase.ResendChallengeOutput, error)
	VerifyChallenge(ctx context.Context, in usecase.VerifyChallengeInput) (*usecase.VerifyChallengeOutput, error)
	ChallengeStatus(ctx context.Context, in usecase.ChallengeStatusInput) (*usecase.ChallengeStatusOutput, error)

	PasswordForgot(ctx context.Context, in usecase.PasswordForgotInput) (*usecase.PasswordForgotOutput, error)
	PasswordVerifyOTP(ctx context.Context, in usecase.PasswordVerifyOTPInput) (*usecase.PasswordVerifyOTPOutput, error)
	PasswordReset(ctx context.Context, in usecase.PasswordResetInput) error
	PasswordChange(ctx context.Context, in usecase.PasswordChangeInput) error

	Logout(ctx context.Context, in usecase.LogoutInput) error
	LogoutAll(ctx context.Context) (*usecase.LogoutAllOutput, error)

	EmailChange(ctx context.Context, in usecase.EmailChangeInput) (*usecase.EmailChangeOutput, error)
	EmailChangeVerify(ctx context.Context, in usecase.EmailChangeVerifyInput) (*usecase.EmailChangeVerifyOutput, error)

	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
	ProfileUpdate(ctx context.Context, in usecase.ProfileUpdateInput) error
	ProfileUpdateAvatar(ctx context.Context, in usecase.ProfileUpdateAvatarInput) error

	TOTPSetup(ctx context.Context) (*usecase.TOTPSetupOutput, error)
	TOTPConfirm(ctx context.Context, in usecase.TOTPConfirmInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Registration & Sessions
	r.POST("/api/v1/account/register", end.Register)
	r.POST("/api/v1/account/login", end.Login)
	r.POST("/api/v1/account/login/otp", end.LoginOTP)
	r.POST("/api/v1/account/refresh", end.RefreshToken)
	//
	r.POST("/api/v1/account/logout", end.Logout)        // need authenticated
	r.POST("/api/v1/account/logout-all", end.LogoutAll) // need authenticated

	// Challenge lifecycle
	r.POST("/api/v1/account/otp/request", end.OTPRequest)
	r.POST("/api/v1/account/otp/resend", end.OTPResend)
	r.POST("/api/v1/account/otp/verify", end.OTPVerify)
	r.GET("/api/v1/account/otp/status", end.OTPStatus)

	// Password Management
	r.POST("/api/v1/account/password/forgot", end.PasswordForgot)
	r.POST("/api/v1/account/password/verify-otp", end.PasswordVerifyOTP)
	r.POST("/api/v1/account/password/reset", end.PasswordReset)
	r.POST("/api/v1/account/password/change", end.PasswordChange) // need authenticated

	// Email Change (need authenticated)
	r.POST("/api/v1/account/email/change", end.EmailChange)
	r.POST("/api/v1/account/email/change/verify", end.EmailChangeVerify)

	// MFA (TOTP) (need authenticated)
	r.POST("/api/v1/account/mfa/totp/setup", end.TOTPSetup)
	r.POST("/api/v1/account/mfa/totp/confirm", end.TOTPConfirm)

	// User Profile (need authenticated)
	r.GET("/api/v1/account/profile", end.Profile)
	r.PUT("/api/v1/account/profile", end.ProfileUpdate)
	r.PUT("/api/v1/account/profile/avatar", end.ProfileUpdateAvatar)
}
