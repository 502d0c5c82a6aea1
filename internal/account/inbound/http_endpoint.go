package inbound

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/inkflow/inkflow/internal/account/usecase"
	"github.com/inkflow/inkflow/internal/pkg/goerror"
	"github.com/inkflow/inkflow/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for authentication, challenge and
// profile workflows.
type HTTPEndpoint struct {
	uc uc
}

// Register creates a new unverified account and sends the verification code.
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{ExpiresIn: resp.ExpiresIn}, nil
}

// Login authenticates a user and returns tokens or a two-factor challenge.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		TwoFactorRequired: resp.TwoFactorRequired,
		ExpiresIn:         resp.ExpiresIn,
		AccessToken:       resp.AccessToken,
		RefreshToken:      resp.RefreshToken,
	}, nil
}

// LoginOTP starts a passwordless sign-in by sending a code.
func (h *HTTPEndpoint) LoginOTP(r *router.Request) (any, error) {
	var req LoginOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.LoginOTP(r.Context(), usecase.LoginOTPInput{Email: req.Email})
	if err != nil {
		return nil, err
	}

	return LoginOTPResponse{ExpiresIn: resp.ExpiresIn}, nil
}

// RefreshToken exchanges a refresh token for a new token pair.
func (h *HTTPEndpoint) RefreshToken(r *router.Request) (any, error) {
	var req RefreshTokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RefreshToken(r.Context(), usecase.RefreshTokenInput{RefreshToken: req.RefreshToken})
	if err != nil {
		return nil, err
	}

	return RefreshTokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// OTPRequest requests a challenge code for the given purpose.
func (h *HTTPEndpoint) OTPRequest(r *router.Request) (any, error) {
	var req OTPRequestRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestChallenge(r.Context(), usecase.RequestChallengeInput{
		Email:   req.Email,
		Purpose: req.Purpose,
	})
	if err != nil {
		return nil, err
	}

	return OTPRequestResponse{ExpiresIn: resp.ExpiresIn}, nil
}

// OTPResend invalidates the active challenge and sends a fresh code.
func (h *HTTPEndpoint) OTPResend(r *router.Request) (any, error) {
	var req OTPResendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ResendChallenge(r.Context(), usecase.ResendChallengeInput{
		Email:   req.Email,
		Purpose: req.Purpose,
	})
	if err != nil {
		return nil, err
	}

	return OTPResendResponse{ExpiresIn: resp.ExpiresIn}, nil
}

// OTPVerify checks a submitted code and issues session tokens on success.
func (h *HTTPEndpoint) OTPVerify(r *router.Request) (any, error) {
	var req OTPVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyChallenge(r.Context(), usecase.VerifyChallengeInput{
		Email:   req.Email,
		Purpose: req.Purpose,
		Code:    req.Code,
	})
	if err != nil {
		return nil, err
	}

	return OTPVerifyResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// OTPStatus reports whether an active challenge exists, for UI polling.
func (h *HTTPEndpoint) OTPStatus(r *router.Request) (any, error) {
	resp, err := h.uc.ChallengeStatus(r.Context(), usecase.ChallengeStatusInput{
		Email:   r.GetQuery("email"),
		Purpose: r.GetQuery("purpose"),
	})
	if err != nil {
		return nil, err
	}

	out := OTPStatusResponse{
		HasActive:         resp.HasActive,
		RemainingAttempts: resp.RemainingAttempts,
	}
	if resp.HasActive {
		out.ExpiresAt = &resp.ExpiresAt
	}

	return out, nil
}

// PasswordForgot starts the password recovery flow.
func (h *HTTPEndpoint) PasswordForgot(r *router.Request) (any, error) {
	var req PasswordForgotRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.PasswordForgot(r.Context(), usecase.PasswordForgotInput{Email: req.Email})
	if err != nil {
		return nil, err
	}

	return PasswordForgotResponse{ExpiresIn: resp.ExpiresIn}, nil
}

// PasswordVerifyOTP exchanges a reset code for a recovery token.
func (h *HTTPEndpoint) PasswordVerifyOTP(r *router.Request) (any, error) {
	var req PasswordVerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.PasswordVerifyOTP(r.Context(), usecase.PasswordVerifyOTPInput{
		Email: req.Email,
		Code:  req.Code,
	})
	if err != nil {
		return nil, err
	}

	return PasswordVerifyOTPResponse{
		RecoveryToken: resp.RecoveryToken,
		ExpiresIn:     resp.ExpiresIn,
	}, nil
}

// PasswordReset sets a new password using a recovery token.
func (h *HTTPEndpoint) PasswordReset(r *router.Request) (any, error) {
	var req PasswordResetRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.PasswordReset(r.Context(), usecase.PasswordResetInput{
		RecoveryToken: req.RecoveryToken,
		NewPassword:   req.NewPassword,
	})
}

// PasswordChange updates the current user's password.
func (h *HTTPEndpoint) PasswordChange(r *router.Request) (any, error) {
	var req PasswordChangeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.PasswordChange(r.Context(), usecase.PasswordChangeInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
}

// Logout revokes a refresh token.
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	var req LogoutRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.Logout(r.Context(), usecase.LogoutInput{RefreshToken: req.RefreshToken})
}

// LogoutAll revokes all active sessions for the current user.
func (h *HTTPEndpoint) LogoutAll(r *router.Request) (any, error) {
	resp, err := h.uc.LogoutAll(r.Context())
	if err != nil {
		return nil, err
	}

	return LogoutAllResponse{RevokedSessions: resp.RevokedSessions}, nil
}

// EmailChange sends a confirmation code to the address being claimed.
func (h *HTTPEndpoint) EmailChange(r *router.Request) (any, error) {
	var req EmailChangeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.EmailChange(r.Context(), usecase.EmailChangeInput{NewEmail: req.NewEmail})
	if err != nil {
		return nil, err
	}

	return EmailChangeResponse{ExpiresIn: resp.ExpiresIn}, nil
}

// EmailChangeVerify applies the pending email change after code verification.
func (h *HTTPEndpoint) EmailChangeVerify(r *router.Request) (any, error) {
	var req EmailChangeVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.EmailChangeVerify(r.Context(), usecase.EmailChangeVerifyInput{Code: req.Code})
	if err != nil {
		return nil, err
	}

	return EmailChangeVerifyResponse{Email: resp.Email}, nil
}

// Profile returns the current user's profile.
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		ID:        resp.ID,
		Email:     resp.Email,
		FullName:  resp.FullName,
		AvatarURL: resp.AvatarURL,
		Status:    resp.Status,
		UpdatedAt: resp.UpdatedAt,
	}, nil
}

// ProfileUpdate updates the current user's profile information.
func (h *HTTPEndpoint) ProfileUpdate(r *router.Request) (any, error) {
	var req UpdateProfileRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.ProfileUpdate(r.Context(), usecase.ProfileUpdateInput{FullName: req.FullName})
}

// ProfileUpdateAvatar uploads a new avatar image.
func (h *HTTPEndpoint) ProfileUpdateAvatar(r *router.Request) (any, error) {
	ctx := r.Context()

	file, err := r.StreamSingleFile("avatar")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close file", "error", err)
		}
	}()

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, goerror.NewInvalidFormat()
	}

	return nil, h.uc.ProfileUpdateAvatar(ctx, usecase.ProfileUpdateAvatarInput{
		File:        io.MultiReader(bytes.NewReader(head[:n]), file),
		ContentType: http.DetectContentType(head[:n]),
	})
}

// TOTPSetup provisions a pending authenticator factor.
func (h *HTTPEndpoint) TOTPSetup(r *router.Request) (any, error) {
	resp, err := h.uc.TOTPSetup(r.Context())
	if err != nil {
		return nil, err
	}

	return TOTPSetupResponse{
		Secret: resp.Secret,
		URI:    resp.URI,
	}, nil
}

// TOTPConfirm activates the authenticator factor after its first valid code.
func (h *HTTPEndpoint) TOTPConfirm(r *router.Request) (any, error) {
	var req TOTPConfirmRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.TOTPConfirm(r.Context(), usecase.TOTPConfirmInput{Code: req.Code})
}
