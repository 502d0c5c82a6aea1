// Package totp provides helpers for generating and validating time-based
// one-time passwords for authenticator apps.
//
// This backs the optional second factor: generate a secret and URI during
// setup, then validate user-provided codes at login.
package totp
