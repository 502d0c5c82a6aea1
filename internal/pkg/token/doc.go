// Package token is helpers for working with the service's signed tokens.
//
// It includes:
//   - A typed Claims wrapper (registered claims + strongly-typed payload).
//   - A symmetric HS512 implementation for generating and verifying tokens.
//   - Context helpers for storing and retrieving authenticated claims.
//
// Two independent issuers are built from this package: the session access
// token and the short-lived recovery token. Each gets its own secret and TTL
// at construction, so a token minted by one can never verify under the other.
package token
