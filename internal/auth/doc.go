// Package auth provides authentication for the Kanban API.
//
// It implements:
//   - Argon2id password hashing in PHC string format
//   - Stateless HS256 access tokens (iss, sub = email, exp) via TokenService
//   - A SQLite credential store keyed by email
//   - Request-scoped Principals carried in context.Context
//
// Token validation collapses every failure (malformed, bad
// signature, wrong issuer, expired) into ErrTokenInvalid. There is a
// single authority, ROLE_USER; ownership checks live in the board package.
package auth
