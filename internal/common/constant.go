// Package common contains shared constants and sentinel errors used across
// artfeed components.
package common

// AuthorizationHeader carries the bearer access token on requests and on
// responses that issue a fresh one.
const AuthorizationHeader = "Authorization"

// RefreshTokenHeader carries the refresh token on responses to sign-up,
// sign-in, and refresh calls.
const RefreshTokenHeader = "X-Refresh-Token"

// BearerPrefix is the scheme prefix expected in the Authorization header.
const BearerPrefix = "Bearer "
