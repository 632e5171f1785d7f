// Package common contains shared constants and sentinel errors used across
// filekeeper components.
package common

// AuthHeaderName is the HTTP header used to carry the access token on
// authenticated requests.
const AuthHeaderName = "Authorization"

// AuthScheme is the expected scheme prefix of the Authorization header value.
const AuthScheme = "Bearer"
