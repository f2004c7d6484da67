// Package common contains shared constants, sentinel errors and small
// helpers used by both the AuthKeeper server and its admin client.
package common

// SessionHeaderName is the gRPC metadata key carrying the session token on
// requests and the replacement token on rolled-over responses.
const SessionHeaderName = "session_id"

// ErrorDomain is reported in gRPC error details.
const ErrorDomain = "authkeeper"
