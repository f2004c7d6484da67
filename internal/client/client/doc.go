// Package client talks to the AuthKeeper server on behalf of authctl.
//
// # Overview
//
// GRPCClient dials the server with the JSON codec, keeps the session token
// returned by Login, attaches it to every call in the session_id metadata
// key and adopts the replacement token when the server rolls the session
// over (announced in the session_id response header).
//
// # Error Handling
//
// Server errors come back as the sentinels from internal/common, so callers
// match them with errors.Is (common.ErrAccountLocked, common.ErrForbidden,
// ...). ErrUnavailable reports that the server could not be reached.
package client
