// Package config loads authctl settings: defaults, then an optional file
// given with -c/-config (.json, .yaml, .yml or .toml), then flags.
//
//	-a string     server host:port (default 127.0.0.1:50051)
//	-t duration   per-request timeout (default 10s)
//	-n            no colors (NO_COLOR in the environment works too)
//
// File keys:
//
//	server_endpoint_addr: "auth.internal:50051"
//	request_timeout: 5s
//	no_color: true
package config
