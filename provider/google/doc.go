// Package google implements the calendar provider contract against the
// Google Calendar v3 REST API and the OAuth2 token endpoint.
//
// The client is transport-agnostic behind an HTTPDoer seam, applies a
// per-request timeout, and bounds response bodies. Provider failure modes
// the engine must react to (stale sync cursor, revoked refresh token)
// unwrap to the core sentinels so callers branch with errors.Is instead of
// inspecting HTTP status codes.
package google
