// Package auth decides, per request or per connection attempt, who the
// caller is and what they may do.
//
// # Pipeline
//
// Every entry point runs the same pipeline:
//
//	cookie extraction -> CookieVerifier -> Resolver -> access level
//
// The credential is the WordPress logged-in cookie
// ("username|expiration|hmac"), verified against the shared logged_in key
// and salt with the exact HMAC-MD5 chain the issuer uses. This service
// never mints or rotates cookies; that is the host application's job.
//
// # Capabilities
//
// Authorization data comes from a read-only mirror of the host schema. The
// CapabilityCache loads the role -> capability mapping once (single-flight
// under concurrent cold starts) and answers union queries across a user's
// roles. There is no automatic expiry; Refresh is the explicit reload path.
// A failed load is reported by every query rather than masked as an empty
// capability set.
//
// # Outcomes
//
// The Gate distinguishes three terminal outcomes:
//
//   - Authenticated: Identity attached to the request context.
//   - Unauthenticated: handled per configured Behavior (next, reject,
//     redirect to the host login page). Malformed, expired and forged
//     cookies all land here.
//   - Store failure: surfaced as 503 (or a loud log on the upgrade path),
//     never converted into an anonymous outcome, because an outage and a
//     logged-out user require different operator responses.
//
// The connection-upgrade path bypasses ordinary middleware, so the
// shared-state server calls Gate.AuthenticateConnection inline before
// acknowledging the upgrade; it always returns an Identity, using the
// anonymous sentinel on failure.
package auth
