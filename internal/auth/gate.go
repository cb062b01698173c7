// ABOUTME: Authentication gate orchestrating cookie verification and identity resolution
// ABOUTME: Exposes HTTP middleware and the inline hook for the connection-upgrade path

package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Behavior selects what the middleware does with an unauthenticated request.
type Behavior string

const (
	// BehaviorNext continues the chain without an identity (optional auth).
	BehaviorNext Behavior = "next"
	// BehaviorReject terminates the request with 401.
	BehaviorReject Behavior = "reject"
	// BehaviorRedirect sends the caller to the host login page with a
	// redirect_to pointing back at this service.
	BehaviorRedirect Behavior = "redirect"
)

// Gate runs the verification pipeline: cookie extraction, signature check,
// identity resolution, access-level computation. One pipeline run per
// request or upgrade attempt; cryptographic and parsing failures stay inside
// the gate, store failures propagate.
type Gate struct {
	verifier   *CookieVerifier
	resolver   *Resolver
	cookieName string
	loginURL   string // host login page, e.g. https://wp.example.com/wp-login.php
	serviceURL string // public URL of this service, used for redirect_to
	now        func() time.Time
	logger     *slog.Logger
}

// NewGate creates a Gate. wordpressURL determines both the cookie name and
// the login redirect target; serviceURL is where redirected users return to.
func NewGate(verifier *CookieVerifier, resolver *Resolver, wordpressURL, serviceURL string) *Gate {
	return &Gate{
		verifier:   verifier,
		resolver:   resolver,
		cookieName: CookieName(wordpressURL),
		loginURL:   wordpressURL + "/wp-login.php",
		serviceURL: serviceURL,
		now:        time.Now,
		logger:     slog.Default().With("component", "gate"),
	}
}

// authenticate runs the shared pipeline against a raw request. It returns
// the resolved identity, or nil for an unauthenticated caller, or an error
// for conditions that must not be coerced into "unauthenticated"
// (unreachable store, inconsistent data).
func (g *Gate) authenticate(r *http.Request) (*Identity, error) {
	cookie, err := r.Cookie(g.cookieName)
	if err != nil {
		return nil, nil // no cookie, ordinary anonymous traffic
	}

	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		value = cookie.Value
	}

	username, ok := g.verifier.Verify(value, g.now())
	if !ok {
		// Expired or forged cookies are expected traffic, log quietly.
		g.logger.Debug("cookie failed verification")
		return nil, nil
	}

	identity, err := g.resolver.ResolveLogin(r.Context(), username)
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// Middleware returns an HTTP middleware running the pipeline. On success the
// Identity is attached to the request context. On an unauthenticated outcome
// the configured behavior applies. A store failure yields 503, never a
// silent downgrade to anonymous.
func (g *Gate) Middleware(behavior Behavior) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := g.authenticate(r)
			if err != nil {
				if errors.Is(err, ErrIdentityNotFound) {
					// Valid cookie, no matching account: data
					// inconsistency between issuer and mirror.
					g.logger.Error("verified cookie for unknown account", "error", err)
					g.fail(w, r, next, behavior)
					return
				}
				g.logger.Error("identity resolution failed", "error", err)
				http.Error(w, `{"error":"authentication backend unavailable"}`, http.StatusServiceUnavailable)
				return
			}

			if identity == nil {
				g.fail(w, r, next, behavior)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// fail applies the configured unauthenticated behavior.
func (g *Gate) fail(w http.ResponseWriter, r *http.Request, next http.Handler, behavior Behavior) {
	switch behavior {
	case BehaviorNext:
		next.ServeHTTP(w, r)
	case BehaviorReject:
		http.Error(w, `{"error":"unauthenticated"}`, http.StatusUnauthorized)
	default:
		target := g.loginURL + "?redirect_to=" + url.QueryEscape(g.serviceURL)
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// AuthenticateConnection runs the same pipeline for a raw upgrade request
// that never passes through the middleware chain. It completes synchronously
// before the upgrade may be acknowledged. Failures of any kind yield the
// anonymous sentinel so the caller can still open a downgraded connection;
// store failures are logged loudly since they are outages, not bad cookies.
func (g *Gate) AuthenticateConnection(r *http.Request) *Identity {
	identity, err := g.authenticate(r)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			g.logger.Error("verified cookie for unknown account on upgrade", "error", err)
		} else {
			g.logger.Error("identity resolution failed on upgrade", "error", err)
		}
		return Anonymous()
	}
	if identity == nil {
		return Anonymous()
	}
	return identity
}
