// ABOUTME: WordPress logged-in cookie verification with the wp_hash HMAC chain
// ABOUTME: The scheme is a compatibility contract with the cookie issuer, reproduced exactly

package auth

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// CookieVerifier validates WordPress logged-in session cookies against the
// shared logged_in key and salt. It holds no state besides the secrets and
// performs no I/O.
type CookieVerifier struct {
	key  string
	salt string
}

// NewCookieVerifier creates a verifier for the given logged_in key and salt.
// Both must match the values configured in the issuing WordPress install.
func NewCookieVerifier(key, salt string) *CookieVerifier {
	return &CookieVerifier{key: key, salt: salt}
}

// Verify checks a cookie value of the form "username|expiration|hmac".
// It fails closed: wrong field count, unparsable or past expiration, or an
// HMAC mismatch all return ok=false. The HMAC comparison is timing-safe;
// this guards authentication, so constant-structure comparison is a
// correctness requirement.
func (v *CookieVerifier) Verify(cookieValue string, now time.Time) (username string, ok bool) {
	parts := strings.Split(cookieValue, "|")
	if len(parts) != 3 {
		return "", false
	}
	username, expiration, mac := parts[0], parts[1], parts[2]
	if username == "" {
		return "", false
	}

	exp, err := strconv.ParseInt(expiration, 10, 64)
	if err != nil || exp <= now.Unix() {
		return "", false
	}

	expected := v.cookieHash(username, expiration)
	if !hmac.Equal([]byte(expected), []byte(mac)) {
		return "", false
	}

	return username, true
}

// Mint constructs a valid cookie value for the given username and expiry.
// Production cookies come from WordPress; this exists for tests and the
// local dev tooling in cmd/wpgate.
func (v *CookieVerifier) Mint(username string, expires time.Time) string {
	expiration := strconv.FormatInt(expires.Unix(), 10)
	return username + "|" + expiration + "|" + v.cookieHash(username, expiration)
}

// cookieHash reproduces the WordPress logged_in cookie HMAC: the message is
// hashed with wp_hash (HMAC-MD5 keyed by key+salt), and the hex digest of
// that keys a second HMAC-MD5 over the same message.
func (v *CookieVerifier) cookieHash(username, expiration string) string {
	msg := username + "|" + expiration

	keyMAC := hmac.New(md5.New, []byte(v.key+v.salt))
	keyMAC.Write([]byte(msg))
	derived := hex.EncodeToString(keyMAC.Sum(nil))

	mac := hmac.New(md5.New, []byte(derived))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

// CookieName returns the name under which WordPress stores the logged-in
// cookie for the given site URL.
func CookieName(wordpressURL string) string {
	sum := md5.Sum([]byte(wordpressURL))
	return "wordpress_logged_in_" + hex.EncodeToString(sum[:])
}
