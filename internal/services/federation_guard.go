package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/voxchat/voxgate/internal/repositories"
)

// DefaultMaxSkew is the allowed clock difference between peers before a
// request is considered stale. Inclusive at the boundary.
const DefaultMaxSkew = 300 * time.Second

// FederationError carries the wire code and HTTP status for a rejected
// inbound federation request.
type FederationError struct {
	Code    string
	Status  int
	Message string
}

func (e *FederationError) Error() string {
	return e.Code + ": " + e.Message
}

var (
	ErrFedMissingTimestamp = &FederationError{Code: "FED_MISSING_TIMESTAMP", Status: http.StatusBadRequest, Message: "missing or malformed X-Vox-Timestamp header"}
	ErrFedTimestampExpired = &FederationError{Code: "FED_TIMESTAMP_EXPIRED", Status: http.StatusForbidden, Message: "request timestamp outside the allowed clock skew"}
	ErrFedAuthFailed       = &FederationError{Code: "FED_AUTH_FAILED", Status: http.StatusForbidden, Message: "signature verification failed"}
	ErrFedBlocked          = &FederationError{Code: "FED_BLOCKED", Status: http.StatusForbidden, Message: "origin domain is blocked"}
	ErrFedPolicyDenied     = &FederationError{Code: "FED_POLICY_DENIED", Status: http.StatusForbidden, Message: "origin domain is not permitted"}
)

// SignatureVerifier checks a signature over the signed payload for the
// claimed origin. Pluggable so deployments can swap the scheme without
// touching the guard's state machine.
type SignatureVerifier interface {
	Verify(ctx context.Context, signedPayload []byte, signature, origin string) (bool, error)
}

// HMACVerifier verifies hex-encoded HMAC-SHA256 signatures using the
// per-domain shared secret from the peer table. An unknown domain
// verifies false: there is no key to check against.
type HMACVerifier struct {
	peers repositories.PeerRepository
}

func NewHMACVerifier(peers repositories.PeerRepository) *HMACVerifier {
	return &HMACVerifier{peers: peers}
}

func (v *HMACVerifier) Verify(ctx context.Context, signedPayload []byte, signature, origin string) (bool, error) {
	peer, err := v.peers.GetByDomain(ctx, origin)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	mac := hmac.New(sha256.New, []byte(peer.SharedSecret))
	mac.Write(signedPayload)
	want := mac.Sum(nil)

	got, err := hex.DecodeString(signature)
	if err != nil {
		return false, nil
	}
	return hmac.Equal(want, got), nil
}

// FederationGuard authenticates inbound server-to-server requests. It is
// stateless across requests: every request is independently checked and
// no session is established on success.
type FederationGuard struct {
	verifier SignatureVerifier
	peers    repositories.PeerRepository
	maxSkew  time.Duration
	now      func() time.Time
}

func NewFederationGuard(verifier SignatureVerifier, peers repositories.PeerRepository, maxSkew time.Duration) *FederationGuard {
	if maxSkew <= 0 {
		maxSkew = DefaultMaxSkew
	}
	return &FederationGuard{
		verifier: verifier,
		peers:    peers,
		maxSkew:  maxSkew,
		now:      time.Now,
	}
}

// VerifyRequest runs the per-request state machine: timestamp parse,
// freshness, signature over body||timestamp, then policy. On success it
// returns the verified origin domain. Every failure is a
// *FederationError with its wire code.
func (g *FederationGuard) VerifyRequest(ctx context.Context, origin, signature, timestampHeader string, body []byte) (string, error) {
	ts, err := strconv.ParseInt(timestampHeader, 10, 64)
	if timestampHeader == "" || err != nil {
		return "", ErrFedMissingTimestamp
	}

	skew := g.now().Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(g.maxSkew/time.Second) {
		return "", ErrFedTimestampExpired
	}

	// The signature binds body and timestamp together: replaying a body
	// with a fresher timestamp invalidates the signature.
	signedPayload := make([]byte, 0, len(body)+len(timestampHeader))
	signedPayload = append(signedPayload, body...)
	signedPayload = append(signedPayload, timestampHeader...)

	ok, err := g.verifier.Verify(ctx, signedPayload, signature, origin)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrFedAuthFailed
	}

	peer, err := g.peers.GetByDomain(ctx, origin)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return "", err
	}
	if err == nil && !peer.Blocked {
		return origin, nil
	}

	// Not allowed: report an explicit block entry distinctly so
	// operators can tell policy from configuration gaps.
	blocked, berr := g.peers.IsBlocked(ctx, origin)
	if berr != nil {
		return "", berr
	}
	if blocked {
		return "", ErrFedBlocked
	}
	return "", ErrFedPolicyDenied
}
