package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxchat/voxgate/internal/models"
	"github.com/voxchat/voxgate/internal/repositories"
)

type memoryPeerRepo struct {
	peers map[string]*models.FederationPeer
}

func (m *memoryPeerRepo) GetByDomain(ctx context.Context, domain string) (*models.FederationPeer, error) {
	peer, ok := m.peers[domain]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return peer, nil
}

func (m *memoryPeerRepo) IsBlocked(ctx context.Context, domain string) (bool, error) {
	peer, ok := m.peers[domain]
	if !ok {
		return false, nil
	}
	return peer.Blocked, nil
}

func signPayload(secret string, body []byte, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	mac.Write([]byte(timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestGuard(peers *memoryPeerRepo, now time.Time) *FederationGuard {
	guard := NewFederationGuard(NewHMACVerifier(peers), peers, DefaultMaxSkew)
	guard.now = func() time.Time { return now }
	return guard
}

func TestFederationGuard_AcceptsValidRequest(t *testing.T) {
	peers := &memoryPeerRepo{peers: map[string]*models.FederationPeer{
		"vox.example.org": {Domain: "vox.example.org", SharedSecret: "s3cret"},
	}}
	now := time.Unix(1700000000, 0)
	guard := newTestGuard(peers, now)

	body := []byte(`{"events":[]}`)
	ts := strconv.FormatInt(now.Unix(), 10)
	sig := signPayload("s3cret", body, ts)

	origin, err := guard.VerifyRequest(context.Background(), "vox.example.org", sig, ts, body)
	require.NoError(t, err)
	assert.Equal(t, "vox.example.org", origin)
}

func TestFederationGuard_MissingOrMalformedTimestamp(t *testing.T) {
	peers := &memoryPeerRepo{peers: map[string]*models.FederationPeer{}}
	guard := newTestGuard(peers, time.Unix(1700000000, 0))

	_, err := guard.VerifyRequest(context.Background(), "vox.example.org", "sig", "", nil)
	assert.ErrorIs(t, err, ErrFedMissingTimestamp)

	_, err = guard.VerifyRequest(context.Background(), "vox.example.org", "sig", "not-a-number", nil)
	assert.ErrorIs(t, err, ErrFedMissingTimestamp)
}

func TestFederationGuard_SkewBoundaryInclusive(t *testing.T) {
	peers := &memoryPeerRepo{peers: map[string]*models.FederationPeer{
		"vox.example.org": {Domain: "vox.example.org", SharedSecret: "s3cret"},
	}}
	now := time.Unix(1700000000, 0)
	guard := newTestGuard(peers, now)
	body := []byte(`{}`)

	// Exactly 300 seconds old: accepted
	ts := strconv.FormatInt(now.Unix()-300, 10)
	_, err := guard.VerifyRequest(context.Background(), "vox.example.org", signPayload("s3cret", body, ts), ts, body)
	assert.NoError(t, err)

	// 301 seconds old: rejected
	ts = strconv.FormatInt(now.Unix()-301, 10)
	_, err = guard.VerifyRequest(context.Background(), "vox.example.org", signPayload("s3cret", body, ts), ts, body)
	assert.ErrorIs(t, err, ErrFedTimestampExpired)

	// Future drift is symmetric
	ts = strconv.FormatInt(now.Unix()+301, 10)
	_, err = guard.VerifyRequest(context.Background(), "vox.example.org", signPayload("s3cret", body, ts), ts, body)
	assert.ErrorIs(t, err, ErrFedTimestampExpired)
}

func TestFederationGuard_TamperedBodyFailsAuth(t *testing.T) {
	peers := &memoryPeerRepo{peers: map[string]*models.FederationPeer{
		"vox.example.org": {Domain: "vox.example.org", SharedSecret: "s3cret"},
	}}
	now := time.Unix(1700000000, 0)
	guard := newTestGuard(peers, now)

	body := []byte(`{"events":[]}`)
	ts := strconv.FormatInt(now.Unix(), 10)
	sig := signPayload("s3cret", body, ts)

	// Flip one byte after signing
	tampered := append([]byte(nil), body...)
	tampered[0] ^= 0x01

	_, err := guard.VerifyRequest(context.Background(), "vox.example.org", sig, ts, tampered)
	assert.ErrorIs(t, err, ErrFedAuthFailed)
}

func TestFederationGuard_SignatureBindsTimestamp(t *testing.T) {
	peers := &memoryPeerRepo{peers: map[string]*models.FederationPeer{
		"vox.example.org": {Domain: "vox.example.org", SharedSecret: "s3cret"},
	}}
	now := time.Unix(1700000000, 0)
	guard := newTestGuard(peers, now)

	body := []byte(`{"events":[]}`)
	oldTs := strconv.FormatInt(now.Unix()-10, 10)
	sig := signPayload("s3cret", body, oldTs)

	// Replaying the same body under a different timestamp must fail
	freshTs := strconv.FormatInt(now.Unix(), 10)
	_, err := guard.VerifyRequest(context.Background(), "vox.example.org", sig, freshTs, body)
	assert.ErrorIs(t, err, ErrFedAuthFailed)
}

func TestFederationGuard_UnknownDomainFailsAuth(t *testing.T) {
	peers := &memoryPeerRepo{peers: map[string]*models.FederationPeer{}}
	now := time.Unix(1700000000, 0)
	guard := newTestGuard(peers, now)

	body := []byte(`{}`)
	ts := strconv.FormatInt(now.Unix(), 10)
	sig := signPayload("whatever", body, ts)

	_, err := guard.VerifyRequest(context.Background(), "unknown.example.org", sig, ts, body)
	assert.ErrorIs(t, err, ErrFedAuthFailed)
}

// allowAllVerifier stands in for a scheme whose trust material lives
// outside the peer table (e.g. registered public keys).
type allowAllVerifier struct{}

func (allowAllVerifier) Verify(ctx context.Context, signedPayload []byte, signature, origin string) (bool, error) {
	return true, nil
}

func TestFederationGuard_UnlistedDomainIsPolicyDenied(t *testing.T) {
	peers := &memoryPeerRepo{peers: map[string]*models.FederationPeer{}}
	now := time.Unix(1700000000, 0)
	guard := NewFederationGuard(allowAllVerifier{}, peers, DefaultMaxSkew)
	guard.now = func() time.Time { return now }

	ts := strconv.FormatInt(now.Unix(), 10)
	_, err := guard.VerifyRequest(context.Background(), "stranger.example.org", "sig", ts, []byte(`{}`))
	assert.ErrorIs(t, err, ErrFedPolicyDenied)
}

func TestFederationGuard_BlockedDomainReportedDistinctly(t *testing.T) {
	peers := &memoryPeerRepo{peers: map[string]*models.FederationPeer{
		"evil.example.org": {Domain: "evil.example.org", SharedSecret: "s3cret", Blocked: true},
	}}
	now := time.Unix(1700000000, 0)
	guard := newTestGuard(peers, now)

	// Valid signature and timestamp; the block still wins
	body := []byte(`{}`)
	ts := strconv.FormatInt(now.Unix(), 10)
	sig := signPayload("s3cret", body, ts)

	_, err := guard.VerifyRequest(context.Background(), "evil.example.org", sig, ts, body)
	assert.ErrorIs(t, err, ErrFedBlocked)
}
