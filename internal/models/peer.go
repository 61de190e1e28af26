package models

import "time"

// FederationPeer is the trust record for a remote server. The guard only
// ever reads these; mutation belongs to the admin surface.
type FederationPeer struct {
	Domain       string    `json:"domain"`
	SharedSecret string    `json:"-"`
	Blocked      bool      `json:"blocked"`
	CreatedAt    time.Time `json:"created_at"`
}
