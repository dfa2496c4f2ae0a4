// Package domain contains core concepts of the messaging system.
// This file defines users and the verified identities attached to live
// sessions. No runtime, network, or UI logic should be added here.
package domain

import "time"

// User is a registered account.
type User struct {
	ID        string
	Username  string
	Email     string
	CreatedAt time.Time
}

// Identity is the verified subset of a User attached to a connection
// after the handshake. It is produced only by the credential verifier
// and immutable for the lifetime of a session.
type Identity struct {
	ID       string
	Username string
	Email    string
}
