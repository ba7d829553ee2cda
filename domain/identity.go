// Package domain contains core concepts of the chat system.
// No runtime, network, or UI logic should be added here.
package domain

// Identity is the authenticated principal behind a connection or request.
// It is produced by the auth verifier and immutable for a connection's lifetime.
type Identity struct {
	ID          string
	DisplayName string
}
