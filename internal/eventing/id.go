package eventing

import (
	"crypto/rand"
	"encoding/hex"
)

// NewEventID returns a 32-char random hex event identifier.
func NewEventID() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return "evt-" + hex.EncodeToString(buf[:])
}

func newEventID() string { return NewEventID() }
