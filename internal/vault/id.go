package vault

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// NewID produces a 32-character opaque script ID: 16 bytes from a
// cryptographically strong random source, hex-encoded. The ID derives
// from neither content nor time, so it cannot be guessed or replayed.
func NewID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generating script id: %w", err)
	}
	return hex.EncodeToString(u[:]), nil
}
