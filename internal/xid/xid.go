package xid

import (
	"github.com/google/uuid"
)

// New returns a random identifier tagged with prefix, e.g. "sim-2f1c...".
func New(prefix string) string {
	if prefix == "" {
		return uuid.NewString()
	}
	return prefix + "-" + uuid.NewString()
}
