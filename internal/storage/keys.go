package storage

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Object keys follow {waID}/{address}/{uuid}.jpg. The first two segments are
// the sole routing truth for the analysis stage: it parses them back out of
// the triggering key to know where to send its reply, with no database lookup.

// BuildObjectKey returns a fresh object key for one upload. The identifier is
// generated per call, so repeated uploads from the same sender never collide.
func BuildObjectKey(waID, address string) string {
	return fmt.Sprintf("%s/%s/%s.jpg", waID, address, uuid.NewString())
}

// ParseObjectKey extracts the sender identifiers from an object key.
func ParseObjectKey(key string) (waID, address string, err error) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("storage: object key %q does not match {waId}/{address}/{id}.jpg", key)
	}
	return parts[0], parts[1], nil
}
