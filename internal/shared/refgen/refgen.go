// Package refgen generates opaque references used to correlate local rows
// with remote gateway transactions. References must be unpredictable and
// practically collision-free; uniqueness is additionally enforced by the
// database columns that store them.
package refgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New returns a reference of the form <prefix>-<unix-millis>-<12 hex chars>.
func New(prefix string) string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is in serious trouble;
		// fall back to a time-only suffix rather than panic.
		return fmt.Sprintf("%s-%d-%012d", prefix, time.Now().UnixMilli(), time.Now().UnixNano()%1e12)
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(b))
}
