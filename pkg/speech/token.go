package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

const (
	// Seconds between the Windows epoch (1601-01-01) and the Unix epoch.
	winEpochOffsetSec = 11_644_473_600

	ticksPerSecond = 10_000_000

	// Width of one token validity window in 100ns ticks (5 minutes).
	tokenWindowTicks = 5 * 60 * ticksPerSecond
)

// generateToken derives the rotating Sec-MS-GEC value for the given
// wall-clock time. Every client inside the same 5-minute window derives
// the same 64-char uppercase hex token.
func generateToken(now time.Time, clientToken string) string {
	ticks := (now.Unix() + winEpochOffsetSec) * ticksPerSecond
	ticks -= ticks % tokenWindowTicks

	sum := sha256.Sum256([]byte(strconv.FormatInt(ticks, 10) + clientToken))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
