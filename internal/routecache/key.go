package routecache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sells-group/location-evaluator/internal/routing"
)

// Key identifies a cached route. Origin coordinates are bucketed to two
// decimal places (about 0.7 miles) to bound the number of cache partitions,
// destinations are identified by a hash of the address string so an address
// edit invalidates old entries, and departure times are bucketed to 15
// minutes within the weekday.
type Key struct {
	LatBucket  string
	LonBucket  string
	AddrHash   string
	Mode       routing.Mode
	TimeBucket string
}

// NewKey derives the cache key for a route request against a destination
// address.
func NewKey(originLat, originLon float64, destAddress string, mode routing.Mode, departure time.Time) Key {
	return Key{
		LatBucket:  fmt.Sprintf("%.2f", originLat),
		LonBucket:  fmt.Sprintf("%.2f", originLon),
		AddrHash:   hashAddress(destAddress),
		Mode:       mode,
		TimeBucket: timeBucket(departure),
	}
}

// String renders the key as a single stable string, usable as a primary key.
func (k Key) String() string {
	return fmt.Sprintf("%s_%s_%s_%s_%s", k.LatBucket, k.LonBucket, k.AddrHash, k.Mode, k.TimeBucket)
}

func hashAddress(addr string) string {
	sum := sha256.Sum256([]byte(addr))
	return hex.EncodeToString(sum[:])[:12]
}

// timeBucket renders a departure as weekday plus the 15-minute slot, e.g.
// "mon-0830" for any Monday departure between 08:30 and 08:44.
func timeBucket(departure time.Time) string {
	day := [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}[departure.Weekday()]
	minute := departure.Minute() / 15 * 15
	return fmt.Sprintf("%s-%02d%02d", day, departure.Hour(), minute)
}
