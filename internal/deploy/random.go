package deploy

import (
	"math/rand"
	"time"
)

// randomJitter returns a uniformly distributed duration in [0, 54]
// seconds, added to the fixed "up to date" sleep per spec.md §4.E.
func randomJitter() time.Duration {
	return time.Duration(rand.Intn(55)) * time.Second
}
