// Package bucket maps (flag key, entity) pairs onto a fixed numeric space.
//
// The mapping is a pure function of its inputs: the same flag key and entity
// always land in the same bucket, across processes and over time, so an
// entity's rollout membership never flickers while the flag is unchanged.
//
// When no entity identifier is supplied the pair still hashes
// deterministically over the flag key and the empty identifier. The flag then
// behaves as a global coin: it is on for everyone or off for everyone,
// depending on where the flag key itself lands relative to the rollout
// threshold.
package bucket

import (
	"github.com/cespare/xxhash/v2"
)

// Space is the size of the bucket space. 10,000 buckets give two decimal
// places of rollout precision.
const Space = 10000

// separator keeps ("ab", "c") and ("a", "bc") from hashing identically.
const separator = '\x00'

// Bucket returns the deterministic bucket in [0, Space) for the given flag
// key and entity identifier.
func Bucket(flagKey, entityID string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(flagKey)
	_, _ = d.Write([]byte{separator})
	_, _ = d.WriteString(entityID)
	return d.Sum64() % Space
}

// Threshold converts a rollout percentage (0..100) into the exclusive upper
// bucket bound: buckets strictly below it are inside the rollout.
func Threshold(rolloutPercentage float64) float64 {
	return rolloutPercentage * Space / 100
}
