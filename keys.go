package simpleratelimiter

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const keyPrefix = "ratelimit:"

// DeriveKey hashes the given parts into a stable, store-safe bucket key.
// Cooperating processes that pass the same parts land on the same bucket.
// Parts are separated before hashing, so ("ab","c") and ("a","bc") derive
// different keys. Key derivation is a convenience: any opaque pre-agreed
// string works as a bucket key.
func DeriveKey(parts ...string) string {
	sum := xxhash.Sum64String(strings.Join(parts, "\x1f"))
	return keyPrefix + strconv.FormatUint(sum, 16)
}

// HostKey derives a bucket key scoped to this machine, for limits that
// should hold per host rather than across the whole fleet.
func HostKey(name string) (string, error) {
	host, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("derive host key: %w", err)
	}
	return DeriveKey(host, name), nil
}
