// Package fingerprint derives the content hash identifying a document's
// bytes for embedding-cache purposes. Identical bytes always yield the same
// fingerprint.
package fingerprint

import (
	"encoding/hex"

	"github.com/minio/highwayhash"
)

var key = []byte("c11ma7e-c1au5e-adv150r-f1n6erpr1")

// Of returns the hex fingerprint of raw document bytes.
func Of(data []byte) string {
	sum := highwayhash.Sum128(data, key)
	return hex.EncodeToString(sum[:])
}
