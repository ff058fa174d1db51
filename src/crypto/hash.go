package crypto

import (
	"crypto/sha512"
	"hash"
)

// DigestSize is the size in bytes of the stream digests (SHA-384).
const DigestSize = sha512.Size384

// NewDigest returns a fresh SHA-384 hash.Hash.
func NewDigest() hash.Hash {
	return sha512.New384()
}

// SHA384 returns the SHA-384 hash of the data.
func SHA384(data []byte) []byte {
	hasher := sha512.New384()
	hasher.Write(data)
	return hasher.Sum(nil)
}

// SimpleHashFromTwoHashes returns the SHA-384 hash of the concatenation of
// left and right data.
func SimpleHashFromTwoHashes(left []byte, right []byte) []byte {
	var hasher = sha512.New384()
	hasher.Write(left)
	hasher.Write(right)
	return hasher.Sum(nil)
}

// RunningDigest is a digest that can be switched off and on while bytes are
// streamed through it. Writes made while it is off are dropped.
type RunningDigest struct {
	h   hash.Hash
	off bool
}

// NewRunningDigest returns an enabled RunningDigest.
func NewRunningDigest() *RunningDigest {
	return &RunningDigest{h: NewDigest()}
}

// Write implements io.Writer. It never fails.
func (d *RunningDigest) Write(p []byte) (int, error) {
	if !d.off {
		d.h.Write(p)
	}
	return len(p), nil
}

// Pause stops feeding the digest.
func (d *RunningDigest) Pause() {
	d.off = true
}

// Resume feeds the digest again.
func (d *RunningDigest) Resume() {
	d.off = false
}

// Sum returns the digest of everything written while enabled.
func (d *RunningDigest) Sum() []byte {
	return d.h.Sum(nil)
}
