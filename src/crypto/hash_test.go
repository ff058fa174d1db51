package crypto

import (
	"bytes"
	"testing"
)

func TestRunningDigestPause(t *testing.T) {
	d := NewRunningDigest()
	d.Write([]byte("head"))
	d.Pause()
	d.Write([]byte("items that are skipped"))
	d.Resume()
	d.Write([]byte("tail"))

	expected := SHA384([]byte("headtail"))
	if !bytes.Equal(d.Sum(), expected) {
		t.Fatalf("running digest should only cover enabled writes")
	}
}

func TestSimpleHashFromTwoHashes(t *testing.T) {
	left := []byte("left")
	right := []byte("right")

	if !bytes.Equal(SimpleHashFromTwoHashes(left, right), SHA384([]byte("leftright"))) {
		t.Fatal("hash of two hashes should equal hash of concatenation")
	}
	if len(SHA384(nil)) != DigestSize {
		t.Fatalf("digest size should be %d", DigestSize)
	}
}
