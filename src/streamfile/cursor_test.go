package streamfile

import (
	"bytes"
	"testing"

	"github.com/mosaicnetworks/streamgate/src/crypto"
)

func TestCursorReads(t *testing.T) {
	w := &Writer{}
	w.WriteInt32(2)
	w.WriteByte(1)
	w.WriteLengthPrefixed([]byte("abc"))
	w.WriteInt64(-7)

	digest := crypto.NewRunningDigest()
	c := NewCursor(w.Bytes(), digest)

	if err := c.ReadInt32Expect(2, "version"); err != nil {
		t.Fatal(err)
	}
	if err := c.ReadMarker(1, "prev hash"); err != nil {
		t.Fatal(err)
	}
	b, err := c.ReadLengthPrefixed(1, 10, "payload")
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "abc" {
		t.Fatalf("payload should be abc, not %q", b)
	}

	peek, ok := c.PeekInt64()
	if !ok || peek != -7 {
		t.Fatalf("peek should be -7, not %d", peek)
	}
	if c.Position() != 12 {
		t.Fatalf("peek should not consume, position %d", c.Position())
	}

	v, err := c.ReadInt64()
	if err != nil || v != -7 {
		t.Fatalf("int64 should be -7, not %d (%v)", v, err)
	}
	if !c.AtEnd() {
		t.Fatal("cursor should be at end")
	}

	if !bytes.Equal(digest.Sum(), crypto.SHA384(w.Bytes())) {
		t.Fatal("digest should cover every consumed byte")
	}
}

func TestCursorErrors(t *testing.T) {
	w := &Writer{}
	w.WriteInt32(100)
	w.Write([]byte("short"))

	c := NewCursor(w.Bytes())
	if _, err := c.ReadLengthPrefixed(0, 50, "item"); err == nil {
		t.Fatal("length above max should fail")
	}

	c = NewCursor(w.Bytes())
	if _, err := c.ReadLengthPrefixed(0, 1000, "item"); err == nil {
		t.Fatal("truncated field should fail")
	}

	c = NewCursor([]byte{3})
	if err := c.ReadMarker(2, "record"); err == nil {
		t.Fatal("wrong marker should fail")
	}

	c = NewCursor([]byte{0, 0})
	if _, err := c.ReadInt32(); err == nil {
		t.Fatal("short int should fail")
	}
	if _, ok := c.PeekInt64(); ok {
		t.Fatal("short peek should fail")
	}
}
