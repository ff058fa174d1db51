package hapi

import (
	"fmt"
	"time"
)

// Timestamp is a consensus timestamp.
type Timestamp struct {
	Seconds int64
	Nanos   int32
}

// TimestampFromNanos converts nanoseconds since the epoch.
func TimestampFromNanos(ns int64) Timestamp {
	return Timestamp{Seconds: ns / int64(time.Second), Nanos: int32(ns % int64(time.Second))}
}

// UnixNano returns nanoseconds since the epoch.
func (t Timestamp) UnixNano() int64 {
	return t.Seconds*int64(time.Second) + int64(t.Nanos)
}

// IsZero ...
func (t Timestamp) IsZero() bool {
	return t.Seconds == 0 && t.Nanos == 0
}

// Marshal ...
func (t Timestamp) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(t.Seconds))
	b = appendVarintField(b, 2, uint64(t.Nanos))
	return b
}

// UnmarshalTimestamp ...
func UnmarshalTimestamp(b []byte) (Timestamp, error) {
	var t Timestamp
	err := walk(b, func(f field) error {
		switch f.num {
		case 1:
			v, err := f.int64()
			t.Seconds = v
			return err
		case 2:
			v, err := f.int64()
			t.Nanos = int32(v)
			return err
		}
		return nil
	})
	return t, err
}

// EntityID is the shard.realm.num triple shared by accounts, files and
// tokens.
type EntityID struct {
	Shard int64
	Realm int64
	Num   int64
}

// AccountID ...
type AccountID = EntityID

// FileID ...
type FileID = EntityID

// TokenID ...
type TokenID = EntityID

// String returns the dotted form, eg. 0.0.3
func (id EntityID) String() string {
	return fmt.Sprintf("%d.%d.%d", id.Shard, id.Realm, id.Num)
}

// IsZero ...
func (id EntityID) IsZero() bool {
	return id.Shard == 0 && id.Realm == 0 && id.Num == 0
}

// ParseEntityID parses the dotted form.
func ParseEntityID(s string) (EntityID, error) {
	var id EntityID
	n, err := fmt.Sscanf(s, "%d.%d.%d", &id.Shard, &id.Realm, &id.Num)
	if err != nil || n != 3 {
		return id, fmt.Errorf("invalid entity id %q", s)
	}
	if id.Shard < 0 || id.Realm < 0 || id.Num < 0 {
		return id, fmt.Errorf("invalid entity id %q", s)
	}
	return id, nil
}

// Marshal ...
func (id EntityID) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(id.Shard))
	b = appendVarintField(b, 2, uint64(id.Realm))
	b = appendVarintField(b, 3, uint64(id.Num))
	return b
}

// UnmarshalEntityID ...
func UnmarshalEntityID(b []byte) (EntityID, error) {
	var id EntityID
	err := walk(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			id.Shard, err = f.int64()
		case 2:
			id.Realm, err = f.int64()
		case 3:
			id.Num, err = f.int64()
		}
		return err
	})
	return id, err
}

// SemanticVersion is the HAPI version triple.
type SemanticVersion struct {
	Major int32
	Minor int32
	Patch int32
}

// String ...
func (v SemanticVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Marshal ...
func (v SemanticVersion) Marshal() []byte {
	var b []byte
	b = appendVarintField(b, 1, uint64(v.Major))
	b = appendVarintField(b, 2, uint64(v.Minor))
	b = appendVarintField(b, 3, uint64(v.Patch))
	return b
}

// UnmarshalSemanticVersion ...
func UnmarshalSemanticVersion(b []byte) (SemanticVersion, error) {
	var v SemanticVersion
	err := walk(b, func(f field) error {
		var (
			x   int64
			err error
		)
		switch f.num {
		case 1, 2, 3:
			x, err = f.int64()
		default:
			return nil
		}
		switch f.num {
		case 1:
			v.Major = int32(x)
		case 2:
			v.Minor = int32(x)
		case 3:
			v.Patch = int32(x)
		}
		return err
	})
	return v, err
}
