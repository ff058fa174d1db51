package streamfile

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the layout of the timestamp that starts every stream
// filename. Colons are replaced by underscores so that names are valid on
// every file system.
const TimestampLayout = "2006-01-02T15_04_05.999999999Z"

const (
	// SignatureSuffix is appended to a data filename to name its signature.
	SignatureSuffix = "_sig"
	// CompressedSuffix marks gzip'd data files.
	CompressedSuffix = ".gz"
)

// Filename is a parsed stream filename.
type Filename struct {
	Name       string
	Timestamp  time.Time
	Stream     StreamType
	Signature  bool
	Compressed bool
}

// ParseFilename parses a base filename (no directory) of any stream type.
func ParseFilename(name string) (Filename, error) {
	fn := Filename{Name: name}

	rest := name
	if strings.HasSuffix(rest, SignatureSuffix) {
		fn.Signature = true
		rest = strings.TrimSuffix(rest, SignatureSuffix)
	}
	if strings.HasSuffix(rest, CompressedSuffix) {
		fn.Compressed = true
		rest = strings.TrimSuffix(rest, CompressedSuffix)
	}

	matched := false
	for _, st := range StreamTypes() {
		tail := st.Suffix + "." + st.Extension
		if strings.HasSuffix(rest, tail) {
			fn.Stream = st
			rest = strings.TrimSuffix(rest, tail)
			matched = true
			break
		}
	}
	if !matched {
		return fn, fmt.Errorf("unrecognised stream filename %q", name)
	}

	ts, err := time.Parse(TimestampLayout, rest)
	if err != nil {
		return fn, fmt.Errorf("invalid timestamp in filename %q: %v", name, err)
	}
	fn.Timestamp = ts.UTC()

	return fn, nil
}

// FilenameFor builds the data filename of stream type st at instant ts.
func FilenameFor(st StreamType, ts time.Time) string {
	return FormatTimestamp(ts) + st.Suffix + "." + st.Extension
}

// FormatTimestamp formats ts with all nine fractional digits, which keeps
// lexicographic order equal to time order.
func FormatTimestamp(ts time.Time) string {
	return ts.UTC().Format("2006-01-02T15_04_05.000000000Z")
}

// UnixNano is the consensus timestamp embedded in the name.
func (f Filename) UnixNano() int64 {
	return f.Timestamp.UnixNano()
}

// SignatureName is the name of the signature of this data file.
func (f Filename) SignatureName() string {
	if f.Signature {
		return f.Name
	}
	return strings.TrimSuffix(f.Name, CompressedSuffix) + SignatureSuffix
}

// DataNames returns the data filenames a signature may refer to, plain first
// and then compressed. A data filename returns itself.
func (f Filename) DataNames() []string {
	if !f.Signature {
		return []string{f.Name}
	}
	base := strings.TrimSuffix(f.Name, SignatureSuffix)
	if f.Compressed {
		return []string{base}
	}
	return []string{base, base + CompressedSuffix}
}

// After reports whether f is strictly later than other, comparing timestamps
// first and names to break ties.
func (f Filename) After(other Filename) bool {
	if !f.Timestamp.Equal(other.Timestamp) {
		return f.Timestamp.After(other.Timestamp)
	}
	return f.Name > other.Name
}

// String ...
func (f Filename) String() string {
	return f.Name
}
