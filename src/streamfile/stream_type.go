package streamfile

import "strings"

// StreamType describes where a kind of stream file lives in the object store
// and how it is named.
type StreamType struct {
	// Name is the short identifier used in configuration, logs and keys.
	Name string
	// Dir is the top-level directory of the stream in the bucket.
	Dir string
	// NodePrefix is prepended to the node account id to name the per-node
	// directory, eg. record0.0.3
	NodePrefix string
	// Suffix precedes the extension, eg. _Balances
	Suffix string
	// Extension of data files, without the dot.
	Extension string
	// ChainLinked is true when files declare the hash of their predecessor.
	ChainLinked bool
}

var (
	// RecordStream holds transaction records.
	RecordStream = StreamType{
		Name:        "record",
		Dir:         "recordstreams",
		NodePrefix:  "record",
		Extension:   "rcd",
		ChainLinked: true,
	}

	// BalanceStream holds account balance snapshots.
	BalanceStream = StreamType{
		Name:       "balance",
		Dir:        "accountBalances",
		NodePrefix: "balance",
		Suffix:     "_Balances",
		Extension:  "csv",
	}
)

// StreamTypes returns every known stream type.
func StreamTypes() []StreamType {
	return []StreamType{RecordStream, BalanceStream}
}

// StreamTypeByName looks a stream type up by its Name.
func StreamTypeByName(name string) (StreamType, bool) {
	for _, st := range StreamTypes() {
		if strings.EqualFold(st.Name, name) {
			return st, true
		}
	}
	return StreamType{}, false
}

// NodeDir is the directory where the node with account nodeAccount uploads
// files of this type, eg. recordstreams/record0.0.3/
func (s StreamType) NodeDir(nodeAccount string) string {
	return s.Dir + "/" + s.NodePrefix + nodeAccount + "/"
}

// String ...
func (s StreamType) String() string {
	return s.Name
}
