package addressbook

import (
	"fmt"
	"sort"

	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/crypto"
	"github.com/mosaicnetworks/streamgate/src/hapi"
)

//AddressBook is a complete roster, effective from StartConsensus until
//EndConsensus. An AddressBook is never modified after publication; closing it
//produces a copy.
type AddressBook struct {
	Slot           Slot        `json:"slot"`
	StartConsensus int64       `json:"start_consensus"`
	EndConsensus   int64       `json:"end_consensus,omitempty"`
	Nodes          []NodeEntry `json:"nodes"`
	Raw            []byte      `json:"-"`

	byID      map[int64]int
	byAccount map[string]int
	hash      []byte
}

//Parse builds an AddressBook from a serialized roster. It fails when the
//bytes do not decode, when the roster is empty or when any node lacks an
//account or a public key, which is how an incomplete buffer is detected.
func Parse(slot Slot, start int64, raw []byte) (*AddressBook, error) {
	msg, err := hapi.UnmarshalNodeAddressBook(raw)
	if err != nil {
		return nil, err
	}
	if len(msg.NodeAddresses) == 0 {
		return nil, fmt.Errorf("no nodes")
	}

	nodes := make([]NodeEntry, 0, len(msg.NodeAddresses))
	for _, na := range msg.NodeAddresses {
		entry, err := newNodeEntry(na)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, entry)
	}

	//Legacy rosters leave every node id at zero
	if !uniqueIDs(nodes) {
		for i := range nodes {
			nodes[i].NodeID = nodes[i].Account.Num - 3
		}
	}

	rawCopy := make([]byte, len(raw))
	copy(rawCopy, raw)

	return newAddressBook(slot, start, nodes, rawCopy), nil
}

func newAddressBook(slot Slot, start int64, nodes []NodeEntry, raw []byte) *AddressBook {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].NodeID < nodes[j].NodeID
	})

	ab := &AddressBook{
		Slot:           slot,
		StartConsensus: start,
		Nodes:          nodes,
		Raw:            raw,
		hash:           crypto.SHA384(raw),
	}
	ab.index()
	return ab
}

func (ab *AddressBook) index() {
	ab.byID = make(map[int64]int, len(ab.Nodes))
	ab.byAccount = make(map[string]int, len(ab.Nodes))
	for i, n := range ab.Nodes {
		ab.byID[n.NodeID] = i
		ab.byAccount[n.Account.String()] = i
	}
}

func uniqueIDs(nodes []NodeEntry) bool {
	seen := make(map[int64]bool, len(nodes))
	for _, n := range nodes {
		if seen[n.NodeID] {
			return false
		}
		seen[n.NodeID] = true
	}
	return true
}

//Closed returns a copy of the book ending at end
func (ab *AddressBook) Closed(end int64) *AddressBook {
	c := *ab
	c.EndConsensus = end
	return &c
}

//ByID returns the node with the given id
func (ab *AddressBook) ByID(id int64) (NodeEntry, bool) {
	i, ok := ab.byID[id]
	if !ok {
		return NodeEntry{}, false
	}
	return ab.Nodes[i], true
}

//ByAccount returns the node with the given account, eg. "0.0.3"
func (ab *AddressBook) ByAccount(account string) (NodeEntry, bool) {
	i, ok := ab.byAccount[account]
	if !ok {
		return NodeEntry{}, false
	}
	return ab.Nodes[i], true
}

//Len returns the number of nodes
func (ab *AddressBook) Len() int {
	return len(ab.Nodes)
}

//SuperMajority returns the smallest count m with m*den > Len()*num. With the
//default 2/3 this is 2n/3+1.
func (ab *AddressBook) SuperMajority(num, den int) int {
	return ab.Len()*num/den + 1
}

//Hash identifies the roster content
func (ab *AddressBook) Hash() []byte {
	return ab.hash
}

//Hex is the hexadecimal representation of Hash
func (ab *AddressBook) Hex() string {
	return common.EncodeToString(ab.Hash())
}

func (ab *AddressBook) String() string {
	return fmt.Sprintf("%s address book (%d nodes, from %d)", ab.Slot, ab.Len(), ab.StartConsensus)
}
