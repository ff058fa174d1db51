package hapi

import (
	"fmt"
	"net"
	"strconv"
)

// ServiceEndpoint ...
type ServiceEndpoint struct {
	IPAddressV4 []byte
	Port        int32
}

// String ...
func (e ServiceEndpoint) String() string {
	return net.JoinHostPort(net.IP(e.IPAddressV4).String(), strconv.Itoa(int(e.Port)))
}

// NodeAddress is one entry of a NodeAddressBook.
type NodeAddress struct {
	IPAddress        string
	Port             int32
	Memo             string
	RSAPubKey        string
	NodeID           int64
	NodeAccountID    AccountID
	NodeCertHash     []byte
	ServiceEndpoints []ServiceEndpoint
	Description      string
	Stake            int64
}

// NodeAddressBook is the serialized content of the address book files.
type NodeAddressBook struct {
	NodeAddresses []NodeAddress
}

// Marshal ...
func (ab *NodeAddressBook) Marshal() []byte {
	var b []byte
	for _, na := range ab.NodeAddresses {
		b = appendMessageField(b, 1, na.marshal())
	}
	return b
}

func (na *NodeAddress) marshal() []byte {
	var b []byte
	b = appendBytesField(b, 1, []byte(na.IPAddress))
	b = appendVarintField(b, 2, uint64(na.Port))
	b = appendBytesField(b, 3, []byte(na.Memo))
	b = appendBytesField(b, 4, []byte(na.RSAPubKey))
	b = appendVarintField(b, 5, uint64(na.NodeID))
	if !na.NodeAccountID.IsZero() {
		b = appendMessageField(b, 6, na.NodeAccountID.Marshal())
	}
	b = appendBytesField(b, 7, na.NodeCertHash)
	for _, se := range na.ServiceEndpoints {
		var eb []byte
		eb = appendBytesField(eb, 1, se.IPAddressV4)
		eb = appendVarintField(eb, 2, uint64(se.Port))
		b = appendMessageField(b, 8, eb)
	}
	b = appendBytesField(b, 9, []byte(na.Description))
	b = appendVarintField(b, 10, uint64(na.Stake))
	return b
}

// UnmarshalNodeAddressBook decodes an address book. It fails on any malformed
// field, which is how a partially assembled book is told apart from a
// complete one.
func UnmarshalNodeAddressBook(b []byte) (*NodeAddressBook, error) {
	ab := &NodeAddressBook{}
	err := walk(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		m, err := f.message()
		if err != nil {
			return err
		}
		na, err := unmarshalNodeAddress(m)
		if err != nil {
			return fmt.Errorf("node address %d: %v", len(ab.NodeAddresses), err)
		}
		ab.NodeAddresses = append(ab.NodeAddresses, *na)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ab, nil
}

func unmarshalNodeAddress(b []byte) (*NodeAddress, error) {
	na := &NodeAddress{}
	err := walk(b, func(f field) error {
		var (
			m   []byte
			v   int64
			err error
		)
		switch f.num {
		case 1:
			m, err = f.message()
			na.IPAddress = string(m)
		case 2:
			v, err = f.int64()
			na.Port = int32(v)
		case 3:
			m, err = f.message()
			na.Memo = string(m)
		case 4:
			m, err = f.message()
			na.RSAPubKey = string(m)
		case 5:
			na.NodeID, err = f.int64()
		case 6:
			if m, err = f.message(); err == nil {
				na.NodeAccountID, err = UnmarshalEntityID(m)
			}
		case 7:
			na.NodeCertHash, err = f.message()
		case 8:
			if m, err = f.message(); err == nil {
				var se ServiceEndpoint
				err = walk(m, func(ef field) error {
					switch ef.num {
					case 1:
						var e error
						se.IPAddressV4, e = ef.message()
						return e
					case 2:
						p, e := ef.int64()
						se.Port = int32(p)
						return e
					}
					return nil
				})
				na.ServiceEndpoints = append(na.ServiceEndpoints, se)
			}
		case 9:
			m, err = f.message()
			na.Description = string(m)
		case 10:
			na.Stake, err = f.int64()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return na, nil
}
