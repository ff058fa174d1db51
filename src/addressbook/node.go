package addressbook

import (
	"fmt"

	"github.com/mosaicnetworks/streamgate/src/hapi"
)

//NodeEntry is one consensus node as published in an address book
type NodeEntry struct {
	NodeID    int64          `json:"node_id"`
	Account   hapi.AccountID `json:"account"`
	PublicKey string         `json:"public_key"`
	IPAddress string         `json:"ip_address,omitempty"`
	Port      int32          `json:"port,omitempty"`
	Memo      string         `json:"memo,omitempty"`
	CertHash  []byte         `json:"cert_hash,omitempty"`
	Stake     int64          `json:"stake,omitempty"`
}

//newNodeEntry validates a NodeAddress. Legacy books leave the account empty
//and carry it in the memo instead.
func newNodeEntry(na hapi.NodeAddress) (NodeEntry, error) {
	entry := NodeEntry{
		NodeID:    na.NodeID,
		Account:   na.NodeAccountID,
		PublicKey: na.RSAPubKey,
		IPAddress: na.IPAddress,
		Port:      na.Port,
		Memo:      na.Memo,
		CertHash:  na.NodeCertHash,
		Stake:     na.Stake,
	}

	if entry.Account.IsZero() {
		account, err := hapi.ParseEntityID(na.Memo)
		if err != nil {
			return entry, fmt.Errorf("node %d has no account", na.NodeID)
		}
		entry.Account = account
	}

	if entry.PublicKey == "" {
		return entry, fmt.Errorf("node %s has no public key", entry.Account)
	}

	return entry, nil
}

//NodeDir is the name of the account as used in object store paths
func (n NodeEntry) NodeDir() string {
	return n.Account.String()
}

func (n NodeEntry) String() string {
	return fmt.Sprintf("node %d (%s)", n.NodeID, n.Account)
}

//Encode serializes nodes as a NodeAddressBook, the content of a roster file
func Encode(nodes []NodeEntry) []byte {
	msg := &hapi.NodeAddressBook{}
	for _, n := range nodes {
		msg.NodeAddresses = append(msg.NodeAddresses, hapi.NodeAddress{
			IPAddress:     n.IPAddress,
			Port:          n.Port,
			Memo:          n.Memo,
			RSAPubKey:     n.PublicKey,
			NodeID:        n.NodeID,
			NodeAccountID: n.Account,
			NodeCertHash:  n.CertHash,
			Stake:         n.Stake,
		})
	}
	return msg.Marshal()
}
