package hapi

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// TransactionKind is the field number of the populated data case of a
// TransactionBody.
type TransactionKind int32

// Data cases the engine cares about by name.
const (
	KindUnknown              TransactionKind = 0
	KindContractCall         TransactionKind = 7
	KindContractCreate       TransactionKind = 8
	KindCryptoCreate         TransactionKind = 11
	KindCryptoTransfer       TransactionKind = 14
	KindCryptoUpdate         TransactionKind = 15
	KindFileAppend           TransactionKind = 16
	KindFileCreate           TransactionKind = 17
	KindFileDelete           TransactionKind = 18
	KindFileUpdate           TransactionKind = 19
	KindFreeze               TransactionKind = 23
	KindConsensusCreateTopic TransactionKind = 24
	KindConsensusSubmit      TransactionKind = 27
)

// first field number of the data oneof
const firstDataField = 7

// String ...
func (k TransactionKind) String() string {
	switch k {
	case KindContractCall:
		return "CONTRACTCALL"
	case KindContractCreate:
		return "CONTRACTCREATEINSTANCE"
	case KindCryptoCreate:
		return "CRYPTOCREATEACCOUNT"
	case KindCryptoTransfer:
		return "CRYPTOTRANSFER"
	case KindCryptoUpdate:
		return "CRYPTOUPDATEACCOUNT"
	case KindFileAppend:
		return "FILEAPPEND"
	case KindFileCreate:
		return "FILECREATE"
	case KindFileDelete:
		return "FILEDELETE"
	case KindFileUpdate:
		return "FILEUPDATE"
	case KindFreeze:
		return "FREEZE"
	case KindConsensusCreateTopic:
		return "CONSENSUSCREATETOPIC"
	case KindConsensusSubmit:
		return "CONSENSUSSUBMITMESSAGE"
	case KindUnknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("TYPE_%d", int32(k))
	}
}

// TransactionID ...
type TransactionID struct {
	ValidStart Timestamp
	Payer      AccountID
	Scheduled  bool
	Nonce      int32
}

// Marshal ...
func (id TransactionID) Marshal() []byte {
	var b []byte
	b = appendMessageField(b, 1, id.ValidStart.Marshal())
	b = appendMessageField(b, 2, id.Payer.Marshal())
	if id.Scheduled {
		b = appendVarintField(b, 3, 1)
	}
	b = appendVarintField(b, 4, uint64(id.Nonce))
	return b
}

// UnmarshalTransactionID ...
func UnmarshalTransactionID(b []byte) (TransactionID, error) {
	var id TransactionID
	err := walk(b, func(f field) error {
		switch f.num {
		case 1:
			m, err := f.message()
			if err != nil {
				return err
			}
			id.ValidStart, err = UnmarshalTimestamp(m)
			return err
		case 2:
			m, err := f.message()
			if err != nil {
				return err
			}
			id.Payer, err = UnmarshalEntityID(m)
			return err
		case 3:
			v, err := f.uint64()
			id.Scheduled = v != 0
			return err
		case 4:
			v, err := f.int64()
			id.Nonce = int32(v)
			return err
		}
		return nil
	})
	return id, err
}

// FileContents is the body of a FileUpdate or FileAppend transaction.
type FileContents struct {
	FileID   FileID
	Contents []byte
}

// TransactionBody is the subset of a transaction body the engine reads.
type TransactionBody struct {
	TransactionID  TransactionID
	NodeAccountID  AccountID
	TransactionFee uint64
	Memo           string
	Kind           TransactionKind

	// FileUpdate or FileAppend data, set when Kind is one of them.
	File *FileContents
}

// Marshal ...
func (tb *TransactionBody) Marshal() []byte {
	var b []byte
	b = appendMessageField(b, 1, tb.TransactionID.Marshal())
	b = appendMessageField(b, 2, tb.NodeAccountID.Marshal())
	b = appendVarintField(b, 3, tb.TransactionFee)
	b = appendBytesField(b, 6, []byte(tb.Memo))

	switch {
	case tb.File != nil && tb.Kind == KindFileUpdate:
		var fb []byte
		fb = appendMessageField(fb, 1, tb.File.FileID.Marshal())
		fb = appendBytesField(fb, 4, tb.File.Contents)
		b = appendMessageField(b, protowire.Number(KindFileUpdate), fb)
	case tb.File != nil && tb.Kind == KindFileAppend:
		var fb []byte
		fb = appendMessageField(fb, 2, tb.File.FileID.Marshal())
		fb = appendBytesField(fb, 4, tb.File.Contents)
		b = appendMessageField(b, protowire.Number(KindFileAppend), fb)
	case tb.Kind != KindUnknown:
		b = appendMessageField(b, protowire.Number(tb.Kind), nil)
	}
	return b
}

// UnmarshalTransactionBody ...
func UnmarshalTransactionBody(b []byte) (*TransactionBody, error) {
	tb := &TransactionBody{}
	err := walk(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			var m []byte
			if m, err = f.message(); err == nil {
				tb.TransactionID, err = UnmarshalTransactionID(m)
			}
		case 2:
			var m []byte
			if m, err = f.message(); err == nil {
				tb.NodeAccountID, err = UnmarshalEntityID(m)
			}
		case 3:
			tb.TransactionFee, err = f.uint64()
		case 6:
			var m []byte
			m, err = f.message()
			tb.Memo = string(m)
		default:
			if f.num < firstDataField || f.typ != protowire.BytesType {
				return nil
			}
			tb.Kind = TransactionKind(f.num)
			switch tb.Kind {
			case KindFileUpdate:
				tb.File, err = unmarshalFileContents(f.bytes, 1)
			case KindFileAppend:
				tb.File, err = unmarshalFileContents(f.bytes, 2)
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return tb, nil
}

func unmarshalFileContents(b []byte, fileIDField protowire.Number) (*FileContents, error) {
	fc := &FileContents{}
	err := walk(b, func(f field) error {
		var err error
		switch f.num {
		case fileIDField:
			var m []byte
			if m, err = f.message(); err == nil {
				fc.FileID, err = UnmarshalEntityID(m)
			}
		case 4:
			fc.Contents, err = f.message()
		}
		return err
	})
	return fc, err
}

// Transaction is the signed envelope submitted to the network. The body is
// found, from newest to oldest format, in signedTransactionBytes, bodyBytes,
// or the deprecated inline body.
type Transaction struct {
	SignedTransactionBytes []byte
	BodyBytes              []byte
	Body                   []byte
}

// NewTransaction wraps a body the way current producers do.
func NewTransaction(body *TransactionBody) *Transaction {
	var signed []byte
	signed = appendBytesField(signed, 1, body.Marshal())
	return &Transaction{SignedTransactionBytes: signed}
}

// Marshal ...
func (t *Transaction) Marshal() []byte {
	var b []byte
	b = appendBytesField(b, 1, t.Body)
	b = appendBytesField(b, 4, t.BodyBytes)
	b = appendBytesField(b, 5, t.SignedTransactionBytes)
	return b
}

// UnmarshalTransaction ...
func UnmarshalTransaction(b []byte) (*Transaction, error) {
	t := &Transaction{}
	err := walk(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			t.Body, err = f.message()
		case 4:
			t.BodyBytes, err = f.message()
		case 5:
			t.SignedTransactionBytes, err = f.message()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ParsedBody extracts and decodes the transaction body.
func (t *Transaction) ParsedBody() (*TransactionBody, error) {
	switch {
	case len(t.SignedTransactionBytes) > 0:
		var bodyBytes []byte
		err := walk(t.SignedTransactionBytes, func(f field) error {
			if f.num == 1 {
				var err error
				bodyBytes, err = f.message()
				return err
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return UnmarshalTransactionBody(bodyBytes)
	case len(t.BodyBytes) > 0:
		return UnmarshalTransactionBody(t.BodyBytes)
	case len(t.Body) > 0:
		return UnmarshalTransactionBody(t.Body)
	}
	return nil, fmt.Errorf("transaction has no body")
}
