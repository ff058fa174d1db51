package hapi

// ResponseCodeSuccess is the receipt status of a successful transaction.
const ResponseCodeSuccess int32 = 22

// TransactionRecord is the outcome of a transaction as written to record
// streams.
type TransactionRecord struct {
	Status             int32
	TransactionHash    []byte
	ConsensusTimestamp Timestamp
	TransactionID      TransactionID
	Memo               string
	TransactionFee     uint64
}

// Successful ...
func (r *TransactionRecord) Successful() bool {
	return r.Status == ResponseCodeSuccess
}

// Marshal ...
func (r *TransactionRecord) Marshal() []byte {
	var receipt []byte
	receipt = appendVarintField(receipt, 1, uint64(r.Status))

	var b []byte
	b = appendMessageField(b, 1, receipt)
	b = appendBytesField(b, 2, r.TransactionHash)
	b = appendMessageField(b, 3, r.ConsensusTimestamp.Marshal())
	b = appendMessageField(b, 4, r.TransactionID.Marshal())
	b = appendBytesField(b, 5, []byte(r.Memo))
	b = appendVarintField(b, 6, r.TransactionFee)
	return b
}

// UnmarshalTransactionRecord ...
func UnmarshalTransactionRecord(b []byte) (*TransactionRecord, error) {
	r := &TransactionRecord{}
	err := walk(b, func(f field) error {
		var (
			m   []byte
			err error
		)
		switch f.num {
		case 1:
			if m, err = f.message(); err == nil {
				err = walk(m, func(rf field) error {
					if rf.num == 1 {
						v, err := rf.int64()
						r.Status = int32(v)
						return err
					}
					return nil
				})
			}
		case 2:
			r.TransactionHash, err = f.message()
		case 3:
			if m, err = f.message(); err == nil {
				r.ConsensusTimestamp, err = UnmarshalTimestamp(m)
			}
		case 4:
			if m, err = f.message(); err == nil {
				r.TransactionID, err = UnmarshalTransactionID(m)
			}
		case 5:
			m, err = f.message()
			r.Memo = string(m)
		case 6:
			r.TransactionFee, err = f.uint64()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
