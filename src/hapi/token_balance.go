package hapi

// TokenBalance is the balance of one token held by an account.
type TokenBalance struct {
	TokenID  TokenID
	Balance  uint64
	Decimals uint32
}

// MarshalTokenBalances encodes a TokenBalances message.
func MarshalTokenBalances(balances []TokenBalance) []byte {
	var b []byte
	for _, tb := range balances {
		var m []byte
		m = appendMessageField(m, 1, tb.TokenID.Marshal())
		m = appendVarintField(m, 2, tb.Balance)
		m = appendVarintField(m, 3, uint64(tb.Decimals))
		b = appendMessageField(b, 1, m)
	}
	return b
}

// UnmarshalTokenBalances decodes a TokenBalances message.
func UnmarshalTokenBalances(b []byte) ([]TokenBalance, error) {
	var res []TokenBalance
	err := walk(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		m, err := f.message()
		if err != nil {
			return err
		}
		var tb TokenBalance
		err = walk(m, func(tf field) error {
			var (
				tm  []byte
				v   uint64
				err error
			)
			switch tf.num {
			case 1:
				if tm, err = tf.message(); err == nil {
					tb.TokenID, err = UnmarshalEntityID(tm)
				}
			case 2:
				tb.Balance, err = tf.uint64()
			case 3:
				v, err = tf.uint64()
				tb.Decimals = uint32(v)
			}
			return err
		})
		if err != nil {
			return err
		}
		res = append(res, tb)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
