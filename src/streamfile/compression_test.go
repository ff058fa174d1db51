package streamfile

import (
	"bytes"
	"testing"
)

func TestDecompress(t *testing.T) {
	plain := []byte("shardNum,realmNum,accountNum,balance\n")

	out, err := Decompress("2020-06-03T16_45_00.000000000Z_Balances.csv.gz", Compress(plain))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, plain) {
		t.Fatal("decompressed bytes differ")
	}

	out, err = Decompress("2020-06-03T16_45_00.000000000Z_Balances.csv", plain)
	if err != nil || !bytes.Equal(out, plain) {
		t.Fatal("uncompressed data should be returned unchanged")
	}

	if _, err := Decompress("2020-06-03T16_45_00.000000000Z_Balances.csv.gz", plain); err == nil {
		t.Fatal("non gzip data with .gz name should fail")
	}
}
