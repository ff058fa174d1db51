package common

import (
	"encoding/hex"
	"fmt"
)

//EncodeToString returns the UPPERCASE string representation of hexBytes with
//the 0X prefix
func EncodeToString(hexBytes []byte) string {
	return fmt.Sprintf("0X%X", hexBytes)
}

//DecodeFromString converts a hex string, with or without the 0X prefix, to a
//byte slice
func DecodeFromString(hexString string) ([]byte, error) {
	if len(hexString) >= 2 && (hexString[:2] == "0x" || hexString[:2] == "0X") {
		hexString = hexString[2:]
	}
	return hex.DecodeString(hexString)
}

//Hex is the lowercase, unprefixed hex form used for stream hashes in logs and
//in persisted summaries
func Hex(b []byte) string {
	return hex.EncodeToString(b)
}

//ShortHex abbreviates a hash for log output
func ShortHex(b []byte) string {
	h := Hex(b)
	if len(h) > 12 {
		return h[:12] + "..."
	}
	return h
}
