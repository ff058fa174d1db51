package record

import (
	"github.com/mosaicnetworks/streamgate/src/crypto"
	"github.com/mosaicnetworks/streamgate/src/hapi"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

// Pair is a serialized transaction and its record, as written by the
// encoders.
type Pair struct {
	Transaction []byte
	Record      []byte
}

// NewPair serializes a transaction body and its record.
func NewPair(body *hapi.TransactionBody, rec *hapi.TransactionRecord) Pair {
	return Pair{
		Transaction: hapi.NewTransaction(body).Marshal(),
		Record:      rec.Marshal(),
	}
}

// EncodeV1 produces a v1 record file.
func EncodeV1(hapiVersion int32, prevHash []byte, pairs []Pair) []byte {
	return encodeV1V2(VersionOne, hapiVersion, prevHash, pairs)
}

// EncodeV2 produces a v2 record file.
func EncodeV2(hapiVersion int32, prevHash []byte, pairs []Pair) []byte {
	return encodeV1V2(VersionTwo, hapiVersion, prevHash, pairs)
}

func encodeV1V2(version, hapiVersion int32, prevHash []byte, pairs []Pair) []byte {
	var w streamfile.Writer
	w.WriteInt32(version)
	w.WriteInt32(hapiVersion)
	w.WriteByte(markerPrevHash)
	w.Write(fixedDigest(prevHash))
	for _, p := range pairs {
		w.WriteByte(markerRecord)
		w.WriteLengthPrefixed(p.Transaction)
		w.WriteLengthPrefixed(p.Record)
	}
	return w.Bytes()
}

// EncodeV5 produces a v5 record file starting from the running hash
// startHash. The end running hash folds every item into the start hash.
func EncodeV5(hapiVersion hapi.SemanticVersion, startHash []byte, pairs []Pair) []byte {
	var w streamfile.Writer
	w.WriteInt32(VersionFive)
	w.WriteInt32(hapiVersion.Major)
	w.WriteInt32(hapiVersion.Minor)
	w.WriteInt32(hapiVersion.Patch)
	w.WriteInt32(ObjectStreamVersion)

	running := fixedDigest(startHash)
	writeHashObject(&w, running)
	for _, p := range pairs {
		w.WriteInt64(RecordStreamObjectClassID)
		w.WriteInt32(RecordStreamObjectClassVersion)
		w.WriteLengthPrefixed(p.Record)
		w.WriteLengthPrefixed(p.Transaction)
		running = NextRunningHash(running, p)
	}
	writeHashObject(&w, running)
	return w.Bytes()
}

// EncodeV6 produces a v6 record file.
func EncodeV6(hapiVersion hapi.SemanticVersion, startHash []byte, blockNumber int64, pairs []Pair) []byte {
	start := fixedDigest(startHash)
	end := start
	items := make([]hapi.RecordStreamItem, 0, len(pairs))
	for _, p := range pairs {
		items = append(items, hapi.RecordStreamItem{Transaction: p.Transaction, Record: p.Record})
		end = NextRunningHash(end, p)
	}
	msg := &hapi.RecordStreamFile{
		HapiVersion: hapiVersion,
		StartHash:   hapi.NewHashObject(start),
		Items:       items,
		EndHash:     hapi.NewHashObject(end),
		BlockNumber: blockNumber,
	}

	var w streamfile.Writer
	w.WriteInt32(VersionSix)
	w.Write(msg.Marshal())
	return w.Bytes()
}

// NextRunningHash folds one item into a running hash.
func NextRunningHash(running []byte, p Pair) []byte {
	var w streamfile.Writer
	w.WriteLengthPrefixed(p.Record)
	w.WriteLengthPrefixed(p.Transaction)
	return crypto.SimpleHashFromTwoHashes(running, crypto.SHA384(w.Bytes()))
}

// fixedDigest pads or cuts h to the digest size.
func fixedDigest(h []byte) []byte {
	out := make([]byte, crypto.DigestSize)
	copy(out, h)
	return out
}

// NewTransferPair builds a successful crypto transfer reaching consensus at
// consensusNanos.
func NewTransferPair(consensusNanos int64, memo string) Pair {
	ts := hapi.TimestampFromNanos(consensusNanos)
	id := hapi.TransactionID{
		ValidStart: hapi.TimestampFromNanos(consensusNanos - 1),
		Payer:      hapi.AccountID{Num: 2},
	}
	body := &hapi.TransactionBody{
		TransactionID:  id,
		NodeAccountID:  hapi.AccountID{Num: 3},
		TransactionFee: 100000,
		Memo:           memo,
		Kind:           hapi.KindCryptoTransfer,
	}
	rec := &hapi.TransactionRecord{
		Status:             hapi.ResponseCodeSuccess,
		TransactionHash:    crypto.SHA384([]byte(memo)),
		ConsensusTimestamp: ts,
		TransactionID:      id,
		Memo:               memo,
		TransactionFee:     100000,
	}
	return NewPair(body, rec)
}

// NewFilePair builds a successful FileUpdate or FileAppend of file with
// contents, reaching consensus at consensusNanos.
func NewFilePair(consensusNanos int64, kind hapi.TransactionKind, file hapi.FileID, contents []byte) Pair {
	id := hapi.TransactionID{
		ValidStart: hapi.TimestampFromNanos(consensusNanos - 1),
		Payer:      hapi.AccountID{Num: 2},
	}
	body := &hapi.TransactionBody{
		TransactionID:  id,
		NodeAccountID:  hapi.AccountID{Num: 3},
		TransactionFee: 100000,
		Kind:           kind,
		File:           &hapi.FileContents{FileID: file, Contents: contents},
	}
	rec := &hapi.TransactionRecord{
		Status:             hapi.ResponseCodeSuccess,
		ConsensusTimestamp: hapi.TimestampFromNanos(consensusNanos),
		TransactionID:      id,
		TransactionFee:     100000,
	}
	return NewPair(body, rec)
}

func writeHashObject(w *streamfile.Writer, hash []byte) {
	w.WriteInt64(HashClassID)
	w.WriteInt32(HashClassVersion)
	w.WriteInt32(HashDigestType)
	w.WriteLengthPrefixed(hash)
}
