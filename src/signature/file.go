package signature

import (
	"fmt"

	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/crypto"
	"github.com/mosaicnetworks/streamgate/src/hapi"
	"github.com/mosaicnetworks/streamgate/src/record"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

// Signature file versions, as found in the first byte.
const (
	VersionLegacy byte = 4
	VersionFive   byte = 5
	VersionSix    byte = 6
)

// Markers of the legacy layout.
const (
	markerFileHash  byte = 4
	markerSignature byte = 3
)

// Signature object constants of the v5 layout.
const (
	SignatureClassID      int64 = 0x13dc4b399b245c69
	SignatureClassVersion int32 = 1
	SignatureTypeRSA      int32 = 1
)

// MaxSignatureLength bounds signature fields.
const MaxSignatureLength = 6144

// File is a parsed signature file.
type File struct {
	Version           byte
	FileHash          []byte
	FileSignature     []byte
	MetadataHash      []byte
	MetadataSignature []byte
}

// Parse decodes a signature file of any version. name labels errors.
func Parse(name string, data []byte) (*File, error) {
	if len(data) == 0 {
		return nil, common.NewStreamErr(common.MalformedStreamFile, name, "empty signature file")
	}

	var (
		f   *File
		err error
	)
	switch data[0] {
	case VersionLegacy:
		f, err = parseLegacy(data)
	case VersionFive:
		f, err = parseV5(data)
	case VersionSix:
		f, err = parseV6(data)
	default:
		return nil, common.NewStreamErr(common.UnknownVersion, name, "signature file version %d", data[0])
	}
	if err != nil {
		return nil, common.WrapStreamErr(common.MalformedStreamFile, name, err)
	}
	return f, nil
}

func parseLegacy(data []byte) (*File, error) {
	c := streamfile.NewCursor(data)
	if err := c.ReadMarker(markerFileHash, "file hash"); err != nil {
		return nil, err
	}
	hash, err := c.ReadBytes(crypto.DigestSize)
	if err != nil {
		return nil, err
	}
	if err := c.ReadMarker(markerSignature, "signature"); err != nil {
		return nil, err
	}
	sig, err := c.ReadLengthPrefixed(1, MaxSignatureLength, "signature")
	if err != nil {
		return nil, err
	}
	if !c.AtEnd() {
		return nil, fmt.Errorf("%d trailing bytes", c.Remaining())
	}
	return &File{
		Version:       VersionLegacy,
		FileHash:      hash,
		FileSignature: sig,
	}, nil
}

func parseV5(data []byte) (*File, error) {
	c := streamfile.NewCursor(data)
	if err := c.ReadMarker(VersionFive, "version"); err != nil {
		return nil, err
	}

	f := &File{Version: VersionFive}
	var err error
	if f.FileHash, err = readHashObject(c, "file hash"); err != nil {
		return nil, err
	}
	if f.FileSignature, err = readSignatureObject(c, "file signature"); err != nil {
		return nil, err
	}
	if f.MetadataHash, err = readHashObject(c, "metadata hash"); err != nil {
		return nil, err
	}
	if f.MetadataSignature, err = readSignatureObject(c, "metadata signature"); err != nil {
		return nil, err
	}
	if !c.AtEnd() {
		return nil, fmt.Errorf("%d trailing bytes", c.Remaining())
	}
	return f, nil
}

func readHashObject(c *streamfile.Cursor, what string) ([]byte, error) {
	if err := expectClass(c, record.HashClassID, record.HashClassVersion, what); err != nil {
		return nil, err
	}
	if err := c.ReadInt32Expect(record.HashDigestType, what+" digest type"); err != nil {
		return nil, err
	}
	return c.ReadLengthPrefixed(crypto.DigestSize, crypto.DigestSize, what)
}

func readSignatureObject(c *streamfile.Cursor, what string) ([]byte, error) {
	if err := expectClass(c, SignatureClassID, SignatureClassVersion, what); err != nil {
		return nil, err
	}
	if err := c.ReadInt32Expect(SignatureTypeRSA, what+" type"); err != nil {
		return nil, err
	}
	length, err := c.ReadInt32()
	if err != nil {
		return nil, err
	}
	if length <= 0 || length > MaxSignatureLength {
		return nil, fmt.Errorf("%s length %d", what, length)
	}
	if err := c.ReadInt32Expect(101-length, what+" checksum"); err != nil {
		return nil, err
	}
	return c.ReadBytes(int(length))
}

func expectClass(c *streamfile.Cursor, classID int64, version int32, what string) error {
	got, err := c.ReadInt64()
	if err != nil {
		return err
	}
	if got != classID {
		return fmt.Errorf("%s: class id %#x, expected %#x", what, uint64(got), uint64(classID))
	}
	return c.ReadInt32Expect(version, what+" class version")
}

func parseV6(data []byte) (*File, error) {
	msg, err := hapi.UnmarshalSignatureFile(data[1:])
	if err != nil {
		return nil, err
	}

	f := &File{
		Version:       VersionSix,
		FileHash:      msg.FileSignature.HashObj.Hash,
		FileSignature: msg.FileSignature.Signature,
	}
	if msg.MetadataSignature != nil {
		f.MetadataHash = msg.MetadataSignature.HashObj.Hash
		f.MetadataSignature = msg.MetadataSignature.Signature
	}
	if len(f.FileHash) != crypto.DigestSize {
		return nil, fmt.Errorf("file hash is %d bytes", len(f.FileHash))
	}
	return f, nil
}

// Marshal encodes the file in its version's layout.
func (f *File) Marshal() []byte {
	var w streamfile.Writer
	switch f.Version {
	case VersionLegacy:
		w.WriteByte(markerFileHash)
		w.Write(f.FileHash)
		w.WriteByte(markerSignature)
		w.WriteLengthPrefixed(f.FileSignature)
	case VersionFive:
		w.WriteByte(VersionFive)
		writeHashObject(&w, f.FileHash)
		writeSignatureObject(&w, f.FileSignature)
		writeHashObject(&w, f.MetadataHash)
		writeSignatureObject(&w, f.MetadataSignature)
	case VersionSix:
		msg := &hapi.SignatureFile{
			FileSignature: hapi.NewSignatureObject(f.FileHash, f.FileSignature),
		}
		if len(f.MetadataHash) > 0 {
			msg.MetadataSignature = hapi.NewSignatureObject(f.MetadataHash, f.MetadataSignature)
		}
		w.WriteByte(VersionSix)
		w.Write(msg.Marshal())
	}
	return w.Bytes()
}

func writeHashObject(w *streamfile.Writer, hash []byte) {
	w.WriteInt64(record.HashClassID)
	w.WriteInt32(record.HashClassVersion)
	w.WriteInt32(record.HashDigestType)
	w.WriteLengthPrefixed(hash)
}

func writeSignatureObject(w *streamfile.Writer, sig []byte) {
	w.WriteInt64(SignatureClassID)
	w.WriteInt32(SignatureClassVersion)
	w.WriteInt32(SignatureTypeRSA)
	w.WriteInt32(int32(len(sig)))
	w.WriteInt32(101 - int32(len(sig)))
	w.Write(sig)
}
