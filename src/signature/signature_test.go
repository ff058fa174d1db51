package signature

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mosaicnetworks/streamgate/src/addressbook"
	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/crypto"
	"github.com/mosaicnetworks/streamgate/src/crypto/keys"
	"github.com/mosaicnetworks/streamgate/src/hapi"
)

const sigName = "2021-03-05T14_00_00.123456789Z.rcd_sig"

func testKeys(t *testing.T, n int) []*keys.PrivateKey {
	res := make([]*keys.PrivateKey, n)
	for i := range res {
		k, err := keys.GenerateKey(keys.ECDSAP256)
		require.NoError(t, err)
		res[i] = k
	}
	return res
}

func testBook(t *testing.T, ks []*keys.PrivateKey) *addressbook.AddressBook {
	nodes := make([]addressbook.NodeEntry, len(ks))
	for i, k := range ks {
		nodes[i] = addressbook.NodeEntry{
			NodeID:    int64(i),
			Account:   hapi.AccountID{Num: int64(i + 3)},
			PublicKey: k.PublicKeyHex(),
		}
	}
	ab, err := addressbook.Parse(addressbook.Primary, 0, addressbook.Encode(nodes))
	require.NoError(t, err)
	return ab
}

func testVerifier(t *testing.T) *Verifier {
	v, err := NewVerifier(8, common.NewTestEntry(t, "signature"))
	require.NoError(t, err)
	return v
}

func TestParseVersions(t *testing.T) {
	key := testKeys(t, 1)[0]
	fileHash := crypto.SHA384([]byte("file"))
	metaHash := crypto.SHA384([]byte("metadata"))

	for _, version := range []byte{VersionLegacy, VersionFive, VersionSix} {
		data, err := Sign(key, version, fileHash, metaHash)
		require.NoError(t, err)

		f, err := Parse(sigName, data)
		require.NoError(t, err, "version %d", version)
		require.Equal(t, version, f.Version)
		require.Equal(t, fileHash, f.FileHash)
		require.True(t, key.PublicKey().Verify(fileHash, f.FileSignature))

		if version == VersionLegacy {
			require.Empty(t, f.MetadataHash)
		} else {
			require.Equal(t, metaHash, f.MetadataHash)
			require.True(t, key.PublicKey().Verify(metaHash, f.MetadataSignature))
		}
	}
}

func TestParseErrors(t *testing.T) {
	key := testKeys(t, 1)[0]
	hash := crypto.SHA384([]byte("file"))

	_, err := Parse(sigName, nil)
	require.True(t, common.IsStream(err, common.MalformedStreamFile), "%v", err)

	_, err = Parse(sigName, []byte{9, 1, 2})
	require.True(t, common.IsStream(err, common.UnknownVersion), "%v", err)

	legacy, err := Sign(key, VersionLegacy, hash, nil)
	require.NoError(t, err)

	bad := append([]byte(nil), legacy...)
	bad[1+crypto.DigestSize] = 9
	_, err = Parse(sigName, bad)
	require.True(t, common.IsStream(err, common.MalformedStreamFile), "%v", err)

	_, err = Parse(sigName, legacy[:len(legacy)-1])
	require.True(t, common.IsStream(err, common.MalformedStreamFile), "%v", err)

	_, err = Parse(sigName, append(legacy, 0))
	require.True(t, common.IsStream(err, common.MalformedStreamFile), "%v", err)

	v5, err := Sign(key, VersionFive, hash, hash)
	require.NoError(t, err)
	// corrupt the checksum of the file signature object
	checksumOffset := 1 + (8 + 4 + 4 + 4 + crypto.DigestSize) + 8 + 4 + 4 + 4
	v5[checksumOffset+3]++
	_, err = Parse(sigName, v5)
	require.True(t, common.IsStream(err, common.MalformedStreamFile), "%v", err)

	_, err = Sign(key, VersionFive, hash, nil)
	require.Error(t, err)
}

func TestVerify(t *testing.T) {
	ks := testKeys(t, 3)
	book := testBook(t, ks)
	v := testVerifier(t)
	hash := crypto.SHA384([]byte("file"))
	meta := crypto.SHA384([]byte("meta"))

	data, err := Sign(ks[1], VersionSix, hash, meta)
	require.NoError(t, err)

	res := v.Verify(Candidate{Filename: sigName, Account: "0.0.4", Data: data}, book)
	require.True(t, res.Valid, res.Reason)
	require.Equal(t, hash, res.DeclaredHash)
	require.Equal(t, meta, res.MetadataHash)
	require.Equal(t, int64(1), res.Node.NodeID)

	// Signed by node 1 but published under node 0.
	res = v.Verify(Candidate{Filename: sigName, Account: "0.0.3", Data: data}, book)
	require.False(t, res.Valid)
	require.Equal(t, hash, res.DeclaredHash)

	// Garbage is invalid, not an error.
	res = v.Verify(Candidate{Filename: sigName, Account: "0.0.4", Data: []byte{1, 2, 3}}, book)
	require.False(t, res.Valid)
	require.Nil(t, res.DeclaredHash)
}

func TestVerifyUnknownNode(t *testing.T) {
	ks := testKeys(t, 2)
	book := testBook(t, ks)
	rogue := testKeys(t, 1)[0]
	hash := crypto.SHA384([]byte("file"))

	data, err := Sign(rogue, VersionLegacy, hash, nil)
	require.NoError(t, err)

	res := testVerifier(t).Verify(Candidate{Filename: sigName, Account: "0.0.9", Data: data}, book)
	require.False(t, res.Valid)
	require.Equal(t, "node not in address book", res.Reason)
}

func TestVerifyRSA(t *testing.T) {
	key, err := keys.GenerateRSAKey(1024)
	require.NoError(t, err)
	book := testBook(t, []*keys.PrivateKey{key})
	hash := crypto.SHA384([]byte("file"))
	meta := crypto.SHA384([]byte("meta"))

	data, err := Sign(key, VersionFive, hash, meta)
	require.NoError(t, err)

	v := testVerifier(t)
	res := v.Verify(Candidate{Filename: sigName, Account: "0.0.3", Data: data}, book)
	require.True(t, res.Valid, res.Reason)

	// cached key path
	res = v.Verify(Candidate{Filename: sigName, Account: "0.0.3", Data: data}, book)
	require.True(t, res.Valid, res.Reason)
	require.Equal(t, 1, v.keys.Len())
}

func TestVersionFor(t *testing.T) {
	require.Equal(t, VersionLegacy, VersionFor(1))
	require.Equal(t, VersionLegacy, VersionFor(2))
	require.Equal(t, VersionFive, VersionFor(5))
	require.Equal(t, VersionSix, VersionFor(6))
}
