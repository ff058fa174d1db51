package downloader

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mosaicnetworks/streamgate/src/addressbook"
	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/crypto/keys"
	"github.com/mosaicnetworks/streamgate/src/hapi"
	"github.com/mosaicnetworks/streamgate/src/objectstore"
	"github.com/mosaicnetworks/streamgate/src/record"
	"github.com/mosaicnetworks/streamgate/src/signature"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

var epoch = time.Date(2021, 3, 5, 14, 0, 0, 0, time.UTC)

type network struct {
	t     *testing.T
	keys  []*keys.PrivateKey
	book  *addressbook.AddressBook
	store *objectstore.InmemStore
}

func newNetwork(t *testing.T, n int) *network {
	net := &network{t: t, store: objectstore.NewInmemStore()}

	nodes := make([]addressbook.NodeEntry, n)
	for i := 0; i < n; i++ {
		k, err := keys.GenerateKey(keys.ECDSAP256)
		require.NoError(t, err)
		net.keys = append(net.keys, k)
		nodes[i] = addressbook.NodeEntry{
			NodeID:    int64(i),
			Account:   hapi.AccountID{Num: int64(i + 3)},
			PublicKey: k.PublicKeyHex(),
		}
	}

	book, err := addressbook.Parse(addressbook.Primary, 0, addressbook.Encode(nodes))
	require.NoError(t, err)
	net.book = book

	return net
}

func (n *network) coordinator() *Coordinator {
	v, err := signature.NewVerifier(16, common.NewTestEntry(n.t, "signature"))
	require.NoError(n.t, err)

	return NewCoordinator(Config{
		Stream: streamfile.RecordStream,
		Hash:   record.FileHash,
	}, n.store, v, common.NewTestEntry(n.t, "downloader"))
}

// recordFile builds a distinct v2 record file for second s.
func recordFile(s int, variant string) (string, []byte) {
	ts := epoch.Add(time.Duration(s) * time.Second)
	name := streamfile.FilenameFor(streamfile.RecordStream, ts)
	data := record.EncodeV2(13, make([]byte, 48), []record.Pair{
		record.NewTransferPair(ts.UnixNano()+1, fmt.Sprintf("%d-%s", s, variant)),
	})
	return name, data
}

// publish uploads data under name in the directory of account, along with a
// signature made with key.
func (n *network) publish(account string, key *keys.PrivateKey, name string, data []byte) {
	dir := streamfile.RecordStream.NodeDir(account)
	if data != nil {
		n.store.Put(dir+name, data)
	}
	n.sign(account, key, name, data)
}

func (n *network) sign(account string, key *keys.PrivateKey, name string, data []byte) {
	hash, err := record.FileHash(name, data)
	require.NoError(n.t, err)
	sig, err := signature.Sign(key, signature.VersionLegacy, hash, nil)
	require.NoError(n.t, err)

	fn, err := streamfile.ParseFilename(name)
	require.NoError(n.t, err)
	n.store.Put(streamfile.RecordStream.NodeDir(account)+fn.SignatureName(), sig)
}

func (n *network) account(i int) string {
	return n.book.Nodes[i].NodeDir()
}

func TestQuorumReached(t *testing.T) {
	cases := []struct {
		count, nodes int
		want         bool
	}{
		{3, 4, true},
		{2, 4, false},
		{2, 3, false},
		{3, 3, true},
		{1, 1, true},
		{0, 1, false},
		{7, 10, true},
		{6, 9, false},
		{7, 9, true},
		{0, 0, false},
	}
	for _, c := range cases {
		if got := QuorumReached(c.count, c.nodes, 2, 3); got != c.want {
			t.Fatalf("QuorumReached(%d, %d) = %v, want %v", c.count, c.nodes, got, c.want)
		}
	}
}

func TestThreeOfFourAccepted(t *testing.T) {
	net := newNetwork(t, 4)
	good, goodData := recordFile(0, "good")
	_, badData := recordFile(0, "bad")

	for i := 0; i < 3; i++ {
		net.publish(net.account(i), net.keys[i], good, goodData)
	}
	net.publish(net.account(3), net.keys[3], good, badData)

	c := net.coordinator()
	accepted, err := c.Download(context.Background(), net.book)
	require.NoError(t, err)
	require.Len(t, accepted, 1)

	a := accepted[0]
	require.Equal(t, good, a.DataName)
	require.Equal(t, goodData, a.Data)
	require.Equal(t, 3, a.Supporters)
	require.Equal(t, int64(0), a.Node.NodeID)

	want, err := record.FileHash(good, goodData)
	require.NoError(t, err)
	require.Equal(t, want, a.Hash)
	require.Equal(t, int64(0), c.QuorumMisses())
}

func TestEvenSplitNotAccepted(t *testing.T) {
	net := newNetwork(t, 4)
	name, aData := recordFile(0, "a")
	_, bData := recordFile(0, "b")

	net.publish(net.account(0), net.keys[0], name, aData)
	net.publish(net.account(1), net.keys[1], name, aData)
	net.publish(net.account(2), net.keys[2], name, bData)
	net.publish(net.account(3), net.keys[3], name, bData)

	c := net.coordinator()
	accepted, err := c.Download(context.Background(), net.book)
	require.NoError(t, err)
	require.Empty(t, accepted)
	require.Equal(t, int64(1), c.QuorumMisses())
	require.Empty(t, c.Watermark())
}

func TestSignerOutsideBookIgnored(t *testing.T) {
	net := newNetwork(t, 4)
	name, aData := recordFile(0, "a")
	_, bData := recordFile(0, "b")

	net.publish(net.account(0), net.keys[0], name, aData)
	net.publish(net.account(1), net.keys[1], name, aData)
	net.publish(net.account(2), net.keys[2], name, bData)

	// a fourth key that is not in the book vouches for a, in its own
	// directory and in place of node 3 which published nothing
	rogue, err := keys.GenerateKey(keys.ECDSAP256)
	require.NoError(t, err)
	net.publish("0.0.99", rogue, name, aData)
	net.publish(net.account(3), rogue, name, aData)

	c := net.coordinator()
	accepted, err := c.Download(context.Background(), net.book)
	require.NoError(t, err)
	require.Empty(t, accepted)

	// the rogue candidate is rejected even when handed over directly
	fn, err := streamfile.ParseFilename(name)
	require.NoError(t, err)
	sig, err := net.store.Get(context.Background(), streamfile.RecordStream.NodeDir("0.0.99")+fn.SignatureName())
	require.NoError(t, err)

	byName, err := c.Signatures(context.Background(), net.book)
	require.NoError(t, err)
	candidates := append(byName[fn.SignatureName()], signature.Candidate{
		Filename: fn.SignatureName(),
		Account:  "0.0.99",
		Data:     sig,
	})
	require.Len(t, candidates, 5)

	_, err = c.Resolve(context.Background(), streamfile.Filename{Name: fn.SignatureName(), Signature: true, Stream: streamfile.RecordStream, Timestamp: fn.Timestamp}, candidates, net.book)
	require.True(t, common.IsStream(err, common.QuorumNotReached), "%v", err)
}

func TestFallbackOnCorruptData(t *testing.T) {
	net := newNetwork(t, 4)
	name, data := recordFile(0, "a")

	for i := 0; i < 4; i++ {
		net.publish(net.account(i), net.keys[i], name, data)
	}

	// node 0 signed the right hash but serves different bytes
	_, other := recordFile(0, "tampered")
	net.store.Put(streamfile.RecordStream.NodeDir(net.account(0))+name, other)

	c := net.coordinator()
	accepted, err := c.Download(context.Background(), net.book)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	require.Equal(t, int64(1), accepted[0].Node.NodeID)
	require.Equal(t, data, accepted[0].Data)
	require.Equal(t, int64(1), c.HashMismatches())
}

func TestCompressedData(t *testing.T) {
	net := newNetwork(t, 3)
	name, data := recordFile(0, "a")
	gz := streamfile.Compress(data)

	for i := 0; i < 3; i++ {
		// signature over the decompressed content
		net.sign(net.account(i), net.keys[i], name, data)
		net.store.Put(streamfile.RecordStream.NodeDir(net.account(i))+name+streamfile.CompressedSuffix, gz)
	}

	c := net.coordinator()
	accepted, err := c.Download(context.Background(), net.book)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	require.Equal(t, name+streamfile.CompressedSuffix, accepted[0].DataName)
	require.Equal(t, gz, accepted[0].Data)
}

func TestPrefixAndWatermark(t *testing.T) {
	net := newNetwork(t, 4)

	names := []string{}
	for s := 0; s < 3; s++ {
		name, data := recordFile(s, "a")
		names = append(names, name)
		for i := 0; i < 4; i++ {
			// the last file only has two signatures
			if s == 2 && i >= 2 {
				continue
			}
			net.publish(net.account(i), net.keys[i], name, data)
		}
	}

	c := net.coordinator()
	accepted, err := c.Download(context.Background(), net.book)
	require.NoError(t, err)
	require.Len(t, accepted, 2)
	require.Equal(t, names[0], accepted[0].DataName)
	require.Equal(t, names[1], accepted[1].DataName)

	c.Commit(names[1])
	c.Commit(names[0])
	require.Equal(t, names[1], c.Watermark())

	// nothing to do until the late signatures arrive
	accepted, err = c.Download(context.Background(), net.book)
	require.NoError(t, err)
	require.Empty(t, accepted)

	name, data := recordFile(2, "a")
	for i := 2; i < 4; i++ {
		net.publish(net.account(i), net.keys[i], name, data)
	}

	accepted, err = c.Download(context.Background(), net.book)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	require.Equal(t, names[2], accepted[0].DataName)

	c.Commit(names[2])
	require.Equal(t, names[2], c.Watermark())

	accepted, err = c.Download(context.Background(), net.book)
	require.NoError(t, err)
	require.Empty(t, accepted)
	require.Equal(t, int64(0), c.Skipped())
}

func TestUnresolvedNameSkippedWhenLaterAccepted(t *testing.T) {
	net := newNetwork(t, 4)

	// a single node signs a file no other node knows about
	bogus := streamfile.FilenameFor(streamfile.RecordStream, epoch.Add(500*time.Millisecond))
	_, bogusData := recordFile(99, "bogus")
	net.publish(net.account(3), net.keys[3], bogus, bogusData)

	names := []string{}
	for s := 1; s < 4; s++ {
		name, data := recordFile(s, "a")
		names = append(names, name)
		for i := 0; i < 4; i++ {
			net.publish(net.account(i), net.keys[i], name, data)
		}
	}

	c := net.coordinator()
	accepted, err := c.Download(context.Background(), net.book)
	require.NoError(t, err)
	require.Len(t, accepted, 3)
	for i, a := range accepted {
		require.Equal(t, names[i], a.DataName)
	}
	require.Equal(t, int64(1), c.Skipped())

	for _, a := range accepted {
		c.Commit(a.DataName)
	}
	require.Equal(t, names[2], c.Watermark())

	accepted, err = c.Download(context.Background(), net.book)
	require.NoError(t, err)
	require.Empty(t, accepted)
}

func TestUnresolvedLastNameStalls(t *testing.T) {
	net := newNetwork(t, 4)

	name, data := recordFile(0, "a")
	for i := 0; i < 4; i++ {
		net.publish(net.account(i), net.keys[i], name, data)
	}
	late := streamfile.FilenameFor(streamfile.RecordStream, epoch.Add(5*time.Second))
	_, lateData := recordFile(5, "a")
	net.publish(net.account(3), net.keys[3], late, lateData)

	c := net.coordinator()
	accepted, err := c.Download(context.Background(), net.book)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	require.Equal(t, name, accepted[0].DataName)
	require.Equal(t, int64(0), c.Skipped())
}
