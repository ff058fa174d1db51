package objectstore

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mosaicnetworks/streamgate/src/common"
)

const nodeDir = "recordstreams/record0.0.3/"

var names = []string{
	"2021-03-05T14_00_00.000000000Z.rcd",
	"2021-03-05T14_00_00.000000000Z.rcd_sig",
	"2021-03-05T14_00_02.000000000Z.rcd",
	"2021-03-05T14_00_02.000000000Z.rcd_sig",
	"2021-03-05T14_00_04.000000000Z.rcd",
}

func populateLocal(t *testing.T) string {
	root := t.TempDir()
	dir := filepath.Join(root, filepath.FromSlash(nodeDir))
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, n := range names {
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, n), []byte(n), 0644))
	}
	return root
}

func populateInmem() *InmemStore {
	s := NewInmemStore()
	for _, n := range names {
		s.Put(nodeDir+n, []byte(n))
	}
	s.Put("recordstreams/record0.0.4/"+names[0], []byte("other"))
	return s
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	keys, err := s.List(ctx, nodeDir, "", 0)
	require.NoError(t, err)
	require.Len(t, keys, len(names))
	require.Equal(t, nodeDir+names[0], keys[0])

	keys, err = s.List(ctx, nodeDir, nodeDir+names[1], 0)
	require.NoError(t, err)
	require.Equal(t, []string{nodeDir + names[2], nodeDir + names[3], nodeDir + names[4]}, keys)

	keys, err = s.List(ctx, nodeDir, nodeDir+names[0], 2)
	require.NoError(t, err)
	require.Equal(t, []string{nodeDir + names[1], nodeDir + names[2]}, keys)

	keys, err = s.List(ctx, "recordstreams/record0.0.9/", "", 0)
	require.NoError(t, err)
	require.Empty(t, keys)

	data, err := s.Get(ctx, nodeDir+names[2])
	require.NoError(t, err)
	require.Equal(t, []byte(names[2]), data)

	_, err = s.Get(ctx, nodeDir+"missing.rcd")
	require.True(t, common.IsStore(err, common.KeyNotFound), "%v", err)
}

func TestLocalStore(t *testing.T) {
	s, err := NewLocalStore(populateLocal(t))
	require.NoError(t, err)
	testStore(t, s)

	_, err = s.Get(context.Background(), "../etc/passwd")
	require.Error(t, err)

	_, err = NewLocalStore(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestInmemStore(t *testing.T) {
	s := populateInmem()
	testStore(t, s)
	require.Equal(t, 1, s.Gets(nodeDir+names[2]))
}

func TestNew(t *testing.T) {
	logger := common.NewTestEntry(t, "objectstore")

	s, err := New(context.Background(), Config{Backend: BackendLocal, Path: populateLocal(t), Retries: 2}, logger)
	require.NoError(t, err)
	require.IsType(t, &RetryingStore{}, s)
	testStore(t, s)

	_, err = New(context.Background(), Config{Backend: "ftp"}, logger)
	require.Error(t, err)

	_, err = New(context.Background(), Config{Backend: BackendS3}, logger)
	require.Error(t, err)
}

type flakyStore struct {
	*InmemStore
	failures int
	calls    int
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	return f.InmemStore.Get(ctx, key)
}

func TestRetryingStore(t *testing.T) {
	logger := common.NewTestEntry(t, "objectstore")
	ctx := context.Background()

	flaky := &flakyStore{InmemStore: populateInmem(), failures: 2}
	s := NewRetryingStore(flaky, 3, time.Millisecond, logger)

	data, err := s.Get(ctx, nodeDir+names[0])
	require.NoError(t, err)
	require.Equal(t, []byte(names[0]), data)
	require.Equal(t, 3, flaky.calls)

	// missing keys fail at once
	flaky.calls, flaky.failures = 0, 0
	_, err = s.Get(ctx, nodeDir+"missing.rcd")
	require.True(t, common.IsStore(err, common.KeyNotFound), "%v", err)
	require.Equal(t, 1, flaky.calls)

	// retries run out
	flaky.calls, flaky.failures = 0, 10
	_, err = s.Get(ctx, nodeDir+names[0])
	require.Error(t, err)
	require.Equal(t, 4, flaky.calls)
}

func TestKeys(t *testing.T) {
	require.Equal(t, "recordstreams/record0.0.3/a.rcd", JoinKey("recordstreams/", "/record0.0.3", "a.rcd"))
	require.Equal(t, "a.rcd", BaseName("recordstreams/record0.0.3/a.rcd"))
	require.Equal(t, "a.rcd", BaseName("a.rcd"))
}
