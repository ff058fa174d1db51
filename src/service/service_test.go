package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mosaicnetworks/streamgate/src/addressbook"
	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/hapi"
	"github.com/mosaicnetworks/streamgate/src/store"
)

type fakeImporter struct {
	book *addressbook.AddressBook
}

func (f *fakeImporter) GetStats() map[string]string {
	return map[string]string{"state": "Idle", "record_files": "3"}
}

func (f *fakeImporter) AddressBook() (*addressbook.AddressBook, error) {
	if f.book == nil {
		return nil, common.NewStreamErr(common.NoAddressBookAvailable, "address book", "none")
	}
	return f.book, nil
}

func (f *fakeImporter) Checkpoints() map[string]store.Checkpoint {
	return map[string]store.Checkpoint{
		"record": {Filename: "2021-03-05T14_00_00.000000000Z.rcd", Hash: []byte{0xab, 0xcd}, Files: 3},
	}
}

func get(t *testing.T, s *Service, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestEndpoints(t *testing.T) {
	imp := &fakeImporter{}
	s := NewService("", imp, common.NewTestEntry(t, "service"))

	rec := get(t, s, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := map[string]string{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, "3", stats["record_files"])

	rec = get(t, s, "/addressbook")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	raw := addressbook.Encode([]addressbook.NodeEntry{
		{NodeID: 0, Account: hapi.AccountID{Num: 3}, PublicKey: "aa"},
		{NodeID: 1, Account: hapi.AccountID{Num: 4}, PublicKey: "bb"},
	})
	ab, err := addressbook.Parse(addressbook.Secondary, 10, raw)
	require.NoError(t, err)
	imp.book = ab

	rec = get(t, s, "/addressbook")
	require.Equal(t, http.StatusOK, rec.Code)
	var book AddressBookResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &book))
	require.Len(t, book.Nodes, 2)
	require.Equal(t, int64(10), book.StartConsensus)
	require.Equal(t, ab.Hex(), book.Hash)

	rec = get(t, s, "/watermarks")
	require.Equal(t, http.StatusOK, rec.Code)
	marks := map[string]Watermark{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &marks))
	require.Equal(t, "abcd", marks["record"].Hash)
	require.Equal(t, int64(3), marks["record"].Files)
}
