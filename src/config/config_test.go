package config

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/streamgate/src/objectstore"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

func TestSetDataDir(t *testing.T) {
	conf := NewDefaultConfig()
	conf.SetDataDir("/tmp/sg")

	if conf.DatabaseDir != filepath.Join("/tmp/sg", DefaultBadgerFile) {
		t.Fatalf("DatabaseDir should follow DataDir, got %s", conf.DatabaseDir)
	}

	conf.DatabaseDir = "/elsewhere"
	conf.SetDataDir("/tmp/other")
	if conf.DatabaseDir != "/elsewhere" {
		t.Fatalf("explicit DatabaseDir should be kept, got %s", conf.DatabaseDir)
	}
}

func TestStreamTypes(t *testing.T) {
	conf := NewDefaultConfig()
	conf.Streams = []string{"balance", "nope", "RECORD"}

	streams, unknown := conf.StreamTypes()
	if len(streams) != 2 || streams[0].Name != streamfile.BalanceStream.Name || streams[1].Name != streamfile.RecordStream.Name {
		t.Fatalf("unexpected streams %v", streams)
	}
	if len(unknown) != 1 || unknown[0] != "nope" {
		t.Fatalf("unexpected unknown streams %v", unknown)
	}
}

func TestTestConfig(t *testing.T) {
	conf := NewTestConfig(t, logrus.DebugLevel)
	if conf.Store {
		t.Fatal("test config should not persist")
	}
	if conf.ObjectStore().Backend != objectstore.BackendInmem {
		t.Fatalf("unexpected backend %s", conf.ObjectStore().Backend)
	}
	conf.Logger().Debug("test config logger")
}
