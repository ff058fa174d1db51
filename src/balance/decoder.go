package balance

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/crypto"
	"github.com/mosaicnetworks/streamgate/src/streamfile"
)

// Balance file versions.
const (
	VersionOne int32 = 1
	VersionTwo int32 = 2
)

// VersionTwoMarker starts the first line of every v2 file.
const VersionTwoMarker = "# 0.1.0"

// MaxHeaderLines bounds the search for the column line and, in v2 files, the
// timestamp line.
const MaxHeaderLines = 10

var timestampLine = regexp.MustCompile(`(?i)^#?\s*timestamp:\s*(\S+)`)

// SelectVersion picks the decoder for a file from its first line.
func SelectVersion(firstLine string) int32 {
	marker := strings.ToLower(VersionTwoMarker)
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(firstLine)), marker) {
		return VersionTwo
	}
	return VersionOne
}

// Decoder decodes balance files of a single shard.
type Decoder struct {
	shard  int64
	logger *logrus.Entry
}

// NewDecoder ...
func NewDecoder(shard int64, logger *logrus.Entry) *Decoder {
	return &Decoder{
		shard:  shard,
		logger: logger,
	}
}

// Decode parses the header of a balance file and prepares its rows. name is
// the data filename.
func (d *Decoder) Decode(name string, data []byte) (*streamfile.StreamFileRecord, error) {
	raw, err := streamfile.Decompress(name, data)
	if err != nil {
		return nil, common.WrapStreamErr(common.MalformedStreamFile, name, err)
	}

	lines := splitLines(raw)
	if len(lines) == 0 {
		return nil, common.NewStreamErr(common.EmptyStreamFile, name, "no lines")
	}

	version := SelectVersion(lines[0])

	var fileTime time.Time
	if fn, err := streamfile.ParseFilename(name); err == nil {
		fileTime = fn.Timestamp
	}

	header, err := d.parseHeader(name, version, lines)
	if err != nil {
		return nil, err
	}

	consensus := fileTime
	if !header.timestamp.IsZero() {
		if !fileTime.IsZero() && !header.timestamp.Equal(fileTime) {
			d.logger.WithFields(logrus.Fields{
				"file":     name,
				"internal": header.timestamp.Format(time.RFC3339Nano),
				"filename": fileTime.Format(time.RFC3339Nano),
			}).Warn("Balance file timestamp does not match its filename")
		}
		consensus = header.timestamp
	}
	if consensus.IsZero() {
		return nil, common.NewStreamErr(common.MalformedStreamFile, name, "no consensus timestamp")
	}

	rows := lines[header.dataStart:]
	count := 0
	for _, l := range rows {
		if l != "" {
			count++
		}
	}

	hash := crypto.SHA384(raw)
	r := &streamfile.StreamFileRecord{
		Name:           name,
		Stream:         streamfile.BalanceStream,
		Version:        version,
		Hash:           hash,
		FileHash:       hash,
		Count:          count,
		ConsensusStart: consensus.UnixNano(),
		ConsensusEnd:   consensus.UnixNano(),
		Size:           len(raw),
	}

	shard := d.shard
	ts := consensus.UnixNano()
	r.SetItems(func() streamfile.ItemIterator {
		return &rowIterator{
			name:      name,
			version:   version,
			shard:     shard,
			timestamp: ts,
			lines:     rows,
			lineBase:  header.dataStart,
		}
	})
	return r, nil
}

type header struct {
	timestamp time.Time
	dataStart int
}

// parseHeader finds the column line and, for v2, the timestamp line. A v1
// timestamp line is skipped unparsed. Any violation fails the file.
func (d *Decoder) parseHeader(name string, version int32, lines []string) (header, error) {
	var h header

	limit := MaxHeaderLines
	if len(lines) < limit {
		limit = len(lines)
	}

	for i := 0; i < limit; i++ {
		line := lines[i]
		if m := timestampLine.FindStringSubmatch(line); m != nil {
			//v1 files are timed by their filename
			if version == VersionOne {
				continue
			}
			ts, err := time.Parse(time.RFC3339Nano, m[1])
			if err != nil {
				return h, common.NewStreamErr(common.MalformedStreamFile, name, "header timestamp %q: %v", m[1], err)
			}
			h.timestamp = ts.UTC()
			continue
		}
		if strings.Contains(strings.ToLower(line), "shard") {
			if version == VersionTwo && h.timestamp.IsZero() {
				return h, common.NewStreamErr(common.MalformedStreamFile, name, "no timestamp before column line")
			}
			h.dataStart = i + 1
			return h, nil
		}
	}

	return h, common.NewStreamErr(common.MalformedStreamFile, name, "no column line in the first %d lines", MaxHeaderLines)
}

func splitLines(raw []byte) []string {
	raw = bytes.TrimRight(raw, "\r\n")
	if len(raw) == 0 {
		return nil
	}
	parts := strings.Split(string(raw), "\n")
	for i, p := range parts {
		parts[i] = strings.TrimRight(p, "\r")
	}
	return parts
}

type rowIterator struct {
	name      string
	version   int32
	shard     int64
	timestamp int64
	lines     []string
	lineBase  int

	pos   int
	index int
	item  *Item
	err   error
}

func (it *rowIterator) Next() bool {
	it.item, it.err = nil, nil
	for it.pos < len(it.lines) {
		line := it.lines[it.pos]
		lineNo := it.lineBase + it.pos + 1
		it.pos++
		if strings.TrimSpace(line) == "" {
			continue
		}

		item, err := ParseLine(line, it.version, it.shard, it.timestamp)
		if err != nil {
			it.err = common.WrapStreamErr(common.InvalidDatasetRow, fmt.Sprintf("%s:%d", it.name, lineNo), err)
		} else {
			item.index = it.index
			it.item = item
		}
		it.index++
		return true
	}
	return false
}

func (it *rowIterator) Item() streamfile.DecodedItem {
	if it.item == nil {
		return nil
	}
	return it.item
}

func (it *rowIterator) Err() error {
	return it.err
}
