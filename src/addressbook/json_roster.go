package addressbook

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"strings"
	"sync"
)

//JSONRoster reads and writes a list of nodes as a JSON file. It is a human
//editable alternative to a serialized NodeAddressBook for bootstrapping.
type JSONRoster struct {
	l    sync.Mutex
	path string
}

//NewJSONRoster creates a JSONRoster backed by the file at path
func NewJSONRoster(path string) *JSONRoster {
	return &JSONRoster{
		path: path,
	}
}

//IsJSONRoster reports whether path names a JSON roster rather than a
//serialized address book
func IsJSONRoster(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".json")
}

//Nodes parses the underlying JSON file
func (j *JSONRoster) Nodes() ([]NodeEntry, error) {
	j.l.Lock()
	defer j.l.Unlock()

	buf, err := ioutil.ReadFile(j.path)
	if err != nil {
		return nil, err
	}

	if len(buf) == 0 {
		return nil, nil
	}

	var nodes []NodeEntry
	dec := json.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(&nodes); err != nil {
		return nil, err
	}

	cleanseKeys(nodes)

	return nodes, nil
}

//Raw returns the roster serialized as the content of a roster file
func (j *JSONRoster) Raw() ([]byte, error) {
	nodes, err := j.Nodes()
	if err != nil {
		return nil, err
	}
	return Encode(nodes), nil
}

// cleanseKeys standardises public keys to the lowercase unprefixed hex used
// in roster files.
func cleanseKeys(nodes []NodeEntry) {
	for i := range nodes {
		k := strings.ToLower(strings.TrimSpace(nodes[i].PublicKey))
		nodes[i].PublicKey = strings.TrimPrefix(k, "0x")
	}
}

//Write persists nodes to the JSON file
func (j *JSONRoster) Write(nodes []NodeEntry) error {
	j.l.Lock()
	defer j.l.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(nodes); err != nil {
		return err
	}

	return ioutil.WriteFile(j.path, buf.Bytes(), 0644)
}
