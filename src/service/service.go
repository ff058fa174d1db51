package service

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/streamgate/src/addressbook"
	"github.com/mosaicnetworks/streamgate/src/common"
	"github.com/mosaicnetworks/streamgate/src/store"
)

// Importer is what the service reports on.
type Importer interface {
	GetStats() map[string]string
	AddressBook() (*addressbook.AddressBook, error)
	Checkpoints() map[string]store.Checkpoint
}

// Service ...
type Service struct {
	sync.Mutex

	bindAddress string
	importer    Importer
	mux         *http.ServeMux
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, importer Importer, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		importer:    importer,
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering API handlers")
	s.mux.HandleFunc("/stats", s.makeHandler(s.GetStats))
	s.mux.HandleFunc("/addressbook", s.makeHandler(s.GetAddressBook))
	s.mux.HandleFunc("/watermarks", s.makeHandler(s.GetWatermarks))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Handler returns the handler serving the API.
func (s *Service) Handler() http.Handler {
	return s.mux
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving API")

	err := http.ListenAndServe(s.bindAddress, s.mux)
	if err != nil {
		s.logger.Error(err)
	}
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.importer.GetStats())
}

// AddressBookResponse is the body of /addressbook.
type AddressBookResponse struct {
	Slot           string                  `json:"slot"`
	StartConsensus int64                   `json:"start_consensus"`
	EndConsensus   int64                   `json:"end_consensus,omitempty"`
	Hash           string                  `json:"hash"`
	Nodes          []addressbook.NodeEntry `json:"nodes"`
}

// GetAddressBook ...
func (s *Service) GetAddressBook(w http.ResponseWriter, r *http.Request) {
	ab, err := s.importer.AddressBook()
	if err != nil {
		s.logger.WithError(err).Debug("No address book")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, AddressBookResponse{
		Slot:           ab.Slot.String(),
		StartConsensus: ab.StartConsensus,
		EndConsensus:   ab.EndConsensus,
		Hash:           ab.Hex(),
		Nodes:          ab.Nodes,
	})
}

// Watermark is the body of /watermarks, per stream.
type Watermark struct {
	Filename     string `json:"filename"`
	Hash         string `json:"hash"`
	ConsensusEnd int64  `json:"consensus_end"`
	Files        int64  `json:"files"`
}

// GetWatermarks ...
func (s *Service) GetWatermarks(w http.ResponseWriter, r *http.Request) {
	res := map[string]Watermark{}
	for stream, cp := range s.importer.Checkpoints() {
		res[stream] = Watermark{
			Filename:     cp.Filename,
			Hash:         common.Hex(cp.Hash),
			ConsensusEnd: cp.ConsensusEnd,
			Files:        cp.Files,
		}
	}
	writeJSON(w, res)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(v)
}
