package catalog

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	internalio "github.com/sawpanic/techsignal/internal/io"
	"github.com/sawpanic/techsignal/internal/record"
)

// envelope is the on-disk shape for the file-backed Catalog Store,
// spec.md §6 "Durable state layout": a single JSON document
// `{papers[], lastFetchTime, lastPaperDate}` written atomically.
type envelope struct {
	Records       []*record.Record `json:"records"`
	LastFetchTime time.Time        `json:"lastFetchTime"`
	LastPaperDate time.Time        `json:"lastPaperDate"`
}

// FilePersister writes the Store's full contents to a single JSON
// file using internal/io's temp-then-rename writer, grounded on the
// teacher's internal/io.WriteJSONAtomic — generalized from a
// self-test utility into the Store's actual persistence path.
type FilePersister struct {
	path string
}

func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Save atomically writes the current store contents to disk.
func (p *FilePersister) Save(s *Store) error {
	s.mu.RLock()
	records := make([]*record.Record, 0, len(s.byID))
	for _, r := range s.byID {
		records = append(records, r)
	}
	env := envelope{
		Records:       records,
		LastFetchTime: s.lastFetchTime,
		LastPaperDate: s.lastPaperDate,
	}
	s.mu.RUnlock()

	return internalio.WriteJSONAtomic(p.path, env)
}

// Load rehydrates a Store from disk. A missing or malformed file is
// not an error: the store starts empty and the condition is logged,
// per spec.md §4.4 "Load-on-start".
func (p *FilePersister) Load(s *Store) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		log.Info().Str("path", p.path).Msg("catalog: no durable state found, starting empty")
		return
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Str("path", p.path).Err(err).Msg("catalog: durable state malformed, starting empty")
		return
	}

	s.LoadSnapshot(env.Records, env.LastFetchTime)
}
