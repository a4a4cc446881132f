package docstore

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/dbsmedya/typemerge/internal/model"
)

// Record keys are one kind prefix byte followed by the big-endian id.
const (
	prefixType       byte = 't'
	prefixInstance   byte = 'i'
	prefixAnnotation byte = 'a'

	recordKeyLen = 9
)

var sequenceKey = []byte("!typemerge!seq")

const sequenceBandwidth = 32

func recordKey(prefix byte, id model.ID) []byte {
	k := make([]byte, recordKeyLen)
	k[0] = prefix
	binary.BigEndian.PutUint64(k[1:], uint64(id))
	return k
}

// SaveStats summarizes a Save call.
type SaveStats struct {
	Upserts  int           // Records written
	Deletes  int           // Records removed
	Duration time.Duration // Time taken for the store write
}

// load reads the full record set from the store into the committed state.
func (s *Session) load() error {
	st := newDocumentState()

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.Key()
			if len(key) != recordKeyLen {
				// Sequence and other bookkeeping keys
				continue
			}

			id := model.ID(binary.BigEndian.Uint64(key[1:]))
			err := item.Value(func(val []byte) error {
				switch key[0] {
				case prefixType:
					var rec model.TypeRecord
					if err := json.Unmarshal(val, &rec); err != nil {
						return fmt.Errorf("type %s: %w", id, err)
					}
					st.types[id] = rec
				case prefixInstance:
					var rec model.InstanceRecord
					if err := json.Unmarshal(val, &rec); err != nil {
						return fmt.Errorf("instance %s: %w", id, err)
					}
					st.instances[id] = rec
				case prefixAnnotation:
					var rec model.AnnotationRecord
					if err := json.Unmarshal(val, &rec); err != nil {
						return fmt.Errorf("annotation %s: %w", id, err)
					}
					st.annotations[id] = rec
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.root = st
	return nil
}

// Save writes the committed state to the store as a delta against the last
// loaded or saved image, in a single store transaction. Saving with open
// scopes fails with ErrOpenScopes.
func (s *Session) Save() (*SaveStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if n := len(s.scopes); n > 0 {
		return nil, fmt.Errorf("%d open scope(s): %w", n, ErrOpenScopes)
	}

	start := time.Now()

	typeUpserts, typeDeletes := diffRecords(s.persisted.types, s.root.types)
	instUpserts, instDeletes := diffRecords(s.persisted.instances, s.root.instances)
	annUpserts, annDeletes := diffRecords(s.persisted.annotations, s.root.annotations)

	stats := &SaveStats{
		Upserts: len(typeUpserts) + len(instUpserts) + len(annUpserts),
		Deletes: len(typeDeletes) + len(instDeletes) + len(annDeletes),
	}

	if stats.Upserts == 0 && stats.Deletes == 0 {
		stats.Duration = time.Since(start)
		s.log.Debugw("Document save skipped, no changes")
		return stats, nil
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for id, rec := range typeUpserts {
			if err := setRecord(txn, prefixType, id, rec); err != nil {
				return err
			}
		}
		for id, rec := range instUpserts {
			if err := setRecord(txn, prefixInstance, id, rec); err != nil {
				return err
			}
		}
		for id, rec := range annUpserts {
			if err := setRecord(txn, prefixAnnotation, id, rec); err != nil {
				return err
			}
		}
		for _, id := range typeDeletes {
			if err := txn.Delete(recordKey(prefixType, id)); err != nil {
				return err
			}
		}
		for _, id := range instDeletes {
			if err := txn.Delete(recordKey(prefixInstance, id)); err != nil {
				return err
			}
		}
		for _, id := range annDeletes {
			if err := txn.Delete(recordKey(prefixAnnotation, id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	s.persisted = s.root.clone()
	stats.Duration = time.Since(start)

	s.log.Infow("Document saved",
		"upserts", stats.Upserts,
		"deletes", stats.Deletes,
		"duration", stats.Duration,
	)

	return stats, nil
}

func setRecord(txn *badger.Txn, prefix byte, id model.ID, rec interface{}) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", id, err)
	}
	return txn.Set(recordKey(prefix, id), val)
}

// diffRecords returns the records added or changed in after, and the ids
// present only in before.
func diffRecords[V comparable](before, after map[model.ID]V) (map[model.ID]V, []model.ID) {
	upserts := make(map[model.ID]V)
	for id, rec := range after {
		if prev, ok := before[id]; !ok || prev != rec {
			upserts[id] = rec
		}
	}

	var deletes []model.ID
	for id := range before {
		if _, ok := after[id]; !ok {
			deletes = append(deletes, id)
		}
	}
	return upserts, deletes
}

// Checksum returns a SHA-256 over the canonical serialization of the
// current state: records per kind, ascending by id. Two states with the
// same records produce the same checksum.
func (s *Session) Checksum() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrSessionClosed
	}

	st := s.top()
	h := sha256.New()

	for _, id := range sortedKeys(st.types) {
		if err := hashRecord(h, st.types[id]); err != nil {
			return "", err
		}
	}
	for _, id := range sortedKeys(st.instances) {
		if err := hashRecord(h, st.instances[id]); err != nil {
			return "", err
		}
	}
	for _, id := range sortedKeys(st.annotations) {
		if err := hashRecord(h, st.annotations[id]); err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func sortedKeys[V any](m map[model.ID]V) []model.ID {
	ids := model.NewIDSet()
	for id := range m {
		ids.Add(id)
	}
	return ids.Sorted()
}

func hashRecord(h io.Writer, rec interface{}) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record for checksum: %w", err)
	}
	if _, err := h.Write(val); err != nil {
		return err
	}
	_, err = h.Write([]byte{'\n'})
	return err
}
