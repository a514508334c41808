// Package journal persists rotation events in an append-only WAL so the
// dashboard and post-run inspection survive restarts.
package journal

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/aureonlabs/rotor/internal/domain"
)

const (
	DefaultDir   = "./journal"
	segmentLimit = 1000
	maxSegments  = 10

	rotationKeyPrefix = "rotation_"
)

// Journal is a WAL-backed rotation event log.
type Journal struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// Open initializes the journal in dir.
func Open(dir string) (*Journal, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "rotation_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init rotation journal")
	}

	return &Journal{wal: wal}, nil
}

// Append writes one rotation event to the log.
func (j *Journal) Append(event domain.RotationEvent) error {
	if j == nil || j.wal == nil {
		return errors.New("journal is not initialized")
	}
	if event.Pair == "" {
		return errors.New("rotation event pair is required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal rotation event")
	}

	key := fmt.Sprintf("%s%s", rotationKeyPrefix, event.Pair)

	j.mu.Lock()
	defer j.mu.Unlock()

	nextIndex := j.wal.CurrentIndex() + 1
	return j.wal.Write(nextIndex, key, payload)
}

// EventsAfter returns all events written after the provided log index.
func (j *Journal) EventsAfter(index uint64) ([]domain.RotationEventRecord, error) {
	if j == nil || j.wal == nil {
		return nil, errors.New("journal is not initialized")
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	current := j.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.RotationEventRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := j.wal.Get(idx)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(key, rotationKeyPrefix) {
			continue
		}

		var event domain.RotationEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrap(err, "decode rotation event")
		}
		records = append(records, domain.RotationEventRecord{Index: idx, Event: event})
	}

	return records, nil
}

// CurrentIndex returns the latest log index stored.
func (j *Journal) CurrentIndex() uint64 {
	if j == nil || j.wal == nil {
		return 0
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	return j.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (j *Journal) Close() error {
	if j == nil || j.wal == nil {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	return j.wal.Close()
}
