package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aureonlabs/rotor/internal/domain"
)

func event(pair, stage string) domain.RotationEvent {
	return domain.RotationEvent{
		Timestamp: time.Now().UTC(),
		Pair:      pair,
		Stage:     stage,
	}
}

func TestJournalAppendAndReadBack(t *testing.T) {
	j, err := Open(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Append(event("BNB_USDT", "open")))
	require.NoError(t, j.Append(event("BNB_USDT", "closed")))

	records, err := j.EventsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "open", records[0].Event.Stage)
	require.Equal(t, "closed", records[1].Event.Stage)
	require.Less(t, records[0].Index, records[1].Index)
}

func TestJournalEventsAfterCursor(t *testing.T) {
	j, err := Open(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Append(event("BNB_USDT", "open")))
	cursor := j.CurrentIndex()
	require.NoError(t, j.Append(event("ETH_USDT", "open")))

	records, err := j.EventsAfter(cursor)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "ETH_USDT", records[0].Event.Pair)

	records, err = j.EventsAfter(j.CurrentIndex())
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestJournalRejectsEventWithoutPair(t *testing.T) {
	j, err := Open(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	require.Error(t, j.Append(domain.RotationEvent{Stage: "open"}))
}

func TestJournalSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	j, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, j.Append(event("BNB_USDT", "open")))
	require.NoError(t, j.Close())

	j, err = Open(dir)
	require.NoError(t, err)
	defer j.Close()

	records, err := j.EventsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "BNB_USDT", records[0].Event.Pair)
}
