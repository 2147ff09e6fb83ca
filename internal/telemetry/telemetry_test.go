// ABOUTME: Tests for telemetry sinks.
// ABOUTME: Covers fan-out, the slog sink, prometheus counters, and the badger journal.
package telemetry

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiFansOut(t *testing.T) {
	var a, b Recorder
	sink := Multi(&a, nil, &b)

	sink.Emit(Event{Kind: KindRecordAdded})
	sink.Emit(Event{Kind: KindLoadFailed})

	assert.Equal(t, 2, len(a.Events()))
	assert.Equal(t, 1, b.Count(KindLoadFailed))
}

func TestMultiEmpty(t *testing.T) {
	assert.IsType(t, Nop{}, Multi())
	assert.IsType(t, Nop{}, Multi(nil))
}

func TestLogSinkLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	sink := NewLogSink(logger)

	sink.Emit(Event{Kind: KindPersisted, Domain: "nutrition"})
	assert.Empty(t, buf.String())

	sink.Emit(Event{Kind: KindLoadFailed, Domain: "nutrition", Path: "nutrition/2026-01-01.json", Err: "bad json"})
	out := buf.String()
	assert.Contains(t, out, "load_failed")
	assert.Contains(t, out, "nutrition/2026-01-01.json")
	assert.Contains(t, out, "bad json")
}

func TestMetricsCounts(t *testing.T) {
	m := NewMetrics()

	m.Emit(Event{Kind: KindRecordAdded, Domain: "nutrition"})
	m.Emit(Event{Kind: KindRecordAdded, Domain: "nutrition"})
	m.Emit(Event{Kind: KindLoadFailed, Domain: "recovery"})
	m.Emit(Event{Kind: KindPersisted, Domain: "nutrition", Duration: 3 * time.Millisecond})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Counter(KindRecordAdded, "nutrition")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Counter(KindLoadFailed, "recovery")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Counter(KindLoadFailed, "nutrition")))

	var buf bytes.Buffer
	require.NoError(t, m.WriteText(&buf))
	text := buf.String()
	assert.Contains(t, text, `fitlog_store_events_total{domain="nutrition",kind="record_added"} 2`)
	assert.True(t, strings.Contains(text, "fitlog_store_persist_duration_seconds"))
}

func TestJournalRecentNewestFirst(t *testing.T) {
	dir := t.TempDir()
	j, err := OpenJournal(JournalOptions{Dir: dir})
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		j.Emit(Event{Kind: KindRecordAdded, Detail: string(rune('a' + i)), At: base.Add(time.Duration(i) * time.Minute)})
	}
	require.NoError(t, j.Close())

	// Reopen to prove the events hit disk.
	j2, err := OpenJournal(JournalOptions{Dir: dir})
	require.NoError(t, err)
	defer j2.Close()

	events, err := j2.Recent(3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "e", events[0].Detail)
	assert.Equal(t, "d", events[1].Detail)
	assert.Equal(t, "c", events[2].Detail)

	all, err := j2.Recent(0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestJournalEmitAfterClose(t *testing.T) {
	j, err := OpenJournal(JournalOptions{InMemory: true})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	assert.NotPanics(t, func() { j.Emit(Event{Kind: KindPersisted}) })
	assert.NoError(t, j.Close())
}

func TestJournalRequiresDir(t *testing.T) {
	_, err := OpenJournal(JournalOptions{})
	assert.Error(t, err)
}
