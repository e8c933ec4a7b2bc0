package services

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/kolp/internal/events"
	"github.com/dmitrijs2005/kolp/internal/logging"
	"github.com/dmitrijs2005/kolp/internal/models"
	"github.com/dmitrijs2005/kolp/internal/remote"
	"github.com/dmitrijs2005/kolp/internal/remote/remotetest"
	"github.com/dmitrijs2005/kolp/internal/repositories/history"
)

const testToken = "ya29.valid"

// staticTokens hands out a fixed token and counts calls.
type staticTokens struct {
	token string
	err   error
	calls atomic.Int32
}

func (s *staticTokens) AccessToken(context.Context) (string, error) {
	s.calls.Add(1)
	return s.token, s.err
}

// eventLog records everything published on a bus.
type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) add(e events.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) kinds() []events.Kind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]events.Kind, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Kind)
	}
	return out
}

func (l *eventLog) last() events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}

type fixture struct {
	svc     BackupService
	fake    *remotetest.Server
	tokens  *staticTokens
	journal *history.Journal
	events  *eventLog
	dir     string
}

func newJournal(t *testing.T, dir string) *history.Journal {
	t.Helper()
	db, err := history.Open(context.Background(), filepath.Join(dir, "journal.db"))
	require.NoError(t, err)
	j := history.NewJournal(db, 50)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	fake := remotetest.NewServer(t)
	fake.RequireToken(testToken)

	bus := events.NewBus()
	log := &eventLog{}
	bus.Subscribe(log.add)

	f := &fixture{
		fake:    fake,
		tokens:  &staticTokens{token: testToken},
		journal: newJournal(t, dir),
		events:  log,
		dir:     dir,
	}
	f.svc = NewBackupService(
		filepath.Join(dir, "backups"),
		f.tokens,
		remote.NewClient(fake.URL, nil, logging.Nop()),
		f.journal,
		bus,
		logging.Nop(),
	)
	return f
}

func sampleSnapshot() *models.Snapshot {
	s, err := models.ParseSnapshot([]byte(`{
		"notes": [
			{"id": "n1", "title": "Groceries", "content": "milk, eggs", "folderId": "f1", "tagIds": ["t1"], "createdAt": 1700000000000, "updatedAt": 1700000001000},
			{"id": "n2", "title": "Ideas", "content": "ünïcödé ✓", "pinned": true, "createdAt": "2023-11-14T22:13:22.000Z", "wordCount": 2}
		],
		"folders": [{"id": "f1", "name": "Home", "createdAt": 1700000000000}],
		"tags": [{"id": "t1", "name": "todo", "color": "#ff0000"}],
		"settings": {"theme": "dark", "fontSize": 14, "autoSave": true, "language": "en"},
		"attachments": {}
	}`))
	if err != nil {
		panic(err)
	}
	return s
}
