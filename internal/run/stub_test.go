package run

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/wordrun/wordrun-platform/internal/progress"
)

// memoryState is an in-process StateStore for tests. The lock is a plain
// mutex per scope, which is enough for single-process test traffic.
type memoryState struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	solo  map[uuid.UUID]*Run
	coop  map[string]*Run
}

func newMemoryState() *memoryState {
	return &memoryState{
		locks: map[string]*sync.Mutex{},
		solo:  map[uuid.UUID]*Run{},
		coop:  map[string]*Run{},
	}
}

func (m *memoryState) Lock(_ context.Context, scope string) (func() error, error) {
	m.mu.Lock()
	lock, ok := m.locks[scope]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[scope] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	return func() error {
		lock.Unlock()
		return nil
	}, nil
}

func (m *memoryState) GetSoloRun(_ context.Context, userID uuid.UUID) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRun(m.solo[userID]), nil
}

func (m *memoryState) SaveSoloRun(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.IsTerminal() {
		delete(m.solo, run.UserID)
		return nil
	}
	m.solo[run.UserID] = cloneRun(run)
	return nil
}

func (m *memoryState) GetCoopRun(_ context.Context, roomID string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRun(m.coop[roomID]), nil
}

func (m *memoryState) SaveCoopRun(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coop[run.RoomID] = cloneRun(run)
	return nil
}

func (m *memoryState) DeleteCoopRun(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.coop, roomID)
	return nil
}

func cloneRun(run *Run) *Run {
	if run == nil {
		return nil
	}
	cp := *run
	cp.UsedWords = append([]string(nil), run.UsedWords...)
	cp.CurrentGuesses = append([]GuessRecord(nil), run.CurrentGuesses...)
	cp.History = append([]HistoryEntry(nil), run.History...)
	return &cp
}

type stubRunStore struct {
	mu       sync.Mutex
	inserted int
	updated  int
}

func (s *stubRunStore) InsertRun(_ context.Context, _ *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted++
	return nil
}

func (s *stubRunStore) UpdateRun(_ context.Context, _ *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated++
	return nil
}

type stubProgress struct {
	mu      sync.Mutex
	updates map[uuid.UUID][]progress.Update
}

func newStubProgress() *stubProgress {
	return &stubProgress{updates: map[uuid.UUID][]progress.Update{}}
}

func (s *stubProgress) UpdateProgress(_ context.Context, userID uuid.UUID, update progress.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates[userID] = append(s.updates[userID], update)
	return nil
}

func (s *stubProgress) last(userID uuid.UUID) (progress.Update, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.updates[userID]
	if len(all) == 0 {
		return progress.Update{}, false
	}
	return all[len(all)-1], true
}

// scriptedWords deals targets in a fixed order while allowing every word
// in the script plus any extra allowed guesses.
type scriptedWords struct {
	script  []string
	allowed map[string]struct{}
	next    int
}

func newScriptedWords(script []string, extraAllowed ...string) *scriptedWords {
	allowed := make(map[string]struct{}, len(script)+len(extraAllowed))
	for _, w := range script {
		allowed[w] = struct{}{}
	}
	for _, w := range extraAllowed {
		allowed[w] = struct{}{}
	}
	return &scriptedWords{script: script, allowed: allowed}
}

func (w *scriptedWords) IsAllowed(word string) bool {
	_, ok := w.allowed[word]
	return ok
}

func (w *scriptedWords) Pick(excluded map[string]struct{}) (string, bool) {
	for ; w.next < len(w.script); w.next++ {
		if _, used := excluded[w.script[w.next]]; !used {
			word := w.script[w.next]
			w.next++
			return word, true
		}
	}
	return "", false
}

func (w *scriptedWords) Total() int  { return len(w.script) }
func (w *scriptedWords) Length() int { return 5 }
