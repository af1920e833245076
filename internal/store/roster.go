// Package store keeps the per-session roster snapshot: the student
// list and the performance index. The remote API stays the source of
// truth; the snapshot is a cache rebuilt by explicit loads after every
// mutation.
package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/spt-web/internal/models"
)

// LoadState tracks the list-loading lifecycle. Partial fan-out
// failures still end in StateLoaded; there is no distinct error state.
type LoadState string

const (
	StateIdle    LoadState = "idle"
	StateLoading LoadState = "loading"
	StateLoaded  LoadState = "loaded"
)

// Fetcher is the slice of the upstream client the roster needs.
type Fetcher interface {
	ListStudents(ctx context.Context) ([]models.Student, error)
	GetPerformance(ctx context.Context, studentID string) ([]models.ScoreRecord, error)
}

// FanoutObserver records the size of each bulk performance reload.
type FanoutObserver interface {
	ObserveFanout(size int)
}

// Snapshot is a read-only projection of one session's roster state.
// LastViewed keeps the whole student record so the detail view can
// still resolve a student that has dropped out of the list.
type Snapshot struct {
	Students    []models.Student
	Performance map[string][]models.ScoreRecord
	State       LoadState
	LastViewed  models.Student
}

type sessionState struct {
	students    []models.Student
	performance map[string][]models.ScoreRecord
	state       LoadState
	lastViewed  models.Student
}

// Roster owns every session's snapshot. All mutation goes through
// explicit loads; reads return copies so views never alias store
// internals.
type Roster struct {
	fetcher  Fetcher
	observer FanoutObserver
	logger   *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*sessionState
}

// NewRoster constructs a Roster. observer may be nil.
func NewRoster(fetcher Fetcher, observer FanoutObserver, logger *zap.Logger) *Roster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roster{
		fetcher:  fetcher,
		observer: observer,
		logger:   logger,
		sessions: make(map[string]*sessionState),
	}
}

// LoadStudents fetches the full student list, replaces it wholesale,
// then bulk-reloads performance for exactly that list. A list fetch
// failure degrades to an empty roster; it is logged, never surfaced.
func (r *Roster) LoadStudents(ctx context.Context, sessionID string) {
	r.setState(sessionID, StateLoading)

	students, err := r.fetcher.ListStudents(ctx)
	if err != nil {
		r.logger.Warn("student list load failed", zap.String("session", sessionID), zap.Error(err))
		students = nil
	}
	if students == nil {
		students = []models.Student{}
	}

	r.mu.Lock()
	st := r.sessionLocked(sessionID)
	st.students = students
	r.mu.Unlock()

	r.LoadPerformanceSummary(ctx, sessionID, students)
}

// LoadPerformanceSummary rebuilds the performance index for the given
// list. All per-student fetches run concurrently; the replacement
// index is committed only after every fetch has settled. A failed
// fetch degrades that student's entry to an empty slice, so one
// student's failure never blocks or corrupts another's.
func (r *Roster) LoadPerformanceSummary(ctx context.Context, sessionID string, list []models.Student) {
	if len(list) == 0 {
		r.commitIndex(sessionID, map[string][]models.ScoreRecord{})
		return
	}

	if r.observer != nil {
		r.observer.ObserveFanout(len(list))
	}

	type result struct {
		id      string
		records []models.ScoreRecord
	}

	results := make(chan result, len(list))
	var wg sync.WaitGroup
	for _, student := range list {
		wg.Add(1)
		go func(student models.Student) {
			defer wg.Done()
			records, err := r.fetcher.GetPerformance(ctx, student.ID)
			if err != nil {
				r.logger.Warn("performance fetch failed",
					zap.String("session", sessionID),
					zap.String("student", student.ID),
					zap.Error(err))
				records = nil
			}
			if records == nil {
				records = []models.ScoreRecord{}
			}
			results <- result{id: student.ID, records: records}
		}(student)
	}
	wg.Wait()
	close(results)

	index := make(map[string][]models.ScoreRecord, len(list))
	for res := range results {
		index[res.id] = res.records
	}
	r.commitIndex(sessionID, index)
}

// RefreshPerformance replaces only the named student's index entry,
// leaving all other entries untouched.
func (r *Roster) RefreshPerformance(ctx context.Context, sessionID, studentID string) {
	records, err := r.fetcher.GetPerformance(ctx, studentID)
	if err != nil {
		r.logger.Warn("targeted performance refresh failed",
			zap.String("session", sessionID),
			zap.String("student", studentID),
			zap.Error(err))
		records = nil
	}
	if records == nil {
		records = []models.ScoreRecord{}
	}

	r.mu.Lock()
	st := r.sessionLocked(sessionID)
	if st.performance == nil {
		st.performance = make(map[string][]models.ScoreRecord)
	}
	st.performance[studentID] = records
	r.mu.Unlock()
}

// SetLastViewed remembers the detail view's most recent student. The
// full record is kept, not just the ID, so the student stays
// resolvable after a reload that no longer lists them.
func (r *Roster) SetLastViewed(sessionID string, student models.Student) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessionLocked(sessionID).lastViewed = student
}

// Snapshot returns a copy of the session's current roster state.
func (r *Roster) Snapshot(sessionID string) Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.sessions[sessionID]
	if !ok {
		return Snapshot{State: StateIdle, Performance: map[string][]models.ScoreRecord{}}
	}

	students := make([]models.Student, len(st.students))
	copy(students, st.students)

	performance := make(map[string][]models.ScoreRecord, len(st.performance))
	for id, records := range st.performance {
		dup := make([]models.ScoreRecord, len(records))
		copy(dup, records)
		performance[id] = dup
	}

	return Snapshot{
		Students:    students,
		Performance: performance,
		State:       st.state,
		LastViewed:  st.lastViewed,
	}
}

// Clear drops the session's snapshot entirely. Called on logout so a
// subsequent user in the same browser never sees stale data.
func (r *Roster) Clear(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

func (r *Roster) commitIndex(sessionID string, index map[string][]models.ScoreRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.sessionLocked(sessionID)
	st.performance = index
	st.state = StateLoaded
}

func (r *Roster) setState(sessionID string, state LoadState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessionLocked(sessionID).state = state
}

// sessionLocked returns the session state, creating it if needed.
// Callers must hold r.mu.
func (r *Roster) sessionLocked(sessionID string) *sessionState {
	st, ok := r.sessions[sessionID]
	if !ok {
		st = &sessionState{state: StateIdle, performance: make(map[string][]models.ScoreRecord)}
		r.sessions[sessionID] = st
	}
	return st
}
