package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/spt-web/internal/models"
)

type fakeFetcher struct {
	mu          sync.Mutex
	students    []models.Student
	listErr     error
	performance map[string][]models.ScoreRecord
	failFor     map[string]bool
	perfCalls   []string
	listCalls   int
}

func (f *fakeFetcher) ListStudents(ctx context.Context) ([]models.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.students, nil
}

func (f *fakeFetcher) GetPerformance(ctx context.Context, studentID string) ([]models.ScoreRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.perfCalls = append(f.perfCalls, studentID)
	if f.failFor[studentID] {
		return nil, errors.New("fetch failed")
	}
	return f.performance[studentID], nil
}

func students(ids ...string) []models.Student {
	out := make([]models.Student, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Student{ID: id, Name: "Student " + id})
	}
	return out
}

func TestLoadStudentsCommitsEntryForEveryStudent(t *testing.T) {
	fetcher := &fakeFetcher{
		students: students("a", "b", "c"),
		performance: map[string][]models.ScoreRecord{
			"a": {{ID: "s1", StudentID: "a", Subject: "Math", Marks: "90"}},
			"b": {},
		},
	}
	roster := NewRoster(fetcher, nil, zap.NewNop())

	roster.LoadStudents(context.Background(), "sess")

	snap := roster.Snapshot("sess")
	assert.Equal(t, StateLoaded, snap.State)
	require.Len(t, snap.Students, 3)
	require.Len(t, snap.Performance, 3)
	for _, student := range snap.Students {
		_, ok := snap.Performance[student.ID]
		assert.True(t, ok, "entry for %s must exist", student.ID)
	}
	assert.Len(t, snap.Performance["a"], 1)
	assert.Empty(t, snap.Performance["c"])
}

func TestFanoutFailureIsolation(t *testing.T) {
	fetcher := &fakeFetcher{
		students: students("a", "b", "c"),
		performance: map[string][]models.ScoreRecord{
			"a": {{ID: "s1", StudentID: "a", Subject: "Math", Marks: "90"}},
			"c": {{ID: "s2", StudentID: "c", Subject: "History", Marks: "75"}},
		},
		failFor: map[string]bool{"b": true},
	}
	roster := NewRoster(fetcher, nil, zap.NewNop())

	roster.LoadStudents(context.Background(), "sess")

	snap := roster.Snapshot("sess")
	assert.Equal(t, StateLoaded, snap.State)
	assert.Len(t, snap.Performance["a"], 1)
	assert.Len(t, snap.Performance["c"], 1)
	records, ok := snap.Performance["b"]
	assert.True(t, ok, "failed student still gets an entry")
	assert.Empty(t, records)
}

func TestLoadPerformanceSummaryEmptyListResetsIndex(t *testing.T) {
	fetcher := &fakeFetcher{
		students: students("a"),
		performance: map[string][]models.ScoreRecord{
			"a": {{ID: "s1", StudentID: "a", Subject: "Math", Marks: "90"}},
		},
	}
	roster := NewRoster(fetcher, nil, zap.NewNop())
	roster.LoadStudents(context.Background(), "sess")
	require.Len(t, roster.Snapshot("sess").Performance, 1)

	roster.LoadPerformanceSummary(context.Background(), "sess", nil)

	snap := roster.Snapshot("sess")
	assert.Empty(t, snap.Performance)
	assert.NotNil(t, snap.Performance)
}

func TestListFailureDegradesToEmptyRoster(t *testing.T) {
	fetcher := &fakeFetcher{listErr: errors.New("backend down")}
	roster := NewRoster(fetcher, nil, zap.NewNop())

	roster.LoadStudents(context.Background(), "sess")

	snap := roster.Snapshot("sess")
	assert.Equal(t, StateLoaded, snap.State)
	assert.Empty(t, snap.Students)
	assert.Empty(t, snap.Performance)
	assert.Zero(t, len(fetcher.perfCalls))
}

func TestRefreshPerformanceTouchesOnlyOneEntry(t *testing.T) {
	fetcher := &fakeFetcher{
		students: students("a", "b"),
		performance: map[string][]models.ScoreRecord{
			"a": {{ID: "s1", StudentID: "a", Subject: "Math", Marks: "90"}},
			"b": {{ID: "s2", StudentID: "b", Subject: "Art", Marks: "60"}},
		},
	}
	roster := NewRoster(fetcher, nil, zap.NewNop())
	roster.LoadStudents(context.Background(), "sess")

	fetcher.mu.Lock()
	fetcher.performance["a"] = append(fetcher.performance["a"],
		models.ScoreRecord{ID: "s3", StudentID: "a", Subject: "Physics", Marks: "82"})
	fetcher.performance["b"] = nil
	fetcher.mu.Unlock()

	roster.RefreshPerformance(context.Background(), "sess", "a")

	snap := roster.Snapshot("sess")
	assert.Len(t, snap.Performance["a"], 2)
	// b keeps its previously loaded entry untouched.
	assert.Len(t, snap.Performance["b"], 1)
}

func TestClearDropsSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{students: students("a")}
	roster := NewRoster(fetcher, nil, zap.NewNop())
	roster.LoadStudents(context.Background(), "sess")
	roster.SetLastViewed("sess", models.Student{ID: "a", Name: "Student a"})

	roster.Clear("sess")

	snap := roster.Snapshot("sess")
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Students)
	assert.Empty(t, snap.Performance)
	assert.Empty(t, snap.LastViewed)
}

func TestLastViewedSurvivesListReload(t *testing.T) {
	fetcher := &fakeFetcher{students: students("a")}
	roster := NewRoster(fetcher, nil, zap.NewNop())
	roster.LoadStudents(context.Background(), "sess")
	roster.SetLastViewed("sess", models.Student{ID: "a", Name: "Student a"})

	fetcher.mu.Lock()
	fetcher.students = nil
	fetcher.mu.Unlock()
	roster.LoadStudents(context.Background(), "sess")

	snap := roster.Snapshot("sess")
	assert.Empty(t, snap.Students)
	// The remembered record is independent of the list.
	assert.Equal(t, "Student a", snap.LastViewed.Name)
}

func TestSnapshotIsACopy(t *testing.T) {
	fetcher := &fakeFetcher{
		students: students("a"),
		performance: map[string][]models.ScoreRecord{
			"a": {{ID: "s1", StudentID: "a", Subject: "Math", Marks: "90"}},
		},
	}
	roster := NewRoster(fetcher, nil, zap.NewNop())
	roster.LoadStudents(context.Background(), "sess")

	snap := roster.Snapshot("sess")
	snap.Students[0].Name = "mutated"
	snap.Performance["a"][0].Marks = "0"

	fresh := roster.Snapshot("sess")
	assert.Equal(t, "Student a", fresh.Students[0].Name)
	assert.Equal(t, "90", fresh.Performance["a"][0].Marks)
}
