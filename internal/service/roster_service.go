package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/spt-web/internal/models"
	"github.com/noah-isme/spt-web/internal/store"
	appErrors "github.com/noah-isme/spt-web/pkg/errors"
)

type rosterStore interface {
	LoadStudents(ctx context.Context, sessionID string)
	RefreshPerformance(ctx context.Context, sessionID, studentID string)
	Snapshot(sessionID string) store.Snapshot
	SetLastViewed(sessionID string, student models.Student)
}

type studentGateway interface {
	CreateStudent(ctx context.Context, student models.NewStudent) error
	DeleteStudent(ctx context.Context, id string) error
	AddPerformance(ctx context.Context, score models.NewScore) error
}

// RosterService drives the student and performance use cases over the
// per-session snapshot. Mutations always wait for the server before
// re-reading; nothing is inserted locally.
type RosterService struct {
	roster    rosterStore
	gateway   studentGateway
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs a RosterService.
func NewRosterService(roster rosterStore, gateway studentGateway, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RosterService{roster: roster, gateway: gateway, validator: validate, logger: logger}
}

// Overview loads the full roster and returns cards for the list view.
// Every listed student has an index entry, possibly empty.
func (s *RosterService) Overview(ctx context.Context, sessionID string) ([]models.StudentCard, store.Snapshot) {
	s.roster.LoadStudents(ctx, sessionID)
	snap := s.roster.Snapshot(sessionID)
	return buildCards(snap), snap
}

// AddStudent validates the form and creates the student upstream,
// then reloads the whole roster. Blank required fields block before
// any network call. An upstream failure is logged and swallowed; the
// returned flag is false so callers don't announce a create that
// never happened.
func (s *RosterService) AddStudent(ctx context.Context, sessionID string, req models.NewStudent) (bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name, roll number and class are required")
	}

	created := true
	if err := s.gateway.CreateStudent(ctx, req); err != nil {
		s.logger.Warn("create student failed", zap.Error(err))
		created = false
	}
	s.roster.LoadStudents(ctx, sessionID)
	return created, nil
}

// DeleteStudent removes the student upstream unconditionally, then
// reloads the whole roster.
func (s *RosterService) DeleteStudent(ctx context.Context, sessionID, studentID string) {
	if err := s.gateway.DeleteStudent(ctx, studentID); err != nil {
		s.logger.Warn("delete student failed", zap.String("student", studentID), zap.Error(err))
	}
	s.roster.LoadStudents(ctx, sessionID)
}

// AddScore validates the form and records the score upstream. On
// success only the one student's entry is refreshed; the rest of the
// index is untouched. An upstream failure is logged and swallowed
// without a refresh, and the returned flag is false.
func (s *RosterService) AddScore(ctx context.Context, sessionID, studentID string, subject, marks string) (bool, error) {
	score := models.NewScore{StudentID: studentID, Subject: subject, Marks: marks}
	if err := s.validator.Struct(score); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "subject and marks are required")
	}

	if err := s.gateway.AddPerformance(ctx, score); err != nil {
		s.logger.Warn("add score failed", zap.String("student", studentID), zap.Error(err))
		return false, nil
	}
	s.roster.RefreshPerformance(ctx, sessionID, studentID)
	return true, nil
}

// Detail resolves the requested student for the detail view. An ID not
// in the current list falls back to the remembered last-viewed
// student, whose full record is kept so the fallback still works when
// that student has dropped out of the list. If neither resolves, ok is
// false and the caller renders the not-found state. Resolving triggers
// a targeted refresh so the history stays fresh even when the bulk
// load is stale.
func (s *RosterService) Detail(ctx context.Context, sessionID, studentID string) (models.DetailView, bool) {
	snap := s.roster.Snapshot(sessionID)

	student, ok := findStudent(snap.Students, studentID)
	if !ok && snap.LastViewed.ID != "" {
		student, ok = snap.LastViewed, true
	}
	if !ok {
		return models.DetailView{}, false
	}

	s.roster.SetLastViewed(sessionID, student)
	s.roster.RefreshPerformance(ctx, sessionID, student.ID)

	fresh := s.roster.Snapshot(sessionID)
	return models.DetailView{Student: student, Scores: fresh.Performance[student.ID]}, true
}

func findStudent(list []models.Student, id string) (models.Student, bool) {
	if id == "" {
		return models.Student{}, false
	}
	for _, student := range list {
		if student.ID == id {
			return student, true
		}
	}
	return models.Student{}, false
}

func buildCards(snap store.Snapshot) []models.StudentCard {
	cards := make([]models.StudentCard, 0, len(snap.Students))
	for _, student := range snap.Students {
		card := models.StudentCard{Student: student}
		if records := snap.Performance[student.ID]; len(records) > 0 {
			// Server order is trusted: first element is the latest.
			card.LatestSubject = records[0].Subject
			card.LatestMarks = records[0].Marks
			card.HasScores = true
			card.ScoreCount = len(records)
		}
		cards = append(cards, card)
	}
	return cards
}
