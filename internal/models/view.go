package models

// StudentCard is the overview projection of one student: the student
// plus the latest score, if any, from the performance index.
type StudentCard struct {
	Student
	LatestSubject string
	LatestMarks   string
	HasScores     bool
	ScoreCount    int
}

// DetailView is the student-detail projection: one student with the
// full score history in server order.
type DetailView struct {
	Student Student
	Scores  []ScoreRecord
}
