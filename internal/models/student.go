package models

// Student represents a learner as returned by the performance API.
// Identifiers are opaque; the backend stores marks as strings.
type Student struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	RollNo    string `json:"rollNo"`
	ClassName string `json:"className"`
}

// ScoreRecord is a single subject mark belonging to one student.
// The server returns records newest-first; the first element is
// treated as the latest score.
type ScoreRecord struct {
	ID        string `json:"_id"`
	StudentID string `json:"studentId"`
	Subject   string `json:"subject"`
	Marks     string `json:"marks"`
}

// Credentials is the login payload sent upstream.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Registration is the account creation payload sent upstream.
type Registration struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// NewStudent carries the add-student form fields.
type NewStudent struct {
	Name      string `json:"name" validate:"required"`
	RollNo    string `json:"rollNo" validate:"required"`
	ClassName string `json:"className" validate:"required"`
}

// NewScore carries the add-score form fields for one student.
type NewScore struct {
	StudentID string `json:"studentId" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
	Marks     string `json:"marks" validate:"required"`
}
