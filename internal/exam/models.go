package exam

import "time"

type Test struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	PassMark int    `json:"pass_mark"` // percent, 0..100
}

type Question struct {
	ID             int64    `json:"id"`
	QuestionNumber int      `json:"question_number"`
	Body           string   `json:"body"`
	Choices        []Choice `json:"choices,omitempty"`
	Tags           []Tag    `json:"tags,omitempty"`
}

type Choice struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Body       string `json:"body"`
	IsCorrect  bool   `json:"is_correct"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Examination is one persisted attempt by one user at one test. It is
// created only through the atomic submission pipeline, never directly.
type Examination struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	TestID      int64     `json:"test_id"`
	AttemptDate time.Time `json:"attempt_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserResponse records a single (examination, choice) selection.
type UserResponse struct {
	ID            int64 `json:"id"`
	ExaminationID int64 `json:"examination_id"`
	ChoiceID      int64 `json:"choice_id"`
}

// Score is the derived evaluation of an Examination. Immutable once created;
// owned exclusively by its examination.
type Score struct {
	ID            int64 `json:"id"`
	ExaminationID int64 `json:"examination_id"`
	CorrectCount  int   `json:"correct_count"`
	TotalCount    int   `json:"total_count"`
	Passed        bool  `json:"passed"`
}
