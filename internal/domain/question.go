package domain

import (
	"fmt"
	"unicode/utf8"
)

const (
	// MaxQuestionTextLen bounds prompt and response texts, counted in
	// characters, not bytes: ñ and accented vowels are everywhere in this
	// content.
	MaxQuestionTextLen = 128
	// ResponsesPerQuestion is the fixed number of answer options.
	ResponsesPerQuestion = 4
	// MaxQuestions is the largest question list a single game instance holds,
	// one per alphabet letter.
	MaxQuestions = 27
)

// QuestionStatus tracks how the player handled a question. The wire values
// keep the original content-file spelling.
type QuestionStatus string

const (
	StatusInit          QuestionStatus = "init"
	StatusRespondedOK   QuestionStatus = "responsed_ok"
	StatusRespondedFail QuestionStatus = "responsed_fail"
	StatusPassed        QuestionStatus = "passed"
)

// ParseQuestionStatus maps a wire value to a QuestionStatus.
func ParseQuestionStatus(v string) (QuestionStatus, error) {
	switch QuestionStatus(v) {
	case StatusInit, StatusRespondedOK, StatusRespondedFail, StatusPassed:
		return QuestionStatus(v), nil
	}
	return "", fmt.Errorf("%w: unknown question status %q", ErrInvalidQuestion, v)
}

// QuestionLevel is the difficulty of a question.
type QuestionLevel string

const (
	LevelTrivial   QuestionLevel = "trivial"
	LevelEasy      QuestionLevel = "easy"
	LevelDifficult QuestionLevel = "difficult"
)

// ParseQuestionLevel maps a wire value to a QuestionLevel.
func ParseQuestionLevel(v string) (QuestionLevel, error) {
	switch QuestionLevel(v) {
	case LevelTrivial, LevelEasy, LevelDifficult:
		return QuestionLevel(v), nil
	}
	return "", fmt.Errorf("%w: unknown question level %q", ErrInvalidQuestion, v)
}

// Question is an MCQ prompt with exactly four options and one correct index.
// Status records the player's response and only moves forward from init.
type Question struct {
	Text         string         `json:"questionText"`
	Responses    []string       `json:"questionResponsesList"`
	CorrectIndex int            `json:"correctQuestionIndex"`
	Status       QuestionStatus `json:"questionStatus"`
	Level        QuestionLevel  `json:"questionLevel"`
}

// NewQuestion validates and builds a Question with status init.
func NewQuestion(text string, responses []string, correctIndex int, level QuestionLevel) (Question, error) {
	q := Question{
		Text:         text,
		Responses:    responses,
		CorrectIndex: correctIndex,
		Status:       StatusInit,
		Level:        level,
	}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

// Validate checks the structural invariants of a question.
func (q Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("%w: empty question text", ErrInvalidQuestion)
	}
	if utf8.RuneCountInString(q.Text) > MaxQuestionTextLen {
		return fmt.Errorf("%w: question text exceeds %d characters", ErrInvalidQuestion, MaxQuestionTextLen)
	}
	if len(q.Responses) != ResponsesPerQuestion {
		return fmt.Errorf("%w: question needs exactly %d responses, got %d", ErrInvalidQuestion, ResponsesPerQuestion, len(q.Responses))
	}
	for i, r := range q.Responses {
		if r == "" {
			return fmt.Errorf("%w: empty response at index %d", ErrInvalidQuestion, i)
		}
		if utf8.RuneCountInString(r) > MaxQuestionTextLen {
			return fmt.Errorf("%w: response %d exceeds %d characters", ErrInvalidQuestion, i, MaxQuestionTextLen)
		}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Responses) {
		return fmt.Errorf("%w: correct index %d out of range", ErrInvalidQuestion, q.CorrectIndex)
	}
	switch q.Status {
	case StatusInit, StatusRespondedOK, StatusRespondedFail, StatusPassed:
	default:
		return fmt.Errorf("%w: unknown question status %q", ErrInvalidQuestion, q.Status)
	}
	switch q.Level {
	case LevelTrivial, LevelEasy, LevelDifficult:
	default:
		return fmt.Errorf("%w: unknown question level %q", ErrInvalidQuestion, q.Level)
	}
	return nil
}

// IsCorrectIndex reports whether the given option index is the correct one.
func (q Question) IsCorrectIndex(index int) bool {
	return index == q.CorrectIndex
}

// CorrectResponse returns the text of the correct option.
func (q Question) CorrectResponse() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Responses) {
		return ""
	}
	return q.Responses[q.CorrectIndex]
}

// Clone returns a deep copy so a cached question set is never shared
// between game instances.
func (q Question) Clone() Question {
	cp := q
	cp.Responses = make([]string, len(q.Responses))
	copy(cp.Responses, q.Responses)
	return cp
}
