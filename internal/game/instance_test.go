package game_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
	"github.com/trutoman/Apalabrazos-sub000/internal/game"
)

func buildQuestions(t *testing.T, n int) []domain.Question {
	t.Helper()
	qs := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		q, err := domain.NewQuestion(
			fmt.Sprintf("question %d", i+1),
			[]string{"a", "b", "c", "d"},
			2,
			domain.LevelEasy,
		)
		if err != nil {
			t.Fatalf("building question %d: %v", i, err)
		}
		qs = append(qs, q)
	}
	return qs
}

func playingInstance(t *testing.T, n int) *game.Instance {
	t.Helper()
	inst := game.NewInstance(240)
	if err := inst.SetQuestions(buildQuestions(t, n)); err != nil {
		t.Fatalf("setting questions: %v", err)
	}
	inst.Start()
	return inst
}

func TestApplyCorrectAnswer(t *testing.T) {
	inst := playingInstance(t, 3)

	outcome, err := inst.Apply(2)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if outcome.Status != domain.StatusRespondedOK {
		t.Fatalf("status = %s, want responded_ok", outcome.Status)
	}
	if outcome.Letter != "a" || outcome.QuestionIndex != 0 {
		t.Fatalf("outcome positions: letter %q index %d", outcome.Letter, outcome.QuestionIndex)
	}
	if outcome.Correct != 1 || outcome.Incorrect != 0 || outcome.Passed != 0 {
		t.Fatalf("totals = %d/%d/%d", outcome.Correct, outcome.Incorrect, outcome.Passed)
	}
	if outcome.Next == nil || outcome.Next.Text != "question 2" {
		t.Fatalf("expected next question 2, got %+v", outcome.Next)
	}
	if inst.CurrentIndex() != 1 {
		t.Fatalf("index did not advance: %d", inst.CurrentIndex())
	}
}

func TestApplyWrongAnswer(t *testing.T) {
	inst := playingInstance(t, 2)

	outcome, err := inst.Apply(0)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if outcome.Status != domain.StatusRespondedFail {
		t.Fatalf("status = %s, want responsed_fail", outcome.Status)
	}
	if outcome.CorrectResponse != "c" {
		t.Fatalf("correct response = %q, want c", outcome.CorrectResponse)
	}
	if outcome.Incorrect != 1 {
		t.Fatalf("incorrect total = %d, want 1", outcome.Incorrect)
	}
}

func TestApplyNoAnswerPasses(t *testing.T) {
	inst := playingInstance(t, 2)

	outcome, err := inst.Apply(game.NoAnswer)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if outcome.Status != domain.StatusPassed {
		t.Fatalf("status = %s, want passed", outcome.Status)
	}
	if outcome.Passed != 1 || outcome.Correct != 0 {
		t.Fatalf("totals = %d correct, %d passed", outcome.Correct, outcome.Passed)
	}
}

func TestApplyExhaustsList(t *testing.T) {
	inst := playingInstance(t, 1)

	outcome, err := inst.Apply(2)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if outcome.Next != nil {
		t.Fatalf("expected no next question, got %+v", outcome.Next)
	}
	if _, err := inst.Apply(2); !errors.Is(err, domain.ErrNoActiveQuestion) {
		t.Fatalf("expected ErrNoActiveQuestion, got %v", err)
	}
}

func TestApplyRequiresPlaying(t *testing.T) {
	inst := game.NewInstance(240)
	if err := inst.SetQuestions(buildQuestions(t, 1)); err != nil {
		t.Fatalf("setting questions: %v", err)
	}
	if _, err := inst.Apply(2); err == nil {
		t.Fatal("expected apply on a pending instance to fail")
	}

	inst.Start()
	inst.Pause()
	if _, err := inst.Apply(2); err == nil {
		t.Fatal("expected apply on a paused instance to fail")
	}
	inst.Resume()
	if _, err := inst.Apply(2); err != nil {
		t.Fatalf("apply after resume failed: %v", err)
	}
}

func TestSetQuestionsOnlyWhilePending(t *testing.T) {
	inst := playingInstance(t, 1)
	if err := inst.SetQuestions(buildQuestions(t, 1)); err == nil {
		t.Fatal("expected loading questions on a started instance to fail")
	}
}

func TestSetQuestionsCapped(t *testing.T) {
	inst := game.NewInstance(240)
	if err := inst.SetQuestions(buildQuestions(t, domain.MaxQuestions+1)); !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
}

func TestTickDownStopsWhilePaused(t *testing.T) {
	inst := playingInstance(t, 1)
	inst.TickDown()
	inst.TickDown()
	if inst.Remaining() != 238 {
		t.Fatalf("remaining = %d, want 238", inst.Remaining())
	}

	inst.Pause()
	inst.TickDown()
	if inst.Remaining() != 238 {
		t.Fatalf("paused instance lost time: %d", inst.Remaining())
	}
}

func TestRecordSnapshotsTotals(t *testing.T) {
	inst := playingInstance(t, 3)
	inst.TickDown()
	if _, err := inst.Apply(2); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, err := inst.Apply(0); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, err := inst.Apply(game.NoAnswer); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	inst.Finish()

	rec := inst.Record()
	want := domain.GameRecord{Correct: 1, Incorrect: 1, Passed: 1, TotalTime: 1}
	if rec != want {
		t.Fatalf("record = %+v, want %+v", rec, want)
	}
}
