package services

import (
	"errors"
	"testing"
)

func TestStatsAggregation(t *testing.T) {
	s := newTestGameService(t)
	session, hostID := createWaitingSession(t, s, 2)
	alice := mustJoin(t, s, session.Pin, "alice")
	bob := mustJoin(t, s, session.Pin, "bob")
	mustStart(t, s, session.Pin, hostID)

	// Question 0: alice correct, bob wrong.
	submit(t, s, session.Pin, alice.ID, 0, 2, 5000)
	submit(t, s, session.Pin, bob.ID, 0, 1, 7000)
	if err := s.Advance(session.Pin, hostID, nil); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	// Question 1: only alice answers.
	submit(t, s, session.Pin, alice.ID, 1, 2, 3000)
	if err := s.Advance(session.Pin, hostID, nil); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	stats, err := s.GetSessionStats(session.Pin, hostID)
	if err != nil {
		t.Fatalf("GetSessionStats failed: %v", err)
	}

	if stats.TotalPlayers != 2 {
		t.Errorf("total players = %d, want 2", stats.TotalPlayers)
	}
	if stats.AverageScore == nil {
		t.Fatal("average score is nil with players present")
	}
	if stats.CompletionRate != 0.5 {
		t.Errorf("completion rate = %v, want 0.5", stats.CompletionRate)
	}
	if len(stats.Questions) != 2 {
		t.Fatalf("question stats count = %d, want 2", len(stats.Questions))
	}

	q0 := stats.Questions[0]
	if q0.TotalResponses != 2 || q0.CorrectResponses != 1 {
		t.Errorf("q0 responses = %d/%d correct, want 2/1", q0.TotalResponses, q0.CorrectResponses)
	}
	if q0.AverageResponseTimeMs == nil || *q0.AverageResponseTimeMs != 6000 {
		t.Errorf("q0 average response time = %v, want 6000", q0.AverageResponseTimeMs)
	}
	if q0.AnswerDistribution[2] != 1 || q0.AnswerDistribution[1] != 1 {
		t.Errorf("q0 answer distribution = %v, want one answer each at 1 and 2", q0.AnswerDistribution)
	}

	q1 := stats.Questions[1]
	if q1.TotalResponses != 1 || q1.CorrectResponses != 1 {
		t.Errorf("q1 responses = %d/%d correct, want 1/1", q1.TotalResponses, q1.CorrectResponses)
	}
}

func TestStatsZeroRespondentsReportNilAverage(t *testing.T) {
	s := newTestGameService(t)
	session, hostID := createWaitingSession(t, s, 1)
	mustJoin(t, s, session.Pin, "alice")
	mustStart(t, s, session.Pin, hostID)
	if err := s.End(session.Pin, hostID, nil); err != nil {
		t.Fatalf("End failed: %v", err)
	}

	stats, err := s.GetSessionStats(session.Pin, hostID)
	if err != nil {
		t.Fatalf("GetSessionStats failed: %v", err)
	}

	q := stats.Questions[0]
	if q.TotalResponses != 0 || q.CorrectResponses != 0 {
		t.Errorf("unanswered question reports %d/%d responses, want 0/0", q.TotalResponses, q.CorrectResponses)
	}
	if q.AverageResponseTimeMs != nil {
		t.Errorf("unanswered question average = %v, want nil", *q.AverageResponseTimeMs)
	}
	if stats.CompletionRate != 0 {
		t.Errorf("completion rate = %v, want 0", stats.CompletionRate)
	}
}

func TestStatsHostOnly(t *testing.T) {
	s := newTestGameService(t)
	session, _ := createWaitingSession(t, s, 1)

	_, err := s.GetSessionStats(session.Pin, 9999)
	if !errors.Is(err, ErrNotOwner) {
		t.Errorf("GetSessionStats by non-host = %v, want ErrNotOwner", err)
	}
}

func submit(t *testing.T, s *GameService, pin string, playerID uint, questionIndex, selected int, rtMs int64) {
	t.Helper()
	_, err := s.SubmitAnswer(pin, &SubmitAnswerRequest{
		PlayerID:       playerID,
		QuestionIndex:  questionIndex,
		SelectedIndex:  selected,
		ResponseTimeMs: rtMs,
	}, nil)
	if err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
}
