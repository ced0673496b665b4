package services

import (
	"testing"

	"learnplay/models"
)

func newTestQuizService(t *testing.T) (*QuizService, uint) {
	t.Helper()
	db := newTestDB(t)

	user := models.User{Email: "t@example.com", PasswordHash: "x", FullName: "T", Role: models.RoleTeacher}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return NewQuizService(db), user.ID
}

func validQuizRequest() *CreateQuizRequest {
	return &CreateQuizRequest{
		Title: "Capitals",
		Questions: []CreateQuestionRequest{
			{
				Text:         "Capital of France?",
				Type:         models.QuestionTypeMultipleChoice,
				Options:      []string{"London", "Paris", "Berlin", "Madrid"},
				CorrectIndex: 1,
				TimeLimit:    30,
				Points:       100,
			},
			{
				Text:         "The earth is flat.",
				Type:         models.QuestionTypeTrueFalse,
				Options:      []string{"True", "False"},
				CorrectIndex: 1,
				TimeLimit:    15,
				Points:       50,
			},
		},
	}
}

func TestCreateQuizPersistsQuestionsInOrder(t *testing.T) {
	s, userID := newTestQuizService(t)

	quiz, err := s.CreateQuiz(userID, validQuizRequest())
	if err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}

	if len(quiz.Questions) != 2 {
		t.Fatalf("quiz has %d questions, want 2", len(quiz.Questions))
	}
	if quiz.Questions[0].Text != "Capital of France?" {
		t.Errorf("first question = %q, wrong order", quiz.Questions[0].Text)
	}
	if len(quiz.Questions[0].Options) != 4 {
		t.Errorf("question has %d options, want 4", len(quiz.Questions[0].Options))
	}
	if quiz.Questions[0].Options[1].Text != "Paris" {
		t.Errorf("options out of order: %+v", quiz.Questions[0].Options)
	}
}

func TestCreateQuizRejectsBadCorrectIndex(t *testing.T) {
	s, userID := newTestQuizService(t)

	req := validQuizRequest()
	req.Questions[0].CorrectIndex = 4

	if _, err := s.CreateQuiz(userID, req); err == nil {
		t.Error("CreateQuiz accepted out-of-range correct index")
	}
}

func TestCreateQuizRejectsTrueFalseWithExtraOptions(t *testing.T) {
	s, userID := newTestQuizService(t)

	req := validQuizRequest()
	req.Questions[1].Options = []string{"True", "False", "Maybe"}

	if _, err := s.CreateQuiz(userID, req); err == nil {
		t.Error("CreateQuiz accepted a true_false question with three options")
	}
}

func TestUpdateQuizBlockedWhileSessionLive(t *testing.T) {
	s, userID := newTestQuizService(t)

	quiz, err := s.CreateQuiz(userID, validQuizRequest())
	if err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}

	session := models.GameSession{
		QuizID: quiz.ID,
		HostID: userID,
		Pin:    "111111",
		Status: models.SessionStatusActive,
	}
	if err := s.db.Create(&session).Error; err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if _, err := s.UpdateQuiz(quiz.ID, userID, &UpdateQuizRequest{Title: "New"}); err == nil {
		t.Error("UpdateQuiz succeeded while a session was live")
	}

	if err := s.db.Model(&session).Update("status", models.SessionStatusFinished).Error; err != nil {
		t.Fatalf("failed to finish session: %v", err)
	}
	if _, err := s.UpdateQuiz(quiz.ID, userID, &UpdateQuizRequest{Title: "New"}); err != nil {
		t.Errorf("UpdateQuiz after session finished failed: %v", err)
	}
}

func TestQuizOwnershipEnforced(t *testing.T) {
	s, userID := newTestQuizService(t)

	quiz, err := s.CreateQuiz(userID, validQuizRequest())
	if err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}

	if _, err := s.GetQuizByID(quiz.ID, userID+1); err == nil {
		t.Error("GetQuizByID returned another user's quiz")
	}
	if err := s.DeleteQuiz(quiz.ID, userID+1); err == nil {
		t.Error("DeleteQuiz deleted another user's quiz")
	}
}
