package services

import (
	"errors"

	"learnplay/models"

	"gorm.io/gorm"
)

type QuizService struct {
	db *gorm.DB
}

func NewQuizService(db *gorm.DB) *QuizService {
	return &QuizService{db: db}
}

type CreateQuizRequest struct {
	Title             string                  `json:"title" binding:"required"`
	Description       string                  `json:"description"`
	ShuffleQuestions  bool                    `json:"shuffle_questions"`
	ShuffleAnswers    bool                    `json:"shuffle_answers"`
	ShowCorrectAnswer bool                    `json:"show_correct_answer"`
	Questions         []CreateQuestionRequest `json:"questions" binding:"required,min=1"`
}

type CreateQuestionRequest struct {
	Text         string   `json:"text" binding:"required"`
	Type         string   `json:"type" binding:"required,oneof=multiple_choice true_false"`
	Options      []string `json:"options" binding:"required,min=2,max=6"`
	CorrectIndex int      `json:"correct_index"`
	TimeLimit    int      `json:"time_limit" binding:"required,min=5,max=300"`
	Points       int      `json:"points" binding:"required,min=1,max=1000"`
	ImageURL     string   `json:"image_url"`
	VideoURL     string   `json:"video_url"`
	Order        int      `json:"order"`
}

type UpdateQuizRequest struct {
	Title             string                  `json:"title"`
	Description       string                  `json:"description"`
	ShuffleQuestions  *bool                   `json:"shuffle_questions"`
	ShuffleAnswers    *bool                   `json:"shuffle_answers"`
	ShowCorrectAnswer *bool                   `json:"show_correct_answer"`
	Questions         []CreateQuestionRequest `json:"questions"`
}

func validateQuestion(req *CreateQuestionRequest) error {
	if req.Type == models.QuestionTypeTrueFalse && len(req.Options) != 2 {
		return errors.New("true_false questions must have exactly two options")
	}
	if req.CorrectIndex < 0 || req.CorrectIndex >= len(req.Options) {
		return errors.New("correct_index must point at one of the options")
	}
	return nil
}

func (s *QuizService) CreateQuiz(userID uint, req *CreateQuizRequest) (*models.Quiz, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	quiz := models.Quiz{
		Title:             req.Title,
		Description:       req.Description,
		UserID:            userID,
		ShuffleQuestions:  req.ShuffleQuestions,
		ShuffleAnswers:    req.ShuffleAnswers,
		ShowCorrectAnswer: req.ShowCorrectAnswer,
	}

	if err := tx.Create(&quiz).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createQuestions(tx, quiz.ID, req.Questions); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.GetQuizByID(quiz.ID, userID)
}

func createQuestions(tx *gorm.DB, quizID uint, reqs []CreateQuestionRequest) error {
	for i, qReq := range reqs {
		if err := validateQuestion(&qReq); err != nil {
			return err
		}

		order := qReq.Order
		if order == 0 {
			order = i + 1
		}

		question := models.Question{
			QuizID:       quizID,
			Text:         qReq.Text,
			Type:         qReq.Type,
			CorrectIndex: qReq.CorrectIndex,
			TimeLimit:    qReq.TimeLimit,
			Points:       qReq.Points,
			ImageURL:     qReq.ImageURL,
			VideoURL:     qReq.VideoURL,
			Order:        order,
		}

		if err := tx.Create(&question).Error; err != nil {
			return err
		}

		for j, text := range qReq.Options {
			option := models.Option{
				QuestionID: question.ID,
				Text:       text,
				Order:      j,
			}
			if err := tx.Create(&option).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *QuizService) GetUserQuizzes(userID uint) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := s.db.Where("user_id = ?", userID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`questions."order"`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`options."order"`)
		}).
		Order("created_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

func (s *QuizService) GetQuizByID(quizID uint, userID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.Where("id = ? AND user_id = ?", quizID, userID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`questions."order"`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`options."order"`)
		}).
		First(&quiz).Error
	if err != nil {
		return nil, ErrQuizNotFound
	}
	return &quiz, nil
}

func (s *QuizService) UpdateQuiz(quizID uint, userID uint, req *UpdateQuizRequest) (*models.Quiz, error) {
	quiz, err := s.GetQuizByID(quizID, userID)
	if err != nil {
		return nil, err
	}

	// A quiz backing a live session is immutable until that session
	// finishes.
	var liveSessions int64
	if err := s.db.Model(&models.GameSession{}).
		Where("quiz_id = ? AND status <> ?", quizID, models.SessionStatusFinished).
		Count(&liveSessions).Error; err != nil {
		return nil, err
	}
	if liveSessions > 0 {
		return nil, errors.New("quiz has a live game session and cannot be edited")
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if req.Title != "" {
		quiz.Title = req.Title
	}
	if req.Description != "" {
		quiz.Description = req.Description
	}
	if req.ShuffleQuestions != nil {
		quiz.ShuffleQuestions = *req.ShuffleQuestions
	}
	if req.ShuffleAnswers != nil {
		quiz.ShuffleAnswers = *req.ShuffleAnswers
	}
	if req.ShowCorrectAnswer != nil {
		quiz.ShowCorrectAnswer = *req.ShowCorrectAnswer
	}

	if err := tx.Save(quiz).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if req.Questions != nil {
		if err := tx.Where("quiz_id = ?", quizID).Delete(&models.Question{}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}

		if err := createQuestions(tx, quiz.ID, req.Questions); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.GetQuizByID(quiz.ID, userID)
}

func (s *QuizService) DeleteQuiz(quizID uint, userID uint) error {
	if _, err := s.GetQuizByID(quizID, userID); err != nil {
		return err
	}

	return s.db.Delete(&models.Quiz{}, quizID).Error
}
