package services

import (
	"testing"

	"learnplay/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// In-memory sqlite: one connection, or the pool sees separate DBs.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Quiz{},
		&models.Question{},
		&models.Option{},
		&models.GameSession{},
		&models.PlayerSession{},
		&models.PlayerAnswer{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func newTestGameService(t *testing.T) *GameService {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return NewGameService(newTestDB(t), rdb)
}

// seedQuiz creates a teacher account plus a quiz with the given
// questions and returns (hostID, quizID). Every question gets four
// options with the requested correct index.
func seedQuiz(t *testing.T, db *gorm.DB, questions []models.Question) (uint, uint) {
	t.Helper()

	user := models.User{
		Email:        "teacher@example.com",
		PasswordHash: "x",
		FullName:     "Test Teacher",
		Role:         models.RoleTeacher,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	quiz := models.Quiz{Title: "Test Quiz", UserID: user.ID, ShowCorrectAnswer: true}
	if err := db.Create(&quiz).Error; err != nil {
		t.Fatalf("failed to create quiz: %v", err)
	}

	for i := range questions {
		questions[i].QuizID = quiz.ID
		if questions[i].Order == 0 {
			questions[i].Order = i + 1
		}
		if questions[i].Type == "" {
			questions[i].Type = models.QuestionTypeMultipleChoice
		}
		if err := db.Create(&questions[i]).Error; err != nil {
			t.Fatalf("failed to create question: %v", err)
		}
		for j := 0; j < 4; j++ {
			option := models.Option{
				QuestionID: questions[i].ID,
				Text:       "option",
				Order:      j,
			}
			if err := db.Create(&option).Error; err != nil {
				t.Fatalf("failed to create option: %v", err)
			}
		}
	}

	return user.ID, quiz.ID
}

func defaultQuestions(n int) []models.Question {
	questions := make([]models.Question, n)
	for i := range questions {
		questions[i] = models.Question{
			Text:         "question",
			CorrectIndex: 2,
			TimeLimit:    30,
			Points:       100,
		}
	}
	return questions
}
