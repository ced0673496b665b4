package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"learnplay/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// GameService owns the live session lifecycle: waiting -> active ->
// finished. All mutating operations on one session are serialized by a
// per-session mutex; reads go straight to the last committed state.
type GameService struct {
	db    *gorm.DB
	redis *redis.Client
	locks sync.Map // session id -> *sync.Mutex
}

func NewGameService(db *gorm.DB, redis *redis.Client) *GameService {
	return &GameService{
		db:    db,
		redis: redis,
	}
}

type CreateSessionRequest struct {
	QuizID uint `json:"quiz_id" binding:"required"`
}

type JoinGameRequest struct {
	Name string `json:"name" binding:"required,min=1,max=20"`
}

type SubmitAnswerRequest struct {
	PlayerID       uint  `json:"player_id" binding:"required"`
	QuestionIndex  int   `json:"question_index"`
	SelectedIndex  int   `json:"selected_index"`
	ResponseTimeMs int64 `json:"response_time_ms"`
}

// GameState is the session snapshot cached in Redis and served to
// reconnecting clients. It never contains correct answer indexes.
type GameState struct {
	SessionID            uint          `json:"session_id"`
	QuizID               uint          `json:"quiz_id"`
	Pin                  string        `json:"pin"`
	Status               string        `json:"status"`
	CurrentQuestion      *GameQuestion `json:"current_question,omitempty"`
	CurrentQuestionIndex int           `json:"current_question_index"`
	Players              []GamePlayer  `json:"players"`
	TotalQuestions       int           `json:"total_questions"`
	Deadline             int64         `json:"deadline,omitempty"` // unix ms
}

type GameQuestion struct {
	ID        uint         `json:"id"`
	Text      string       `json:"text"`
	Type      string       `json:"type"`
	TimeLimit int          `json:"time_limit"`
	ImageURL  string       `json:"image_url,omitempty"`
	VideoURL  string       `json:"video_url,omitempty"`
	Options   []GameOption `json:"options"`
}

// GameOption carries no correctness flag: snapshots are visible to
// players mid-question.
type GameOption struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type GamePlayer struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// lockSession serializes mutations for one session id.
func (s *GameService) lockSession(sessionID uint) func() {
	v, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// CreateSession allocates a PIN and opens a waiting lobby for the
// given quiz. Only the quiz owner may host it.
func (s *GameService) CreateSession(hostID uint, req *CreateSessionRequest) (*models.GameSession, error) {
	var quiz models.Quiz
	if err := s.db.Where("id = ? AND user_id = ?", req.QuizID, hostID).
		Preload("Questions").
		First(&quiz).Error; err != nil {
		return nil, ErrQuizNotFound
	}

	if len(quiz.Questions) == 0 {
		return nil, errors.New("quiz has no questions")
	}

	pin, err := AllocatePin(s.db)
	if err != nil {
		return nil, err
	}

	session := models.GameSession{
		QuizID:          req.QuizID,
		HostID:          hostID,
		Pin:             pin,
		Status:          models.SessionStatusWaiting,
		CurrentQuestion: models.NoQuestion,
	}

	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}

	state := &GameState{
		SessionID:            session.ID,
		QuizID:               session.QuizID,
		Pin:                  session.Pin,
		Status:               session.Status,
		CurrentQuestionIndex: models.NoQuestion,
		Players:              []GamePlayer{},
		TotalQuestions:       len(quiz.Questions),
	}
	if err := s.storeGameState(session.Pin, state); err != nil {
		log.Printf("Failed to store game state in Redis: %v", err)
	}

	return &session, nil
}

// Join registers a player in a waiting session and announces it to the
// lobby. Names are unique per session, case-sensitive as typed.
func (s *GameService) Join(pin string, req *JoinGameRequest, hub *Hub) (*models.PlayerSession, error) {
	session, err := s.sessionByPin(pin)
	if err != nil {
		return nil, err
	}

	unlock := s.lockSession(session.ID)
	defer unlock()

	// Re-read under the lock: status may have changed while we waited.
	if err := s.db.First(session, session.ID).Error; err != nil {
		return nil, ErrGameNotFound
	}
	if session.Status != models.SessionStatusWaiting {
		return nil, ErrGameNotWaiting
	}

	var existing models.PlayerSession
	if err := s.db.Where("game_session_id = ? AND name = ?", session.ID, req.Name).
		First(&existing).Error; err == nil {
		return nil, ErrNameTaken
	}

	player := models.PlayerSession{
		GameSessionID: session.ID,
		Name:          req.Name,
		Score:         0,
		JoinedAt:      time.Now(),
	}

	if err := s.db.Create(&player).Error; err != nil {
		return nil, err
	}

	playerCount := s.refreshStatePlayers(session.Pin)

	if hub != nil {
		hub.BroadcastToGame(session.Pin, EventPlayerJoined, PlayerJoinedPayload{
			Player:      GamePlayer{ID: player.ID, Name: player.Name, Score: player.Score},
			PlayerCount: playerCount,
		})
	}

	return &player, nil
}

// Start moves a waiting session to active and opens question 0 with a
// fresh deadline. Repeat calls fail instead of double-starting.
func (s *GameService) Start(pin string, hostID uint, hub *Hub) (*models.GameSession, error) {
	session, err := s.ownedSession(pin, hostID)
	if err != nil {
		return nil, err
	}

	unlock := s.lockSession(session.ID)
	defer unlock()

	if err := s.db.First(session, session.ID).Error; err != nil {
		return nil, ErrGameNotFound
	}
	switch session.Status {
	case models.SessionStatusFinished:
		return nil, ErrSessionClosed
	case models.SessionStatusActive:
		return nil, ErrAlreadyStarted
	}

	var playerCount int64
	if err := s.db.Model(&models.PlayerSession{}).
		Where("game_session_id = ?", session.ID).
		Count(&playerCount).Error; err != nil {
		return nil, err
	}
	if playerCount == 0 {
		return nil, ErrNoPlayers
	}

	questions, err := s.quizQuestions(session.QuizID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	deadline := now.Add(time.Duration(questions[0].TimeLimit) * time.Second)

	updates := map[string]interface{}{
		"status":            models.SessionStatusActive,
		"current_question":  0,
		"question_deadline": deadline,
		"started_at":        now,
	}
	if err := s.db.Model(session).Updates(updates).Error; err != nil {
		return nil, err
	}
	session.Status = models.SessionStatusActive
	session.CurrentQuestion = 0
	session.QuestionDeadline = &deadline
	session.StartedAt = &now

	s.openQuestion(session, &questions[0], 0, len(questions), deadline, hub)

	log.Printf("Game %s started with %d players, %d questions", session.Pin, playerCount, len(questions))
	return session, nil
}

// SubmitAnswer records one player's answer to the current question.
// The deadline is inclusive: an answer landing exactly on it counts.
// Late answers are recorded as incorrect with zero points and rejected
// with ErrAnswerExpired.
func (s *GameService) SubmitAnswer(pin string, req *SubmitAnswerRequest, hub *Hub) (*models.PlayerAnswer, error) {
	session, err := s.sessionByPinAnyStatus(pin)
	if err != nil {
		return nil, err
	}

	unlock := s.lockSession(session.ID)
	defer unlock()

	if err := s.db.First(session, session.ID).Error; err != nil {
		return nil, ErrGameNotFound
	}
	switch session.Status {
	case models.SessionStatusFinished:
		return nil, ErrSessionClosed
	case models.SessionStatusWaiting:
		return nil, ErrGameNotActive
	}

	if req.QuestionIndex != session.CurrentQuestion {
		return nil, ErrWrongQuestion
	}

	questions, err := s.quizQuestions(session.QuizID)
	if err != nil {
		return nil, err
	}
	question := &questions[session.CurrentQuestion]

	var player models.PlayerSession
	if err := s.db.Where("id = ? AND game_session_id = ?", req.PlayerID, session.ID).
		First(&player).Error; err != nil {
		return nil, errors.New("player not found in this game")
	}

	var existing models.PlayerAnswer
	if err := s.db.Where("player_session_id = ? AND question_id = ?", player.ID, question.ID).
		First(&existing).Error; err == nil {
		return nil, ErrAlreadyAnswered
	}

	if req.SelectedIndex < 0 || req.SelectedIndex >= len(question.Options) {
		return nil, ErrInvalidOption
	}

	timeLimitMs := int64(question.TimeLimit) * 1000
	expired := req.ResponseTimeMs > timeLimitMs
	if session.QuestionDeadline != nil && time.Now().After(*session.QuestionDeadline) {
		expired = true
	}

	if expired {
		late := models.PlayerAnswer{
			GameSessionID:   session.ID,
			PlayerSessionID: player.ID,
			QuestionID:      question.ID,
			SelectedIndex:   req.SelectedIndex,
			IsCorrect:       false,
			Points:          0,
			ResponseTimeMs:  int(req.ResponseTimeMs),
		}
		if err := s.db.Create(&late).Error; err != nil {
			return nil, err
		}
		return nil, ErrAnswerExpired
	}

	isCorrect, points := Score(question.Points, req.SelectedIndex, question.CorrectIndex, req.ResponseTimeMs, timeLimitMs)

	answer := models.PlayerAnswer{
		GameSessionID:   session.ID,
		PlayerSessionID: player.ID,
		QuestionID:      question.ID,
		SelectedIndex:   req.SelectedIndex,
		IsCorrect:       isCorrect,
		Points:          points,
		ResponseTimeMs:  int(req.ResponseTimeMs),
	}

	// Answer row and score update land together or not at all.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&answer).Error; err != nil {
			return err
		}
		return tx.Model(&models.PlayerSession{}).Where("id = ?", player.ID).
			Update("score", gorm.Expr("score + ?", points)).Error
	})
	if err != nil {
		return nil, err
	}

	playerCount := s.refreshStatePlayers(session.Pin)

	if hub != nil {
		var answerCount int64
		s.db.Model(&models.PlayerAnswer{}).
			Where("game_session_id = ? AND question_id = ?", session.ID, question.ID).
			Count(&answerCount)

		// Host only: other players must not learn who answered what.
		hub.SendToHost(session.Pin, EventAnswerReceived, AnswerReceivedPayload{
			PlayerID:      player.ID,
			PlayerName:    player.Name,
			QuestionIndex: session.CurrentQuestion,
			AnswerCount:   int(answerCount),
			PlayerCount:   playerCount,
		})
	}

	return &answer, nil
}

// Advance moves an active session to the next question, or finishes it
// when the last question is done.
func (s *GameService) Advance(pin string, hostID uint, hub *Hub) error {
	session, err := s.ownedSession(pin, hostID)
	if err != nil {
		return err
	}

	unlock := s.lockSession(session.ID)
	defer unlock()

	return s.advanceLocked(session.ID, hub)
}

// End finishes a session unconditionally, whatever question it is on.
func (s *GameService) End(pin string, hostID uint, hub *Hub) error {
	session, err := s.ownedSession(pin, hostID)
	if err != nil {
		return err
	}

	unlock := s.lockSession(session.ID)
	defer unlock()

	if err := s.db.First(session, session.ID).Error; err != nil {
		return ErrGameNotFound
	}
	if session.Status == models.SessionStatusFinished {
		return ErrSessionClosed
	}

	questions, err := s.quizQuestions(session.QuizID)
	if err != nil {
		return err
	}

	return s.finishLocked(session, len(questions), hub)
}

// HostDisconnected finishes a session whose host connection dropped,
// so players are not left waiting on a lobby nobody controls.
func (s *GameService) HostDisconnected(pin string, hub *Hub) {
	session, err := s.sessionByPin(pin)
	if err != nil {
		return
	}

	unlock := s.lockSession(session.ID)
	defer unlock()

	if err := s.db.First(session, session.ID).Error; err != nil {
		return
	}
	if session.Status == models.SessionStatusFinished {
		return
	}

	questions, err := s.quizQuestions(session.QuizID)
	if err != nil {
		return
	}

	log.Printf("Host disconnected from game %s, finishing session", pin)
	if err := s.finishLocked(session, len(questions), hub); err != nil {
		log.Printf("Failed to finish game %s after host disconnect: %v", pin, err)
	}
}

// autoAdvance fires from the deadline timer. A stale timer (the host
// already advanced, or the session ended) is a no-op.
func (s *GameService) autoAdvance(sessionID uint, fromIndex int, hub *Hub) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	var session models.GameSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return
	}
	if session.Status != models.SessionStatusActive || session.CurrentQuestion != fromIndex {
		return
	}

	if err := s.advanceLocked(sessionID, hub); err != nil {
		log.Printf("Auto-advance failed for session %d: %v", sessionID, err)
	}
}

// advanceLocked does the actual question progression. Caller holds the
// session lock.
func (s *GameService) advanceLocked(sessionID uint, hub *Hub) error {
	var session models.GameSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return ErrGameNotFound
	}

	switch session.Status {
	case models.SessionStatusFinished:
		return ErrSessionClosed
	case models.SessionStatusWaiting:
		return ErrGameNotActive
	}

	questions, err := s.quizQuestions(session.QuizID)
	if err != nil {
		return err
	}

	next := session.CurrentQuestion + 1
	if next >= len(questions) {
		return s.finishLocked(&session, len(questions), hub)
	}

	deadline := time.Now().Add(time.Duration(questions[next].TimeLimit) * time.Second)
	updates := map[string]interface{}{
		"current_question":  next,
		"question_deadline": deadline,
	}
	if err := s.db.Model(&session).Updates(updates).Error; err != nil {
		return err
	}
	session.CurrentQuestion = next
	session.QuestionDeadline = &deadline

	s.openQuestion(&session, &questions[next], next, len(questions), deadline, hub)
	return nil
}

// openQuestion publishes the started question into the snapshot store,
// broadcasts it, and arms the deadline timer.
func (s *GameService) openQuestion(session *models.GameSession, question *models.Question, index, total int, deadline time.Time, hub *Hub) {
	gq := sanitizeQuestion(question)

	state, err := s.GetCurrentGameState(session.Pin)
	if err != nil {
		log.Printf("Failed to load game state for %s: %v", session.Pin, err)
	} else {
		state.Status = models.SessionStatusActive
		state.CurrentQuestionIndex = index
		state.CurrentQuestion = gq
		state.TotalQuestions = total
		state.Deadline = deadline.UnixMilli()
		if err := s.storeGameState(session.Pin, state); err != nil {
			log.Printf("Failed to store game state for %s: %v", session.Pin, err)
		}
	}

	if hub != nil {
		hub.BroadcastToGame(session.Pin, EventQuestionStarted, QuestionStartedPayload{
			QuestionIndex:  index,
			Question:       gq,
			TotalQuestions: total,
			Deadline:       deadline.UnixMilli(),
			ServerTime:     time.Now().UnixMilli(),
		})
		go s.runQuestionTimer(session.Pin, session.ID, index, deadline, hub)
	}
}

// finishLocked is the single exit to the terminal state. Caller holds
// the session lock.
func (s *GameService) finishLocked(session *models.GameSession, totalQuestions int, hub *Hub) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":            models.SessionStatusFinished,
		"current_question":  totalQuestions,
		"question_deadline": nil,
		"ended_at":          now,
	}
	if err := s.db.Model(session).Updates(updates).Error; err != nil {
		return err
	}

	leaderboard := s.leaderboard(session.ID)

	state, err := s.GetCurrentGameState(session.Pin)
	if err == nil {
		state.Status = models.SessionStatusFinished
		state.CurrentQuestion = nil
		state.CurrentQuestionIndex = totalQuestions
		state.Players = leaderboard
		state.Deadline = 0
		if err := s.storeGameState(session.Pin, state); err != nil {
			log.Printf("Failed to store final game state for %s: %v", session.Pin, err)
		}
	}

	if hub != nil {
		hub.BroadcastToGame(session.Pin, EventGameFinished, GameFinishedPayload{
			Leaderboard:    leaderboard,
			TotalQuestions: totalQuestions,
		})
	}

	log.Printf("Game %s finished", session.Pin)
	return nil
}

// runQuestionTimer ticks down the current question once per second and
// auto-advances when the persisted deadline passes. The snapshot check
// makes a timer left over from a manual advance stop quietly.
func (s *GameService) runQuestionTimer(pin string, sessionID uint, questionIndex int, deadline time.Time, hub *Hub) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for now := range ticker.C {
		state := s.getGameState(pin)
		if state != nil && (state.CurrentQuestionIndex != questionIndex || state.Status != models.SessionStatusActive) {
			return
		}

		if !now.Before(deadline) {
			break
		}

		if hub != nil {
			hub.BroadcastToGame(pin, EventTimerTick, TimerTickPayload{
				QuestionIndex: questionIndex,
				TimeLeft:      int(time.Until(deadline).Round(time.Second) / time.Second),
			})
		}
	}

	s.autoAdvance(sessionID, questionIndex, hub)
}

// ResumeActiveSessions re-arms deadline timers for sessions that were
// mid-question when the process last stopped. Deadlines already in the
// past advance immediately.
func (s *GameService) ResumeActiveSessions(hub *Hub) error {
	var sessions []models.GameSession
	if err := s.db.Where("status = ?", models.SessionStatusActive).Find(&sessions).Error; err != nil {
		return err
	}

	for _, session := range sessions {
		if session.QuestionDeadline == nil {
			continue
		}
		log.Printf("Resuming session %s at question %d (deadline %s)",
			session.Pin, session.CurrentQuestion, session.QuestionDeadline.Format(time.RFC3339))
		go s.runQuestionTimer(session.Pin, session.ID, session.CurrentQuestion, *session.QuestionDeadline, hub)
	}

	return nil
}

// GetCurrentGameState returns the snapshot clients resynchronize from,
// preferring Redis and rebuilding from the database when the cache is
// cold.
func (s *GameService) GetCurrentGameState(pin string) (*GameState, error) {
	state := s.getGameState(pin)
	if state != nil {
		state.Players = s.loadPlayers(state.SessionID)
		return state, nil
	}

	session, err := s.sessionByPinAnyStatus(pin)
	if err != nil {
		return nil, err
	}

	questions, err := s.quizQuestions(session.QuizID)
	if err != nil {
		return nil, err
	}

	state = &GameState{
		SessionID:            session.ID,
		QuizID:               session.QuizID,
		Pin:                  session.Pin,
		Status:               session.Status,
		CurrentQuestionIndex: session.CurrentQuestion,
		Players:              s.loadPlayers(session.ID),
		TotalQuestions:       len(questions),
	}

	if session.Status == models.SessionStatusActive &&
		session.CurrentQuestion >= 0 && session.CurrentQuestion < len(questions) {
		state.CurrentQuestion = sanitizeQuestion(&questions[session.CurrentQuestion])
		if session.QuestionDeadline != nil {
			state.Deadline = session.QuestionDeadline.UnixMilli()
		}
	}

	if err := s.storeGameState(pin, state); err != nil {
		log.Printf("Failed to store rebuilt game state for %s: %v", pin, err)
	}
	return state, nil
}

// GetPlayerByID retrieves a player by their ID.
func (s *GameService) GetPlayerByID(playerID uint) (*models.PlayerSession, error) {
	var player models.PlayerSession
	err := s.db.First(&player, playerID).Error
	return &player, err
}

// PlayerInGame reports whether playerID belongs to the session behind
// pin.
func (s *GameService) PlayerInGame(pin string, playerID uint) bool {
	session, err := s.sessionByPinAnyStatus(pin)
	if err != nil {
		return false
	}
	var count int64
	s.db.Model(&models.PlayerSession{}).
		Where("id = ? AND game_session_id = ?", playerID, session.ID).
		Count(&count)
	return count > 0
}

func (s *GameService) sessionByPin(pin string) (*models.GameSession, error) {
	var session models.GameSession
	if err := s.db.Where("pin = ? AND status <> ?", pin, models.SessionStatusFinished).
		Order("created_at DESC").
		First(&session).Error; err != nil {
		return nil, ErrGameNotFound
	}
	return &session, nil
}

func (s *GameService) sessionByPinAnyStatus(pin string) (*models.GameSession, error) {
	var session models.GameSession
	if err := s.db.Where("pin = ?", pin).
		Order("created_at DESC").
		First(&session).Error; err != nil {
		return nil, ErrGameNotFound
	}
	return &session, nil
}

func (s *GameService) ownedSession(pin string, hostID uint) (*models.GameSession, error) {
	session, err := s.sessionByPinAnyStatus(pin)
	if err != nil {
		return nil, err
	}
	if session.HostID != hostID {
		return nil, ErrNotOwner
	}
	return session, nil
}

func (s *GameService) quizQuestions(quizID uint) ([]models.Question, error) {
	var questions []models.Question
	err := s.db.Where("quiz_id = ?", quizID).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`options."order"`)
		}).
		Order(`questions."order"`).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrQuizNotFound
	}
	return questions, nil
}

func (s *GameService) loadPlayers(sessionID uint) []GamePlayer {
	var players []models.PlayerSession
	s.db.Where("game_session_id = ?", sessionID).Order("joined_at").Find(&players)

	result := make([]GamePlayer, 0, len(players))
	for _, p := range players {
		result = append(result, GamePlayer{ID: p.ID, Name: p.Name, Score: p.Score})
	}
	return result
}

func (s *GameService) leaderboard(sessionID uint) []GamePlayer {
	players := s.loadPlayers(sessionID)
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Score > players[j].Score
	})
	return players
}

// refreshStatePlayers syncs the snapshot's player list with the
// database and returns the player count.
func (s *GameService) refreshStatePlayers(pin string) int {
	state, err := s.GetCurrentGameState(pin)
	if err != nil {
		return 0
	}
	if err := s.storeGameState(pin, state); err != nil {
		log.Printf("Failed to store game state for %s: %v", pin, err)
	}
	return len(state.Players)
}

func sanitizeQuestion(q *models.Question) *GameQuestion {
	gq := &GameQuestion{
		ID:        q.ID,
		Text:      q.Text,
		Type:      q.Type,
		TimeLimit: q.TimeLimit,
		ImageURL:  q.ImageURL,
		VideoURL:  q.VideoURL,
		Options:   make([]GameOption, len(q.Options)),
	}
	// Correct index intentionally omitted while the question is live.
	for i, option := range q.Options {
		gq.Options[i] = GameOption{Index: i, Text: option.Text}
	}
	return gq
}

func (s *GameService) storeGameState(pin string, state *GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	if err := s.redis.Set(context.Background(), "game:"+pin, data, 2*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}
	return nil
}

func (s *GameService) getGameState(pin string) *GameState {
	data, err := s.redis.Get(context.Background(), "game:"+pin).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Redis error getting game state for %s: %v", pin, err)
		}
		return nil
	}

	var state GameState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		log.Printf("Failed to unmarshal game state for %s: %v", pin, err)
		return nil
	}
	return &state
}
