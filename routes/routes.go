package routes

import (
	"fmt"
	"log"
	"net/http"

	"learnplay/handlers"
	"learnplay/middleware"
	"learnplay/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	quizHandler *handlers.QuizHandler,
	gameHandler *handlers.GameHandler,
	hub *services.Hub,
	gameService *services.GameService,
	jwtSecret string,
) {
	// API routes
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			// User profile
			protected.GET("/auth/profile", authHandler.GetProfile)

			// Quiz routes
			quizzes := protected.Group("/quizzes")
			{
				quizzes.GET("", quizHandler.GetUserQuizzes)
				quizzes.POST("", quizHandler.CreateQuiz)
				quizzes.GET("/:id", quizHandler.GetQuizByID)
				quizzes.PUT("/:id", quizHandler.UpdateQuiz)
				quizzes.DELETE("/:id", quizHandler.DeleteQuiz)
			}

			// Host-side game routes
			games := protected.Group("/games")
			{
				games.POST("", gameHandler.CreateSession)
				games.POST("/:pin/start", gameHandler.StartGame)
				games.POST("/:pin/next", gameHandler.NextQuestion)
				games.POST("/:pin/end", gameHandler.EndGame)
				games.GET("/:pin/stats", gameHandler.GetSessionStats)
			}
		}

		// Public game routes
		games := api.Group("/games")
		{
			games.POST("/:pin/join", gameHandler.JoinGame)
			games.GET("/:pin", gameHandler.GetGameState)
			games.POST("/:pin/answer", gameHandler.SubmitAnswer)
			games.GET("/:pin/qr", gameHandler.GetJoinQR)
		}
	}

	// WebSocket endpoint for real-time game communication. Player ID 0
	// identifies the host connection.
	router.GET("/ws/:gamePin/:playerID", func(c *gin.Context) {
		gamePin := c.Param("gamePin")
		playerIDStr := c.Param("playerID")
		playerName := c.Query("playerName")

		var playerID uint
		if _, err := fmt.Sscanf(playerIDStr, "%d", &playerID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid player ID"})
			return
		}

		if err := validateSubscriber(gameService, gamePin, playerID); err != nil {
			log.Printf("Subscriber validation failed for game %s, player %d: %v", gamePin, playerID, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Player not found in game"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for game %s, player %d: %v", gamePin, playerID, err)
			return
		}

		if playerName == "" && playerID != 0 {
			if player, err := gameService.GetPlayerByID(playerID); err == nil {
				playerName = player.Name
			}
		}

		hub.RegisterClient(conn, gamePin, playerID, playerName)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// validateSubscriber checks that the connecting party belongs to the
// game: either a registered player or the host (player ID 0).
func validateSubscriber(gameService *services.GameService, gamePin string, playerID uint) error {
	if playerID == 0 {
		state, err := gameService.GetCurrentGameState(gamePin)
		if err != nil || state == nil {
			return fmt.Errorf("game %s not found", gamePin)
		}
		return nil
	}

	if !gameService.PlayerInGame(gamePin, playerID) {
		return fmt.Errorf("player %d not found in game %s", playerID, gamePin)
	}
	return nil
}
