package handlers

import (
	"fmt"
	"net/http"

	"learnplay/services"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

type GameHandler struct {
	gameService *services.GameService
	hub         *services.Hub
	publicURL   string
}

func NewGameHandler(gameService *services.GameService, hub *services.Hub, publicURL string) *GameHandler {
	return &GameHandler{
		gameService: gameService,
		hub:         hub,
		publicURL:   publicURL,
	}
}

func (h *GameHandler) CreateSession(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req services.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.gameService.CreateSession(userID.(uint), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (h *GameHandler) JoinGame(c *gin.Context) {
	pin := c.Param("pin")
	if !validPin(pin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Game PIN must be 6 digits"})
		return
	}

	var req services.JoinGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := h.gameService.Join(pin, &req, h.hub)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, player)
}

// GetGameState serves the session snapshot clients render and
// reconcile against. It never contains correct answers.
func (h *GameHandler) GetGameState(c *gin.Context) {
	pin := c.Param("pin")
	if !validPin(pin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Game PIN must be 6 digits"})
		return
	}

	state, err := h.gameService.GetCurrentGameState(pin)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *GameHandler) SubmitAnswer(c *gin.Context) {
	pin := c.Param("pin")
	if !validPin(pin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Game PIN must be 6 digits"})
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.gameService.SubmitAnswer(pin, &req, h.hub)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, answer)
}

func (h *GameHandler) StartGame(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	pin := c.Param("pin")
	session, err := h.gameService.Start(pin, userID.(uint), h.hub)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Game started", "session": session})
}

func (h *GameHandler) NextQuestion(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	pin := c.Param("pin")
	if err := h.gameService.Advance(pin, userID.(uint), h.hub); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Advanced to next question"})
}

func (h *GameHandler) EndGame(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	pin := c.Param("pin")
	if err := h.gameService.End(pin, userID.(uint), h.hub); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Game ended"})
}

func (h *GameHandler) GetSessionStats(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	pin := c.Param("pin")
	stats, err := h.gameService.GetSessionStats(pin, userID.(uint))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetJoinQR renders a PNG QR code pointing at the join page for a PIN,
// for the lobby screen the host projects.
func (h *GameHandler) GetJoinQR(c *gin.Context) {
	pin := c.Param("pin")
	if !validPin(pin) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Game PIN must be 6 digits"})
		return
	}

	if _, err := h.gameService.GetCurrentGameState(pin); err != nil {
		respondError(c, err)
		return
	}

	joinURL := fmt.Sprintf("%s/join?pin=%s", h.publicURL, pin)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func validPin(pin string) bool {
	if len(pin) != 6 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
