package handlers

import (
	"errors"
	"net/http"

	"learnplay/services"

	"github.com/gin-gonic/gin"
)

// respondError maps service sentinel errors to HTTP statuses. Anything
// unrecognized is treated as a bad request, never a 500: a failed game
// operation leaves the session in its prior state.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest

	switch {
	case errors.Is(err, services.ErrGameNotFound), errors.Is(err, services.ErrQuizNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrNotOwner):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNameTaken),
		errors.Is(err, services.ErrAlreadyAnswered),
		errors.Is(err, services.ErrAlreadyStarted),
		errors.Is(err, services.ErrGameNotWaiting),
		errors.Is(err, services.ErrGameNotActive),
		errors.Is(err, services.ErrSessionClosed):
		status = http.StatusConflict
	case errors.Is(err, services.ErrAnswerExpired):
		status = http.StatusGone
	case errors.Is(err, services.ErrPinExhausted):
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
