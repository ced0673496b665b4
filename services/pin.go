package services

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"learnplay/models"

	"gorm.io/gorm"
)

// maxPinAttempts bounds PIN generation. With a 10^6 code space a
// collision streak this long means the space is effectively full.
const maxPinAttempts = 100

// AllocatePin draws random 6-digit numeric codes until it finds one not
// held by any waiting or active session. Finished sessions release
// their PIN implicitly: the collision query skips them.
func AllocatePin(db *gorm.DB) (string, error) {
	for i := 0; i < maxPinAttempts; i++ {
		pin, err := randomPin()
		if err != nil {
			return "", err
		}

		free, err := pinAvailable(db, pin)
		if err != nil {
			return "", err
		}
		if free {
			return pin, nil
		}
	}

	return "", ErrPinExhausted
}

// pinAvailable reports whether no waiting or active session holds pin.
func pinAvailable(db *gorm.DB, pin string) (bool, error) {
	var count int64
	err := db.Model(&models.GameSession{}).
		Where("pin = ? AND status <> ?", pin, models.SessionStatusFinished).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func randomPin() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("failed to generate pin: %w", err)
	}
	n := binary.BigEndian.Uint32(buf[:]) % 1000000
	return fmt.Sprintf("%06d", n), nil
}
