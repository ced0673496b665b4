package services

import (
	"testing"

	"learnplay/models"
)

func TestRegisterAndLogin(t *testing.T) {
	s := NewAuthService(newTestDB(t), "test-secret")

	resp, err := s.Register(&RegisterRequest{
		Email:    "teacher@example.com",
		Password: "hunter2hunter2",
		FullName: "Ms. Frizzle",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if resp.Token == "" {
		t.Error("Register returned an empty token")
	}
	if resp.User.Role != models.RoleTeacher {
		t.Errorf("default role = %q, want teacher", resp.User.Role)
	}
	if resp.User.PasswordHash == "hunter2hunter2" {
		t.Error("password stored in plaintext")
	}

	if _, err := s.Register(&RegisterRequest{
		Email:    "teacher@example.com",
		Password: "hunter2hunter2",
		FullName: "Impostor",
	}); err == nil {
		t.Error("Register accepted a duplicate email")
	}

	login, err := s.Login(&LoginRequest{Email: "teacher@example.com", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.User.ID != resp.User.ID {
		t.Errorf("login user id = %d, want %d", login.User.ID, resp.User.ID)
	}

	if _, err := s.Login(&LoginRequest{Email: "teacher@example.com", Password: "wrong"}); err == nil {
		t.Error("Login accepted a wrong password")
	}
}
