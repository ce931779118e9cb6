package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sakif/projectdesk/internal/apperror"
	"github.com/sakif/projectdesk/internal/model"
	"github.com/sakif/projectdesk/internal/repository"
)

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Email:        "ana@example.com",
		Username:     "ana",
		PasswordHash: "hash",
		Roles:        []string{"ROLE_USER", "ROLE_ADMIN"},
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.ID == 0 {
		t.Fatal("CreateUser() did not set user.ID")
	}

	found, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if found.Email != "ana@example.com" || found.Username != "ana" {
		t.Errorf("got %+v, want email/username ana@example.com/ana", found)
	}
	if len(found.Roles) != 2 || found.Roles[1] != "ROLE_ADMIN" {
		t.Errorf("Roles = %v, want [ROLE_USER ROLE_ADMIN]", found.Roles)
	}
	if found.PasswordHash != "hash" {
		t.Errorf("PasswordHash = %q, want %q", found.PasswordHash, "hash")
	}
}

func TestUserCreate_EmptyRolesRoundTrip(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Email: "x@example.com", Username: "x", PasswordHash: "h"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	found, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if len(found.Roles) != 0 {
		t.Errorf("Roles = %v, want empty", found.Roles)
	}
}

func TestUserCreate_DuplicateEmailMapsToConflict(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "dup@example.com", "first")

	err := db.CreateUser(context.Background(), &model.User{
		Email: "dup@example.com", Username: "second", PasswordHash: "h",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("CreateUser() error = %v, want ErrConflict", err)
	}
	if code := apperror.CodeOf(err); code != apperror.CodeDuplicateEmail {
		t.Errorf("code = %q, want %q", code, apperror.CodeDuplicateEmail)
	}
}

func TestUserCreate_DuplicateUsernameMapsToConflict(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "one@example.com", "same")

	err := db.CreateUser(context.Background(), &model.User{
		Email: "two@example.com", Username: "same", PasswordHash: "h",
	})
	if code := apperror.CodeOf(err); code != apperror.CodeDuplicateUsername {
		t.Errorf("code = %q, want %q (err = %v)", code, apperror.CodeDuplicateUsername, err)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), 999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserFindByEmailAndUsername(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "find@example.com", "finder")

	byEmail, err := db.FindUserByEmail(context.Background(), "find@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail() error = %v", err)
	}
	if byEmail.ID != created.ID {
		t.Errorf("FindUserByEmail() ID = %d, want %d", byEmail.ID, created.ID)
	}

	byName, err := db.FindUserByUsername(context.Background(), "finder")
	if err != nil {
		t.Fatalf("FindUserByUsername() error = %v", err)
	}
	if byName.ID != created.ID {
		t.Errorf("FindUserByUsername() ID = %d, want %d", byName.ID, created.ID)
	}

	// Exact match only: no case folding.
	if _, err := db.FindUserByEmail(context.Background(), "FIND@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("FindUserByEmail(upper) error = %v, want ErrNotFound", err)
	}
}

func TestUserList_Window(t *testing.T) {
	db := newTestDB(t)
	for i := 1; i <= 25; i++ {
		createTestUser(t, db, fmt.Sprintf("u%02d@example.com", i), fmt.Sprintf("u%02d", i))
	}

	users, err := db.ListUsers(context.Background(), repository.ListOptions{Limit: 10, Offset: 10})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 10 {
		t.Fatalf("len = %d, want 10", len(users))
	}
	if users[0].Username != "u11" || users[9].Username != "u20" {
		t.Errorf("window = %s..%s, want u11..u20", users[0].Username, users[9].Username)
	}

	tail, err := db.ListUsers(context.Background(), repository.ListOptions{Limit: 10, Offset: 20})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(tail) != 5 {
		t.Errorf("tail len = %d, want 5", len(tail))
	}
}

func TestUserUpdate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "old@example.com", "old")

	user.Email = "new@example.com"
	user.Roles = []string{"ROLE_ADMIN"}
	if err := db.UpdateUser(context.Background(), user); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	found, _ := db.GetUserByID(context.Background(), user.ID)
	if found.Email != "new@example.com" {
		t.Errorf("Email = %q, want %q", found.Email, "new@example.com")
	}
	if len(found.Roles) != 1 || found.Roles[0] != "ROLE_ADMIN" {
		t.Errorf("Roles = %v, want [ROLE_ADMIN]", found.Roles)
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateUser(context.Background(), &model.User{ID: 404, Email: "a@b.c", Username: "a"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateUser() error = %v, want ErrNotFound", err)
	}
}

func TestUserDelete(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "del@example.com", "del")

	if err := db.DeleteUser(context.Background(), user.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if _, err := db.GetUserByID(context.Background(), user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete, GetUserByID() error = %v, want ErrNotFound", err)
	}
	if err := db.DeleteUser(context.Background(), user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteUser() error = %v, want ErrNotFound", err)
	}
}
