package seed

import (
	"testing"

	identitydomain "github.com/courtsidehq/courtside/internal/identity/domain"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	"github.com/courtsidehq/courtside/pkg/db"
)

func TestEnsureBootstrapCoachIsIdempotent(t *testing.T) {
	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&identitydomain.User{}, &profiledomain.Record{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	if err := EnsureBootstrapCoach(dbConn, "Coach@Example.com", "strong-password"); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := EnsureBootstrapCoach(dbConn, "coach@example.com", "different-password"); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var users int64
	if err := dbConn.Model(&identitydomain.User{}).Count(&users).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if users != 1 {
		t.Fatalf("expected 1 user, got %d", users)
	}

	var profile profiledomain.Record
	if err := dbConn.First(&profile).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.Role != profiledomain.RoleCoach {
		t.Fatalf("expected coach role, got %s", profile.Role)
	}
	if profile.Email != "coach@example.com" {
		t.Fatalf("expected lowercased email, got %s", profile.Email)
	}
}

func TestEnsureBootstrapCoachValidation(t *testing.T) {
	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}

	if err := EnsureBootstrapCoach(dbConn, "", "password"); err == nil {
		t.Fatal("expected error for missing email")
	}
	if err := EnsureBootstrapCoach(dbConn, "coach@example.com", ""); err == nil {
		t.Fatal("expected error for missing password")
	}
}
