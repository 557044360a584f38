package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/courtsidehq/courtside/internal/identity/domain"
	identityservice "github.com/courtsidehq/courtside/internal/identity/service"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultCoachDisplay = "Head Coach"

// EnsureBootstrapCoach seeds a coach account for self-hosted installs so the
// app is usable immediately after first start. It is idempotent: an existing
// account with the same email is left untouched.
func EnsureBootstrapCoach(db *gorm.DB, email, password string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.New("seed coach email is required")
	}
	if password == "" {
		return errors.New("seed coach password is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user identitydomain.User
		err := tx.WithContext(ctx).
			Where("provider = ? AND external_id = ?", "local", email).
			First(&user).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			hashed, err := identityservice.HashPassword(password)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			user = identitydomain.User{
				ID:           node.Generate(),
				ExternalID:   email,
				Provider:     "local",
				Email:        email,
				DisplayName:  defaultCoachDisplay,
				PasswordHash: &hashed,
				Metadata:     datatypes.JSONMap{},
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
				return err
			}
		}

		var profile profiledomain.Record
		err = tx.WithContext(ctx).Where("id = ?", user.ID).First(&profile).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			now := time.Now().UTC()
			profile = profiledomain.Record{
				ID:          user.ID,
				Email:       user.Email,
				DisplayName: user.DisplayName,
				Role:        profiledomain.RoleCoach,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.WithContext(ctx).Create(&profile).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
