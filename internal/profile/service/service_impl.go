package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/courtsidehq/courtside/internal/profile/domain"
	"github.com/courtsidehq/courtside/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		log:  p.Log.Named("profile.service"),
		repo: p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, id snowflake.ID, input domain.CreateInput) (*domain.Profile, error) {
	if !input.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	if _, err := s.repo.FindByID(ctx, id); err == nil {
		return nil, domain.ErrProfileExists
	} else if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &domain.Record{
		ID:          id,
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Role:        input.Role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	switch input.Role {
	case domain.RoleCoach:
		if org := strings.TrimSpace(input.Organization); org != "" {
			rec.Organization = &org
		}
	case domain.RolePlayer:
		if pos := strings.TrimSpace(input.Position); pos != "" {
			rec.Position = &pos
		}
		rec.CoachID = input.CoachID
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrProfileExists
		}
		return nil, err
	}

	s.log.Info("profile created",
		zap.String("profile_id", rec.ID.String()),
		zap.String("role", string(rec.Role)),
	)
	return domain.FromRecord(rec), nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Profile, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.FromRecord(rec), nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, patch domain.UpdatePatch) (*domain.Profile, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if patch.DisplayName != nil {
		fields["display_name"] = strings.TrimSpace(*patch.DisplayName)
	}
	switch rec.Role {
	case domain.RoleCoach:
		if patch.Organization != nil {
			fields["organization"] = strings.TrimSpace(*patch.Organization)
		}
	case domain.RolePlayer:
		if patch.Position != nil {
			fields["position"] = strings.TrimSpace(*patch.Position)
		}
		if patch.CoachID != nil {
			fields["coach_id"] = *patch.CoachID
		}
	}

	if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
