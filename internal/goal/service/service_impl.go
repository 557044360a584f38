package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	activitydomain "github.com/courtsidehq/courtside/internal/activity/domain"
	"github.com/courtsidehq/courtside/internal/goal/domain"
	"github.com/courtsidehq/courtside/internal/principalctx"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	"github.com/courtsidehq/courtside/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Activity activitydomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	activity activitydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("goal.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		activity: p.Activity,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}

	playerID := principal.UserID.Int64()
	var coachIDPtr *int64
	if principal.Role == profiledomain.RoleCoach {
		if req.PlayerID == nil || strings.TrimSpace(*req.PlayerID) == "" {
			return nil, domain.ErrInvalidID
		}
		parsed, err := snowflake.ParseString(strings.TrimSpace(*req.PlayerID))
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		playerID = parsed.Int64()
		coachID := principal.UserID.Int64()
		coachIDPtr = &coachID
	}

	description := strings.TrimSpace(ptrToString(req.Description))
	var descriptionPtr *string
	if description != "" {
		descriptionPtr = &description
	}

	now := time.Now().UTC()
	g := &domain.Goal{
		ID:          s.genID.Generate().Int64(),
		PlayerID:    playerID,
		CoachID:     coachIDPtr,
		Title:       title,
		Description: descriptionPtr,
		TargetDate:  req.TargetDate,
		Status:      string(domain.StatusOpen),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, s.db, g); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, principal, "goal.created", g.ID)

	resp := toResponse(g)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	goal, err := s.accessibleGoal(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	resp := toResponse(goal)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.ListResponse{}, domain.ErrInvalidActor
	}

	if status := strings.TrimSpace(req.Status); status != "" && !domain.Status(status).Valid() {
		return domain.ListResponse{}, domain.ErrInvalidStatus
	}

	var (
		items []*domain.Goal
		err   error
	)
	if principal.Role == profiledomain.RoleCoach {
		items, err = s.repo.ListByCoach(ctx, s.db, principal.UserID.Int64(), req)
	} else {
		items, err = s.repo.ListByPlayer(ctx, s.db, principal.UserID.Int64(), req)
	}
	if err != nil {
		return domain.ListResponse{}, err
	}

	return buildListResponse(items, req.Pagination), nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	goal, err := s.accessibleGoal(ctx, principal, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		goal.Title = title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			goal.Description = nil
		} else {
			goal.Description = &description
		}
	}
	if req.TargetDate != nil {
		goal.TargetDate = req.TargetDate
	}
	if req.Status != nil {
		next := domain.Status(strings.TrimSpace(*req.Status))
		if !next.Valid() {
			return nil, domain.ErrInvalidStatus
		}
		current := domain.Status(goal.Status)
		if next != current {
			if !current.CanTransition(next) {
				return nil, domain.ErrInvalidTransition
			}
			goal.Status = string(next)
		}
	}

	goal.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, goal); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, principal, "goal.updated", goal.ID)

	resp := toResponse(goal)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.ErrInvalidActor
	}

	goal, err := s.accessibleGoal(ctx, principal, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, s.db, goal.ID); err != nil {
		return err
	}

	s.recordActivity(ctx, principal, "goal.deleted", goal.ID)
	return nil
}

func (s *Service) AddProgress(ctx context.Context, req domain.AddProgressRequest) (*domain.ProgressResponse, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	goal, err := s.accessibleGoal(ctx, principal, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Percent < 0 || req.Percent > 100 {
		return nil, domain.ErrInvalidPercent
	}

	comment := strings.TrimSpace(ptrToString(req.Comment))
	var commentPtr *string
	if comment != "" {
		commentPtr = &comment
	}

	entry := &domain.ProgressEntry{
		ID:         s.genID.Generate().Int64(),
		GoalID:     goal.ID,
		Percent:    req.Percent,
		Comment:    commentPtr,
		RecordedAt: time.Now().UTC(),
	}
	if err := s.repo.AddProgress(ctx, s.db, entry); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, principal, "goal.progress_added", goal.ID)

	resp := toProgressResponse(entry)
	return &resp, nil
}

func (s *Service) ListProgress(ctx context.Context, id string) ([]domain.ProgressResponse, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	goal, err := s.accessibleGoal(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.ListProgress(ctx, s.db, goal.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.ProgressResponse, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		resp = append(resp, toProgressResponse(entry))
	}
	return resp, nil
}

// accessibleGoal resolves a goal the caller owns as player or created as coach.
func (s *Service) accessibleGoal(ctx context.Context, principal principalctx.Principal, id string) (*domain.Goal, error) {
	goalID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	goal, err := s.repo.FindByID(ctx, s.db, goalID.Int64())
	if err != nil {
		return nil, err
	}
	if goal == nil {
		return nil, domain.ErrNotFound
	}

	callerID := principal.UserID.Int64()
	if goal.PlayerID == callerID {
		return goal, nil
	}
	if goal.CoachID != nil && *goal.CoachID == callerID {
		return goal, nil
	}
	return nil, domain.ErrNotFound
}

func (s *Service) recordActivity(ctx context.Context, principal principalctx.Principal, action string, goalID int64) {
	if s.activity == nil {
		return
	}
	targetID := snowflake.ID(goalID).String()
	if err := s.activity.Record(ctx, principal.UserID, string(principal.Role), action, "goal", &targetID, nil); err != nil {
		s.log.Warn("failed to record goal activity", zap.String("action", action), zap.Error(err))
	}
}

func buildListResponse(items []*domain.Goal, page pagination.Pagination) domain.ListResponse {
	size := page.PageSize
	if size <= 0 {
		size = 10
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(size), func(item *domain.Goal) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        snowflake.ID(item.ID).String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > size {
		items = items[:size]
	}

	goals := make([]domain.Response, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		goals = append(goals, toResponse(item))
	}

	resp := domain.ListResponse{Goals: goals}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp
}

func toResponse(g *domain.Goal) domain.Response {
	resp := domain.Response{
		ID:          snowflake.ID(g.ID).String(),
		PlayerID:    snowflake.ID(g.PlayerID).String(),
		Title:       g.Title,
		Description: g.Description,
		TargetDate:  g.TargetDate,
		Status:      g.Status,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
	if g.CoachID != nil {
		coachID := snowflake.ID(*g.CoachID).String()
		resp.CoachID = &coachID
	}
	return resp
}

func toProgressResponse(entry *domain.ProgressEntry) domain.ProgressResponse {
	return domain.ProgressResponse{
		ID:         snowflake.ID(entry.ID).String(),
		GoalID:     snowflake.ID(entry.GoalID).String(),
		Percent:    entry.Percent,
		Comment:    entry.Comment,
		RecordedAt: entry.RecordedAt,
	}
}

func ptrToString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
