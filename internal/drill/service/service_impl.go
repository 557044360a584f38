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
	"github.com/courtsidehq/courtside/internal/drill/domain"
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
		log:      p.Log.Named("drill.service"),
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

	level := strings.TrimSpace(req.SkillLevel)
	if !domain.SkillLevel(level).Valid() {
		return nil, domain.ErrInvalidSkillLevel
	}

	if req.DurationMinutes < 0 {
		return nil, domain.ErrInvalidDuration
	}

	description := strings.TrimSpace(ptrToString(req.Description))
	var descriptionPtr *string
	if description != "" {
		descriptionPtr = &description
	}

	videoURL := strings.TrimSpace(ptrToString(req.VideoURL))
	var videoURLPtr *string
	if videoURL != "" {
		videoURLPtr = &videoURL
	}

	now := time.Now().UTC()
	d := &domain.Drill{
		ID:              s.genID.Generate().Int64(),
		CoachID:         principal.UserID.Int64(),
		Title:           title,
		Description:     descriptionPtr,
		SkillLevel:      level,
		Tags:            normalizeTags(req.Tags),
		VideoURL:        videoURLPtr,
		DurationMinutes: req.DurationMinutes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, s.db, d); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, principal, "drill.created", d.ID)

	resp := toResponse(d)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	drillID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	// Players read from the shared library; coaches only see their own.
	scope := principal.UserID.Int64()
	if principal.Role == profiledomain.RolePlayer {
		scope = 0
	}

	item, err := s.repo.FindByID(ctx, s.db, scope, drillID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.ListResponse{}, domain.ErrInvalidActor
	}

	var (
		items []*domain.Drill
		err   error
	)
	if principal.Role == profiledomain.RolePlayer {
		items, err = s.repo.ListVisible(ctx, s.db, req)
	} else {
		items, err = s.repo.List(ctx, s.db, principal.UserID.Int64(), req)
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

	drillID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, principal.UserID.Int64(), drillID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		item.Title = title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			item.Description = nil
		} else {
			item.Description = &description
		}
	}
	if req.SkillLevel != nil {
		level := strings.TrimSpace(*req.SkillLevel)
		if !domain.SkillLevel(level).Valid() {
			return nil, domain.ErrInvalidSkillLevel
		}
		item.SkillLevel = level
	}
	if req.Tags != nil {
		item.Tags = normalizeTags(*req.Tags)
	}
	if req.VideoURL != nil {
		videoURL := strings.TrimSpace(*req.VideoURL)
		if videoURL == "" {
			item.VideoURL = nil
		} else {
			item.VideoURL = &videoURL
		}
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes < 0 {
			return nil, domain.ErrInvalidDuration
		}
		item.DurationMinutes = *req.DurationMinutes
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, principal, "drill.updated", item.ID)

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.ErrInvalidActor
	}

	drillID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, principal.UserID.Int64(), drillID.Int64())
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}

	if err := s.repo.Delete(ctx, s.db, principal.UserID.Int64(), drillID.Int64()); err != nil {
		return err
	}

	s.recordActivity(ctx, principal, "drill.deleted", item.ID)
	return nil
}

func (s *Service) recordActivity(ctx context.Context, principal principalctx.Principal, action string, drillID int64) {
	if s.activity == nil {
		return
	}
	targetID := snowflake.ID(drillID).String()
	if err := s.activity.Record(ctx, principal.UserID, string(principal.Role), action, "drill", &targetID, nil); err != nil {
		s.log.Warn("failed to record drill activity", zap.String("action", action), zap.Error(err))
	}
}

func buildListResponse(items []*domain.Drill, page pagination.Pagination) domain.ListResponse {
	size := page.PageSize
	if size <= 0 {
		size = 10
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(size), func(item *domain.Drill) string {
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

	drills := make([]domain.Response, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		drills = append(drills, toResponse(item))
	}

	resp := domain.ListResponse{Drills: drills}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp
}

func toResponse(d *domain.Drill) domain.Response {
	return domain.Response{
		ID:              snowflake.ID(d.ID).String(),
		CoachID:         snowflake.ID(d.CoachID).String(),
		Title:           d.Title,
		Description:     d.Description,
		SkillLevel:      d.SkillLevel,
		Tags:            []string(d.Tags),
		VideoURL:        d.VideoURL,
		DurationMinutes: d.DurationMinutes,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]bool{}
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func ptrToString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
