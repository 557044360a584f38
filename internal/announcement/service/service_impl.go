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
	"github.com/courtsidehq/courtside/internal/announcement/domain"
	"github.com/courtsidehq/courtside/internal/principalctx"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	teamdomain "github.com/courtsidehq/courtside/internal/team/domain"
	"github.com/courtsidehq/courtside/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	TeamRepo teamdomain.Repository
	Activity activitydomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	teamRepo teamdomain.Repository
	activity activitydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("announcement.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		teamRepo: p.TeamRepo,
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
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, domain.ErrInvalidBody
	}

	teamID, err := snowflake.ParseString(strings.TrimSpace(req.TeamID))
	if err != nil {
		return nil, domain.ErrInvalidTeam
	}
	team, err := s.teamRepo.FindByID(ctx, s.db, teamID.Int64())
	if err != nil {
		return nil, err
	}
	if team == nil || team.CoachID != principal.UserID.Int64() {
		return nil, domain.ErrInvalidTeam
	}

	now := time.Now().UTC()
	a := &domain.Announcement{
		ID:        s.genID.Generate().Int64(),
		TeamID:    teamID.Int64(),
		AuthorID:  principal.UserID.Int64(),
		Title:     title,
		Body:      body,
		Pinned:    req.Pinned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Publish {
		publishedAt := now
		a.PublishedAt = &publishedAt
	}
	if err := s.repo.Create(ctx, s.db, a); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, principal, "announcement.created", a.ID)

	resp := toResponse(a)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	announcement, err := s.visibleAnnouncement(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	resp := toResponse(announcement)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.ListResponse{}, domain.ErrInvalidActor
	}

	var (
		teams []*teamdomain.Team
		err   error
	)
	if principal.Role == profiledomain.RolePlayer {
		teams, err = s.teamRepo.ListByPlayer(ctx, s.db, principal.UserID.Int64(), pagination.Pagination{PageSize: 250})
	} else {
		teams, err = s.teamRepo.ListByCoach(ctx, s.db, principal.UserID.Int64(), pagination.Pagination{PageSize: 250})
	}
	if err != nil {
		return domain.ListResponse{}, err
	}

	teamIDs := make([]int64, 0, len(teams))
	for _, t := range teams {
		if t != nil {
			teamIDs = append(teamIDs, t.ID)
		}
	}

	items, err := s.repo.ListByTeams(ctx, s.db, teamIDs, req)
	if err != nil {
		return domain.ListResponse{}, err
	}

	// Players only see published announcements.
	if principal.Role == profiledomain.RolePlayer {
		published := items[:0]
		for _, item := range items {
			if item != nil && item.PublishedAt != nil {
				published = append(published, item)
			}
		}
		items = published
	}

	return buildListResponse(items, req.Pagination), nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	announcement, err := s.ownedAnnouncement(ctx, principal, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		announcement.Title = title
	}
	if req.Body != nil {
		body := strings.TrimSpace(*req.Body)
		if body == "" {
			return nil, domain.ErrInvalidBody
		}
		announcement.Body = body
	}
	if req.Pinned != nil {
		announcement.Pinned = *req.Pinned
	}
	if req.Publish != nil {
		if *req.Publish {
			if announcement.PublishedAt == nil {
				publishedAt := time.Now().UTC()
				announcement.PublishedAt = &publishedAt
			}
		} else {
			announcement.PublishedAt = nil
		}
	}

	announcement.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, announcement); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, principal, "announcement.updated", announcement.ID)

	resp := toResponse(announcement)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.ErrInvalidActor
	}

	announcement, err := s.ownedAnnouncement(ctx, principal, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, s.db, announcement.ID); err != nil {
		return err
	}

	s.recordActivity(ctx, principal, "announcement.deleted", announcement.ID)
	return nil
}

func (s *Service) ownedAnnouncement(ctx context.Context, principal principalctx.Principal, id string) (*domain.Announcement, error) {
	announcementID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	announcement, err := s.repo.FindByID(ctx, s.db, announcementID.Int64())
	if err != nil {
		return nil, err
	}
	if announcement == nil || announcement.AuthorID != principal.UserID.Int64() {
		return nil, domain.ErrNotFound
	}
	return announcement, nil
}

func (s *Service) visibleAnnouncement(ctx context.Context, principal principalctx.Principal, id string) (*domain.Announcement, error) {
	announcementID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	announcement, err := s.repo.FindByID(ctx, s.db, announcementID.Int64())
	if err != nil {
		return nil, err
	}
	if announcement == nil {
		return nil, domain.ErrNotFound
	}
	if announcement.AuthorID == principal.UserID.Int64() {
		return announcement, nil
	}

	member, err := s.teamRepo.FindMember(ctx, s.db, announcement.TeamID, principal.UserID.Int64())
	if err != nil {
		return nil, err
	}
	if member == nil || announcement.PublishedAt == nil {
		return nil, domain.ErrNotFound
	}
	return announcement, nil
}

func (s *Service) recordActivity(ctx context.Context, principal principalctx.Principal, action string, announcementID int64) {
	if s.activity == nil {
		return
	}
	targetID := snowflake.ID(announcementID).String()
	if err := s.activity.Record(ctx, principal.UserID, string(principal.Role), action, "announcement", &targetID, nil); err != nil {
		s.log.Warn("failed to record announcement activity", zap.String("action", action), zap.Error(err))
	}
}

func buildListResponse(items []*domain.Announcement, page pagination.Pagination) domain.ListResponse {
	size := page.PageSize
	if size <= 0 {
		size = 10
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(size), func(item *domain.Announcement) string {
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

	announcements := make([]domain.Response, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		announcements = append(announcements, toResponse(item))
	}

	resp := domain.ListResponse{Announcements: announcements}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp
}

func toResponse(a *domain.Announcement) domain.Response {
	return domain.Response{
		ID:          snowflake.ID(a.ID).String(),
		TeamID:      snowflake.ID(a.TeamID).String(),
		AuthorID:    snowflake.ID(a.AuthorID).String(),
		Title:       a.Title,
		Body:        a.Body,
		Pinned:      a.Pinned,
		PublishedAt: a.PublishedAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
