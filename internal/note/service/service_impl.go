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
	"github.com/courtsidehq/courtside/internal/note/domain"
	"github.com/courtsidehq/courtside/internal/principalctx"
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
		log:      p.Log.Named("note.service"),
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

	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, domain.ErrInvalidBody
	}

	playerID, err := parseOptionalID(req.PlayerID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	teamID, err := parseOptionalID(req.TeamID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	now := time.Now().UTC()
	n := &domain.Note{
		ID:        s.genID.Generate().Int64(),
		AuthorID:  principal.UserID.Int64(),
		PlayerID:  playerID,
		TeamID:    teamID,
		Body:      body,
		Pinned:    req.Pinned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, s.db, n); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, principal, "note.created", n.ID)

	resp := toResponse(n)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	noteID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, principal.UserID.Int64(), noteID.Int64())
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

	items, err := s.repo.List(ctx, s.db, principal.UserID.Int64(), req)
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

	noteID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, principal.UserID.Int64(), noteID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if req.Body != nil {
		body := strings.TrimSpace(*req.Body)
		if body == "" {
			return nil, domain.ErrInvalidBody
		}
		item.Body = body
	}
	if req.Pinned != nil {
		item.Pinned = *req.Pinned
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, principal, "note.updated", item.ID)

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.ErrInvalidActor
	}

	noteID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, principal.UserID.Int64(), noteID.Int64())
	if err != nil {
		return err
	}
	if item == nil {
		return domain.ErrNotFound
	}

	if err := s.repo.Delete(ctx, s.db, principal.UserID.Int64(), noteID.Int64()); err != nil {
		return err
	}

	s.recordActivity(ctx, principal, "note.deleted", item.ID)
	return nil
}

func (s *Service) recordActivity(ctx context.Context, principal principalctx.Principal, action string, noteID int64) {
	if s.activity == nil {
		return
	}
	targetID := snowflake.ID(noteID).String()
	if err := s.activity.Record(ctx, principal.UserID, string(principal.Role), action, "note", &targetID, nil); err != nil {
		s.log.Warn("failed to record note activity", zap.String("action", action), zap.Error(err))
	}
}

func buildListResponse(items []*domain.Note, page pagination.Pagination) domain.ListResponse {
	size := page.PageSize
	if size <= 0 {
		size = 10
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(size), func(item *domain.Note) string {
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

	notes := make([]domain.Response, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		notes = append(notes, toResponse(item))
	}

	resp := domain.ListResponse{Notes: notes}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp
}

func toResponse(n *domain.Note) domain.Response {
	resp := domain.Response{
		ID:        snowflake.ID(n.ID).String(),
		AuthorID:  snowflake.ID(n.AuthorID).String(),
		Body:      n.Body,
		Pinned:    n.Pinned,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
	if n.PlayerID != nil {
		playerID := snowflake.ID(*n.PlayerID).String()
		resp.PlayerID = &playerID
	}
	if n.TeamID != nil {
		teamID := snowflake.ID(*n.TeamID).String()
		resp.TeamID = &teamID
	}
	return resp
}

func parseOptionalID(value *string) (*int64, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(strings.TrimSpace(*value))
	if err != nil {
		return nil, err
	}
	id := parsed.Int64()
	return &id, nil
}
