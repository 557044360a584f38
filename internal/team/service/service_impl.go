package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	activitydomain "github.com/courtsidehq/courtside/internal/activity/domain"
	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/principalctx"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	"github.com/courtsidehq/courtside/internal/providers/email"
	"github.com/courtsidehq/courtside/internal/team/domain"
	"github.com/courtsidehq/courtside/pkg/db/pagination"
)

const inviteCodeBytes = 5

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Cfg      config.Config
	GenID    *snowflake.Node
	Repo     domain.Repository
	Email    email.Provider
	Activity activitydomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	cfg      config.Config
	genID    *snowflake.Node
	repo     domain.Repository
	email    email.Provider
	activity activitydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("team.service"),
		cfg:      p.Cfg,
		genID:    p.GenID,
		repo:     p.Repo,
		email:    p.Email,
		activity: p.Activity,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	season := strings.TrimSpace(ptrToString(req.Season))
	var seasonPtr *string
	if season != "" {
		seasonPtr = &season
	}

	teamSlug, err := s.uniqueSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	code, err := newInviteCode()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &domain.Team{
		ID:         s.genID.Generate().Int64(),
		CoachID:    principal.UserID.Int64(),
		Name:       name,
		Slug:       teamSlug,
		Season:     seasonPtr,
		InviteCode: code,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, s.db, t); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, principal, "team.created", t.ID)

	resp := s.toResponse(t, principal)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	team, err := s.visibleTeam(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(team, principal)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.ListResponse{}, domain.ErrInvalidActor
	}

	var (
		items []*domain.Team
		err   error
	)
	if principal.Role == profiledomain.RolePlayer {
		items, err = s.repo.ListByPlayer(ctx, s.db, principal.UserID.Int64(), req.Pagination)
	} else {
		items, err = s.repo.ListByCoach(ctx, s.db, principal.UserID.Int64(), req.Pagination)
	}
	if err != nil {
		return domain.ListResponse{}, err
	}

	return s.buildListResponse(items, req.Pagination, principal), nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	team, err := s.ownedTeam(ctx, principal, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		if name != team.Name {
			teamSlug, err := s.uniqueSlug(ctx, name)
			if err != nil {
				return nil, err
			}
			team.Name = name
			team.Slug = teamSlug
		}
	}
	if req.Season != nil {
		season := strings.TrimSpace(*req.Season)
		if season == "" {
			team.Season = nil
		} else {
			team.Season = &season
		}
	}

	team.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, team); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, principal, "team.updated", team.ID)

	resp := s.toResponse(team, principal)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.ErrInvalidActor
	}

	team, err := s.ownedTeam(ctx, principal, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, s.db, principal.UserID.Int64(), team.ID); err != nil {
		return err
	}

	s.recordActivity(ctx, principal, "team.deleted", team.ID)
	return nil
}

func (s *Service) Roster(ctx context.Context, id string) ([]domain.MemberResponse, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	team, err := s.visibleTeam(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx, s.db, team.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.MemberResponse, 0, len(members))
	for _, m := range members {
		if m == nil {
			continue
		}
		resp = append(resp, domain.MemberResponse{
			PlayerID:     snowflake.ID(m.PlayerID).String(),
			JerseyNumber: m.JerseyNumber,
			JoinedAt:     m.JoinedAt,
		})
	}
	return resp, nil
}

func (s *Service) RemovePlayer(ctx context.Context, id string, playerID string) error {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.ErrInvalidActor
	}

	team, err := s.ownedTeam(ctx, principal, id)
	if err != nil {
		return err
	}

	parsed, err := snowflake.ParseString(strings.TrimSpace(playerID))
	if err != nil {
		return domain.ErrInvalidID
	}

	member, err := s.repo.FindMember(ctx, s.db, team.ID, parsed.Int64())
	if err != nil {
		return err
	}
	if member == nil {
		return domain.ErrNotMember
	}

	if err := s.repo.RemoveMember(ctx, s.db, team.ID, parsed.Int64()); err != nil {
		return err
	}

	s.recordActivity(ctx, principal, "team.player_removed", team.ID)
	return nil
}

func (s *Service) Invite(ctx context.Context, req domain.InviteRequest) error {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.ErrInvalidActor
	}

	team, err := s.ownedTeam(ctx, principal, req.TeamID)
	if err != nil {
		return err
	}

	recipients := make([]string, 0, len(req.Emails))
	for _, raw := range req.Emails {
		parsed, err := mail.ParseAddress(strings.TrimSpace(raw))
		if err != nil {
			return domain.ErrInvalidEmail
		}
		recipients = append(recipients, strings.ToLower(parsed.Address))
	}
	if len(recipients) == 0 {
		return domain.ErrInvalidEmail
	}

	now := time.Now().UTC()
	for _, addr := range recipients {
		invite := &domain.TeamInvite{
			ID:        s.genID.Generate().Int64(),
			TeamID:    team.ID,
			Email:     addr,
			Status:    string(domain.InvitePending),
			InvitedBy: principal.UserID.Int64(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.CreateInvite(ctx, s.db, invite); err != nil {
			return err
		}
	}

	joinURL := fmt.Sprintf("%s/join?code=%s", s.cfg.PublicBaseURL, team.InviteCode)
	subject := fmt.Sprintf("You're invited to join %s", team.Name)
	body := fmt.Sprintf(
		`<p>You've been invited to join <strong>%s</strong> on Courtside.</p><p><a href="%s">Join the team</a> or enter code <strong>%s</strong> after signing up.</p>`,
		team.Name, joinURL, team.InviteCode,
	)
	if err := s.email.Send(ctx, recipients, subject, body); err != nil {
		s.log.Warn("failed to send team invite email", zap.Error(err))
	}

	s.recordActivity(ctx, principal, "team.invited", team.ID)
	return nil
}

func (s *Service) JoinByInviteCode(ctx context.Context, req domain.JoinRequest) (*domain.Response, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	code := strings.ToUpper(strings.TrimSpace(req.InviteCode))
	if code == "" {
		return nil, domain.ErrInvalidInviteCode
	}

	team, err := s.repo.FindByInviteCode(ctx, s.db, code)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, domain.ErrInvalidInviteCode
	}

	existing, err := s.repo.FindMember(ctx, s.db, team.ID, principal.UserID.Int64())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAlreadyMember
	}

	member := &domain.TeamMember{
		ID:           s.genID.Generate().Int64(),
		TeamID:       team.ID,
		PlayerID:     principal.UserID.Int64(),
		JerseyNumber: req.JerseyNumber,
		JoinedAt:     time.Now().UTC(),
	}
	if err := s.repo.AddMember(ctx, s.db, member); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, principal, "team.joined", team.ID)

	resp := s.toResponse(team, principal)
	return &resp, nil
}

func (s *Service) RotateInviteCode(ctx context.Context, id string) (*domain.Response, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	team, err := s.ownedTeam(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	code, err := newInviteCode()
	if err != nil {
		return nil, err
	}

	team.InviteCode = code
	team.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, team); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, principal, "team.invite_code_rotated", team.ID)

	resp := s.toResponse(team, principal)
	return &resp, nil
}

// ownedTeam resolves a team the caller coaches.
func (s *Service) ownedTeam(ctx context.Context, principal principalctx.Principal, id string) (*domain.Team, error) {
	teamID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	team, err := s.repo.FindByID(ctx, s.db, teamID.Int64())
	if err != nil {
		return nil, err
	}
	if team == nil || team.CoachID != principal.UserID.Int64() {
		return nil, domain.ErrNotFound
	}
	return team, nil
}

// visibleTeam resolves a team the caller coaches or plays on.
func (s *Service) visibleTeam(ctx context.Context, principal principalctx.Principal, id string) (*domain.Team, error) {
	teamID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	team, err := s.repo.FindByID(ctx, s.db, teamID.Int64())
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, domain.ErrNotFound
	}
	if team.CoachID == principal.UserID.Int64() {
		return team, nil
	}

	member, err := s.repo.FindMember(ctx, s.db, team.ID, principal.UserID.Int64())
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrNotFound
	}
	return team, nil
}

func (s *Service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	candidate := base
	for i := 0; i < 5; i++ {
		existing, err := s.repo.FindBySlug(ctx, s.db, candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
		suffix, err := newInviteCode()
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s-%s", base, strings.ToLower(suffix[:4]))
	}
	return candidate, nil
}

func (s *Service) recordActivity(ctx context.Context, principal principalctx.Principal, action string, teamID int64) {
	if s.activity == nil {
		return
	}
	targetID := snowflake.ID(teamID).String()
	if err := s.activity.Record(ctx, principal.UserID, string(principal.Role), action, "team", &targetID, nil); err != nil {
		s.log.Warn("failed to record team activity", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) buildListResponse(items []*domain.Team, page pagination.Pagination, principal principalctx.Principal) domain.ListResponse {
	size := page.PageSize
	if size <= 0 {
		size = 10
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(size), func(item *domain.Team) string {
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

	teams := make([]domain.Response, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		teams = append(teams, s.toResponse(item, principal))
	}

	resp := domain.ListResponse{Teams: teams}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp
}

// toResponse hides the invite code from anyone but the coach who owns it.
func (s *Service) toResponse(t *domain.Team, principal principalctx.Principal) domain.Response {
	resp := domain.Response{
		ID:        snowflake.ID(t.ID).String(),
		CoachID:   snowflake.ID(t.CoachID).String(),
		Name:      t.Name,
		Slug:      t.Slug,
		Season:    t.Season,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if t.CoachID == principal.UserID.Int64() {
		resp.InviteCode = t.InviteCode
	}
	return resp
}

func newInviteCode() (string, error) {
	buf := make([]byte, inviteCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

func ptrToString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
