package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	activitydomain "github.com/courtsidehq/courtside/internal/activity/domain"
	drilldomain "github.com/courtsidehq/courtside/internal/drill/domain"
	"github.com/courtsidehq/courtside/internal/practice/domain"
	"github.com/courtsidehq/courtside/internal/principalctx"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	"github.com/courtsidehq/courtside/internal/providers/pdf"
	teamdomain "github.com/courtsidehq/courtside/internal/team/domain"
	"github.com/courtsidehq/courtside/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	DrillRepo drilldomain.Repository
	TeamRepo  teamdomain.Repository
	PDF       pdf.Provider
	Activity  activitydomain.Service `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	drillRepo drilldomain.Repository
	teamRepo  teamdomain.Repository
	pdf       pdf.Provider
	activity  activitydomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("practice.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		drillRepo: p.DrillRepo,
		teamRepo:  p.TeamRepo,
		pdf:       p.PDF,
		activity:  p.Activity,
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
	if req.ScheduledAt.IsZero() {
		return nil, domain.ErrInvalidSchedule
	}
	if req.DurationMinutes < 0 {
		return nil, domain.ErrInvalidDuration
	}

	var teamIDPtr *int64
	if req.TeamID != nil && strings.TrimSpace(*req.TeamID) != "" {
		parsed, err := snowflake.ParseString(strings.TrimSpace(*req.TeamID))
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		team, err := s.teamRepo.FindByID(ctx, s.db, parsed.Int64())
		if err != nil {
			return nil, err
		}
		if team == nil || team.CoachID != principal.UserID.Int64() {
			return nil, domain.ErrInvalidID
		}
		teamID := parsed.Int64()
		teamIDPtr = &teamID
	}

	notes := strings.TrimSpace(ptrToString(req.Notes))
	var notesPtr *string
	if notes != "" {
		notesPtr = &notes
	}

	now := time.Now().UTC()
	session := &domain.PracticeSession{
		ID:              s.genID.Generate().Int64(),
		CoachID:         principal.UserID.Int64(),
		TeamID:          teamIDPtr,
		Title:           title,
		ScheduledAt:     req.ScheduledAt.UTC(),
		DurationMinutes: req.DurationMinutes,
		FocusAreas:      normalizeFocusAreas(req.FocusAreas),
		Notes:           notesPtr,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, s.db, session); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, principal, "practice.created", session.ID)

	resp := s.toResponse(session, nil)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	session, err := s.visibleSession(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	drills, err := s.repo.ListDrills(ctx, s.db, session.ID)
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(session, drills)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.ListResponse{}, domain.ErrInvalidActor
	}

	var (
		items []*domain.PracticeSession
		err   error
	)
	if principal.Role == profiledomain.RolePlayer {
		teams, teamErr := s.teamRepo.ListByPlayer(ctx, s.db, principal.UserID.Int64(), pagination.Pagination{PageSize: 250})
		if teamErr != nil {
			return domain.ListResponse{}, teamErr
		}
		teamIDs := make([]int64, 0, len(teams))
		for _, t := range teams {
			if t != nil {
				teamIDs = append(teamIDs, t.ID)
			}
		}
		items, err = s.repo.ListByTeams(ctx, s.db, teamIDs, req)
	} else {
		items, err = s.repo.ListByCoach(ctx, s.db, principal.UserID.Int64(), req)
	}
	if err != nil {
		return domain.ListResponse{}, err
	}

	return s.buildListResponse(items, req.Pagination), nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	session, err := s.ownedSession(ctx, principal, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		session.Title = title
	}
	if req.ScheduledAt != nil {
		if req.ScheduledAt.IsZero() {
			return nil, domain.ErrInvalidSchedule
		}
		session.ScheduledAt = req.ScheduledAt.UTC()
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes < 0 {
			return nil, domain.ErrInvalidDuration
		}
		session.DurationMinutes = *req.DurationMinutes
	}
	if req.FocusAreas != nil {
		session.FocusAreas = normalizeFocusAreas(*req.FocusAreas)
	}
	if req.Notes != nil {
		notes := strings.TrimSpace(*req.Notes)
		if notes == "" {
			session.Notes = nil
		} else {
			session.Notes = &notes
		}
	}

	session.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, session); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, principal, "practice.updated", session.ID)

	resp := s.toResponse(session, nil)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return domain.ErrInvalidActor
	}

	session, err := s.ownedSession(ctx, principal, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, s.db, principal.UserID.Int64(), session.ID); err != nil {
		return err
	}

	s.recordActivity(ctx, principal, "practice.deleted", session.ID)
	return nil
}

func (s *Service) AttachDrills(ctx context.Context, req domain.AttachDrillsRequest) (*domain.Response, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	session, err := s.ownedSession(ctx, principal, req.ID)
	if err != nil {
		return nil, err
	}

	attached := make([]*domain.PracticeDrill, 0, len(req.Drills))
	for i, attachment := range req.Drills {
		drillID, err := snowflake.ParseString(strings.TrimSpace(attachment.DrillID))
		if err != nil {
			return nil, domain.ErrInvalidDrill
		}
		drill, err := s.drillRepo.FindByID(ctx, s.db, principal.UserID.Int64(), drillID.Int64())
		if err != nil {
			return nil, err
		}
		if drill == nil {
			return nil, domain.ErrInvalidDrill
		}
		minutes := attachment.Minutes
		if minutes < 0 {
			return nil, domain.ErrInvalidDuration
		}
		if minutes == 0 {
			minutes = drill.DurationMinutes
		}
		attached = append(attached, &domain.PracticeDrill{
			ID:         s.genID.Generate().Int64(),
			PracticeID: session.ID,
			DrillID:    drillID.Int64(),
			Position:   i + 1,
			Minutes:    minutes,
		})
	}

	if err := s.repo.ReplaceDrills(ctx, s.db, session.ID, attached); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, principal, "practice.drills_attached", session.ID)

	resp := s.toResponse(session, attached)
	return &resp, nil
}

func (s *Service) ExportPDF(ctx context.Context, id string) (io.Reader, error) {
	principal, ok := principalctx.FromContext(ctx)
	if !ok || principal.UserID == 0 {
		return nil, domain.ErrInvalidActor
	}

	session, err := s.visibleSession(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	drills, err := s.repo.ListDrills(ctx, s.db, session.ID)
	if err != nil {
		return nil, err
	}

	teamName := ""
	if session.TeamID != nil {
		team, err := s.teamRepo.FindByID(ctx, s.db, *session.TeamID)
		if err != nil {
			return nil, err
		}
		if team != nil {
			teamName = team.Name
		}
	}

	plan := pdf.PracticePlanData{
		TeamName:    teamName,
		Title:       session.Title,
		ScheduledAt: session.ScheduledAt.Format("Mon, 02 Jan 2006 15:04"),
		Duration:    fmt.Sprintf("%d min", session.DurationMinutes),
		FocusAreas:  strings.Join(session.FocusAreas, ", "),
		Notes:       ptrToString(session.Notes),
	}
	for _, attached := range drills {
		if attached == nil {
			continue
		}
		entry := pdf.PracticePlanDrill{
			Order:   attached.Position,
			Minutes: fmt.Sprintf("%d", attached.Minutes),
		}
		drill, err := s.drillRepo.FindByID(ctx, s.db, 0, attached.DrillID)
		if err != nil {
			return nil, err
		}
		if drill != nil {
			entry.Title = drill.Title
			entry.SkillLevel = drill.SkillLevel
		}
		plan.Drills = append(plan.Drills, entry)
	}

	s.recordActivity(ctx, principal, "practice.exported", session.ID)

	return s.pdf.GeneratePracticePlan(ctx, plan)
}

func (s *Service) ownedSession(ctx context.Context, principal principalctx.Principal, id string) (*domain.PracticeSession, error) {
	sessionID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	session, err := s.repo.FindByID(ctx, s.db, sessionID.Int64())
	if err != nil {
		return nil, err
	}
	if session == nil || session.CoachID != principal.UserID.Int64() {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

func (s *Service) visibleSession(ctx context.Context, principal principalctx.Principal, id string) (*domain.PracticeSession, error) {
	sessionID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	session, err := s.repo.FindByID(ctx, s.db, sessionID.Int64())
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrNotFound
	}
	if session.CoachID == principal.UserID.Int64() {
		return session, nil
	}
	if session.TeamID == nil {
		return nil, domain.ErrNotFound
	}

	member, err := s.teamRepo.FindMember(ctx, s.db, *session.TeamID, principal.UserID.Int64())
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

func (s *Service) recordActivity(ctx context.Context, principal principalctx.Principal, action string, practiceID int64) {
	if s.activity == nil {
		return
	}
	targetID := snowflake.ID(practiceID).String()
	if err := s.activity.Record(ctx, principal.UserID, string(principal.Role), action, "practice", &targetID, nil); err != nil {
		s.log.Warn("failed to record practice activity", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) buildListResponse(items []*domain.PracticeSession, page pagination.Pagination) domain.ListResponse {
	size := page.PageSize
	if size <= 0 {
		size = 10
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(size), func(item *domain.PracticeSession) string {
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

	practices := make([]domain.Response, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		practices = append(practices, s.toResponse(item, nil))
	}

	resp := domain.ListResponse{Practices: practices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp
}

func (s *Service) toResponse(session *domain.PracticeSession, drills []*domain.PracticeDrill) domain.Response {
	resp := domain.Response{
		ID:              snowflake.ID(session.ID).String(),
		CoachID:         snowflake.ID(session.CoachID).String(),
		Title:           session.Title,
		ScheduledAt:     session.ScheduledAt,
		DurationMinutes: session.DurationMinutes,
		FocusAreas:      []string(session.FocusAreas),
		Notes:           session.Notes,
		CreatedAt:       session.CreatedAt,
		UpdatedAt:       session.UpdatedAt,
	}
	if session.TeamID != nil {
		teamID := snowflake.ID(*session.TeamID).String()
		resp.TeamID = &teamID
	}
	for _, drill := range drills {
		if drill == nil {
			continue
		}
		resp.Drills = append(resp.Drills, domain.DrillResponse{
			DrillID:  snowflake.ID(drill.DrillID).String(),
			Position: drill.Position,
			Minutes:  drill.Minutes,
		})
	}
	return resp
}

func normalizeFocusAreas(areas []string) []string {
	out := make([]string, 0, len(areas))
	seen := map[string]bool{}
	for _, area := range areas {
		area = strings.ToLower(strings.TrimSpace(area))
		if area == "" || seen[area] {
			continue
		}
		seen[area] = true
		out = append(out, area)
	}
	return out
}

func ptrToString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
