package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	activitydomain "github.com/courtsidehq/courtside/internal/activity/domain"
	"github.com/courtsidehq/courtside/internal/principalctx"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
)

//go:embed model.conf
var modelText string

const (
	ObjectDrill        = "drill"
	ObjectTeam         = "team"
	ObjectPractice     = "practice"
	ObjectNote         = "note"
	ObjectGoal         = "goal"
	ObjectAnnouncement = "announcement"
	ObjectActivityLog  = "activity_log"
	ObjectConversation = "conversation"
	ObjectMedia        = "media"
	ObjectProfile      = "profile"
)

const (
	ActionDrillView   = "drill.view"
	ActionDrillCreate = "drill.create"
	ActionDrillUpdate = "drill.update"
	ActionDrillDelete = "drill.delete"

	ActionTeamView   = "team.view"
	ActionTeamCreate = "team.create"
	ActionTeamUpdate = "team.update"
	ActionTeamDelete = "team.delete"
	ActionTeamInvite = "team.invite"
	ActionTeamJoin   = "team.join"

	ActionPracticeView   = "practice.view"
	ActionPracticeCreate = "practice.create"
	ActionPracticeUpdate = "practice.update"
	ActionPracticeDelete = "practice.delete"
	ActionPracticeExport = "practice.export"

	ActionNoteView   = "note.view"
	ActionNoteCreate = "note.create"
	ActionNoteUpdate = "note.update"
	ActionNoteDelete = "note.delete"

	ActionGoalView     = "goal.view"
	ActionGoalCreate   = "goal.create"
	ActionGoalUpdate   = "goal.update"
	ActionGoalDelete   = "goal.delete"
	ActionGoalProgress = "goal.progress"

	ActionAnnouncementView   = "announcement.view"
	ActionAnnouncementCreate = "announcement.create"
	ActionAnnouncementUpdate = "announcement.update"
	ActionAnnouncementDelete = "announcement.delete"

	ActionActivityLogView = "activity_log.view"

	ActionConversationView   = "conversation.view"
	ActionConversationCreate = "conversation.create"
	ActionConversationDelete = "conversation.delete"
	ActionConversationChat   = "conversation.chat"

	ActionMediaPresign = "media.presign"
	ActionMediaView    = "media.view"
	ActionMediaDelete  = "media.delete"

	ActionProfileView   = "profile.view"
	ActionProfileUpdate = "profile.update"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Enforcer    *casbin.SyncedEnforcer
	ActivitySvc activitydomain.Service `optional:"true"`
}

type ServiceImpl struct {
	db          *gorm.DB
	log         *zap.Logger
	enforcer    *casbin.SyncedEnforcer
	activitySvc activitydomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:          p.DB,
		log:         p.Log.Named("authorization.service"),
		enforcer:    p.Enforcer,
		activitySvc: p.ActivitySvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, principal principalctx.Principal, object string, action string) error {
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}
	if principal.UserID == 0 || !principal.Role.Valid() {
		s.recordDenied(ctx, principal, object, action)
		return ErrInvalidActor
	}

	subject := fmt.Sprintf("user:%s", principal.UserID.String())
	roleName := fmt.Sprintf("role:%s", string(principal.Role))
	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.recordDenied(ctx, principal, object, action)
		return ErrForbidden
	}
	return nil
}

// ensureGrouping keeps the subject bound to exactly one role. Roles are
// immutable per profile, but a stale binding could survive a rebuilt database.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func (s *ServiceImpl) recordDenied(ctx context.Context, principal principalctx.Principal, object string, action string) {
	if s.activitySvc == nil || principal.UserID == 0 {
		return
	}
	targetID := object
	if err := s.activitySvc.Record(ctx, principal.UserID, string(principal.Role), "authorization.denied", "authorization", &targetID, map[string]any{
		"object": object,
		"action": action,
	}); err != nil {
		s.log.Warn("failed to record denied authorization", zap.Error(err))
	}
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	coach := fmt.Sprintf("role:%s", string(profiledomain.RoleCoach))
	player := fmt.Sprintf("role:%s", string(profiledomain.RolePlayer))

	policies := [][]string{
		// Coach permissions
		{coach, ObjectDrill, ActionDrillView},
		{coach, ObjectDrill, ActionDrillCreate},
		{coach, ObjectDrill, ActionDrillUpdate},
		{coach, ObjectDrill, ActionDrillDelete},

		{coach, ObjectTeam, ActionTeamView},
		{coach, ObjectTeam, ActionTeamCreate},
		{coach, ObjectTeam, ActionTeamUpdate},
		{coach, ObjectTeam, ActionTeamDelete},
		{coach, ObjectTeam, ActionTeamInvite},

		{coach, ObjectPractice, ActionPracticeView},
		{coach, ObjectPractice, ActionPracticeCreate},
		{coach, ObjectPractice, ActionPracticeUpdate},
		{coach, ObjectPractice, ActionPracticeDelete},
		{coach, ObjectPractice, ActionPracticeExport},

		{coach, ObjectNote, ActionNoteView},
		{coach, ObjectNote, ActionNoteCreate},
		{coach, ObjectNote, ActionNoteUpdate},
		{coach, ObjectNote, ActionNoteDelete},

		{coach, ObjectGoal, ActionGoalView},
		{coach, ObjectGoal, ActionGoalCreate},
		{coach, ObjectGoal, ActionGoalUpdate},
		{coach, ObjectGoal, ActionGoalDelete},
		{coach, ObjectGoal, ActionGoalProgress},

		{coach, ObjectAnnouncement, ActionAnnouncementView},
		{coach, ObjectAnnouncement, ActionAnnouncementCreate},
		{coach, ObjectAnnouncement, ActionAnnouncementUpdate},
		{coach, ObjectAnnouncement, ActionAnnouncementDelete},

		{coach, ObjectActivityLog, ActionActivityLogView},

		{coach, ObjectConversation, ActionConversationView},
		{coach, ObjectConversation, ActionConversationCreate},
		{coach, ObjectConversation, ActionConversationDelete},
		{coach, ObjectConversation, ActionConversationChat},

		{coach, ObjectMedia, ActionMediaPresign},
		{coach, ObjectMedia, ActionMediaView},
		{coach, ObjectMedia, ActionMediaDelete},

		{coach, ObjectProfile, ActionProfileView},
		{coach, ObjectProfile, ActionProfileUpdate},

		// Player permissions
		{player, ObjectDrill, ActionDrillView},
		{player, ObjectTeam, ActionTeamView},
		{player, ObjectTeam, ActionTeamJoin},
		{player, ObjectPractice, ActionPracticeView},
		{player, ObjectAnnouncement, ActionAnnouncementView},

		{player, ObjectNote, ActionNoteView},
		{player, ObjectNote, ActionNoteCreate},
		{player, ObjectNote, ActionNoteUpdate},
		{player, ObjectNote, ActionNoteDelete},

		{player, ObjectGoal, ActionGoalView},
		{player, ObjectGoal, ActionGoalCreate},
		{player, ObjectGoal, ActionGoalUpdate},
		{player, ObjectGoal, ActionGoalDelete},
		{player, ObjectGoal, ActionGoalProgress},

		{player, ObjectActivityLog, ActionActivityLogView},

		{player, ObjectConversation, ActionConversationView},
		{player, ObjectConversation, ActionConversationCreate},
		{player, ObjectConversation, ActionConversationDelete},
		{player, ObjectConversation, ActionConversationChat},

		{player, ObjectMedia, ActionMediaPresign},
		{player, ObjectMedia, ActionMediaView},
		{player, ObjectMedia, ActionMediaDelete},

		{player, ObjectProfile, ActionProfileView},
		{player, ObjectProfile, ActionProfileUpdate},
	}

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
