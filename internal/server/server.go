package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/courtsidehq/courtside/internal/activity"
	activitydomain "github.com/courtsidehq/courtside/internal/activity/domain"
	"github.com/courtsidehq/courtside/internal/announcement"
	announcementdomain "github.com/courtsidehq/courtside/internal/announcement/domain"
	"github.com/courtsidehq/courtside/internal/assistant"
	assistantdomain "github.com/courtsidehq/courtside/internal/assistant/domain"
	"github.com/courtsidehq/courtside/internal/authorization"
	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/drill"
	drilldomain "github.com/courtsidehq/courtside/internal/drill/domain"
	"github.com/courtsidehq/courtside/internal/goal"
	goaldomain "github.com/courtsidehq/courtside/internal/goal/domain"
	"github.com/courtsidehq/courtside/internal/identity"
	identitydomain "github.com/courtsidehq/courtside/internal/identity/domain"
	"github.com/courtsidehq/courtside/internal/identity/hub"
	identityoauth "github.com/courtsidehq/courtside/internal/identity/oauth"
	identitysession "github.com/courtsidehq/courtside/internal/identity/session"
	"github.com/courtsidehq/courtside/internal/media"
	mediadomain "github.com/courtsidehq/courtside/internal/media/domain"
	"github.com/courtsidehq/courtside/internal/note"
	notedomain "github.com/courtsidehq/courtside/internal/note/domain"
	"github.com/courtsidehq/courtside/internal/observability"
	obslogger "github.com/courtsidehq/courtside/internal/observability/logger"
	obsmetrics "github.com/courtsidehq/courtside/internal/observability/metrics"
	obstracing "github.com/courtsidehq/courtside/internal/observability/tracing"
	"github.com/courtsidehq/courtside/internal/practice"
	practicedomain "github.com/courtsidehq/courtside/internal/practice/domain"
	"github.com/courtsidehq/courtside/internal/profile"
	profiledomain "github.com/courtsidehq/courtside/internal/profile/domain"
	"github.com/courtsidehq/courtside/internal/providers/email"
	"github.com/courtsidehq/courtside/internal/providers/pdf"
	"github.com/courtsidehq/courtside/internal/ratelimit"
	"github.com/courtsidehq/courtside/internal/team"
	teamdomain "github.com/courtsidehq/courtside/internal/team/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	activity.Module,
	identity.Module,
	profile.Module,
	email.Module,
	pdf.Module,
	ratelimit.Module,
	drill.Module,
	team.Module,
	practice.Module,
	note.Module,
	goal.Module,
	announcement.Module,
	assistant.Module,
	media.Module,
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	db              *gorm.DB
	genID           *snowflake.Node
	identitySvc     identitydomain.Service
	oauthSvc        identityoauth.Service
	sessions        *identitysession.Manager
	hub             *hub.Hub
	profileSvc      profiledomain.Service
	authzSvc        authorization.Service
	activitySvc     activitydomain.Service
	drillSvc        drilldomain.Service
	teamSvc         teamdomain.Service
	practiceSvc     practicedomain.Service
	noteSvc         notedomain.Service
	goalSvc         goaldomain.Service
	announcementSvc announcementdomain.Service
	assistantSvc    assistantdomain.Service
	mediaSvc        mediadomain.Service
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	DB              *gorm.DB
	GenID           *snowflake.Node
	IdentitySvc     identitydomain.Service
	OAuthSvc        identityoauth.Service
	Sessions        *identitysession.Manager
	Hub             *hub.Hub
	ProfileSvc      profiledomain.Service
	AuthzSvc        authorization.Service
	ActivitySvc     activitydomain.Service
	DrillSvc        drilldomain.Service
	TeamSvc         teamdomain.Service
	PracticeSvc     practicedomain.Service
	NoteSvc         notedomain.Service
	GoalSvc         goaldomain.Service
	AnnouncementSvc announcementdomain.Service
	AssistantSvc    assistantdomain.Service
	MediaSvc        mediadomain.Service
	ObsMetrics      *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		db:              p.DB,
		genID:           p.GenID,
		identitySvc:     p.IdentitySvc,
		oauthSvc:        p.OAuthSvc,
		sessions:        p.Sessions,
		hub:             p.Hub,
		profileSvc:      p.ProfileSvc,
		authzSvc:        p.AuthzSvc,
		activitySvc:     p.ActivitySvc,
		drillSvc:        p.DrillSvc,
		teamSvc:         p.TeamSvc,
		practiceSvc:     p.PracticeSvc,
		noteSvc:         p.NoteSvc,
		goalSvc:         p.GoalSvc,
		announcementSvc: p.AnnouncementSvc,
		assistantSvc:    p.AssistantSvc,
		mediaSvc:        p.MediaSvc,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerAuthRoutes()
	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/register", s.Register)
	auth.POST("/logout", s.Logout)
	auth.POST("/forgot", s.Forgot)
	auth.POST("/reset", s.ResetPassword)
	auth.GET("/me", s.Me)
	auth.GET("/route", s.RouteDecision)
	auth.GET("/stream", s.StreamSession)

	auth.POST("/profile", s.WebAuthRequired(), s.CreateProfile)
	auth.PATCH("/profile", s.WebAuthRequired(), s.ProfileRequired(), s.UpdateProfile)

	s.engine.GET("/login/:provider", s.OAuthLogin)
	s.engine.GET("/callback/:provider", s.OAuthCallback)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.WebAuthRequired())
	api.Use(s.ProfileRequired())

	// -------- Drills --------
	api.GET("/drills", s.authorizeAction(authorization.ObjectDrill, authorization.ActionDrillView), s.ListDrills)
	api.POST("/drills", s.RequireRole(profiledomain.RoleCoach), s.authorizeAction(authorization.ObjectDrill, authorization.ActionDrillCreate), s.CreateDrill)
	api.GET("/drills/:id", s.authorizeAction(authorization.ObjectDrill, authorization.ActionDrillView), s.GetDrillByID)
	api.PATCH("/drills/:id", s.RequireRole(profiledomain.RoleCoach), s.authorizeAction(authorization.ObjectDrill, authorization.ActionDrillUpdate), s.UpdateDrill)
	api.DELETE("/drills/:id", s.RequireRole(profiledomain.RoleCoach), s.authorizeAction(authorization.ObjectDrill, authorization.ActionDrillDelete), s.DeleteDrill)

	// -------- Teams --------
	api.GET("/teams", s.authorizeAction(authorization.ObjectTeam, authorization.ActionTeamView), s.ListTeams)
	api.POST("/teams", s.RequireRole(profiledomain.RoleCoach), s.authorizeAction(authorization.ObjectTeam, authorization.ActionTeamCreate), s.CreateTeam)
	api.GET("/teams/:id", s.authorizeAction(authorization.ObjectTeam, authorization.ActionTeamView), s.GetTeamByID)
	api.PATCH("/teams/:id", s.RequireRole(profiledomain.RoleCoach), s.authorizeAction(authorization.ObjectTeam, authorization.ActionTeamUpdate), s.UpdateTeam)
	api.DELETE("/teams/:id", s.RequireRole(profiledomain.RoleCoach), s.authorizeAction(authorization.ObjectTeam, authorization.ActionTeamDelete), s.DeleteTeam)
	api.GET("/teams/:id/roster", s.authorizeAction(authorization.ObjectTeam, authorization.ActionTeamView), s.GetTeamRoster)
	api.DELETE("/teams/:id/roster/:playerId", s.RequireRole(profiledomain.RoleCoach), s.authorizeAction(authorization.ObjectTeam, authorization.ActionTeamUpdate), s.RemoveTeamPlayer)
	api.POST("/teams/:id/invite", s.RequireRole(profiledomain.RoleCoach), s.authorizeAction(authorization.ObjectTeam, authorization.ActionTeamInvite), s.InviteToTeam)
	api.POST("/teams/:id/rotate-invite", s.RequireRole(profiledomain.RoleCoach), s.authorizeAction(authorization.ObjectTeam, authorization.ActionTeamInvite), s.RotateTeamInviteCode)
	api.POST("/teams/join", s.RequireRole(profiledomain.RolePlayer), s.authorizeAction(authorization.ObjectTeam, authorization.ActionTeamJoin), s.JoinTeam)

	// -------- Practices --------
	api.GET("/practices", s.authorizeAction(authorization.ObjectPractice, authorization.ActionPracticeView), s.ListPractices)
	api.POST("/practices", s.RequireRole(profiledomain.RoleCoach), s.authorizeAction(authorization.ObjectPractice, authorization.ActionPracticeCreate), s.CreatePractice)
	api.GET("/practices/:id", s.authorizeAction(authorization.ObjectPractice, authorization.ActionPracticeView), s.GetPracticeByID)
	api.PATCH("/practices/:id", s.RequireRole(profiledomain.RoleCoach), s.authorizeAction(authorization.ObjectPractice, authorization.ActionPracticeUpdate), s.UpdatePractice)
	api.DELETE("/practices/:id", s.RequireRole(profiledomain.RoleCoach), s.authorizeAction(authorization.ObjectPractice, authorization.ActionPracticeDelete), s.DeletePractice)
	api.PUT("/practices/:id/drills", s.RequireRole(profiledomain.RoleCoach), s.authorizeAction(authorization.ObjectPractice, authorization.ActionPracticeUpdate), s.AttachPracticeDrills)
	api.GET("/practices/:id/export", s.authorizeAction(authorization.ObjectPractice, authorization.ActionPracticeExport), s.ExportPracticePDF)

	// -------- Notes --------
	api.GET("/notes", s.authorizeAction(authorization.ObjectNote, authorization.ActionNoteView), s.ListNotes)
	api.POST("/notes", s.authorizeAction(authorization.ObjectNote, authorization.ActionNoteCreate), s.CreateNote)
	api.GET("/notes/:id", s.authorizeAction(authorization.ObjectNote, authorization.ActionNoteView), s.GetNoteByID)
	api.PATCH("/notes/:id", s.authorizeAction(authorization.ObjectNote, authorization.ActionNoteUpdate), s.UpdateNote)
	api.DELETE("/notes/:id", s.authorizeAction(authorization.ObjectNote, authorization.ActionNoteDelete), s.DeleteNote)

	// -------- Goals --------
	api.GET("/goals", s.authorizeAction(authorization.ObjectGoal, authorization.ActionGoalView), s.ListGoals)
	api.POST("/goals", s.authorizeAction(authorization.ObjectGoal, authorization.ActionGoalCreate), s.CreateGoal)
	api.GET("/goals/:id", s.authorizeAction(authorization.ObjectGoal, authorization.ActionGoalView), s.GetGoalByID)
	api.PATCH("/goals/:id", s.authorizeAction(authorization.ObjectGoal, authorization.ActionGoalUpdate), s.UpdateGoal)
	api.DELETE("/goals/:id", s.authorizeAction(authorization.ObjectGoal, authorization.ActionGoalDelete), s.DeleteGoal)
	api.POST("/goals/:id/progress", s.authorizeAction(authorization.ObjectGoal, authorization.ActionGoalProgress), s.AddGoalProgress)
	api.GET("/goals/:id/progress", s.authorizeAction(authorization.ObjectGoal, authorization.ActionGoalView), s.ListGoalProgress)

	// -------- Announcements --------
	api.GET("/announcements", s.authorizeAction(authorization.ObjectAnnouncement, authorization.ActionAnnouncementView), s.ListAnnouncements)
	api.POST("/announcements", s.RequireRole(profiledomain.RoleCoach), s.authorizeAction(authorization.ObjectAnnouncement, authorization.ActionAnnouncementCreate), s.CreateAnnouncement)
	api.GET("/announcements/:id", s.authorizeAction(authorization.ObjectAnnouncement, authorization.ActionAnnouncementView), s.GetAnnouncementByID)
	api.PATCH("/announcements/:id", s.RequireRole(profiledomain.RoleCoach), s.authorizeAction(authorization.ObjectAnnouncement, authorization.ActionAnnouncementUpdate), s.UpdateAnnouncement)
	api.DELETE("/announcements/:id", s.RequireRole(profiledomain.RoleCoach), s.authorizeAction(authorization.ObjectAnnouncement, authorization.ActionAnnouncementDelete), s.DeleteAnnouncement)

	// -------- Activity Log --------
	// Players are scoped to their own events in the handler.
	api.GET("/activity", s.authorizeAction(authorization.ObjectActivityLog, authorization.ActionActivityLogView), s.ListActivity)

	// -------- Assistant --------
	api.GET("/assistant/conversations", s.authorizeAction(authorization.ObjectConversation, authorization.ActionConversationView), s.ListConversations)
	api.POST("/assistant/conversations", s.authorizeAction(authorization.ObjectConversation, authorization.ActionConversationCreate), s.CreateConversation)
	api.GET("/assistant/conversations/:id", s.authorizeAction(authorization.ObjectConversation, authorization.ActionConversationView), s.GetConversationByID)
	api.DELETE("/assistant/conversations/:id", s.authorizeAction(authorization.ObjectConversation, authorization.ActionConversationDelete), s.DeleteConversation)
	api.POST("/assistant/conversations/:id/chat", s.authorizeAction(authorization.ObjectConversation, authorization.ActionConversationChat), s.ChatWithAssistant)

	// -------- Media --------
	api.POST("/media/presign-upload", s.authorizeAction(authorization.ObjectMedia, authorization.ActionMediaPresign), s.PresignMediaUpload)
	api.GET("/media/presign-download", s.authorizeAction(authorization.ObjectMedia, authorization.ActionMediaView), s.PresignMediaDownload)
	api.GET("/media", s.authorizeAction(authorization.ObjectMedia, authorization.ActionMediaView), s.SearchMedia)
	api.DELETE("/media", s.authorizeAction(authorization.ObjectMedia, authorization.ActionMediaDelete), s.DeleteMedia)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		// static assets (vite)
		if fileExists("./public", c.Request.URL.Path) {
			c.File("./public" + c.Request.URL.Path)
			return
		}

		// SPA fallback
		c.File("./public/index.html")
	})
}

func fileExists(publicDir, reqPath string) bool {
	clean := filepath.Clean(reqPath)

	// prevent path traversal
	if clean == "." || clean == "/" || clean == ".." {
		return false
	}

	fullPath := filepath.Join(publicDir, clean)

	info, err := os.Stat(fullPath)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
