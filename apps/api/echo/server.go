// Package echoapi exposes the HTTP API.
package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/campaign"
	"github.com/Reema362/avocop/core/chat"
	"github.com/Reema362/avocop/core/course"
	"github.com/Reema362/avocop/core/enrollment"
	"github.com/Reema362/avocop/core/notification"
	"github.com/Reema362/avocop/core/quiz"
	"github.com/Reema362/avocop/core/user"
)

type (
	// Deps holds the services the API serves.
	Deps struct {
		Logger          core.Logger
		UserSvc         *user.Service
		CourseSvc       *course.Service
		EnrollmentSvc   *enrollment.Service
		CampaignSvc     *campaign.Service
		QuizSvc         *quiz.Service
		ChatSvc         *chat.Service
		NotificationSvc *notification.Service
	}

	Options struct {
		Address        string
		DisableReqLogs bool
		Deps           *Deps
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Deps.Logger, func() {
		s.shutdown <- syscall.SIGTERM
	})
	s.app.Debug = core.Conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts.Deps)
	registerCourseAPI(v1, jwt, s.opts.Deps)
	registerEnrollmentAPI(v1, jwt, s.opts.Deps)
	registerCampaignAPI(v1, jwt, s.opts.Deps)
	registerQuizAPI(v1, jwt, s.opts.Deps)
	registerChatAPI(v1, jwt, s.opts.Deps)
	registerNotificationAPI(v1, jwt, s.opts.Deps)
}

func (s *server) Start() {
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Errors() <-chan error           { return s.errs }
func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to AvoCop API!")
}
