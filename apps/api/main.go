package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/Reema362/avocop/apps/api/echo"
	"github.com/Reema362/avocop/core"
	"github.com/Reema362/avocop/core/campaign"
	"github.com/Reema362/avocop/core/chat"
	"github.com/Reema362/avocop/core/course"
	"github.com/Reema362/avocop/core/enrollment"
	"github.com/Reema362/avocop/core/notification"
	"github.com/Reema362/avocop/core/quiz"
	"github.com/Reema362/avocop/core/user"
	emailsvc "github.com/Reema362/avocop/services/email"
	logsvc "github.com/Reema362/avocop/services/logger"
	"github.com/Reema362/avocop/services/filestore"
	webhooksvc "github.com/Reema362/avocop/services/webhook"
	"github.com/Reema362/avocop/storage/cache"
	"github.com/Reema362/avocop/storage/database"
	pgrepos "github.com/Reema362/avocop/storage/database/postgres"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	files, err := setUpFileStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file store: %v", err), err)
	}

	board := setUpLeaderboard(conf, logger)

	// domain services
	usrSvc := user.NewService(pgrepos.NewUserRepository(db), mailSvc, logger)
	courseSvc := course.NewService(pgrepos.NewCourseRepository(db), files, logger)
	enrollSvc := enrollment.NewService(pgrepos.NewEnrollmentRepository(db), courseSvc, logger)
	quizSvc := quiz.NewService(pgrepos.NewQuizRepository(db), board, logger)
	chatSvc := chat.NewService(pgrepos.NewChatRepository(db), logger)
	notifSvc := notification.NewService(
		pgrepos.NewNotificationRepository(db), usrSvc, mailSvc,
		webhooksvc.NewSender(conf.Webhook.EscalationURL), logger,
	)
	campaignSvc := campaign.NewService(pgrepos.NewCampaignRepository(db), notifSvc, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	if c := startScheduler(conf, logger, enrollSvc, campaignSvc); c != nil {
		defer c.Stop()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(&echoapi.Options{
		Address: conf.Server.Address(),
		Deps: &echoapi.Deps{
			Logger:          logger,
			UserSvc:         usrSvc,
			CourseSvc:       courseSvc,
			EnrollmentSvc:   enrollSvc,
			CampaignSvc:     campaignSvc,
			QuizSvc:         quizSvc,
			ChatSvc:         chatSvc,
			NotificationSvc: notifSvc,
		},
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func setUpFileStore(conf *core.Config) (core.FileStore, error) {
	if conf.Media.Bucket != "" {
		return filestore.NewGCSStore(context.Background(), conf.Media)
	}
	return filestore.NewLocalStore(conf.Media.LocalDir, "/media")
}

// setUpLeaderboard connects to Redis when configured and falls back to the
// in-memory board otherwise (single-process deployments, local dev).
func setUpLeaderboard(conf *core.Config, logger core.Logger) quiz.Leaderboard {
	if conf.Redis.Addr == "" {
		return cache.NewDummyLeaderboard()
	}
	rdb, err := cache.Open(conf.Redis)
	if err != nil {
		logger.Error(fmt.Sprintf("connecting to redis: %v; using in-memory leaderboard", err), err)
		return cache.NewDummyLeaderboard()
	}
	return cache.NewLeaderboard(rdb)
}
