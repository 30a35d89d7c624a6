package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"cra-manager/internal/api"
	"cra-manager/internal/config"
	"cra-manager/internal/database"
	"cra-manager/internal/handler"
	"cra-manager/internal/logging"
	"cra-manager/internal/repository"
	"cra-manager/internal/service"
	"cra-manager/pkg/telegram"
)

func main() {
	issueFor := flag.String("issue-token", "", "print an API token for the profile with this email and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of a token printed by -issue-token")
	flag.Parse()

	if *issueFor != "" {
		if err := issueToken(*issueFor, *tokenTTL); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	fx.New(
		fx.NopLogger,
		fx.Provide(
			config.GetConfig,
			NewLogger,
			NewDatabase,

			repository.NewProfileRepository,
			repository.NewGormCRAReportRepository,
			repository.NewGormAbsenceRequestRepository,
			repository.NewGormActionLogRepository,

			NewTelegramClient,
			NewNotifier,

			service.NewActionLogService,
			service.NewProfileService,
			service.NewCRAService,
			service.NewAbsenceService,
			service.NewDashboardService,
			service.NewReminderService,

			api.NewAuthenticator,
			NewSignatureLinker,
			api.NewFiberServer,
			AsRoute(api.NewSystemApi),
			AsRoute(api.NewCRAApi),
			AsRoute(api.NewDashboardApi),
			AsRoute(api.NewAbsenceApi),
			AsRoute(api.NewProfileApi),
		),
		fx.Invoke(
			InitializeAdmin,
			RegisterAllRoutes,
			StartServer,
			StartReminders,
			StartBot,
		),
	).Run()
}

func NewLogger(cfg *config.Config) *logrus.Logger {
	return logging.New(cfg.Env, cfg.LogLevel)
}

// NewDatabase открывает базу и закрывает ее при остановке приложения
func NewDatabase(lc fx.Lifecycle, cfg *config.Config, logger *logrus.Logger) (*gorm.DB, error) {
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return database.Close(db)
		},
	})
	return db, nil
}

// NewTelegramClient возвращает nil, если токен бота не задан
func NewTelegramClient(cfg *config.Config, logger *logrus.Logger) (*telegram.Client, error) {
	if cfg.TelegramToken == "" {
		logger.Info("TELEGRAM_TOKEN is not set, bot and telegram notifications are disabled")
		return nil, nil
	}
	client, err := telegram.NewClient(cfg.TelegramToken, !cfg.IsProduction() && cfg.LogLevel == "debug")
	if err != nil {
		return nil, fmt.Errorf("create telegram client: %w", err)
	}
	logger.Infof("Authorized on account %s", client.Bot.Self.UserName)
	return client, nil
}

func NewNotifier(client *telegram.Client, logger *logrus.Logger) service.Notifier {
	if client == nil {
		return service.NewLogNotifier(logger)
	}
	return service.NewTelegramNotifier(client, logger)
}

// NewSignatureLinker - ссылки на подпись подписываются тем же ключом, что и токены API
func NewSignatureLinker(auth *api.Authenticator) service.SignatureLinker {
	return auth
}

// AsRoute добавляет конструктор в группу "routes"
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

type routesParams struct {
	fx.In

	App    *fiber.App
	Routes []api.Route `group:"routes"`
	Logger *logrus.Logger
}

func RegisterAllRoutes(p routesParams) {
	api.RegisterRoutes(p.App, p.Routes, p.Logger)
}

func InitializeAdmin(lc fx.Lifecycle, cfg *config.Config, profiles *service.ProfileService, logger *logrus.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := profiles.InitializeAdmin(ctx, cfg.BaseAdminEmail, cfg.BaseAdminName); err != nil {
				logger.WithError(err).Warn("Failed to initialize admin")
			}
			return nil
		},
	})
}

// StartServer запускает fiber в горутине и останавливает его вместе с приложением
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, logger *logrus.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				addr := fmt.Sprintf(":%d", cfg.HTTPPort)
				logger.WithField("addr", addr).Info("HTTP server started")
				if err := app.Listen(addr); err != nil {
					logger.WithError(err).Fatal("HTTP server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}

func StartReminders(lc fx.Lifecycle, cfg *config.Config, reminders *service.ReminderService, logger *logrus.Logger) {
	if !cfg.RemindersEnable {
		logger.Info("Scheduled reminders are disabled")
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return reminders.StartScheduler(cfg.ReminderCron)
		},
		OnStop: func(ctx context.Context) error {
			return reminders.StopScheduler(ctx)
		},
	})
}

type botParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *telegram.Client `optional:"true"`
	Profiles  *service.ProfileService
	CRA       *service.CRAService
	Absences  *service.AbsenceService
	Reminders *service.ReminderService
	Logger    *logrus.Logger
}

// StartBot обрабатывает обновления бота, пока приложение работает
func StartBot(p botParams) {
	if p.Client == nil {
		return
	}
	botHandler := handler.NewHandler(p.Client, p.Profiles, p.CRA, p.Absences, p.Reminders, p.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			updates := p.Client.Updates()
			go func() {
				defer close(done)
				botHandler.HandleUpdates(ctx, updates)
			}()
			p.Logger.Info("Bot started")
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			p.Client.Stop()
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
			p.Logger.Info("Bot stopped gracefully")
			return nil
		},
	})
}

// issueToken печатает токен API для существующего профиля
func issueToken(email string, ttl time.Duration) error {
	cfg := config.GetConfig()
	logger := NewLogger(cfg)

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)

	profiles, err := repository.NewProfileRepository(db)
	if err != nil {
		return err
	}
	profile, err := profiles.GetByEmail(context.Background(), strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if profile == nil {
		return fmt.Errorf("no profile with email %s", email)
	}

	token, err := api.NewAuthenticator(cfg).Issue(profile.Actor(), ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
