package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/zerotwobot/zeroguard/internal/bot"
	"github.com/zerotwobot/zeroguard/internal/config"
	"github.com/zerotwobot/zeroguard/internal/db/sqlite"
	"github.com/zerotwobot/zeroguard/internal/event"
	"github.com/zerotwobot/zeroguard/internal/handlers"
	"github.com/zerotwobot/zeroguard/internal/infra"
	"github.com/zerotwobot/zeroguard/internal/infrastructure/telegram"
	"github.com/zerotwobot/zeroguard/internal/lifecycle"
	"github.com/zerotwobot/zeroguard/internal/observability"
	"github.com/zerotwobot/zeroguard/internal/policy/membership"
	"github.com/zerotwobot/zeroguard/internal/policy/permissions"
	"github.com/zerotwobot/zeroguard/internal/roles"
)

func main() {
	cfg := config.Get()
	log.SetFormatter(&config.ZgFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.Level(cfg.LogLevel))

	infra.GoRecoverable(-1, "zeroguard", func() {
		ctx, cancelFunc := context.WithCancel(context.Background())
		defer cancelFunc()

		if err := observability.Init(ctx, cfg.MetricsAddr); err != nil {
			log.WithError(err).Fatalln("cant init observability")
		}
		defer event.RunWorker()()

		botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
		if err != nil {
			log.WithError(err).Errorln("cant initialize bot api")
			time.Sleep(1 * time.Second)
			log.Fatalln("exiting")
		}
		if log.Level(cfg.LogLevel) == log.TraceLevel {
			botAPI.Debug = true
		}
		defer botAPI.StopReceivingUpdates()

		dbClient, err := sqlite.NewSQLiteClient(ctx, infra.GetWorkDir(cfg.DotPath), "bot.db")
		if err != nil {
			log.WithError(err).Fatalln("cant open database")
		}
		defer func() { _ = dbClient.Close() }()

		service := bot.NewService(botAPI, dbClient, log.WithField("context", "service"))
		ops := telegram.NewOperations(botAPI)

		registry := roles.NewRegistry(cfg.Roles)
		cache := membership.NewSnapshotCache(membership.SnapshotCapacity, membership.SnapshotTTL)
		resolver := membership.NewResolver(ops, cache, registry)
		engine := permissions.NewEngine(registry, resolver)
		guard := handlers.NewGuard(service, engine, ops)

		event.Subscribe(event.TypeDeleteMessage, func(e event.Queueable) {
			dm, ok := e.(*event.DeleteMessage)
			if !ok {
				e.Drop()
				return
			}
			// Cleanup is best effort, a failed delete is dropped quietly.
			if err := ops.DeleteMessage(ctx, dm.ChatID, dm.MessageID); err != nil {
				log.WithError(err).Debug("cant delete restricted command")
			}
			dm.Process()
		})

		bot.RegisterUpdateHandler("admin", handlers.NewAdmin(service, guard, ops))

		updateProcessor := bot.NewUpdateProcessor(service)
		runtime := lifecycle.NewRuntime(bot.NewPoller(service, updateProcessor))
		if err := runtime.Start(ctx); err != nil {
			log.WithError(err).Fatalln("cant start runtime")
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sigChan:
			log.Infoln("shutting down")
		case <-infra.MonitorExecutable(ctx):
			log.Errorln("executable file was modified")
		}

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		if err := runtime.Stop(stopCtx); err != nil {
			log.WithError(err).Errorln("cant stop runtime")
		}
	})
	os.Exit(0)
}
