package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"smartattend/internal/account"
	"smartattend/internal/announce"
	"smartattend/internal/config"
	"smartattend/internal/httpapi"
	"smartattend/internal/queue"
	"smartattend/internal/record"
	"smartattend/internal/report"
	"smartattend/internal/roster"
	"smartattend/internal/session"
	"smartattend/internal/store"
	"smartattend/internal/timetable"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func run(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	rds := store.NewRedis(cfg.RedisAddr)

	var events queue.Queue
	if cfg.QueueBackend == "memory" {
		events = queue.NewInMemory(64)
	} else {
		events = queue.NewRedisQueue(rds.Client, "attend:events")
	}

	accountSvc := account.NewService(account.NewRepository(db.Client))
	rosterSvc := roster.NewService(roster.NewRepository(db.Client))
	timetableSvc := timetable.NewService(timetable.NewRepository(db.Client))
	sessionSvc := session.NewService(session.NewRepository(db.Client), rds, rosterSvc, session.Config{
		CodeLength:    cfg.CodeLength,
		CodeTTL:       cfg.CodeTTL,
		MaxCodeResets: cfg.MaxCodeResets,
	})
	recordSvc := record.NewService(record.NewRepository(db.Client), sessionSvc, rosterSvc, events)
	reportSvc := report.NewService(report.NewRepository(db.Client), timetable.NewRepository(db.Client))
	announceSvc := announce.NewService(announce.NewRepository(db.Client), rosterSvc)

	h := httpapi.New(cfg, accountSvc, rosterSvc, timetableSvc, sessionSvc, recordSvc, reportSvc, announceSvc)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h.Router(db, rds),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}

	log.Println("server exited")
	return nil
}
