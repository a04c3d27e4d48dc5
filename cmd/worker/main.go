package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"smartattend/internal/config"
	"smartattend/internal/queue"
	"smartattend/internal/record"
	"smartattend/internal/roster"
	"smartattend/internal/session"
	"smartattend/internal/store"
)

// Worker closes expired attendance sessions on a schedule and drains the
// attendance event queue.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	rds := store.NewRedis(cfg.RedisAddr)

	rosterSvc := roster.NewService(roster.NewRepository(db.Client))
	sessions := session.NewService(session.NewRepository(db.Client), rds, rosterSvc, session.Config{
		CodeLength:    cfg.CodeLength,
		CodeTTL:       cfg.CodeTTL,
		MaxCodeResets: cfg.MaxCodeResets,
	})

	c := cron.New()
	if _, err := c.AddFunc("@every "+cfg.SweepInterval.String(), func() {
		closed, err := sessions.SweepExpired(ctx)
		if err != nil {
			log.Printf("sweep failed: %v", err)
			return
		}
		if closed > 0 {
			log.Printf("sweep closed %d expired session(s)", closed)
		}
	}); err != nil {
		log.Fatalf("sweep schedule invalid: %v", err)
	}
	c.Start()
	defer c.Stop()

	var events queue.Queue
	if cfg.QueueBackend == "memory" {
		events = queue.NewInMemory(64)
	} else {
		events = queue.NewRedisQueue(rds.Client, "attend:events")
	}

	messages, err := events.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, sweeping every", cfg.SweepInterval)
	for msg := range messages {
		if msg.Type != "attendance" {
			continue
		}
		var rec record.Record
		if err := json.Unmarshal(msg.Body, &rec); err != nil {
			log.Printf("bad attendance event: %v", err)
			continue
		}
		log.Printf("attendance recorded: session=%d student=%s status=%s", rec.SessionID, rec.StudentID, rec.Status)
	}

	log.Println("worker stopped")
}
