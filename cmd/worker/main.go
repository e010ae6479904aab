package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"classpin/internal/config"
	"classpin/internal/notification"
	"classpin/internal/queue"
	"classpin/internal/store"
)

// Worker consumes marked-attendance events and fills user notification inboxes.
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

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisTimeout)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, notification.QueueKey)
	}

	notes := notification.NewRepository(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		if msg.Type != notification.MessageType {
			continue
		}

		var evt notification.MarkedEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("bad message payload: %v", err)
			continue
		}
		if evt.StudentID == "" {
			continue
		}

		if err := notes.Insert(ctx, evt.StudentID, evt.Describe()); err != nil {
			log.Printf("notification insert failed for %s: %v", evt.StudentID, err)
			continue
		}
		log.Printf("notified %s: marked %s in %s", evt.StudentID, evt.Status, evt.ClassName)
	}

	log.Println("worker stopped")
}
