package main

import (
	"context"
	"log"

	"github.com/LXKing/Kahla/internal/config"
	"github.com/LXKing/Kahla/internal/db"
	"github.com/LXKing/Kahla/internal/model"
	"github.com/LXKing/Kahla/internal/push"
	"github.com/LXKing/Kahla/internal/server"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	if err := conn.AutoMigrate(
		&model.User{},
		&model.Device{},
		&model.Conversation{},
		&model.UserConversationRelation{},
		&model.Message{},
		&model.At{},
		&model.Request{},
	); err != nil {
		log.Fatalf("auto migrate error: %v", err)
	}

	ctx := context.Background()

	realtime := push.NewRedisChannel(cfg.RedisAddr, cfg.RedisPassword)

	var devices push.DevicePush
	if cfg.FirebaseProjectID != "" {
		fcm, err := push.NewFCMPush(ctx, cfg.FirebaseProjectID)
		if err != nil {
			log.Printf("fcm init error: %v; device push disabled", err)
		} else {
			devices = fcm
		}
	}

	var attachments push.AttachmentStore
	if cfg.UserFilesBucket != "" {
		gcs, err := push.NewGCSStore(ctx, cfg.UserFilesBucket)
		if err != nil {
			log.Printf("storage init error: %v; file history disabled", err)
		} else {
			attachments = gcs
		}
	}

	email := push.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)

	srv := server.New(conn, cfg, realtime, devices, email, attachments)
	srv.StartDigest(ctx)

	addr := ":" + cfg.Port
	log.Printf("starting server on %s", addr)
	if err := srv.Start(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
