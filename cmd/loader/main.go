package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	tele "gopkg.in/telebot.v3"

	"github.com/vegasatr/OtpuskPass-bot/internal/config"
	"github.com/vegasatr/OtpuskPass-bot/internal/loader"
	"github.com/vegasatr/OtpuskPass-bot/internal/repository"
)

// loader imports the base apartment listings from per-city folders:
// it validates the listing files, uploads each video to Telegram once
// to obtain a reusable file_id and upserts the catalog rows.
func main() {
	dir := flag.String("dir", "add_property", "directory with per-city listing folders")
	scaffoldOnly := flag.Bool("scaffold", false, "only create missing folders and templates, do not import")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := loader.Scaffold(*dir); err != nil {
		log.Fatalf("Failed to scaffold %s: %v", *dir, err)
	}
	if *scaffoldOnly {
		log.Println("[Loader] Scaffold complete")
		return
	}

	if cfg.Telegram.BotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required to upload videos")
	}
	if cfg.Telegram.UploadChatID == 0 {
		log.Fatal("TELEGRAM_UPLOAD_CHAT_ID is required to upload videos")
	}

	bot, err := tele.NewBot(tele.Settings{Token: cfg.Telegram.BotToken})
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	repo, err := repository.New(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	uploader := &telegramUploader{bot: bot, chatID: cfg.Telegram.UploadChatID}

	if err := loader.Run(context.Background(), *dir, repo, uploader); err != nil {
		log.Fatalf("Import finished with errors: %v", err)
	}
	log.Println("[Loader] All base apartments imported")
}

type telegramUploader struct {
	bot    *tele.Bot
	chatID int64
}

func (u *telegramUploader) UploadVideo(path string) (string, error) {
	video := &tele.Video{File: tele.FromDisk(path)}
	msg, err := u.bot.Send(&tele.User{ID: u.chatID}, video, tele.Silent)
	if err != nil {
		return "", fmt.Errorf("failed to upload video: %w", err)
	}
	if msg.Video == nil {
		return "", fmt.Errorf("upload response carries no video")
	}
	return msg.Video.FileID, nil
}
