package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"fuelcontrol/internal/config"
	"fuelcontrol/internal/notifier"
	"fuelcontrol/internal/store"
	"fuelcontrol/internal/telegram"
	"fuelcontrol/internal/util"
)

// Runs the maintenance due scan once, prints the alert text and, when the
// bot is configured, delivers it to the admin chat.
func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config file")
	send := flag.Bool("send", true, "deliver the alert to the admin chat when configured")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger(cfg.LogLevel)

	st, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	var bot *telegram.Client
	if cfg.TelegramToken != "" {
		bot = telegram.NewClient(cfg.TelegramToken, "")
	}

	n := notifier.New(st, bot, 0, cfg.NotifyHour, time.Minute, logger)
	text, err := n.RunOnce()
	if err != nil {
		if errors.Is(err, notifier.ErrNothingDue) {
			fmt.Println("nothing due")
			return
		}
		log.Fatalf("maintenance scan failed: %v", err)
	}
	fmt.Println(text)

	if *send && bot != nil && cfg.AdminChatID != "" {
		chatID, err := strconv.ParseInt(cfg.AdminChatID, 10, 64)
		if err != nil {
			log.Fatalf("invalid admin chat id %q: %v", cfg.AdminChatID, err)
		}
		if err := bot.SendMessage(chatID, text, nil); err != nil {
			log.Fatalf("send alert: %v", err)
		}
		logger.Info("maintenance alert sent", "chat_id", chatID)
	}
}
