package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tazhibayda/auth-gateway/internal/config"
	"github.com/tazhibayda/auth-gateway/internal/log"
	"github.com/tazhibayda/auth-gateway/internal/notify"
	"github.com/tazhibayda/auth-gateway/internal/queue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run consumes until ctx is done. Every failure is returned so main exits non-zero.
func run(ctx context.Context) error {
	cfg, err := config.LoadNotifier()
	if err != nil {
		return err
	}
	l, err := log.Init(cfg.IsProduction() || cfg.LogJSON)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer l.Sync() //nolint:errcheck

	cons, err := queue.NewConsumer(cfg.RabbitURL, cfg.Exchange, cfg.Queue, cfg.BindKey)
	if err != nil {
		log.Errorf("rabbit consumer init failed: %v", err)
		return err
	}
	defer cons.Close()

	n := notify.New(notify.LogSender{Log: l}, l)

	log.Infof("notifier up. exchange=%s queue=%s key=%s workers=%d",
		cfg.Exchange, cfg.Queue, cfg.BindKey, cfg.Concurrency)

	if err := cons.Consume(ctx, cfg.Concurrency, n.Handle); err != nil {
		log.Errorf("consumer stopped: %v", err)
		return err
	}
	return nil
}
