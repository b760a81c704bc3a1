// Package notify reacts to auth events published on the auth exchange.
package notify

import (
	"context"
	"fmt"

	"github.com/tazhibayda/auth-gateway/internal/helper"
	"github.com/tazhibayda/auth-gateway/internal/queue"
	"go.uber.org/zap"
)

// Sender delivers a welcome notice. The default implementation only logs.
type Sender interface {
	SendWelcome(ctx context.Context, to, name string) error
}

type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) SendWelcome(_ context.Context, to, name string) error {
	s.Log.Info("welcome notice sent",
		zap.String("to_hash", helper.Hash8(to)),
		zap.String("name", name),
	)
	return nil
}

type Notifier struct {
	sender Sender
	log    *zap.Logger
}

func New(sender Sender, log *zap.Logger) *Notifier {
	return &Notifier{sender: sender, log: log}
}

// Handle is a queue.Handler.
func (n *Notifier) Handle(ctx context.Context, key string, body []byte) error {
	switch key {
	case queue.KeyUserRegistered:
		ev, err := queue.Decode[queue.UserRegistered](body)
		if err != nil {
			return err
		}
		if ev.Email == "" {
			return fmt.Errorf("%w: registration without email", queue.ErrMalformed)
		}
		return n.sender.SendWelcome(ctx, ev.Email, helper.FirstNonEmpty(ev.Name, ev.Email))
	case queue.KeyUserLoggedIn:
		ev, err := queue.Decode[queue.UserLoggedIn](body)
		if err != nil {
			return err
		}
		n.log.Debug("user logged in", zap.String("user_id", ev.UserID), zap.String("method", ev.Method))
		return nil
	default:
		n.log.Warn("unexpected routing key", zap.String("key", key))
		return nil
	}
}
