package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

type Processor struct {
	logger zerolog.Logger
	mailer Mailer
	tokens TokenPurger
	now    func() time.Time
}

func NewProcessor(logger zerolog.Logger, mailer Mailer, tokens TokenPurger) *Processor {
	return &Processor{
		logger: logger,
		mailer: mailer,
		tokens: tokens,
		now:    time.Now,
	}
}

// Handle runs one stream message. Malformed messages are logged and
// dropped so they are acked instead of being redelivered forever.
func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	task, err := FromValues(msg.Values)
	if err != nil {
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping task")
		return nil
	}

	switch task.Type {
	case TypeSendMail:
		err = p.handleSendMail(ctx, task)
	case TypePurgeExpiredTokens:
		err = p.handlePurge(ctx)
	default:
		p.logger.Warn().Str("type", string(task.Type)).Msg("unknown task type")
		return nil
	}

	if errors.Is(err, ErrMalformedTask) {
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping task")
		return nil
	}
	return err
}

func (p *Processor) handleSendMail(ctx context.Context, task Task) error {
	var m SendMail
	if err := task.Decode(&m); err != nil {
		return err
	}
	if m.To == "" {
		return fmt.Errorf("%w: send_mail without recipient", ErrMalformedTask)
	}
	if err := p.mailer.Send(ctx, m.To, m.Subject, m.Body); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	p.logger.Info().Str("subject", m.Subject).Msg("mail sent")
	return nil
}

func (p *Processor) handlePurge(ctx context.Context) error {
	n, err := p.tokens.PurgeExpiredTokens(ctx, p.now().UTC())
	if err != nil {
		return fmt.Errorf("purge expired tokens: %w", err)
	}
	p.logger.Info().Int64("rows", n).Msg("expired account tokens purged")
	return nil
}
