// Package worker drains the email job queue.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"go.uber.org/zap"

	"github.com/workdeck/backend/config"
	"github.com/workdeck/backend/pkg/queue"
)

// EmailProcessor processes email jobs: render the message for the job type
// and hand it to SMTP. Without an SMTP host configured messages are logged,
// which keeps local development running without a mail server.
type EmailProcessor struct {
	queue  *queue.Queue
	cfg    config.EmailConfig
	logger *zap.Logger
}

// NewEmailProcessor creates an email job processor.
func NewEmailProcessor(q *queue.Queue, cfg config.EmailConfig, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{queue: q, cfg: cfg, logger: logger}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeInvitationEmail:
		var payload queue.InvitationEmailPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		subject := fmt.Sprintf("You have been invited to %s", payload.CompanyName)
		body := fmt.Sprintf(
			"Hi %s,\r\n\r\nYou have been invited to join %s on Workdeck. Sign in to accept or decline the invitation.\r\n",
			payload.RecipientName, payload.CompanyName)
		return p.send(payload.RecipientEmail, subject, body)

	case queue.JobTypeRequestReviewed:
		var payload queue.RequestReviewedPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		kind := "company request"
		if payload.RequestKind == "permission_request" {
			kind = "permission request"
		}
		subject := fmt.Sprintf("Your %s was %s", kind, verdictWord(payload.Status))
		body := fmt.Sprintf(
			"Hi %s,\r\n\r\nYour %s has been %s.\r\n",
			payload.RecipientName, kind, verdictWord(payload.Status))
		return p.send(payload.RecipientEmail, subject, body)

	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func verdictWord(status string) string {
	if status == "APPROVED" {
		return "approved"
	}
	return "rejected"
}

func (p *EmailProcessor) send(to, subject, body string) error {
	if p.cfg.SMTPHost == "" {
		p.logger.Info("email (smtp not configured)",
			zap.String("to", to), zap.String("subject", subject))
		return nil
	}

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		p.cfg.FromName, p.cfg.FromAddress, to, subject, body)

	addr := fmt.Sprintf("%s:%d", p.cfg.SMTPHost, p.cfg.SMTPPort)
	var auth smtp.Auth
	if p.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", p.cfg.SMTPUser, p.cfg.SMTPPass, p.cfg.SMTPHost)
	}
	if err := smtp.SendMail(addr, auth, p.cfg.FromAddress, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	p.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
