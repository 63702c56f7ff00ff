package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qolae/readers-dashboard-api/pkg/config"
	"github.com/qolae/readers-dashboard-api/pkg/jobs"
	"github.com/qolae/readers-dashboard-api/pkg/mailer"
)

// Notifier dispatches outbound email through the background queue. Every
// send is best-effort; a failed delivery is logged and retried by the queue
// but never surfaces to the request that triggered it.
type Notifier struct {
	mailer *mailer.Mailer
	queue  *jobs.Queue
	logger *zap.Logger
}

func NewNotifier(m *mailer.Mailer, cfg config.MailerConfig, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Notifier{mailer: m, logger: logger}
	n.queue = jobs.NewQueue("mail", n.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return n
}

func (n *Notifier) Start(ctx context.Context) { n.queue.Start(ctx) }
func (n *Notifier) Stop()                     { n.queue.Stop() }

func (n *Notifier) handle(_ context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		return fmt.Errorf("unexpected payload type for job %s", job.ID)
	}
	return n.mailer.Send(msg)
}

func (n *Notifier) enqueue(jobType string, msg mailer.Message) {
	if err := n.queue.Enqueue(jobs.Job{Type: jobType, Payload: msg, Enqueued: time.Now()}); err != nil {
		n.logger.Warn("mail enqueue failed", zap.String("type", jobType), zap.Error(err))
	}
}

// SendTwoFactorCode emails the verification code for the second login step.
func (n *Notifier) SendTwoFactorCode(email, name, code string, expiresAt time.Time) {
	n.enqueue("two_factor_code", mailer.Message{
		To:      email,
		Subject: "Your QOLAE verification code",
		HTML: fmt.Sprintf(
			"<p>Hello %s,</p><p>Your verification code is <strong>%s</strong>.</p><p>It expires at %s.</p>",
			name, code, expiresAt.Format("15:04 MST")),
	})
}

// SendInvitation emails new reader credentials created by an administrator.
func (n *Notifier) SendInvitation(email, name, pin, tempPassword string) {
	n.enqueue("invitation", mailer.Message{
		To:      email,
		Subject: "Your QOLAE Readers Dashboard account",
		HTML: fmt.Sprintf(
			"<p>Hello %s,</p><p>An account has been created for you on the QOLAE Readers Dashboard.</p>"+
				"<p>PIN: <strong>%s</strong><br>Temporary password: <strong>%s</strong></p>"+
				"<p>Please sign in and complete the confidentiality agreement before accepting assignments.</p>",
			name, pin, tempPassword),
	})
}

// SendPaymentUpdate tells a reader their payment status changed.
func (n *Notifier) SendPaymentUpdate(email, name string, sequence int, status string, amount float64) {
	n.enqueue("payment_update", mailer.Message{
		To:      email,
		Subject: fmt.Sprintf("Payment update for report #%d", sequence),
		HTML: fmt.Sprintf(
			"<p>Hello %s,</p><p>The payment for report #%d is now <strong>%s</strong> (£%.2f).</p>",
			name, sequence, status, amount),
	})
}

// SendAssignmentNotice tells a reader a report is waiting for review.
func (n *Notifier) SendAssignmentNotice(email, name string, sequence int, deadline time.Time) {
	n.enqueue("assignment_notice", mailer.Message{
		To:      email,
		Subject: fmt.Sprintf("Report #%d assigned for review", sequence),
		HTML: fmt.Sprintf(
			"<p>Hello %s,</p><p>Report #%d has been assigned to you. The correction deadline is %s.</p>",
			name, sequence, deadline.Format("2 January 2006 15:04 MST")),
	})
}
