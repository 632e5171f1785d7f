package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"time"
)

// sendMail is a seam for testing smtp.SendMail.
var sendMail = smtp.SendMail

// SMTPNotifier delivers notices over plain SMTP. Auth is optional; with an
// empty user the message is handed to the relay unauthenticated.
type SMTPNotifier struct {
	Host     string
	Port     int
	From     string
	User     string
	Password string
}

func (n *SMTPNotifier) message(ownerEmail, fileName string, purgeDate time.Time) []byte {
	body := fmt.Sprintf(
		"Dear User,\r\n\r\n"+
			"The file %q has been marked for deletion. It will be permanently deleted on %s. "+
			"Please take necessary actions if you wish to keep this file.\r\n\r\n"+
			"Best Regards,\r\nYour File Management System\r\n",
		fileName, purgeDate.UTC().Format(time.RFC3339))

	return []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: File Deletion Notification\r\n\r\n%s",
		n.From, ownerEmail, body))
}

func (n *SMTPNotifier) Notify(ctx context.Context, ownerEmail, fileName string, purgeDate time.Time) error {
	var auth smtp.Auth
	if n.User != "" {
		auth = smtp.PlainAuth("", n.User, n.Password, n.Host)
	}

	addr := fmt.Sprintf("%s:%d", n.Host, n.Port)
	msg := n.message(ownerEmail, fileName, purgeDate)

	// net/smtp has no context support; run the send on the side and respect
	// ctx so a stuck relay cannot hold the dispatcher goroutine forever.
	done := make(chan error, 1)
	go func() {
		done <- sendMail(addr, auth, n.From, []string{ownerEmail}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}
