// internal/infra/telegram/deliverer.go
package telegram

import (
	"context"
	"fmt"

	"tracker_notification_bot/internal/domain/notification"
	domainTelegram "tracker_notification_bot/internal/domain/telegram"
)

// DueNotifier implements notification.Deliverer by sending a short reminder
// for each due record to a configured chat.
type DueNotifier struct {
	client domainTelegram.Client
	chatID int64
}

func NewDueNotifier(client domainTelegram.Client, chatID int64) *DueNotifier {
	return &DueNotifier{client: client, chatID: chatID}
}

// DeliverDue sends the reminder for one due record.
func (n *DueNotifier) DeliverDue(ctx context.Context, rec *notification.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := fmt.Sprintf("🔔 Time to update \"%s\" (%s).", rec.Title, rec.Schedule)
	if err := n.client.SendMessage(n.chatID, text, nil); err != nil {
		return fmt.Errorf("failed to send due reminder for record %d: %w", rec.ID, err)
	}
	return nil
}
