package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/asimaster/pricerank/internal/domain/alert"
)

const (
	maxTitleRunes = 60
	maxBodyRunes  = 160
)

// WebPushSender delivers alerts through the Web Push protocol using VAPID.
// When either VAPID key is missing the sender is a silent no-op so the rest
// of the alert pipeline keeps working without push credentials.
type WebPushSender struct {
	publicKey  string
	privateKey string
	subscriber string // mailto: claim
	timeout    time.Duration
}

// NewWebPushSender creates a sender; empty keys disable delivery
func NewWebPushSender(publicKey, privateKey, claimEmail string) *WebPushSender {
	return &WebPushSender{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: "mailto:" + claimEmail,
		timeout:    10 * time.Second,
	}
}

// Enabled reports whether both VAPID keys are configured
func (s *WebPushSender) Enabled() bool {
	return s.publicKey != "" && s.privateKey != ""
}

// Send encrypts and posts the payload to one subscription endpoint. Endpoints
// answering 404 or 410 surface as SubscriptionGoneError.
func (s *WebPushSender) Send(ctx context.Context, sub *alert.PushSubscription, title, body string, data map[string]interface{}) error {
	if !s.Enabled() {
		log.Printf("[push] VAPID keys not configured, skipping delivery")
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"title": truncateRunes(title, maxTitleRunes),
		"body":  truncateRunes(body, maxBodyRunes),
		"data":  data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             3600,
	})
	if err != nil {
		return fmt.Errorf("failed to send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 || resp.StatusCode == 410 {
		return alert.NewSubscriptionGoneError(resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push endpoint answered %d", resp.StatusCode)
	}
	return nil
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
