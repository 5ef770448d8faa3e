package config

// AlertConfig holds the alert engine configuration
type AlertConfig struct {
	// Suppression window for unread same-kind alerts (hours)
	DedupHours int `mapstructure:"dedup_hours" validate:"min=1"`
}

// PushConfig holds web-push VAPID credentials. Push delivery is disabled
// unless both keys are present.
type PushConfig struct {
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	ClaimEmail      string `mapstructure:"claim_email"`
}
