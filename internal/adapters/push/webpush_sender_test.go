package push

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asimaster/pricerank/internal/domain/alert"
)

func TestEnabled(t *testing.T) {
	assert.True(t, NewWebPushSender("pub", "priv", "ops@example.com").Enabled())
	assert.False(t, NewWebPushSender("", "priv", "ops@example.com").Enabled())
	assert.False(t, NewWebPushSender("pub", "", "ops@example.com").Enabled())
}

func TestSend_NoopWithoutKeys(t *testing.T) {
	sender := NewWebPushSender("", "", "ops@example.com")

	// No keys means no delivery attempt, and no error either
	err := sender.Send(context.Background(), &alert.PushSubscription{Endpoint: "https://push/ep"}, "제목", "본문", nil)
	assert.NoError(t, err)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "짧은 제목", truncateRunes("짧은 제목", 60))

	long := strings.Repeat("가", 70)
	got := truncateRunes(long, 60)
	runes := []rune(got)
	assert.Len(t, runes, 60)
	assert.Equal(t, '…', runes[59])

	// Exactly at the limit stays intact
	exact := strings.Repeat("나", 60)
	assert.Equal(t, exact, truncateRunes(exact, 60))
}
