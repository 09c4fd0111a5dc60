package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	goslack "github.com/slack-go/slack"
	"github.com/stretchr/testify/require"

	"github.com/wikiforge/wikiforge/pkg/config"
)

func TestNewWebhookNotifier_NilWhenUnconfigured(t *testing.T) {
	require.Nil(t, NewWebhookNotifier(nil))
	require.Nil(t, NewWebhookNotifier(&config.NotifyConfig{}))
}

func TestWebhookNotifier_NilReceiver(t *testing.T) {
	var n *WebhookNotifier
	// must not panic
	n.NotifyTerminal(context.Background(), TerminalInput{JobID: "job-1"})
}

func TestWebhookNotifier_PostsMessage(t *testing.T) {
	n := NewWebhookNotifier(&config.NotifyConfig{WebhookURL: "https://hooks.example.com/x", DashboardURL: "https://dash.example.com"})
	require.NotNil(t, n)

	var gotURL string
	var gotMsg *goslack.WebhookMessage
	n.post = func(url string, msg *goslack.WebhookMessage) error {
		gotURL = url
		gotMsg = msg
		return nil
	}

	n.NotifyTerminal(context.Background(), TerminalInput{
		JobID: "job-1", Owner: "acme", Repo: "widgets", Status: "completed",
		TotalPages: 5, CompletedPages: 5, TotalTokens: 1200,
	})

	require.Equal(t, "https://hooks.example.com/x", gotURL)
	require.NotNil(t, gotMsg.Blocks)
	require.NotEmpty(t, gotMsg.Blocks.BlockSet)
}

func TestWebhookNotifier_LogsDeliveryError(t *testing.T) {
	n := NewWebhookNotifier(&config.NotifyConfig{WebhookURL: "https://hooks.example.com/x"})
	require.NotNil(t, n)

	n.post = func(string, *goslack.WebhookMessage) error {
		return errors.New("boom")
	}

	// Fail-open: must not panic or block despite the delivery error.
	n.NotifyTerminal(context.Background(), TerminalInput{JobID: "job-1", Status: "failed"})
}

func TestWebhookNotifier_TimesOutWithoutHanging(t *testing.T) {
	n := NewWebhookNotifier(&config.NotifyConfig{WebhookURL: "https://hooks.example.com/x"})
	require.NotNil(t, n)

	blocked := make(chan struct{})
	n.post = func(string, *goslack.WebhookMessage) error {
		<-blocked
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	n.NotifyTerminal(ctx, TerminalInput{JobID: "job-1"})
	require.Less(t, time.Since(start), 5*time.Second)
	close(blocked)
}
