package notify

import (
	"fmt"

	goslack "github.com/slack-go/slack"
)

var statusEmoji = map[string]string{
	"completed":           ":white_check_mark:",
	"partially_completed": ":warning:",
	"failed":              ":x:",
	"cancelled":           ":no_entry_sign:",
}

var statusLabel = map[string]string{
	"completed":           "Wiki Generation Complete",
	"partially_completed": "Wiki Generation Partially Completed",
	"failed":              "Wiki Generation Failed",
	"cancelled":           "Wiki Generation Cancelled",
}

func jobURL(jobID, dashboardURL string) string {
	if dashboardURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/jobs/%s", dashboardURL, jobID)
}

// buildWebhookMessage renders a terminal notification as Slack Block Kit,
// shaped for delivery through a generic incoming webhook rather than the
// bot-token chat.postMessage API tarsy used.
func buildWebhookMessage(input TerminalInput, dashboardURL string) *goslack.WebhookMessage {
	emoji := statusEmoji[input.Status]
	if emoji == "" {
		emoji = ":question:"
	}
	label := statusLabel[input.Status]
	if label == "" {
		label = "Wiki Generation " + input.Status
	}

	headerText := fmt.Sprintf("%s *%s*\n%s/%s", emoji, label, input.Owner, input.Repo)
	if input.ErrorMessage != "" {
		headerText += fmt.Sprintf("\n\n*Error:*\n%s", input.ErrorMessage)
	}

	statsText := fmt.Sprintf("Pages: %d/%d completed, %d failed  |  Tokens: %d",
		input.CompletedPages, input.TotalPages, input.FailedPages, input.TotalTokens)

	blocks := []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, headerText, false, false),
			nil, nil,
		),
		goslack.NewContextBlock("",
			goslack.NewTextBlockObject(goslack.MarkdownType, statsText, false, false),
		),
	}

	if url := jobURL(input.JobID, dashboardURL); url != "" {
		btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, "View Job", false, false))
		btn.URL = url
		blocks = append(blocks, goslack.NewActionBlock("", btn))
	}

	blockSet := goslack.Blocks{BlockSet: blocks}
	return &goslack.WebhookMessage{Blocks: &blockSet}
}
