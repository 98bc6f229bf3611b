package notify

import (
	"fmt"

	goslack "github.com/slack-go/slack"
)

const maxBlockTextLength = 2900

var severityEmoji = map[string]string{
	"info":     ":information_source:",
	"low":      ":information_source:",
	"medium":   ":warning:",
	"high":     ":warning:",
	"critical": ":rotating_light:",
	"fatal":    ":rotating_light:",
}

// BuildSystemErrorMessage creates Block Kit blocks for a system.error page.
func BuildSystemErrorMessage(component, message, severity string) []goslack.Block {
	emoji := severityEmoji[severity]
	if emoji == "" {
		emoji = ":question:"
	}
	header := fmt.Sprintf("%s *system.error* (%s, `%s`)", emoji, severity, component)
	return []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, header, false, false),
			nil, nil,
		),
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, truncateForSlack(message), false, false),
			nil, nil,
		),
	}
}

// BuildBackpressureMessage creates Block Kit blocks for a
// system.backpressure page.
func BuildBackpressureMessage(room string, dropped int) []goslack.Block {
	text := fmt.Sprintf(":warning: *system.backpressure* on room `%s` — dropped %d event(s)", room, dropped)
	return []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false),
			nil, nil,
		),
	}
}

func truncateForSlack(text string) string {
	if len(text) <= maxBlockTextLength {
		return text
	}
	return text[:maxBlockTextLength] + "\n\n_... (truncated)_"
}
