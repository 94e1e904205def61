package slack

import "github.com/slack-go/slack"

// Button is an interactive button attached to a reply.
type Button struct {
	ActionID string
	Label    string
	Value    string
	Style    slack.Style
}

// FormatReply builds the response to a slash command or a mention.
func FormatReply(text string, ephemeral bool, buttons ...Button) slack.Message {
	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
	}
	if len(buttons) > 0 {
		elements := make([]slack.BlockElement, 0, len(buttons))
		for _, b := range buttons {
			btn := slack.NewButtonBlockElement(b.ActionID, b.Value, slack.NewTextBlockObject(slack.PlainTextType, b.Label, false, false))
			btn.Style = b.Style
			elements = append(elements, btn)
		}
		blocks = append(blocks, slack.NewActionBlock("match_actions", elements...))
	}

	msg := slack.NewBlockMessage(blocks...)
	msg.Text = text
	if ephemeral {
		msg.ResponseType = "ephemeral"
	} else {
		msg.ResponseType = "in_channel"
	}
	return msg
}
