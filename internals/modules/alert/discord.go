package alert

import (
	"strconv"
	"time"
)

const (
	discordRed   = 16711680
	discordGreen = 65280
)

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooter struct {
	Text string `json:"text"`
}

type discordEmbed struct {
	Title     string         `json:"title"`
	Color     int            `json:"color"`
	Fields    []discordField `json:"fields"`
	Footer    discordFooter  `json:"footer"`
	Timestamp string         `json:"timestamp"`
}

type discordMessage struct {
	Embeds []discordEmbed `json:"embeds"`
}

func discordPayload(msg AlertMessage) discordMessage {
	color := discordGreen
	emoji := "🟢"
	if msg.Status == "DOWN" {
		color = discordRed
		emoji = "🔴"
	}

	fields := []discordField{
		{Name: "URL", Value: msg.URL, Inline: false},
		{Name: "Status", Value: msg.Status, Inline: true},
	}
	if msg.StatusCode != 0 {
		fields = append(fields, discordField{Name: "Status Code", Value: strconv.Itoa(int(msg.StatusCode)), Inline: true})
	}
	if msg.ErrorMessage != "" {
		fields = append(fields, discordField{Name: "Error", Value: msg.ErrorMessage, Inline: false})
	}
	if msg.RepoLink != "" {
		fields = append(fields, discordField{Name: "Repository", Value: "[View](" + msg.RepoLink + ")", Inline: false})
	}
	if msg.Analysis != "" {
		fields = append(fields, discordField{Name: "Analysis", Value: msg.Analysis, Inline: false})
	}
	if msg.CommitLink != "" {
		fields = append(fields, discordField{Name: "Commit", Value: "[View](" + msg.CommitLink + ")", Inline: false})
	}
	if msg.PRLink != "" {
		fields = append(fields, discordField{Name: "Pull Request", Value: "[View](" + msg.PRLink + ")", Inline: false})
	}

	return discordMessage{
		Embeds: []discordEmbed{{
			Title:     emoji + " Monitor " + msg.Status,
			Color:     color,
			Fields:    fields,
			Footer:    discordFooter{Text: "EpiTrace Monitor"},
			Timestamp: msg.Timestamp.Format(time.RFC3339),
		}},
	}
}
