package alert

import "strconv"

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer"`
	TS     int64        `json:"ts"`
}

type slackMessage struct {
	Attachments []slackAttachment `json:"attachments"`
}

func slackPayload(msg AlertMessage) slackMessage {
	color := "good"
	emoji := "🟢"
	if msg.Status == "DOWN" {
		color = "danger"
		emoji = "🔴"
	}

	fields := []slackField{
		{Title: "URL", Value: msg.URL, Short: false},
		{Title: "Status", Value: msg.Status, Short: true},
	}
	if msg.StatusCode != 0 {
		fields = append(fields, slackField{Title: "Status Code", Value: strconv.Itoa(int(msg.StatusCode)), Short: true})
	}
	if msg.ErrorMessage != "" {
		fields = append(fields, slackField{Title: "Error", Value: msg.ErrorMessage, Short: false})
	}
	if msg.RepoLink != "" {
		fields = append(fields, slackField{Title: "Repository", Value: "<" + msg.RepoLink + "|View Repo>", Short: false})
	}
	if msg.Analysis != "" {
		fields = append(fields, slackField{Title: "Analysis", Value: msg.Analysis, Short: false})
	}
	if msg.CommitLink != "" {
		fields = append(fields, slackField{Title: "Commit", Value: "<" + msg.CommitLink + "|View Commit>", Short: false})
	}
	if msg.PRLink != "" {
		fields = append(fields, slackField{Title: "Pull Request", Value: "<" + msg.PRLink + "|View PR>", Short: false})
	}

	return slackMessage{
		Attachments: []slackAttachment{{
			Color:  color,
			Title:  emoji + " Monitor " + msg.Status,
			Fields: fields,
			Footer: "EpiTrace Monitor",
			TS:     msg.Timestamp.Unix(),
		}},
	}
}
