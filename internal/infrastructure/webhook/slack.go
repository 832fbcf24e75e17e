package webhook

import (
	"fmt"

	"github.com/felixgeelhaar/spectree/pkg/application"
)

func slackMessage(note application.PlanNotification) map[string]interface{} {
	text := slackText(note)
	return map[string]interface{}{
		"text": text,
		"blocks": []map[string]interface{}{
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": text,
				},
			},
		},
	}
}

func slackText(note application.PlanNotification) string {
	name, features, tasks := "", 0, 0
	if note.Plan != nil {
		name, features, tasks = note.Plan.Epic.Name, note.Plan.TotalFeatures, note.Plan.TotalTasks
	}
	switch note.Event {
	case application.EventPlanMaterialized:
		text := fmt.Sprintf(":clipboard: Plan created: *%s* (%d features, %d tasks)", name, features, tasks)
		if note.Plan != nil && len(note.Plan.Warnings) > 0 {
			text += fmt.Sprintf("\n:warning: %d annotations could not be applied", len(note.Plan.Warnings))
		}
		return text
	case application.EventPlanDryRun:
		return fmt.Sprintf(":mag: Plan previewed: *%s* (%d features, %d tasks)", name, features, tasks)
	case application.EventPlanTemplate:
		return fmt.Sprintf(":package: Template instantiated: *%s* (%d features, %d tasks)", name, features, tasks)
	default:
		return fmt.Sprintf("Spectree event: %s", note.Event)
	}
}
