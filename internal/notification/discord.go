package notification

import (
	"fmt"
	"os"
	"time"

	"reconflow/internal/models"

	"github.com/bwmarrin/discordgo"
)

// NotificationClient pushes terminal job states to a Discord channel.
// Optional: the server runs without it when DISCORD_TOKEN is unset.
type NotificationClient struct {
	sg *discordgo.Session
}

func NewNotificationClient() (*NotificationClient, error) {
	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN environment variable not set")
	}

	sg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	if err := sg.Open(); err != nil {
		return nil, err
	}

	return &NotificationClient{sg: sg}, nil
}

func (c *NotificationClient) Close() {
	if c.sg != nil {
		c.sg.Close()
	}
}

func statusColor(status string) int {
	switch status {
	case models.StatusCompleted:
		return 0x2ECC71
	case models.StatusError:
		return 0xFF0000
	default:
		return 0x808080
	}
}

// NotifyJobFinished posts an embed describing a job's terminal state.
// Failures are swallowed; notification must never affect scan outcomes.
func (c *NotificationClient) NotifyJobFinished(job *models.ScanJob, resultCount int64) {
	if c == nil || c.sg == nil {
		return
	}

	channelID := os.Getenv("DISCORD_CHANNEL_ID")
	if channelID == "" {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s scan %s", job.Kind, job.Status),
		Description: job.Target,
		Color:       statusColor(job.Status),
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "task_id", Value: job.TaskID, Inline: true},
			{Name: "results", Value: fmt.Sprintf("%d", resultCount), Inline: true},
		},
	}
	if job.ErrorMessage != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "error", Value: job.ErrorMessage,
		})
	}

	_, _ = c.sg.ChannelMessageSendEmbed(channelID, embed)
}
