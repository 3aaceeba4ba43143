package notifier

import (
	"strconv"
	"time"

	"verigate/internal/config"
	"verigate/internal/verification"

	"github.com/bwmarrin/discordgo"
)

func dmEmbed(lang string, verdict verification.Verdict, colors config.EmbedColors) *discordgo.MessageEmbed {
	color := colors.Failure
	if verdict.Accepted() {
		color = colors.Success
	}
	return &discordgo.MessageEmbed{
		Title:       dmTitle(lang, verdict.Accepted()),
		Description: DMText(lang, verdict),
		Color:       color,
		Timestamp:   verdict.DecidedAt.Format(time.RFC3339),
	}
}

// LogEmbed builds the verification log entry posted to the guild's log
// channel.
func LogEmbed(verdict verification.Verdict, colors config.EmbedColors) *discordgo.MessageEmbed {
	req := verdict.Request
	status := "Failed"
	color := colors.Failure
	if verdict.Accepted() {
		status = "Success"
		color = colors.Success
	}
	if verdict.Outcome.ReasonCode() != "" {
		status += " (" + verdict.Outcome.ReasonCode() + ")"
	}
	email := req.Email
	if email == "" {
		email = "-"
	}

	return &discordgo.MessageEmbed{
		Title: "Verification Log",
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User ID", Value: req.SubjectID, Inline: true},
			{Name: "Username", Value: req.Username, Inline: true},
			{Name: "Email", Value: email, Inline: true},
			{Name: "Created At", Value: req.AccountCreatedAt.UTC().Format("2006-01-02 15:04:05"), Inline: true},
			{Name: "IP", Value: req.NetworkAddress, Inline: true},
			{Name: "Country", Value: req.CountryCode, Inline: true},
			{Name: "VPN/Proxy", Value: strconv.FormatBool(req.Anonymized), Inline: true},
			{Name: "Status", Value: status, Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: verdict.ID},
		Timestamp: verdict.DecidedAt.Format(time.RFC3339),
	}
}
