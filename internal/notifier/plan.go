package notifier

import "verigate/internal/verification"

type Action int

const (
	ActionDM Action = iota
	ActionBan
	ActionGrantRole
	ActionAuditLog
)

func (a Action) String() string {
	switch a {
	case ActionDM:
		return "dm"
	case ActionBan:
		return "ban"
	case ActionGrantRole:
		return "grant_role"
	case ActionAuditLog:
		return "audit_log"
	default:
		return "unknown"
	}
}

// Target is the guild-side context a verdict is applied to.
type Target struct {
	GuildID      string
	LogChannelID string
	RoleName     string
	Language     string
}

// Plan lists the side effects of a verdict in execution order. The DM goes
// first so it is still deliverable before a ban removes the shared guild.
func Plan(verdict verification.Verdict, target Target) []Action {
	actions := []Action{ActionDM}
	switch verdict.Outcome {
	case verification.RejectedDuplicateBan:
		actions = append(actions, ActionBan)
	case verification.Accepted:
		actions = append(actions, ActionGrantRole)
	}
	if target.LogChannelID != "" {
		actions = append(actions, ActionAuditLog)
	}
	return actions
}
