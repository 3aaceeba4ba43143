package notifier

import (
	"fmt"
	"strings"

	"verigate/internal/verification"
)

const BanReason = "Duplicate account usage from same IP within 24 hours."

const RoleGrantReason = "Verification success"

var dmTemplates = map[string]map[verification.Outcome]string{
	"ja": {
		verification.Accepted:              "@%[1]s、認証が完了しました。",
		verification.RejectedAnonymized:    "@%[1]s、vpn,proxyを外してから来い",
		verification.RejectedTooNew:        "@%[1]s、あなたのアカウントは新しすぎるので認証されませんでした、後日サイド認証を行ってください。",
		verification.RejectedDuplicateBan:  "@%[1]sの本垢、複垢と見られるものが検出されました。検出アカウント:@%[1]s、もし何かの間違いであれば@adminまで連絡してください。",
		verification.RejectedDuplicateDeny: "@%[1]s、同じIPで1週間以内に別の認証がありました。認証できません。",
	},
	"en": {
		verification.Accepted:              "@%[1]s, your verification is complete.",
		verification.RejectedAnonymized:    "@%[1]s, disconnect your VPN or proxy and try again.",
		verification.RejectedTooNew:        "@%[1]s, your account is too new to be verified. Please try again in a few days.",
		verification.RejectedDuplicateBan:  "@%[1]s, an alternate account was detected for your main account. Detected account: @%[1]s. If this is a mistake, contact @admin.",
		verification.RejectedDuplicateDeny: "@%[1]s, another verification came from the same IP within a week. You cannot be verified.",
	},
}

var dmTitles = map[string][2]string{
	"ja": {"認証成功", "認証失敗"},
	"en": {"Verification succeeded", "Verification failed"},
}

// DMText renders the direct message for a verdict. Unknown languages fall
// back to Japanese.
func DMText(lang string, verdict verification.Verdict) string {
	catalog, ok := dmTemplates[strings.ToLower(lang)]
	if !ok {
		catalog = dmTemplates["ja"]
	}
	name := verdict.Request.Username
	if name == "" {
		name = verdict.Request.SubjectID
	}
	return fmt.Sprintf(catalog[verdict.Outcome], name)
}

func dmTitle(lang string, accepted bool) string {
	titles, ok := dmTitles[strings.ToLower(lang)]
	if !ok {
		titles = dmTitles["ja"]
	}
	if accepted {
		return titles[0]
	}
	return titles[1]
}
