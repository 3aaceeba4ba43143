package filter

import "fmt"

func Reason(lang string, v Violation) string {
	if lang == "en" {
		switch v.Kind {
		case KindURL:
			return "Posted a link"
		case KindInvite:
			return "Posted an invite link"
		default:
			return "Blocked word: " + v.Word
		}
	}
	switch v.Kind {
	case KindURL:
		return "URL投稿"
	case KindInvite:
		return "招待リンク"
	default:
		return "禁止ワード: " + v.Word
	}
}

// WarningText is posted in the channel after the offending message is
// removed.
func WarningText(lang, userID string, v Violation) string {
	if lang == "en" {
		detail := ""
		if v.Word != "" {
			detail = fmt.Sprintf(" (blocked word: %s)", v.Word)
		}
		return fmt.Sprintf("<@%s>, that message breaks the server rules%s. Repeating it may get you kicked or banned.", userID, detail)
	}
	detail := ""
	if v.Word != "" {
		detail = fmt.Sprintf("(禁止単語: %s)", v.Word)
	}
	return fmt.Sprintf("<@%s>、現在使用された言葉は、サーバーのルールにより禁止されています%s。\n今後、同じ発言が繰り返されると、BanやKickのリスクがあるため、注意をしてください。", userID, detail)
}
