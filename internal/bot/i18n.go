package bot

import "fmt"

var translations = map[string]map[string]string{
	"ja": {
		"error_only_guild":       "このコマンドはサーバー内でのみ使用できます。",
		"error_permission":       "このコマンドを使用する権限がありません。",
		"error_unknown":          "不明なアクションです。",
		"error_generic":          "エラーが発生しました: %s",
		"verify_title":           "Discord Verification",
		"verify_desc":            "下のリンクから認証を行ってください。",
		"verify_field_role":      "Role to be assigned on success",
		"verify_field_link":      "Verification Link",
		"verify_link_label":      "[Click here](%s)",
		"verify_no_url":          "認証URLが設定されていません。",
		"verifylog_title":        "認証ログ",
		"verifylog_set":          "ログチャンネルを<#%s>に設定しました。",
		"verifylog_unset":        "ログチャンネルの設定を解除しました。",
		"verifylog_status":       "現在のログチャンネル: %s",
		"verifylog_none":         "未設定",
		"verifylog_stats":        "過去7日間の認証結果",
		"verifylog_need_channel": "チャンネルを指定してください。",
		"timeout_title":          "タイムアウト",
		"timeout_need_time":      "タイムアウト期間を指定してください。",
		"timeout_invalid_time":   "無効な時間形式です。",
		"timeout_added":          "<@%s> をタイムアウトしました。",
		"timeout_forever":        "<@%s> を無期限タイムアウトしました。",
		"timeout_cancelled":      "<@%s> のタイムアウトを解除しました。",
		"timeout_active":         "<@%s> は現在タイムアウト中です。\n解除まで: %s",
		"timeout_inactive":       "<@%s> は現在タイムアウトされていません。",
		"timeout_shortened":      "<@%s> のタイムアウト期間を %s 短縮しました。\n残り: %s",
		"timeout_no_history":     "<@%s> のタイムアウト履歴はありません。",
		"timeout_history_title":  "<@%s> のタイムアウト履歴",
		"timeout_field_duration": "期間",
		"timeout_history_action": "アクション: %s",
		"timeout_history_value":  "実行者: <@%s>\n期間: %s\n日時: <t:%d:f>",
		"nick_title":             "ニックネーム変更",
		"nick_failed":            "ニックネームの変更に失敗しました。",
		"nick_field_user":        "対象ユーザー",
		"nick_field_before":      "変更前",
		"nick_field_after":       "変更後",
		"filter_title":           "フィルター",
		"filter_word_added":      "禁止ワード「%s」を追加しました。",
		"filter_word_edited":     "禁止ワード「%s」を更新しました。",
		"filter_word_removed":    "禁止ワード「%s」を削除しました。",
		"filter_word_missing":    "禁止ワード「%s」は登録されていません。",
		"filter_word_exists":     "禁止ワード「%s」は既に登録されています。",
		"filter_word_required":   "ワードとペナルティ(kick/ban/timeout)を指定してください。",
		"filter_word_list":       "禁止ワード一覧",
		"filter_word_empty":      "禁止ワードは登録されていません。",
		"filter_minutes":         "%d分",
		"filter_url_block":       "URLブロックを%sにしました。",
		"filter_invite_block":    "招待リンクブロックを%sにしました。",
		"filter_on":              "有効",
		"filter_off":             "無効",
		"filter_violation_title": "ルール違反",
		"domain_title":           "ドメイン",
		"domain_required":        "ドメインを指定してください。",
		"domain_added":           "ドメインを追加しました。",
		"domain_removed":         "ドメインを削除しました。",
		"domain_list":            "登録済みドメイン",
		"domain_empty":           "ドメインは登録されていません。",
		"field_domain":           "ドメイン",
		"field_domains":          "ドメイン",
		"field_user":             "ユーザー",
		"field_details":          "詳細",
		"eventlog_title":         "イベントログ",
		"eventlog_added":         "<#%s>をログチャンネルとして追加しました。",
		"eventlog_exists":        "このチャンネルは既にログチャンネルとして登録されています。",
		"eventlog_removed":       "<#%s>をログチャンネルから削除しました。",
		"eventlog_missing":       "このチャンネルはログチャンネルとして登録されていません。",
		"eventlog_list":          "ログチャンネル: %s",
		"event_member_join":      "メンバー参加",
		"event_member_leave":     "メンバー退出",
		"event_nickname":         "ニックネーム変更",
		"event_roles":            "ロール変更",
		"event_message_edit":     "メッセージ編集",
		"event_message_delete":   "メッセージ削除",
	},
	"en": {
		"error_only_guild":       "This command can only be used in a server.",
		"error_permission":       "You do not have permission to use this command.",
		"error_unknown":          "Unknown action.",
		"error_generic":          "An error occurred: %s",
		"verify_title":           "Discord Verification",
		"verify_desc":            "Use the link below to verify your account.",
		"verify_field_role":      "Role to be assigned on success",
		"verify_field_link":      "Verification Link",
		"verify_link_label":      "[Click here](%s)",
		"verify_no_url":          "No verification URL is configured.",
		"verifylog_title":        "Verification log",
		"verifylog_set":          "Log channel set to <#%s>.",
		"verifylog_unset":        "Log channel cleared.",
		"verifylog_status":       "Current log channel: %s",
		"verifylog_none":         "not set",
		"verifylog_stats":        "Verification results over the last 7 days",
		"verifylog_need_channel": "Please specify a channel.",
		"timeout_title":          "Timeout",
		"timeout_need_time":      "Please specify a duration.",
		"timeout_invalid_time":   "Invalid duration format.",
		"timeout_added":          "<@%s> has been timed out.",
		"timeout_forever":        "<@%s> has been timed out indefinitely.",
		"timeout_cancelled":      "The timeout for <@%s> has been lifted.",
		"timeout_active":         "<@%s> is timed out.\nRemaining: %s",
		"timeout_inactive":       "<@%s> is not timed out.",
		"timeout_shortened":      "Shortened the timeout for <@%s> by %s.\nRemaining: %s",
		"timeout_no_history":     "<@%s> has no timeout history.",
		"timeout_history_title":  "Timeout history for <@%s>",
		"timeout_field_duration": "Duration",
		"timeout_history_action": "Action: %s",
		"timeout_history_value":  "Moderator: <@%s>\nDuration: %s\nAt: <t:%d:f>",
		"nick_title":             "Nickname changed",
		"nick_failed":            "Failed to change the nickname.",
		"nick_field_user":        "User",
		"nick_field_before":      "Before",
		"nick_field_after":       "After",
		"filter_title":           "Filter",
		"filter_word_added":      "Added blocked word \"%s\".",
		"filter_word_edited":     "Updated blocked word \"%s\".",
		"filter_word_removed":    "Removed blocked word \"%s\".",
		"filter_word_missing":    "\"%s\" is not a blocked word.",
		"filter_word_exists":     "\"%s\" is already a blocked word.",
		"filter_word_required":   "Specify a word and a penalty (kick/ban/timeout).",
		"filter_word_list":       "Blocked words",
		"filter_word_empty":      "No blocked words are registered.",
		"filter_minutes":         "%d min",
		"filter_url_block":       "URL blocking is now %s.",
		"filter_invite_block":    "Invite blocking is now %s.",
		"filter_on":              "on",
		"filter_off":             "off",
		"filter_violation_title": "Rule violation",
		"domain_title":           "Domains",
		"domain_required":        "Please specify a domain.",
		"domain_added":           "Domain added.",
		"domain_removed":         "Domain removed.",
		"domain_list":            "Registered domains",
		"domain_empty":           "No domains registered.",
		"field_domain":           "Domain",
		"field_domains":          "Domains",
		"field_user":             "User",
		"field_details":          "Details",
		"eventlog_title":         "Event log",
		"eventlog_added":         "Added <#%s> as a log channel.",
		"eventlog_exists":        "That channel is already a log channel.",
		"eventlog_removed":       "Removed <#%s> from the log channels.",
		"eventlog_missing":       "That channel is not a log channel.",
		"eventlog_list":          "Log channels: %s",
		"event_member_join":      "Member joined",
		"event_member_leave":     "Member left",
		"event_nickname":         "Nickname changed",
		"event_roles":            "Roles changed",
		"event_message_edit":     "Message edited",
		"event_message_delete":   "Message deleted",
	},
}

// t looks up key in lang, falling back to Japanese and then to the key.
func (b *Bot) t(lang, key string) string {
	if catalog, ok := translations[lang]; ok {
		if value, ok := catalog[key]; ok {
			return value
		}
	}
	if value, ok := translations["ja"][key]; ok {
		return value
	}
	return key
}

func (b *Bot) tf(lang, key string, args ...any) string {
	return fmt.Sprintf(b.t(lang, key), args...)
}
