package bot

import "github.com/bwmarrin/discordgo"

var (
	permAdministrator   int64 = discordgo.PermissionAdministrator
	permModerateMembers int64 = discordgo.PermissionModerateMembers
	permManageNicknames int64 = discordgo.PermissionManageNicknames
)

func localized(ja, en string) map[discordgo.Locale]string {
	return map[discordgo.Locale]string{
		discordgo.Japanese:  ja,
		discordgo.EnglishUS: en,
		discordgo.EnglishGB: en,
	}
}

func penaltyChoices() []*discordgo.ApplicationCommandOptionChoice {
	return []*discordgo.ApplicationCommandOptionChoice{
		{Name: "kick", Value: "kick"},
		{Name: "ban", Value: "ban"},
		{Name: "timeout", Value: "timeout"},
	}
}

func wordOptions(withPenalty bool) []*discordgo.ApplicationCommandOption {
	options := []*discordgo.ApplicationCommandOption{
		{
			Type:                     discordgo.ApplicationCommandOptionString,
			Name:                     "word",
			Description:              "Blocked word",
			DescriptionLocalizations: localized("禁止ワード", "Blocked word"),
			Required:                 true,
		},
	}
	if !withPenalty {
		return options
	}
	return append(options,
		&discordgo.ApplicationCommandOption{
			Type:                     discordgo.ApplicationCommandOptionString,
			Name:                     "penalty",
			Description:              "Penalty applied on match",
			DescriptionLocalizations: localized("違反時のペナルティ", "Penalty applied on match"),
			Required:                 true,
			Choices:                  penaltyChoices(),
		},
		&discordgo.ApplicationCommandOption{
			Type:                     discordgo.ApplicationCommandOptionInteger,
			Name:                     "timeout",
			Description:              "Timeout length in minutes",
			DescriptionLocalizations: localized("タイムアウト時間(分)", "Timeout length in minutes"),
		},
	)
}

func toggleOption() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:                     discordgo.ApplicationCommandOptionBoolean,
			Name:                     "value",
			Description:              "Enable or disable",
			DescriptionLocalizations: localized("有効/無効", "Enable or disable"),
			Required:                 true,
		},
	}
}

func logChannelOption() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:                     discordgo.ApplicationCommandOptionChannel,
			Name:                     "channel",
			Description:              "Log channel",
			DescriptionLocalizations: localized("ログチャンネル", "Log channel"),
			ChannelTypes:             []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			Required:                 true,
		},
	}
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:                     "verify",
			Description:              "Post the verification panel",
			DescriptionLocalizations: ptr(localized("認証パネルを設置します", "Post the verification panel")),
			DefaultMemberPermissions: &permAdministrator,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:                     discordgo.ApplicationCommandOptionRole,
					Name:                     "role",
					Description:              "Role granted on success",
					DescriptionLocalizations: localized("認証成功時に付与するロール", "Role granted on success"),
					Required:                 true,
				},
			},
		},
		{
			Name:                     "verifylog",
			Description:              "Configure the verification log channel",
			DescriptionLocalizations: ptr(localized("認証ログチャンネルを設定します", "Configure the verification log channel")),
			DefaultMemberPermissions: &permAdministrator,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:                     discordgo.ApplicationCommandOptionSubCommand,
					Name:                     "set",
					Description:              "Set the log channel",
					DescriptionLocalizations: localized("ログチャンネルを設定", "Set the log channel"),
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:                     discordgo.ApplicationCommandOptionChannel,
							Name:                     "channel",
							Description:              "Log channel",
							DescriptionLocalizations: localized("ログチャンネル", "Log channel"),
							ChannelTypes:             []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
							Required:                 true,
						},
					},
				},
				{
					Type:                     discordgo.ApplicationCommandOptionSubCommand,
					Name:                     "unset",
					Description:              "Clear the log channel",
					DescriptionLocalizations: localized("ログチャンネルを解除", "Clear the log channel"),
				},
				{
					Type:                     discordgo.ApplicationCommandOptionSubCommand,
					Name:                     "status",
					Description:              "Show the log channel",
					DescriptionLocalizations: localized("現在の設定を表示", "Show the log channel"),
				},
				{
					Type:                     discordgo.ApplicationCommandOptionSubCommand,
					Name:                     "stats",
					Description:              "Show verification results for the last 7 days",
					DescriptionLocalizations: localized("過去7日間の認証結果", "Show verification results for the last 7 days"),
				},
			},
		},
		{
			Name:                     "log",
			Description:              "Manage member and message event log channels",
			DescriptionLocalizations: ptr(localized("ログチャンネルを管理します", "Manage member and message event log channels")),
			DefaultMemberPermissions: &permAdministrator,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:                     discordgo.ApplicationCommandOptionSubCommand,
					Name:                     "add",
					Description:              "Add a log channel",
					DescriptionLocalizations: localized("ログチャンネルを追加", "Add a log channel"),
					Options:                  logChannelOption(),
				},
				{
					Type:                     discordgo.ApplicationCommandOptionSubCommand,
					Name:                     "remove",
					Description:              "Remove a log channel",
					DescriptionLocalizations: localized("ログチャンネルを削除", "Remove a log channel"),
					Options:                  logChannelOption(),
				},
				{
					Type:                     discordgo.ApplicationCommandOptionSubCommand,
					Name:                     "list",
					Description:              "List log channels",
					DescriptionLocalizations: localized("ログチャンネル一覧", "List log channels"),
				},
			},
		},
		{
			Name:                     "timeout",
			Description:              "Manage member timeouts",
			DescriptionLocalizations: ptr(localized("タイムアウトを管理します", "Manage member timeouts")),
			DefaultMemberPermissions: &permModerateMembers,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:                     discordgo.ApplicationCommandOptionString,
					Name:                     "action",
					Description:              "Action",
					DescriptionLocalizations: localized("アクション", "Action"),
					Required:                 true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "add", Value: timeoutAdd},
						{Name: "forever", Value: timeoutForever},
						{Name: "cancel", Value: timeoutCancel},
						{Name: "view", Value: timeoutView},
						{Name: "history", Value: timeoutHistory},
						{Name: "remove", Value: timeoutRemove},
					},
				},
				{
					Type:                     discordgo.ApplicationCommandOptionUser,
					Name:                     "user",
					Description:              "Target member",
					DescriptionLocalizations: localized("対象ユーザー", "Target member"),
					Required:                 true,
				},
				{
					Type:                     discordgo.ApplicationCommandOptionString,
					Name:                     "time",
					Description:              "Duration such as 1d2h30m",
					DescriptionLocalizations: localized("期間 (例: 1d2h30m)", "Duration such as 1d2h30m"),
				},
			},
		},
		{
			Name:                     "nick",
			Description:              "Change a member's nickname",
			DescriptionLocalizations: ptr(localized("ニックネームを変更します", "Change a member's nickname")),
			DefaultMemberPermissions: &permManageNicknames,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:                     discordgo.ApplicationCommandOptionUser,
					Name:                     "user",
					Description:              "Target member",
					DescriptionLocalizations: localized("対象ユーザー", "Target member"),
					Required:                 true,
				},
				{
					Type:                     discordgo.ApplicationCommandOptionString,
					Name:                     "name",
					Description:              "New nickname, or default to reset",
					DescriptionLocalizations: localized("新しいニックネーム (default でリセット)", "New nickname, or default to reset"),
					Required:                 true,
				},
			},
		},
		{
			Name:                     "filter",
			Description:              "Configure the message filter",
			DescriptionLocalizations: ptr(localized("メッセージフィルターを設定します", "Configure the message filter")),
			DefaultMemberPermissions: &permAdministrator,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:                     discordgo.ApplicationCommandOptionSubCommandGroup,
					Name:                     "word",
					Description:              "Blocked words",
					DescriptionLocalizations: localized("禁止ワード", "Blocked words"),
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:                     discordgo.ApplicationCommandOptionSubCommand,
							Name:                     "add",
							Description:              "Add a blocked word",
							DescriptionLocalizations: localized("禁止ワードを追加", "Add a blocked word"),
							Options:                  wordOptions(true),
						},
						{
							Type:                     discordgo.ApplicationCommandOptionSubCommand,
							Name:                     "edit",
							Description:              "Change a blocked word's penalty",
							DescriptionLocalizations: localized("禁止ワードを編集", "Change a blocked word's penalty"),
							Options:                  wordOptions(true),
						},
						{
							Type:                     discordgo.ApplicationCommandOptionSubCommand,
							Name:                     "remove",
							Description:              "Remove a blocked word",
							DescriptionLocalizations: localized("禁止ワードを削除", "Remove a blocked word"),
							Options:                  wordOptions(false),
						},
						{
							Type:                     discordgo.ApplicationCommandOptionSubCommand,
							Name:                     "list",
							Description:              "List blocked words",
							DescriptionLocalizations: localized("禁止ワード一覧", "List blocked words"),
						},
					},
				},
				{
					Type:                     discordgo.ApplicationCommandOptionSubCommand,
					Name:                     "url-block",
					Description:              "Delete messages containing links",
					DescriptionLocalizations: localized("URLを含むメッセージを削除", "Delete messages containing links"),
					Options:                  toggleOption(),
				},
				{
					Type:                     discordgo.ApplicationCommandOptionSubCommand,
					Name:                     "invite-block",
					Description:              "Delete messages containing invites",
					DescriptionLocalizations: localized("招待リンクを含むメッセージを削除", "Delete messages containing invites"),
					Options:                  toggleOption(),
				},
				{
					Type:                     discordgo.ApplicationCommandOptionSubCommand,
					Name:                     "domain",
					Description:              "Manage allowed and blocked domains",
					DescriptionLocalizations: localized("許可/禁止ドメインを管理", "Manage allowed and blocked domains"),
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:                     discordgo.ApplicationCommandOptionString,
							Name:                     "list",
							Description:              "allow or block",
							DescriptionLocalizations: localized("allow または block", "allow or block"),
							Required:                 true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "allow", Value: "allow"},
								{Name: "block", Value: "block"},
							},
						},
						{
							Type:                     discordgo.ApplicationCommandOptionString,
							Name:                     "action",
							Description:              "add, remove or show",
							DescriptionLocalizations: localized("add / remove / show", "add, remove or show"),
							Required:                 true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "add", Value: "add"},
								{Name: "remove", Value: "remove"},
								{Name: "show", Value: "show"},
							},
						},
						{
							Type:                     discordgo.ApplicationCommandOptionString,
							Name:                     "domain",
							Description:              "Domain such as example.com",
							DescriptionLocalizations: localized("ドメイン (例: example.com)", "Domain such as example.com"),
						},
					},
				},
			},
		},
	}
}

func (b *Bot) registerCommands() error {
	appID := b.session.State.User.ID
	commands := commandDefinitions()

	existing, err := b.session.ApplicationCommands(appID, "")
	if err != nil {
		return err
	}
	existingByName := make(map[string]*discordgo.ApplicationCommand, len(existing))
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{}, len(commands))
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(appID, "", current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, "", cmd.ID)
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
