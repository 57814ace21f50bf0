package bot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rrRunerra/Lynx-sub000/internal/archive"

	"github.com/bwmarrin/discordgo"
)

// discordAPI adapts a discordgo session to the transport surfaces the
// engines are written against.
type discordAPI struct {
	session *discordgo.Session
}

func (a *discordAPI) UserPermissions(_ context.Context, _, channelID, userID string) (int64, error) {
	return a.session.UserChannelPermissions(userID, channelID)
}

func (a *discordAPI) BotPermissions(_ context.Context, _, channelID string) (int64, error) {
	return a.session.UserChannelPermissions(a.session.State.User.ID, channelID)
}

func (a *discordAPI) RecentMessages(ctx context.Context, channelID string, limit int) ([]archive.Message, error) {
	raw, err := a.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	guildID := ""
	if channel, err := a.session.State.Channel(channelID); err == nil {
		guildID = channel.GuildID
	}

	messages := make([]archive.Message, 0, len(raw))
	for _, msg := range raw {
		if msg.Author == nil {
			continue
		}
		out := archive.Message{
			ID:           msg.ID,
			ChannelID:    channelID,
			AuthorID:     msg.Author.ID,
			AuthorName:   msg.Author.Username,
			AuthorAvatar: msg.Author.AvatarURL(""),
			AuthorBot:    msg.Author.Bot,
			Content:      msg.Content,
			Timestamp:    msg.Timestamp,
		}
		out.AuthorRoles = a.authorRoles(guildID, msg)
		if len(msg.Embeds) > 0 {
			if data, err := json.Marshal(msg.Embeds); err == nil {
				out.Embeds = data
			}
		}
		for _, att := range msg.Attachments {
			out.Attachments = append(out.Attachments, archive.RemoteAttachment{
				Name:        att.Filename,
				URL:         att.URL,
				ContentType: att.ContentType,
			})
		}
		messages = append(messages, out)
	}
	return messages, nil
}

// authorRoles works from whatever member data is already at hand: REST
// messages do not carry the member, so the state cache is the fallback.
func (a *discordAPI) authorRoles(guildID string, msg *discordgo.Message) []string {
	if msg.Member != nil {
		return msg.Member.Roles
	}
	if guildID == "" {
		return nil
	}
	if member, err := a.session.State.Member(guildID, msg.Author.ID); err == nil {
		return member.Roles
	}
	return nil
}

func (a *discordAPI) BulkDelete(ctx context.Context, channelID string, messageIDs []string) error {
	if len(messageIDs) == 1 {
		return a.session.ChannelMessageDelete(channelID, messageIDs[0], discordgo.WithContext(ctx))
	}
	return a.session.ChannelMessagesBulkDelete(channelID, messageIDs, discordgo.WithContext(ctx))
}

func (a *discordAPI) EnsureWebhook(ctx context.Context, channelID, name string) (archive.WebhookHandle, error) {
	hooks, err := a.session.ChannelWebhooks(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return archive.WebhookHandle{}, fmt.Errorf("list webhooks: %w", err)
	}
	for _, hook := range hooks {
		if hook.Name == name && hook.Token != "" {
			return archive.WebhookHandle{ID: hook.ID, Token: hook.Token}, nil
		}
	}
	hook, err := a.session.WebhookCreate(channelID, name, "", discordgo.WithContext(ctx))
	if err != nil {
		return archive.WebhookHandle{}, fmt.Errorf("create webhook: %w", err)
	}
	return archive.WebhookHandle{ID: hook.ID, Token: hook.Token}, nil
}

func (a *discordAPI) Send(ctx context.Context, handle archive.WebhookHandle, msg archive.WebhookMessage) error {
	params := &discordgo.WebhookParams{
		Content:   msg.Content,
		Username:  msg.Username,
		AvatarURL: msg.AvatarURL,
	}
	if msg.SuppressMentions {
		params.AllowedMentions = &discordgo.MessageAllowedMentions{}
	}
	if len(msg.Embeds) > 0 {
		var embeds []*discordgo.MessageEmbed
		if err := json.Unmarshal(msg.Embeds, &embeds); err == nil {
			params.Embeds = embeds
		}
	}
	for _, file := range msg.Files {
		params.Files = append(params.Files, &discordgo.File{
			Name:        file.Name,
			ContentType: file.ContentType,
			Reader:      file.Reader,
		})
	}
	_, err := a.session.WebhookExecute(handle.ID, handle.Token, true, params, discordgo.WithContext(ctx))
	return err
}

func (a *discordAPI) Ban(ctx context.Context, guildID, userID, reason string, deleteDays int) error {
	return a.session.GuildBanCreateWithReason(guildID, userID, reason, deleteDays, discordgo.WithContext(ctx))
}

func (a *discordAPI) Kick(ctx context.Context, guildID, userID, reason string) error {
	return a.session.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx))
}

func (a *discordAPI) ChannelOverwrite(ctx context.Context, channelID, roleID string) (int64, int64, error) {
	channel, err := a.session.State.Channel(channelID)
	if err != nil {
		channel, err = a.session.Channel(channelID, discordgo.WithContext(ctx))
		if err != nil {
			return 0, 0, err
		}
	}
	for _, overwrite := range channel.PermissionOverwrites {
		if overwrite.ID == roleID && overwrite.Type == discordgo.PermissionOverwriteTypeRole {
			return overwrite.Allow, overwrite.Deny, nil
		}
	}
	return 0, 0, nil
}

func (a *discordAPI) SetChannelOverwrite(ctx context.Context, channelID, roleID string, allow, deny int64) error {
	return a.session.ChannelPermissionSet(channelID, roleID, discordgo.PermissionOverwriteTypeRole, allow, deny, discordgo.WithContext(ctx))
}

func (a *discordAPI) SetSlowmode(ctx context.Context, channelID string, seconds int) error {
	_, err := a.session.ChannelEdit(channelID, &discordgo.ChannelEdit{RateLimitPerUser: &seconds}, discordgo.WithContext(ctx))
	return err
}

func (a *discordAPI) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return a.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (a *discordAPI) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return a.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
}
