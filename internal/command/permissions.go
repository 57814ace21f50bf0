package command

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

var permissionNames = map[int64]string{
	discordgo.PermissionKickMembers:        "Kick Members",
	discordgo.PermissionBanMembers:         "Ban Members",
	discordgo.PermissionAdministrator:      "Administrator",
	discordgo.PermissionManageChannels:     "Manage Channels",
	discordgo.PermissionManageGuild:        "Manage Server",
	discordgo.PermissionViewChannel:        "View Channel",
	discordgo.PermissionSendMessages:       "Send Messages",
	discordgo.PermissionManageMessages:     "Manage Messages",
	discordgo.PermissionAttachFiles:        "Attach Files",
	discordgo.PermissionReadMessageHistory: "Read Message History",
	discordgo.PermissionManageThreads:      "Manage Threads",
	discordgo.PermissionManageRoles:        "Manage Roles",
	discordgo.PermissionManageWebhooks:     "Manage Webhooks",
	discordgo.PermissionModerateMembers:    "Timeout Members",
}

// MissingPermissions returns the display names of every bit in required that
// held does not cover. Administrator implies everything.
func MissingPermissions(required, held int64) []string {
	if required == 0 || held&discordgo.PermissionAdministrator != 0 {
		return nil
	}
	var missing []string
	for bit := int64(1); bit != 0 && bit <= required; bit <<= 1 {
		if required&bit == 0 || held&bit != 0 {
			continue
		}
		name, ok := permissionNames[bit]
		if !ok {
			continue
		}
		missing = append(missing, name)
	}
	return missing
}

// JoinNames renders a permission list as prose: "A", "A and B", "A, B and C".
func JoinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
