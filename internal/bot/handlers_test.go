package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestInboundMessageCountsRoleMentions(t *testing.T) {
	m := &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID:        "msg1",
			GuildID:   "g1",
			ChannelID: "ch1",
			Content:   "@a @b @c @mod @staff",
			Author:    &discordgo.User{ID: "u1", Username: "kẻ phá rối"},
			Mentions: []*discordgo.User{
				{ID: "a"}, {ID: "b"}, {ID: "c"},
			},
			MentionRoles: []string{"mod-role", "staff-role"},
			Member:       &discordgo.Member{Roles: []string{"member"}},
		},
	}

	msg := inboundMessage(m, false)

	// 用户提及 + 角色提及合并计数
	if msg.MentionCount != 5 {
		t.Fatalf("MentionCount = %d, want 5", msg.MentionCount)
	}
	if msg.GuildID != "g1" || msg.UserID != "u1" || msg.MessageID != "msg1" {
		t.Fatalf("message = %+v", msg)
	}
	if len(msg.RoleIDs) != 1 || msg.RoleIDs[0] != "member" {
		t.Fatalf("RoleIDs = %v", msg.RoleIDs)
	}
}

func TestInboundMessageWithoutMember(t *testing.T) {
	m := &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID:        "msg2",
			GuildID:   "g1",
			ChannelID: "ch1",
			Content:   "xin chào",
			Author:    &discordgo.User{ID: "u2", Username: "user"},
		},
	}

	msg := inboundMessage(m, true)
	if msg.MentionCount != 0 {
		t.Fatalf("MentionCount = %d, want 0", msg.MentionCount)
	}
	if !msg.IsAdmin {
		t.Fatal("IsAdmin should carry through")
	}
	if msg.RoleIDs != nil {
		t.Fatalf("RoleIDs = %v, want nil", msg.RoleIDs)
	}
}
