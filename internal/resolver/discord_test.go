package resolver

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

type fixedState struct {
	state *discordgo.State
}

func (f fixedState) State() *discordgo.State { return f.state }

func seededState(t *testing.T) *discordgo.State {
	t.Helper()

	state := discordgo.NewState()
	require.NoError(t, state.GuildAdd(&discordgo.Guild{ID: "100"}))
	require.NoError(t, state.ChannelAdd(&discordgo.Channel{ID: "200", GuildID: "100"}))
	require.NoError(t, state.MemberAdd(&discordgo.Member{
		GuildID: "100",
		User:    &discordgo.User{ID: "300", Username: "bumper"},
	}))
	return state
}

func TestResolveReturnsCachedEntities(t *testing.T) {
	r := &DiscordResolver{Provider: fixedState{state: seededState(t)}}

	resolved := r.Resolve(context.Background(), 100, 200, 300)

	guild, ok := resolved.Guild.(*discordgo.Guild)
	require.True(t, ok)
	require.Equal(t, "100", guild.ID)

	channel, ok := resolved.Channel.(*discordgo.Channel)
	require.True(t, ok)
	require.Equal(t, "200", channel.ID)

	member, ok := resolved.Member.(*discordgo.Member)
	require.True(t, ok)
	require.Equal(t, "300", member.User.ID)

	user, ok := resolved.User.(*discordgo.User)
	require.True(t, ok)
	require.Equal(t, "bumper", user.Username)
}

func TestResolveTreatsMissesAsEmpty(t *testing.T) {
	r := &DiscordResolver{Provider: fixedState{state: seededState(t)}}

	resolved := r.Resolve(context.Background(), 999, 888, 777)

	require.Nil(t, resolved.Guild)
	require.Nil(t, resolved.Channel)
	require.Nil(t, resolved.Member)
	require.Nil(t, resolved.User)
}

func TestResolveSurvivesNilSession(t *testing.T) {
	r := NewDiscordResolver(nil)

	resolved := r.Resolve(context.Background(), 1, 2, 3)

	require.Nil(t, resolved.Guild)
}
