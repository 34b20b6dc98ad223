// Package resolver adapts a discordgo session to the entity resolver used by
// the bump mapper. Lookups are served from the session state cache only, so
// resolving never blocks an inbound bump request on a REST call.
package resolver

import (
	"context"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/sblp/sblpd/internal/bump"
	"github.com/sblp/sblpd/internal/observability"
)

// StateProvider is the slice of *discordgo.Session the resolver needs.
type StateProvider interface {
	State() *discordgo.State
}

// SessionState wraps a live discordgo session.
type SessionState struct {
	Session *discordgo.Session
}

func (s SessionState) State() *discordgo.State {
	if s.Session == nil {
		return nil
	}
	return s.Session.State
}

// DiscordResolver resolves snowflakes against a discordgo state cache.
type DiscordResolver struct {
	Provider StateProvider
}

// NewDiscordResolver builds a resolver backed by the given session.
func NewDiscordResolver(session *discordgo.Session) *DiscordResolver {
	return &DiscordResolver{Provider: SessionState{Session: session}}
}

// Resolve looks up the guild, channel, user and member for the given
// snowflakes. Misses produce nil fields, never errors; the caller falls back
// to the numeric identifiers.
func (r *DiscordResolver) Resolve(ctx context.Context, guildID, channelID, userID int64) bump.ResolvedEntities {
	resolved := bump.ResolvedEntities{}

	if r == nil || r.Provider == nil {
		return resolved
	}
	state := r.Provider.State()
	if state == nil {
		return resolved
	}

	guild := strconv.FormatInt(guildID, 10)
	channel := strconv.FormatInt(channelID, 10)
	user := strconv.FormatInt(userID, 10)

	if g, err := state.Guild(guild); err == nil {
		resolved.Guild = g
	}
	if c, err := state.Channel(channel); err == nil {
		resolved.Channel = c
	}
	if m, err := state.Member(guild, user); err == nil {
		resolved.Member = m
		resolved.User = m.User
	}

	if resolved.Guild == nil && observability.ServerLogger != nil {
		observability.ServerLogger.Debug("Bump references a guild outside the state cache",
			zap.Int64("guild", guildID))
	}

	return resolved
}

var _ bump.EntityResolver = (*DiscordResolver)(nil)
