package bump

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromPayloadPreservesUnknownFields(t *testing.T) {
	raw := FromPayload(map[string]interface{}{
		"type":    "REQUEST",
		"guild":   "613425648685547541",
		"channel": "674067652372332625",
		"user":    "421698654189912064",
		"message": "738255029804531181",
		"hops":    float64(2),
	})

	require.Equal(t, "REQUEST", raw.Type)
	require.Equal(t, "613425648685547541", raw.Guild)
	require.Equal(t, "421698654189912064", raw.User)
	require.Equal(t, "738255029804531181", raw.Metadata["message"])
	require.Equal(t, float64(2), raw.Metadata["hops"])
	require.NotContains(t, raw.Metadata, "guild")
}

func TestFromPayloadMistypedKnownFieldKeptAsMetadata(t *testing.T) {
	raw := FromPayload(map[string]interface{}{
		"type":  "REQUEST",
		"guild": float64(613425648685547541),
	})

	require.Empty(t, raw.Guild)
	require.Contains(t, raw.Metadata, "guild")
}

func TestMapValidRequest(t *testing.T) {
	m := &Mapper{}
	mapped := m.Map(context.Background(), BumpRequest{
		Type:    "REQUEST",
		Guild:   "613425648685547541",
		Channel: "674067652372332625",
		User:    "421698654189912064",
	})

	require.True(t, mapped.Valid)
	require.Equal(t, int64(613425648685547541), mapped.Guild)
	require.Equal(t, int64(674067652372332625), mapped.Channel)
	require.Equal(t, int64(421698654189912064), mapped.User)
}

func TestMapNeverErrorsOnMissingFields(t *testing.T) {
	m := &Mapper{}

	cases := []BumpRequest{
		{},
		{Type: "REQUEST"},
		{Type: "REQUEST", Guild: "613425648685547541"},
		{Type: "REQUEST", Guild: "613425648685547541", Channel: "674067652372332625"},
		{Type: "REQUEST", Guild: "not-a-snowflake", Channel: "674067652372332625", User: "421698654189912064"},
		{Type: "REQUEST", Guild: "-5", Channel: "674067652372332625", User: "421698654189912064"},
		{Type: "FINISHED", Guild: "613425648685547541", Channel: "674067652372332625", User: "421698654189912064"},
	}

	for _, raw := range cases {
		mapped := m.Map(context.Background(), raw)
		require.False(t, mapped.Valid, "raw=%+v", raw)
	}
}

type staticResolver struct {
	entities ResolvedEntities
	calls    int
}

func (r *staticResolver) Resolve(_ context.Context, _, _, _ int64) ResolvedEntities {
	r.calls++
	return r.entities
}

func TestMapResolvesEntitiesWhenConfigured(t *testing.T) {
	resolver := &staticResolver{entities: ResolvedEntities{Guild: "guild-object"}}
	m := &Mapper{Resolver: resolver}

	mapped := m.Map(context.Background(), BumpRequest{
		Type:    "REQUEST",
		Guild:   "613425648685547541",
		Channel: "674067652372332625",
		User:    "421698654189912064",
	})

	require.True(t, mapped.Valid)
	require.Equal(t, 1, resolver.calls)
	require.Equal(t, "guild-object", mapped.Resolved.Guild)
}

func TestMapSkipsResolverForInvalidRequests(t *testing.T) {
	resolver := &staticResolver{}
	m := &Mapper{Resolver: resolver}

	mapped := m.Map(context.Background(), BumpRequest{Type: "REQUEST"})

	require.False(t, mapped.Valid)
	require.Equal(t, 0, resolver.calls)
}
