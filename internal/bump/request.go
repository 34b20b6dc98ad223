// Package bump implements the inbound side of the SBLP bump protocol:
// mapping raw bump payloads into validated requests, gating them through a
// cooldown, and dispatching them to a handler function or the event bus.
package bump

import (
	"context"
	"strconv"
)

// Event names emitted on the bus. EventRequestStart is part of the SBLP
// contract; external listeners subscribe to it by this exact name.
const (
	EventRequestStart   = "sblp_request_start"
	EventRequestInvalid = "sblp_request_invalid"
)

// RequestType is the only bump request type accepted on the wire.
const RequestType = "REQUEST"

// Wire field names of a bump request body.
const (
	fieldType    = "type"
	fieldGuild   = "guild"
	fieldChannel = "channel"
	fieldUser    = "user"
)

// BumpRequest is the raw wire payload of an inbound bump notification.
// Snowflake identifiers arrive as decimal strings. Fields the protocol does
// not define are preserved untouched in Metadata.
type BumpRequest struct {
	Type     string
	Guild    string
	Channel  string
	User     string
	Metadata map[string]interface{}
}

// FromPayload builds a BumpRequest from a decoded JSON object. It never
// fails: missing or mistyped fields are left empty and surface later as an
// invalid mapped request.
func FromPayload(payload map[string]interface{}) BumpRequest {
	raw := BumpRequest{}

	for key, value := range payload {
		str, isString := value.(string)
		switch key {
		case fieldType:
			if isString {
				raw.Type = str
				continue
			}
		case fieldGuild:
			if isString {
				raw.Guild = str
				continue
			}
		case fieldChannel:
			if isString {
				raw.Channel = str
				continue
			}
		case fieldUser:
			if isString {
				raw.User = str
				continue
			}
		}
		if raw.Metadata == nil {
			raw.Metadata = make(map[string]interface{})
		}
		raw.Metadata[key] = value
	}

	return raw
}

// ResolvedEntities carries live chat objects looked up from the owning bot.
// Fields are nil when no resolver is configured or the lookup missed; callers
// fall back to the numeric snowflakes on MappedBumpRequest.
type ResolvedEntities struct {
	Guild   interface{}
	Channel interface{}
	User    interface{}
	Member  interface{}
}

// EntityResolver resolves snowflake identifiers against the host bot.
// Implementations must treat misses as empty results, not errors.
type EntityResolver interface {
	Resolve(ctx context.Context, guildID, channelID, userID int64) ResolvedEntities
}

// MappedBumpRequest is the validated, normalized form of a bump request.
// Valid is false when required fields were missing or malformed; such a
// request must never be passed to a registered handler.
type MappedBumpRequest struct {
	Type     string                 `json:"type"`
	Guild    int64                  `json:"guild"`
	Channel  int64                  `json:"channel"`
	User     int64                  `json:"user"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Valid    bool                   `json:"valid"`

	Resolved ResolvedEntities `json:"-"`
}

// Mapper converts raw bump requests into mapped ones. The zero value is
// usable; Resolver is optional.
type Mapper struct {
	Resolver EntityResolver
}

// Map validates and normalizes a raw bump request. It always returns a
// result; mapping failure is reported through the Valid flag rather than an
// error so the diagnostic event path can still observe the request.
func (m *Mapper) Map(ctx context.Context, raw BumpRequest) MappedBumpRequest {
	mapped := MappedBumpRequest{
		Type:     raw.Type,
		Metadata: raw.Metadata,
		Valid:    raw.Type == RequestType,
	}

	var ok bool
	if mapped.Guild, ok = parseSnowflake(raw.Guild); !ok {
		mapped.Valid = false
	}
	if mapped.Channel, ok = parseSnowflake(raw.Channel); !ok {
		mapped.Valid = false
	}
	if mapped.User, ok = parseSnowflake(raw.User); !ok {
		mapped.Valid = false
	}

	if mapped.Valid && m != nil && m.Resolver != nil {
		mapped.Resolved = m.Resolver.Resolve(ctx, mapped.Guild, mapped.Channel, mapped.User)
	}

	return mapped
}

// parseSnowflake parses a decimal snowflake string. Snowflakes are positive,
// so zero and negatives are rejected along with non-numeric input.
func parseSnowflake(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
