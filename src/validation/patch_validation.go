package validation

import (
	"github.com/theleywin/SyncRivo-Registry/src/models"
)

// immutableKeys are never taken from an update payload.
var immutableKeys = []string{"id", "_id", "created_at", "updated_at"}

// StripImmutable returns a copy of p without id, _id and the timestamps.
func StripImmutable(p Payload) Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, k := range immutableKeys {
		delete(out, k)
	}
	return out
}

// ParsePatch turns a partial update payload into a ConnectionPatch. Immutable
// and unknown keys are dropped. A null value clears the field.
func ParsePatch(p Payload) (models.ConnectionPatch, error) {
	p = StripImmutable(p)
	var patch models.ConnectionPatch

	fields := []struct {
		key string
		dst **string
	}{
		{"channel_id", &patch.ChannelId},
		{"outgoing_space", &patch.OutgoingSpace},
		{"team_id", &patch.TeamId},
		{"graph_channel_id", &patch.GraphChannelId},
	}
	for _, f := range fields {
		if _, ok := p[f.key]; !ok {
			continue
		}
		s, err := optionalString(p, f.key, f.key)
		if err != nil {
			return models.ConnectionPatch{}, err
		}
		*f.dst = &s
	}

	if _, ok := p["provider"]; ok {
		s, err := optionalString(p, "provider", "provider")
		if err != nil {
			return models.ConnectionPatch{}, err
		}
		provider := models.Provider(s)
		patch.Provider = &provider
	}

	if v, ok := p["routes"]; ok {
		routes, isObject := v.(map[string]any)
		if v != nil && !isObject {
			return models.ConnectionPatch{}, &InvalidFieldError{Field: "routes"}
		}
		var route models.Route
		provider, err := optionalString(routes, "provider", "routes.provider")
		if err != nil {
			return models.ConnectionPatch{}, err
		}
		route.Provider = models.Provider(provider)

		routeFields := []struct {
			key string
			dst *string
		}{
			{"to", &route.To},
			{"channel_id", &route.ChannelId},
			{"outgoing_space", &route.OutgoingSpace},
			{"graph_channel_id", &route.GraphChannelId},
		}
		for _, f := range routeFields {
			s, err := optionalString(routes, f.key, "routes."+f.key)
			if err != nil {
				return models.ConnectionPatch{}, err
			}
			*f.dst = s
		}
		patch.Routes = &route
	}

	return patch, nil
}
