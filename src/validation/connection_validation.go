// Package validation checks connection payloads before they reach the store.
// Every function here is pure.
package validation

import (
	"errors"
	"fmt"

	"github.com/theleywin/SyncRivo-Registry/src/models"
)

// Payload is an untyped JSON object as received from a client.
type Payload map[string]any

// ErrMissingRoute is returned when routes, routes.provider or routes.to is absent.
var ErrMissingRoute = errors.New("routes with provider and to are required")

// MissingFieldError reports an absent top-level field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return e.Field + " is required"
}

// MissingProviderFieldError reports a field required by the provider of the
// source (Route false) or of the destination (Route true).
type MissingProviderFieldError struct {
	Provider models.Provider
	Field    string
	Route    bool
}

func (e *MissingProviderFieldError) Error() string {
	if e.Route {
		return fmt.Sprintf("routes.%s is required when routes.provider is %s", e.Field, e.Provider)
	}
	return fmt.Sprintf("%s is required when provider is %s", e.Field, e.Provider)
}

// InvalidFieldError reports a known field holding something other than a string.
type InvalidFieldError struct {
	Field string
}

func (e *InvalidFieldError) Error() string {
	return e.Field + " must be a string"
}

// IsValidationError reports whether err was produced by this package.
func IsValidationError(err error) bool {
	var missing *MissingFieldError
	var provider *MissingProviderFieldError
	var invalid *InvalidFieldError
	return errors.Is(err, ErrMissingRoute) ||
		errors.As(err, &missing) ||
		errors.As(err, &provider) ||
		errors.As(err, &invalid)
}

// Provider-specific required fields, keyed by provider.
var (
	sourceRequired = map[models.Provider]string{
		models.ProviderGoogle: "outgoing_space",
		models.ProviderSlack:  "team_id",
		models.ProviderTeams:  "graph_channel_id",
	}
	routeRequired = map[models.Provider]string{
		models.ProviderGoogle: "outgoing_space",
		models.ProviderSlack:  "channel_id",
		models.ProviderTeams:  "graph_channel_id",
	}
)

// ValidateConnection checks a create payload and returns it unchanged. Checks
// run in a fixed order and the first failure is returned: provider,
// channel_id, routes, the source provider rule, then the route provider rule.
func ValidateConnection(p Payload) (Payload, error) {
	provider, err := requiredString(p, "provider", "provider")
	if err != nil {
		return nil, err
	}
	if _, err := requiredString(p, "channel_id", "channel_id"); err != nil {
		return nil, err
	}

	routes, ok := p["routes"].(map[string]any)
	if !ok {
		return nil, ErrMissingRoute
	}
	routeProvider, err := routeString(routes, "provider")
	if err != nil {
		return nil, err
	}
	if _, err := routeString(routes, "to"); err != nil {
		return nil, err
	}

	if field, ok := sourceRequired[models.Provider(provider)]; ok {
		present, err := optionalString(p, field, field)
		if err != nil {
			return nil, err
		}
		if present == "" {
			return nil, &MissingProviderFieldError{Provider: models.Provider(provider), Field: field}
		}
	}
	if field, ok := routeRequired[models.Provider(routeProvider)]; ok {
		present, err := optionalString(routes, field, "routes."+field)
		if err != nil {
			return nil, err
		}
		if present == "" {
			return nil, &MissingProviderFieldError{Provider: models.Provider(routeProvider), Field: field, Route: true}
		}
	}

	return p, nil
}

// ParseConnection validates p and builds the typed source and destination.
func ParseConnection(p Payload) (models.Source, models.Destination, error) {
	if _, err := ValidateConnection(p); err != nil {
		return nil, nil, err
	}
	routes := p["routes"].(map[string]any)

	// Validation guarantees every lookup below is a string.
	str := func(m map[string]any, key string) string {
		s, _ := m[key].(string)
		return s
	}

	var src models.Source
	switch provider := models.Provider(str(p, "provider")); provider {
	case models.ProviderGoogle:
		src = models.GoogleSource{ChannelId: str(p, "channel_id"), OutgoingSpace: str(p, "outgoing_space")}
	case models.ProviderSlack:
		src = models.SlackSource{ChannelId: str(p, "channel_id"), TeamId: str(p, "team_id")}
	case models.ProviderTeams:
		src = models.TeamsSource{ChannelId: str(p, "channel_id"), GraphChannelId: str(p, "graph_channel_id")}
	default:
		src = models.GenericSource{Provider: provider, ChannelId: str(p, "channel_id")}
	}

	var dst models.Destination
	switch provider := models.Provider(str(routes, "provider")); provider {
	case models.ProviderGoogle:
		dst = models.GoogleDestination{To: str(routes, "to"), OutgoingSpace: str(routes, "outgoing_space")}
	case models.ProviderSlack:
		dst = models.SlackDestination{To: str(routes, "to"), ChannelId: str(routes, "channel_id")}
	case models.ProviderTeams:
		dst = models.TeamsDestination{To: str(routes, "to"), GraphChannelId: str(routes, "graph_channel_id")}
	default:
		dst = models.GenericDestination{Provider: provider, To: str(routes, "to")}
	}

	return src, dst, nil
}

// ToPayload renders a stored connection back into payload form so it can be
// run through ValidateConnection.
func ToPayload(c models.Connection) Payload {
	p := Payload{}
	put := func(m map[string]any, key, value string) {
		if value != "" {
			m[key] = value
		}
	}
	put(p, "provider", string(c.Provider))
	put(p, "channel_id", c.ChannelId)
	put(p, "outgoing_space", c.OutgoingSpace)
	put(p, "team_id", c.TeamId)
	put(p, "graph_channel_id", c.GraphChannelId)

	routes := map[string]any{}
	put(routes, "provider", string(c.Routes.Provider))
	put(routes, "to", c.Routes.To)
	put(routes, "channel_id", c.Routes.ChannelId)
	put(routes, "outgoing_space", c.Routes.OutgoingSpace)
	put(routes, "graph_channel_id", c.Routes.GraphChannelId)
	p["routes"] = routes

	return p
}

func requiredString(m map[string]any, key, name string) (string, error) {
	s, err := optionalString(m, key, name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &MissingFieldError{Field: name}
	}
	return s, nil
}

func routeString(routes map[string]any, key string) (string, error) {
	s, err := optionalString(routes, key, "routes."+key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", ErrMissingRoute
	}
	return s, nil
}

// optionalString returns "" for a missing or null field.
func optionalString(m map[string]any, key, name string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &InvalidFieldError{Field: name}
	}
	return s, nil
}
