package models

// Provider identifies a messaging platform.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderSlack  Provider = "slack"
	ProviderTeams  Provider = "teams"
)

// Source is the origin side of a connection. Each variant carries only the
// fields its provider requires, so a Slack source without a team id cannot
// be built.
type Source interface {
	SourceProvider() Provider
	applySource(c *Connection)
}

// Destination is the route side of a connection.
type Destination interface {
	DestinationProvider() Provider
	applyDestination(r *Route)
}

type GoogleSource struct {
	ChannelId     string
	OutgoingSpace string
}

func (GoogleSource) SourceProvider() Provider { return ProviderGoogle }

func (s GoogleSource) applySource(c *Connection) {
	c.Provider = ProviderGoogle
	c.ChannelId = s.ChannelId
	c.OutgoingSpace = s.OutgoingSpace
}

type SlackSource struct {
	ChannelId string
	TeamId    string
}

func (SlackSource) SourceProvider() Provider { return ProviderSlack }

func (s SlackSource) applySource(c *Connection) {
	c.Provider = ProviderSlack
	c.ChannelId = s.ChannelId
	c.TeamId = s.TeamId
}

type TeamsSource struct {
	ChannelId      string
	GraphChannelId string
}

func (TeamsSource) SourceProvider() Provider { return ProviderTeams }

func (s TeamsSource) applySource(c *Connection) {
	c.Provider = ProviderTeams
	c.ChannelId = s.ChannelId
	c.GraphChannelId = s.GraphChannelId
}

// GenericSource covers providers with no extra required fields.
type GenericSource struct {
	Provider  Provider
	ChannelId string
}

func (s GenericSource) SourceProvider() Provider { return s.Provider }

func (s GenericSource) applySource(c *Connection) {
	c.Provider = s.Provider
	c.ChannelId = s.ChannelId
}

type GoogleDestination struct {
	To            string
	OutgoingSpace string
}

func (GoogleDestination) DestinationProvider() Provider { return ProviderGoogle }

func (d GoogleDestination) applyDestination(r *Route) {
	r.Provider = ProviderGoogle
	r.To = d.To
	r.OutgoingSpace = d.OutgoingSpace
}

type SlackDestination struct {
	To        string
	ChannelId string
}

func (SlackDestination) DestinationProvider() Provider { return ProviderSlack }

func (d SlackDestination) applyDestination(r *Route) {
	r.Provider = ProviderSlack
	r.To = d.To
	r.ChannelId = d.ChannelId
}

type TeamsDestination struct {
	To             string
	GraphChannelId string
}

func (TeamsDestination) DestinationProvider() Provider { return ProviderTeams }

func (d TeamsDestination) applyDestination(r *Route) {
	r.Provider = ProviderTeams
	r.To = d.To
	r.GraphChannelId = d.GraphChannelId
}

type GenericDestination struct {
	Provider Provider
	To       string
}

func (d GenericDestination) DestinationProvider() Provider { return d.Provider }

func (d GenericDestination) applyDestination(r *Route) {
	r.Provider = d.Provider
	r.To = d.To
}
