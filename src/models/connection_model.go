package models

import (
	"time"
)

// Connection routes messages from a source channel on one provider to a
// destination channel (Routes) on another. Stored one per document in the
// "channels" collection.
type Connection struct {
	Id             string    `json:"id" bson:"-"`
	Provider       Provider  `json:"provider" bson:"provider"`
	ChannelId      string    `json:"channel_id" bson:"channel_id"`
	OutgoingSpace  string    `json:"outgoing_space,omitempty" bson:"outgoing_space,omitempty"`
	TeamId         string    `json:"team_id,omitempty" bson:"team_id,omitempty"`
	GraphChannelId string    `json:"graph_channel_id,omitempty" bson:"graph_channel_id,omitempty"`
	Routes         Route     `json:"routes" bson:"routes"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// Route is the destination descriptor embedded in a Connection. A single
// route despite the plural field name.
type Route struct {
	Provider       Provider `json:"provider" bson:"provider"`
	To             string   `json:"to" bson:"to"`
	ChannelId      string   `json:"channel_id,omitempty" bson:"channel_id,omitempty"`
	OutgoingSpace  string   `json:"outgoing_space,omitempty" bson:"outgoing_space,omitempty"`
	GraphChannelId string   `json:"graph_channel_id,omitempty" bson:"graph_channel_id,omitempty"`
}

// ConnectionPatch holds the client-writable fields of an update. Nil fields
// are left untouched. Routes replaces the embedded route as a whole.
type ConnectionPatch struct {
	Provider       *Provider
	ChannelId      *string
	OutgoingSpace  *string
	TeamId         *string
	GraphChannelId *string
	Routes         *Route
}

// Empty reports whether the patch changes nothing besides updated_at.
func (p ConnectionPatch) Empty() bool {
	return p.Provider == nil && p.ChannelId == nil && p.OutgoingSpace == nil &&
		p.TeamId == nil && p.GraphChannelId == nil && p.Routes == nil
}

// Apply merges the patch into a copy of c.
func (c Connection) Apply(p ConnectionPatch) Connection {
	if p.Provider != nil {
		c.Provider = *p.Provider
	}
	if p.ChannelId != nil {
		c.ChannelId = *p.ChannelId
	}
	if p.OutgoingSpace != nil {
		c.OutgoingSpace = *p.OutgoingSpace
	}
	if p.TeamId != nil {
		c.TeamId = *p.TeamId
	}
	if p.GraphChannelId != nil {
		c.GraphChannelId = *p.GraphChannelId
	}
	if p.Routes != nil {
		c.Routes = *p.Routes
	}
	return c
}

// NewConnection flattens a typed source and destination into a document.
// Timestamps and id are left for the registry and the store.
func NewConnection(src Source, dst Destination) Connection {
	var c Connection
	src.applySource(&c)
	dst.applyDestination(&c.Routes)
	return c
}
