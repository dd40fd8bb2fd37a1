package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theleywin/SyncRivo-Registry/src/models"
)

// fixtureConnections are one slack, one teams and one google source, routed
// to teams, slack and google respectively.
func fixtureConnections(now time.Time) []models.Connection {
	return []models.Connection{
		{
			Provider:  models.ProviderSlack,
			ChannelId: "C-general",
			TeamId:    "W1",
			Routes:    models.Route{Provider: models.ProviderTeams, To: "T1", GraphChannelId: "19:abc@thread"},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			Provider:       models.ProviderTeams,
			ChannelId:      "T-sales",
			GraphChannelId: "19:def@thread",
			Routes:         models.Route{Provider: models.ProviderSlack, To: "S1", ChannelId: "C-Hidden-Route"},
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			Provider:      models.ProviderGoogle,
			ChannelId:     "G-ops",
			OutgoingSpace: "spaces/AAA",
			Routes:        models.Route{Provider: models.ProviderGoogle, To: "spaces/BBB", OutgoingSpace: "spaces/BBB"},
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}

func channelIDs(connections []models.Connection) []string {
	ids := make([]string, 0, len(connections))
	for _, c := range connections {
		ids = append(ids, c.ChannelId)
	}
	return ids
}

// runStoreContract exercises a ConnectionStore implementation. The store must
// be empty and migrated.
func runStoreContract(t *testing.T, s ConnectionStore) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	ids := make(map[string]string)
	for _, c := range fixtureConnections(now) {
		c := c
		id, err := s.Insert(ctx, &c)
		require.NoError(t, err)
		require.NotEmpty(t, id)
		ids[c.ChannelId] = id
	}

	t.Run("list all", func(t *testing.T) {
		got, err := s.List(ctx, ListFilter{})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"C-general", "T-sales", "G-ops"}, channelIDs(got))
	})

	t.Run("source provider filter", func(t *testing.T) {
		got, err := s.List(ctx, ListFilter{SourceProvider: "slack"})
		require.NoError(t, err)
		assert.Equal(t, []string{"C-general"}, channelIDs(got))
	})

	t.Run("target provider filter", func(t *testing.T) {
		got, err := s.List(ctx, ListFilter{TargetProvider: "slack"})
		require.NoError(t, err)
		assert.Equal(t, []string{"T-sales"}, channelIDs(got))
	})

	t.Run("search matches route field only", func(t *testing.T) {
		got, err := s.List(ctx, ListFilter{Search: "hidden-route"})
		require.NoError(t, err)
		assert.Equal(t, []string{"T-sales"}, channelIDs(got))
	})

	t.Run("search is case insensitive across fields", func(t *testing.T) {
		got, err := s.List(ctx, ListFilter{Search: "THREAD"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"C-general", "T-sales"}, channelIDs(got))
	})

	t.Run("search is literal", func(t *testing.T) {
		got, err := s.List(ctx, ListFilter{Search: "spaces/.*"})
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = s.List(ctx, ListFilter{Search: "%"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("filters are ANDed", func(t *testing.T) {
		got, err := s.List(ctx, ListFilter{SourceProvider: "teams", Search: "thread"})
		require.NoError(t, err)
		assert.Equal(t, []string{"T-sales"}, channelIDs(got))

		got, err = s.List(ctx, ListFilter{SourceProvider: "google", TargetProvider: "slack"})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("search folds non-ascii case", func(t *testing.T) {
		extra := models.Connection{
			Provider:  models.ProviderSlack,
			ChannelId: "Ärger",
			TeamId:    "W2",
			Routes:    models.Route{Provider: models.ProviderSlack, To: "S2", ChannelId: "C-quiet"},
			CreatedAt: now,
			UpdatedAt: now,
		}
		id, err := s.Insert(ctx, &extra)
		require.NoError(t, err)
		defer func() { assert.NoError(t, s.Delete(ctx, id)) }()

		for _, term := range []string{"ärger", "ÄRGER", "rger"} {
			got, err := s.List(ctx, ListFilter{Search: term})
			require.NoError(t, err)
			assert.Equal(t, []string{"Ärger"}, channelIDs(got), "search %q", term)
		}
	})

	t.Run("find by id", func(t *testing.T) {
		got, err := s.FindByID(ctx, ids["G-ops"])
		require.NoError(t, err)
		assert.Equal(t, ids["G-ops"], got.Id)
		assert.Equal(t, "spaces/AAA", got.OutgoingSpace)
		assert.True(t, now.Equal(got.CreatedAt))
	})

	t.Run("update patches only supplied fields", func(t *testing.T) {
		before, err := s.FindByID(ctx, ids["C-general"])
		require.NoError(t, err)

		later := now.Add(time.Second)
		team := "W2"
		got, err := s.Update(ctx, ids["C-general"], models.ConnectionPatch{TeamId: &team}, later)
		require.NoError(t, err)

		want := *before
		want.TeamId = "W2"
		want.UpdatedAt = later
		assert.Equal(t, want.Id, got.Id)
		assert.Equal(t, want.Routes, got.Routes)
		assert.Equal(t, want.TeamId, got.TeamId)
		assert.Equal(t, want.ChannelId, got.ChannelId)
		assert.True(t, before.CreatedAt.Equal(got.CreatedAt))
		assert.True(t, later.Equal(got.UpdatedAt))

		reread, err := s.FindByID(ctx, ids["C-general"])
		require.NoError(t, err)
		assert.Equal(t, "W2", reread.TeamId)
		assert.True(t, later.Equal(reread.UpdatedAt))
	})

	t.Run("update unknown id", func(t *testing.T) {
		team := "W3"
		_, err := s.Update(ctx, unknownID(s), models.ConnectionPatch{TeamId: &team}, now)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("malformed ids are not found", func(t *testing.T) {
		_, err := s.FindByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "not-an-id"), ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, ids["G-ops"]))

		_, err := s.FindByID(ctx, ids["G-ops"])
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, ids["G-ops"]), ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, ids["G-ops"]), ErrNotFound)
	})

	t.Run("migrate is idempotent", func(t *testing.T) {
		assert.NoError(t, s.Migrate(ctx))
		assert.NoError(t, s.Migrate(ctx))
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}

// unknownID returns a well-formed id that no fixture uses.
func unknownID(s ConnectionStore) string {
	if _, ok := s.(*MongoStore); ok {
		return "65a000000000000000000000"
	}
	return "00000000-0000-4000-8000-000000000000"
}
