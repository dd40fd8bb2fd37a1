package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/theleywin/SyncRivo-Registry/src/models"
)

// channelRow is the relational shape of a connection, with the embedded route
// flattened into route_* columns.
type channelRow struct {
	Id                  string `gorm:"primaryKey;size:36"`
	Provider            string `gorm:"index;not null"`
	ChannelId           string `gorm:"index;not null"`
	OutgoingSpace       string
	TeamId              string
	GraphChannelId      string
	RouteProvider       string `gorm:"index;not null"`
	RouteTo             string `gorm:"not null"`
	RouteChannelId      string
	RouteOutgoingSpace  string
	RouteGraphChannelId string    `gorm:"index"`
	CreatedAt           time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime:false"`
}

func (channelRow) TableName() string {
	return CollectionName
}

func rowFromModel(c *models.Connection) channelRow {
	return channelRow{
		Id:                  c.Id,
		Provider:            string(c.Provider),
		ChannelId:           c.ChannelId,
		OutgoingSpace:       c.OutgoingSpace,
		TeamId:              c.TeamId,
		GraphChannelId:      c.GraphChannelId,
		RouteProvider:       string(c.Routes.Provider),
		RouteTo:             c.Routes.To,
		RouteChannelId:      c.Routes.ChannelId,
		RouteOutgoingSpace:  c.Routes.OutgoingSpace,
		RouteGraphChannelId: c.Routes.GraphChannelId,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func (r channelRow) toModel() models.Connection {
	return models.Connection{
		Id:             r.Id,
		Provider:       models.Provider(r.Provider),
		ChannelId:      r.ChannelId,
		OutgoingSpace:  r.OutgoingSpace,
		TeamId:         r.TeamId,
		GraphChannelId: r.GraphChannelId,
		Routes: models.Route{
			Provider:       models.Provider(r.RouteProvider),
			To:             r.RouteTo,
			ChannelId:      r.RouteChannelId,
			OutgoingSpace:  r.RouteOutgoingSpace,
			GraphChannelId: r.RouteGraphChannelId,
		},
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

// sqlSearchColumns mirror searchFields.
var sqlSearchColumns = []string{
	"channel_id",
	"outgoing_space",
	"graph_channel_id",
	"route_channel_id",
	"route_outgoing_space",
	"route_graph_channel_id",
}

// likeEscaper escapes LIKE wildcards so Search is a literal substring.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SQLStore keeps connections in a relational table through gorm.
type SQLStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSQLStore wraps an open gorm database.
func NewSQLStore(db *gorm.DB, logger *zap.Logger) *SQLStore {
	return &SQLStore{db: db, logger: logger}
}

// List returns the rows matching filter.
func (s *SQLStore) List(ctx context.Context, filter ListFilter) ([]models.Connection, error) {
	query := s.db.WithContext(ctx).Model(&channelRow{})
	if filter.SourceProvider != "" {
		query = query.Where("provider = ?", filter.SourceProvider)
	}
	if filter.TargetProvider != "" {
		query = query.Where("route_provider = ?", filter.TargetProvider)
	}
	if filter.Search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(filter.Search)) + "%"
		clauses := make([]string, 0, len(sqlSearchColumns))
		args := make([]any, 0, len(sqlSearchColumns))
		for _, column := range sqlSearchColumns {
			clauses = append(clauses, "unicode_lower(COALESCE("+column+`, '')) LIKE ? ESCAPE '\'`)
			args = append(args, pattern)
		}
		query = query.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}

	var rows []channelRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find connections: %w", err)
	}

	connections := make([]models.Connection, 0, len(rows))
	for _, row := range rows {
		connections = append(connections, row.toModel())
	}
	return connections, nil
}

// Insert stores c under a fresh UUID and returns it.
func (s *SQLStore) Insert(ctx context.Context, c *models.Connection) (string, error) {
	row := rowFromModel(c)
	row.Id = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("insert connection: %w", err)
	}
	return row.Id, nil
}

// FindByID returns ErrNotFound when no row has id.
func (s *SQLStore) FindByID(ctx context.Context, id string) (*models.Connection, error) {
	var row channelRow
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find connection %s: %w", id, err)
	}

	c := row.toModel()
	return &c, nil
}

// Update applies patch and updatedAt in one transaction.
func (s *SQLStore) Update(ctx context.Context, id string, patch models.ConnectionPatch, updatedAt time.Time) (*models.Connection, error) {
	var updated models.Connection
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row channelRow
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			return err
		}

		current := row.toModel()
		merged := current.Apply(patch)
		merged.UpdatedAt = updatedAt
		next := rowFromModel(&merged)

		// Select("*") writes empty strings too, so a patch can clear a field.
		if err := tx.Model(&channelRow{}).Where("id = ?", id).Select("*").Omit("id", "created_at").Updates(&next).Error; err != nil {
			return err
		}
		updated = merged
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update connection %s: %w", id, err)
	}
	return &updated, nil
}

// Delete returns ErrNotFound when no row was removed.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&channelRow{})
	if result.Error != nil {
		return fmt.Errorf("delete connection %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Migrate creates the channels table and its indexes.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&channelRow{}); err != nil {
		return fmt.Errorf("migrate %s: %w", CollectionName, err)
	}
	s.logger.Info("database migration completed", zap.String("table", CollectionName))
	return nil
}

// Ping checks the underlying database handle.
func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying database handle.
func (s *SQLStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
