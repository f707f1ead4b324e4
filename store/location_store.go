// location_store.go - Location persistence: ingest merge, queries, ratings

package store

import (
	"context"

	"envsense-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LocationStore struct{ db *gorm.DB }

// MetadataUpdate holds the optional fields of a metadata change; nil leaves a field untouched.
type MetadataUpdate struct {
	Description *string
	Image       *string
}

// Ingest appends values to the location called name, creating the location
// when it does not exist yet. created reports which branch was taken.
//
// The insert uses ON CONFLICT DO NOTHING so two first-time ingests for the
// same name converge on one record; the loser of the race falls through to
// the append path.
func (s *LocationStore) Ingest(ctx context.Context, name string, values map[string]float64) (*models.Location, bool, error) {
	if len(values) == 0 {
		return nil, false, ErrNoReadings
	}

	var (
		loc     models.Location
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fresh := models.NewLocation(name, values)
		res := tx.Clauses(clause.OnConflict{ // INSERT ... ON CONFLICT(name) DO NOTHING
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(fresh)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 { // Inserted, so this request created the location
			created = true
			loc = *fresh
			return nil
		}

		if err := tx.Model(&models.Location{}).
			Where("name = ?", name).
			Updates(pushUpdates(values)).Error; err != nil { // Append to the existing row
			return err
		}
		return tx.Where("name = ?", name).Take(&loc).Error // Reload the merged sequences
	})
	if err != nil {
		return nil, false, translate(err)
	}
	return &loc, created, nil
}

// pushUpdates builds one json_insert append per supplied sensor kind.
func pushUpdates(values map[string]float64) map[string]any {
	updates := make(map[string]any, len(values))
	for _, kind := range models.SensorKinds {
		v, ok := values[kind]
		if !ok {
			continue // Untouched sequences are not rewritten
		}
		updates[kind] = appendExpr(kind, v)
	}
	return updates
}

func appendExpr(column string, v any) clause.Expr {
	return gorm.Expr("json_insert(COALESCE(?, '[]'), '$[#]', ?)", clause.Column{Name: column}, v)
}

// Create persists a fully built location.
func (s *LocationStore) Create(ctx context.Context, loc *models.Location) error {
	return translate(s.db.WithContext(ctx).Create(loc).Error)
}

// List returns every location, newest first.
func (s *LocationStore) List(ctx context.Context) ([]models.Location, error) {
	locs := []models.Location{}
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&locs).Error; err != nil {
		return nil, translate(err)
	}
	return locs, nil
}

func (s *LocationStore) GetByID(ctx context.Context, id string) (*models.Location, error) {
	var loc models.Location
	if err := s.db.WithContext(ctx).First(&loc, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &loc, nil
}

func (s *LocationStore) GetByName(ctx context.Context, name string) (*models.Location, error) {
	var loc models.Location
	if err := s.db.WithContext(ctx).Where("name = ?", name).Take(&loc).Error; err != nil {
		return nil, translate(err)
	}
	return &loc, nil
}

func (s *LocationStore) DeleteByID(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Location{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound // Nothing matched the id
	}
	return nil
}

// UpdateMetadata merges the provided fields into the location called name.
func (s *LocationStore) UpdateMetadata(ctx context.Context, name string, upd MetadataUpdate) (*models.Location, error) {
	fields := map[string]any{}
	if upd.Description != nil {
		fields["description"] = *upd.Description
	}
	if upd.Image != nil {
		fields["image"] = *upd.Image
	}
	if len(fields) == 0 {
		return s.GetByName(ctx, name) // Nothing to change, still report a missing location
	}

	res := s.db.WithContext(ctx).Model(&models.Location{}).Where("name = ?", name).Updates(fields)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetByName(ctx, name)
}

func (s *LocationStore) UpdateDescription(ctx context.Context, name, description string) (*models.Location, error) {
	return s.UpdateMetadata(ctx, name, MetadataUpdate{Description: &description})
}

// Rate appends stars and userID to the location in a single conditional
// update that only matches while userID is absent from usersRated.
// A missing location and a repeat rating both yield ErrAlreadyRated.
func (s *LocationStore) Rate(ctx context.Context, name, userID string, stars int) (*models.Location, error) {
	res := s.db.WithContext(ctx).Model(&models.Location{}).
		Where("name = ?", name).
		Where("NOT EXISTS (SELECT 1 FROM json_each(locations.users_rated) WHERE json_each.value = ?)", userID).
		Updates(map[string]any{
			"stars_ratings": appendExpr("stars_ratings", stars),
			"users_rated":   appendExpr("users_rated", userID),
		})
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyRated // Rated before, or no such location
	}
	return s.GetByName(ctx, name)
}
