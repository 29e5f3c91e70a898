package mysql

import (
	"context"
	"errors"
	"fmt"

	"clickboard/pkg/store/mysql/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrCharacterNotFound is returned when no live character has the given id.
var ErrCharacterNotFound = errors.New("character not found")

// CharacterRepository handles character persistence in MySQL
type CharacterRepository struct {
	ds *Datastore
}

// NewCharacterRepository creates a new character repository
func NewCharacterRepository(ds *Datastore) *CharacterRepository {
	return &CharacterRepository{ds: ds}
}

// ListCharacters returns every live character, oldest first.
func (r *CharacterRepository) ListCharacters(ctx context.Context) ([]*model.Character, error) {
	var characters []*model.Character
	if err := r.ds.DB(ctx).Order("created_at ASC").Find(&characters).Error; err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	return characters, nil
}

// GetCharacter retrieves a character by id
func (r *CharacterRepository) GetCharacter(ctx context.Context, id string) (*model.Character, error) {
	var character model.Character
	err := r.ds.DB(ctx).Where("id = ?", id).First(&character).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCharacterNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get character %s: %w", id, err)
	}
	return &character, nil
}

// CreateCharacter inserts a character, assigning an id when missing.
func (r *CharacterRepository) CreateCharacter(ctx context.Context, character *model.Character) error {
	if character.ID == "" {
		character.ID = uuid.NewString()
	}
	if err := r.ds.DB(ctx).Create(character).Error; err != nil {
		return fmt.Errorf("failed to create character: %w", err)
	}
	return nil
}

// AddCharacterTotals increments the running totals of a character atomically.
func (r *CharacterRepository) AddCharacterTotals(ctx context.Context, id string, plus, minus, net int) error {
	result := r.ds.DB(ctx).Exec(`
		UPDATE characters
		SET total_points = total_points + ?,
			total_plus = total_plus + ?,
			total_minus = total_minus + ?,
			updated_at = CURRENT_TIMESTAMP(3)
		WHERE id = ? AND deleted_at IS NULL
	`, net, plus, minus, id)
	if result.Error != nil {
		return fmt.Errorf("failed to update totals of character %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrCharacterNotFound, id)
	}
	return nil
}

// TopCharacters returns the characters with the highest all-time totals.
func (r *CharacterRepository) TopCharacters(ctx context.Context, limit int) ([]*model.Character, error) {
	if limit <= 0 {
		limit = 10
	}
	var characters []*model.Character
	err := r.ds.DB(ctx).
		Order("total_points DESC").
		Order("name ASC").
		Limit(limit).
		Find(&characters).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list top characters: %w", err)
	}
	return characters, nil
}
