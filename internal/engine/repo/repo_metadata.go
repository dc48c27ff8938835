// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/pkg/database"
	"gorm.io/gorm"
)

// optionTable holds the queries shared by the two classification tables.
// K is the group key: the group name for built-in groups, the group id for custom ones.
type optionTable[T any, K comparable] struct {
	database.IDatabase
	groupColumn string
}

func (t optionTable[T, K]) scope(ctx context.Context, group K) *gorm.DB {
	return t.Database().WithContext(ctx).Model(new(T)).Where(t.groupColumn+" = ?", group)
}

// List returns the group's rows ordered by (sort_order, id)
func (t optionTable[T, K]) List(ctx context.Context, group K) ([]T, error) {
	var rows []T
	if err := t.scope(ctx, group).Order("sort_order ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list options of %v: %w", group, err)
	}
	return rows, nil
}

func (t optionTable[T, K]) Count(ctx context.Context, group K) (int64, error) {
	return Count(t.scope(ctx, group))
}

func (t optionTable[T, K]) CountAll(ctx context.Context) (int64, error) {
	return Count(t.Database().WithContext(ctx).Model(new(T)))
}

func (t optionTable[T, K]) Get(ctx context.Context, group K, id uint64) (*T, error) {
	var row T
	if err := t.scope(ctx, group).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (t optionTable[T, K]) FindBySlug(ctx context.Context, group K, slug string) (*T, error) {
	var row T
	if err := t.scope(ctx, group).Where("slug = ?", slug).Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// MaxSortOrder returns the highest sort_order in the group, or -1 when empty
func (t optionTable[T, K]) MaxSortOrder(ctx context.Context, group K) (int, error) {
	var maxOrder sql.NullInt64
	if err := t.scope(ctx, group).Select("MAX(sort_order)").Scan(&maxOrder).Error; err != nil {
		return 0, fmt.Errorf("max sort order of %v: %w", group, err)
	}
	if !maxOrder.Valid {
		return -1, nil
	}
	return int(maxOrder.Int64), nil
}

// Create inserts rows as given; a nil Enabled takes the column default
func (t optionTable[T, K]) Create(ctx context.Context, rows ...*T) error {
	if len(rows) == 0 {
		return nil
	}
	return t.Database().WithContext(ctx).Create(rows).Error
}

// Save writes every column of an existing row
func (t optionTable[T, K]) Save(ctx context.Context, row *T) error {
	return t.Database().WithContext(ctx).Save(row).Error
}

func (t optionTable[T, K]) Delete(ctx context.Context, group K, id uint64) (bool, error) {
	res := t.Database().WithContext(ctx).Where(t.groupColumn+" = ? AND id = ?", group, id).Delete(new(T))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetSortOrders assigns sort_order = position for each id, in one transaction
func (t optionTable[T, K]) SetSortOrders(ctx context.Context, group K, ids []uint64) error {
	return t.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for pos, id := range ids {
			err := tx.Model(new(T)).
				Where(t.groupColumn+" = ? AND id = ?", group, id).
				Update("sort_order", pos).Error
			if err != nil {
				return fmt.Errorf("reorder %v: %w", group, err)
			}
		}
		return nil
	})
}

type IMetadataTypeRepository interface {
	List(ctx context.Context, group string) ([]model.MetadataType, error)
	Count(ctx context.Context, group string) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	Get(ctx context.Context, group string, id uint64) (*model.MetadataType, error)
	FindBySlug(ctx context.Context, group, slug string) (*model.MetadataType, error)
	MaxSortOrder(ctx context.Context, group string) (int, error)
	Create(ctx context.Context, rows ...*model.MetadataType) error
	Save(ctx context.Context, row *model.MetadataType) error
	Delete(ctx context.Context, group string, id uint64) (bool, error)
	SetSortOrders(ctx context.Context, group string, ids []uint64) error
	TreatedSlugs(ctx context.Context) ([]string, error)
}

type MetadataTypeRepo struct {
	optionTable[model.MetadataType, string]
}

func NewMetadataTypeRepo(db database.IDatabase) IMetadataTypeRepository {
	return &MetadataTypeRepo{optionTable[model.MetadataType, string]{IDatabase: db, groupColumn: "group_name"}}
}

// TreatedSlugs returns the statuses flagged as terminal
func (r *MetadataTypeRepo) TreatedSlugs(ctx context.Context) ([]string, error) {
	var slugs []string
	err := r.scope(ctx, model.GroupStatuses).
		Where("is_treated = ?", true).
		Order("sort_order ASC, id ASC").
		Pluck("slug", &slugs).Error
	return slugs, err
}

type IMetadataItemRepository interface {
	List(ctx context.Context, groupID uint64) ([]model.MetadataItem, error)
	Count(ctx context.Context, groupID uint64) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	Get(ctx context.Context, groupID uint64, id uint64) (*model.MetadataItem, error)
	FindBySlug(ctx context.Context, groupID uint64, slug string) (*model.MetadataItem, error)
	MaxSortOrder(ctx context.Context, groupID uint64) (int, error)
	Create(ctx context.Context, rows ...*model.MetadataItem) error
	Save(ctx context.Context, row *model.MetadataItem) error
	Delete(ctx context.Context, groupID uint64, id uint64) (bool, error)
	SetSortOrders(ctx context.Context, groupID uint64, ids []uint64) error
}

type MetadataItemRepo struct {
	optionTable[model.MetadataItem, uint64]
}

func NewMetadataItemRepo(db database.IDatabase) IMetadataItemRepository {
	return &MetadataItemRepo{optionTable[model.MetadataItem, uint64]{IDatabase: db, groupColumn: "group_id"}}
}
