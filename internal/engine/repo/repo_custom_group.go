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

type ICustomGroupRepository interface {
	Create(ctx context.Context, group *model.CustomGroup) error
	GetBySlug(ctx context.Context, slug string) (*model.CustomGroup, error)
	GetByID(ctx context.Context, id uint64) (*model.CustomGroup, error)
	List(ctx context.Context) ([]model.CustomGroup, error)
	MaxSortOrder(ctx context.Context) (int, error)
	CountAll(ctx context.Context) (int64, error)
	// DeleteWithItems removes the group, its items and its settings row in one transaction
	DeleteWithItems(ctx context.Context, group *model.CustomGroup) error
}

type CustomGroupRepo struct {
	database.IDatabase
}

func NewCustomGroupRepo(db database.IDatabase) ICustomGroupRepository {
	return &CustomGroupRepo{IDatabase: db}
}

func (r *CustomGroupRepo) db(ctx context.Context) *gorm.DB {
	return r.Database().WithContext(ctx)
}

func (r *CustomGroupRepo) Create(ctx context.Context, group *model.CustomGroup) error {
	if err := r.db(ctx).Create(group).Error; err != nil {
		return fmt.Errorf("create custom group %s: %w", group.Slug, err)
	}
	return nil
}

func (r *CustomGroupRepo) GetBySlug(ctx context.Context, slug string) (*model.CustomGroup, error) {
	var g model.CustomGroup
	if err := r.db(ctx).Where("slug = ?", slug).Take(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *CustomGroupRepo) GetByID(ctx context.Context, id uint64) (*model.CustomGroup, error) {
	var g model.CustomGroup
	if err := r.db(ctx).Where("id = ?", id).Take(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *CustomGroupRepo) List(ctx context.Context) ([]model.CustomGroup, error) {
	var list []model.CustomGroup
	if err := r.db(ctx).Order("sort_order ASC, id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list custom groups: %w", err)
	}
	return list, nil
}

func (r *CustomGroupRepo) MaxSortOrder(ctx context.Context) (int, error) {
	var maxOrder sql.NullInt64
	if err := r.db(ctx).Model(&model.CustomGroup{}).Select("MAX(sort_order)").Scan(&maxOrder).Error; err != nil {
		return 0, err
	}
	if !maxOrder.Valid {
		return -1, nil
	}
	return int(maxOrder.Int64), nil
}

func (r *CustomGroupRepo) CountAll(ctx context.Context) (int64, error) {
	return Count(r.db(ctx).Model(&model.CustomGroup{}))
}

func (r *CustomGroupRepo) DeleteWithItems(ctx context.Context, group *model.CustomGroup) error {
	return r.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", group.ID).Delete(&model.MetadataItem{}).Error; err != nil {
			return fmt.Errorf("delete items of group %s: %w", group.Slug, err)
		}
		if err := tx.Where("group_slug = ?", group.Slug).Delete(&model.GroupSettings{}).Error; err != nil {
			return fmt.Errorf("delete settings of group %s: %w", group.Slug, err)
		}
		if err := tx.Where("id = ?", group.ID).Delete(&model.CustomGroup{}).Error; err != nil {
			return fmt.Errorf("delete group %s: %w", group.Slug, err)
		}
		return nil
	})
}
