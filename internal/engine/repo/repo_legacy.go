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
	"fmt"

	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/pkg/database"
	"gorm.io/gorm"
)

// ILegacyRepository reads the legacy content+attribute store. Every read
// treats a missing table as empty, so a fresh install needs no special case.
type ILegacyRepository interface {
	Prefix() string
	HasTable(ctx context.Context, name string) bool
	CountContent(ctx context.Context, contentType string) (int64, error)
	// ListContent pages through items of contentType with id > afterID, ascending
	ListContent(ctx context.Context, contentType string, afterID uint64, limit int) ([]model.LegacyContent, error)
	Attributes(ctx context.Context, contentID uint64) (map[string]string, error)
	Comments(ctx context.Context, contentID uint64) ([]model.LegacyComment, error)
	GetOption(ctx context.Context, name string) (string, bool, error)
	DeleteOption(ctx context.Context, name string) error
}

type LegacyRepo struct {
	database.IDatabase
	prefix string
}

func NewLegacyRepo(db database.IDatabase, prefix string) ILegacyRepository {
	return &LegacyRepo{IDatabase: db, prefix: prefix}
}

func (r *LegacyRepo) Prefix() string {
	return r.prefix
}

func (r *LegacyRepo) table(ctx context.Context, name string) *gorm.DB {
	return database.ReadDB(r.Database().WithContext(ctx)).Table(r.prefix + name)
}

func (r *LegacyRepo) HasTable(ctx context.Context, name string) bool {
	return r.Database().WithContext(ctx).Migrator().HasTable(r.prefix + name)
}

func (r *LegacyRepo) CountContent(ctx context.Context, contentType string) (int64, error) {
	if !r.HasTable(ctx, model.LegacyContentTable) {
		return 0, nil
	}
	return Count(r.table(ctx, model.LegacyContentTable).Where("content_type = ?", contentType))
}

func (r *LegacyRepo) ListContent(ctx context.Context, contentType string, afterID uint64, limit int) ([]model.LegacyContent, error) {
	if !r.HasTable(ctx, model.LegacyContentTable) {
		return nil, nil
	}
	var items []model.LegacyContent
	err := r.table(ctx, model.LegacyContentTable).
		Where("content_type = ? AND id > ?", contentType, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list legacy content: %w", err)
	}
	return items, nil
}

// Attributes returns the attribute bag of one item; a repeated key keeps its last value
func (r *LegacyRepo) Attributes(ctx context.Context, contentID uint64) (map[string]string, error) {
	bag := map[string]string{}
	if !r.HasTable(ctx, model.LegacyAttributeTable) {
		return bag, nil
	}
	var rows []model.LegacyAttribute
	err := r.table(ctx, model.LegacyAttributeTable).
		Where("content_id = ?", contentID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("read attributes of legacy item %d: %w", contentID, err)
	}
	for _, row := range rows {
		bag[row.AttrKey] = row.AttrValue
	}
	return bag, nil
}

func (r *LegacyRepo) Comments(ctx context.Context, contentID uint64) ([]model.LegacyComment, error) {
	if !r.HasTable(ctx, model.LegacyCommentTable) {
		return nil, nil
	}
	var rows []model.LegacyComment
	err := r.table(ctx, model.LegacyCommentTable).
		Where("content_id = ?", contentID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("read comments of legacy item %d: %w", contentID, err)
	}
	return rows, nil
}

func (r *LegacyRepo) GetOption(ctx context.Context, name string) (string, bool, error) {
	if !r.HasTable(ctx, model.LegacyOptionTable) {
		return "", false, nil
	}
	var row model.LegacyOption
	err := r.table(ctx, model.LegacyOptionTable).Where("option_name = ?", name).Take(&row).Error
	if IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read legacy option %s: %w", name, err)
	}
	return row.OptionValue, true, nil
}

func (r *LegacyRepo) DeleteOption(ctx context.Context, name string) error {
	if !r.HasTable(ctx, model.LegacyOptionTable) {
		return nil
	}
	return r.Database().WithContext(ctx).
		Table(r.prefix+model.LegacyOptionTable).
		Where("option_name = ?", name).
		Delete(&model.LegacyOption{}).Error
}
