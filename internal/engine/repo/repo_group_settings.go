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
	"github.com/go-arcade/feedback/pkg/datatype"
	"github.com/go-arcade/feedback/pkg/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IGroupSettingsRepository interface {
	// Get returns gorm.ErrRecordNotFound when the group has no row yet
	Get(ctx context.Context, slug string) (*model.GroupSettings, error)
	List(ctx context.Context) ([]model.GroupSettings, error)
	// Save creates the row on first write and overwrites it afterwards.
	// A nil switch keeps the stored value.
	Save(ctx context.Context, settings *model.GroupSettings) error
	CountAll(ctx context.Context) (int64, error)
}

type GroupSettingsRepo struct {
	database.IDatabase
}

func NewGroupSettingsRepo(db database.IDatabase) IGroupSettingsRepository {
	return &GroupSettingsRepo{IDatabase: db}
}

func (r *GroupSettingsRepo) db(ctx context.Context) *gorm.DB {
	return r.Database().WithContext(ctx)
}

func (r *GroupSettingsRepo) Get(ctx context.Context, slug string) (*model.GroupSettings, error) {
	var s model.GroupSettings
	if err := r.db(ctx).Where("group_slug = ?", slug).Take(&s).Error; err != nil {
		return nil, err
	}
	s.Normalize()
	return &s, nil
}

func (r *GroupSettingsRepo) List(ctx context.Context) ([]model.GroupSettings, error) {
	var list []model.GroupSettings
	if err := r.db(ctx).Order("sort_order ASC, id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list group settings: %w", err)
	}
	for i := range list {
		list[i].Normalize()
	}
	return list, nil
}

func (r *GroupSettingsRepo) Save(ctx context.Context, settings *model.GroupSettings) error {
	if settings.AllowedRoles == nil {
		settings.AllowedRoles = datatype.List[string]{}
	}
	if settings.AllowedUsers == nil {
		settings.AllowedUsers = datatype.List[uint64]{}
	}
	// an unset switch takes the column default on insert and is left alone on update
	switches := make(map[string]any, 2)
	util.SetIfNotNil(switches, "enabled", settings.Enabled)
	util.SetIfNotNil(switches, "show_in_sidebar", settings.ShowInSidebar)
	assignments := clause.AssignmentColumns([]string{
		"required", "hide_empty_sections", "sort_order",
		"allowed_roles", "allowed_users", "ai_instruction", "updated_at",
	})
	if len(switches) > 0 {
		assignments = append(assignments, clause.Assignments(switches)...)
	}

	err := r.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_slug"}},
		DoUpdates: assignments,
	}).Create(settings).Error
	if err != nil {
		return fmt.Errorf("save settings of group %s: %w", settings.GroupSlug, err)
	}
	return nil
}

func (r *GroupSettingsRepo) CountAll(ctx context.Context) (int64, error) {
	return Count(r.db(ctx).Model(&model.GroupSettings{}))
}
