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

package migrate

import (
	"context"

	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/pkg/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// LegacySettingNames are the options moved from the legacy global store by 1.4.0
var LegacySettingNames = []string{
	"feedback_enabled",
	"feedback_button_position",
	"feedback_button_color",
	"feedback_allowed_roles",
	"feedback_allow_guests",
	"feedback_notify_emails",
	"feedback_notify_on_reply",
	"feedback_screenshot_enabled",
	"feedback_screenshot_quality",
	"feedback_hide_resolved",
	"feedback_ai_enabled",
	"feedback_ai_instruction",
}

// treatedStatuses are the default statuses that close a feedback
var treatedStatuses = []string{"resolved", "rejected"}

// Steps returns the built-in migration steps
func Steps() []Step {
	return []Step{
		{Version: "1.1.0", Name: "treated flag", Up: addTreatedFlag},
		{Version: "1.2.0", Name: "hide empty sections", Up: addHideEmptySections},
		{Version: "1.3.0", Name: "group sort order", Up: addGroupSortOrder},
		{Version: "1.4.0", Name: "move legacy settings", Up: moveLegacySettings},
	}
}

// addColumnIfMissing adds field's column to model's table. A table that does
// not exist yet is left alone: EnsureSchema creates it complete.
func addColumnIfMissing(db *gorm.DB, m any, field string) (bool, error) {
	migrator := db.Migrator()
	if !migrator.HasTable(m) {
		return false, nil
	}
	if migrator.HasColumn(m, field) {
		return false, nil
	}
	if err := migrator.AddColumn(m, field); err != nil {
		return false, errors.Wrapf(err, "add column %s", field)
	}
	return true, nil
}

func addTreatedFlag(ctx context.Context, env *Env) error {
	db := env.DB.WithContext(ctx)
	if _, err := addColumnIfMissing(db, &model.MetadataType{}, "IsTreated"); err != nil {
		return err
	}
	if _, err := addColumnIfMissing(db, &model.MetadataItem{}, "IsTreated"); err != nil {
		return err
	}
	if !db.Migrator().HasTable(&model.MetadataType{}) {
		return nil
	}
	res := db.Model(&model.MetadataType{}).
		Where("group_name = ? AND slug IN ? AND is_treated = ?", model.GroupStatuses, treatedStatuses, false).
		Update("is_treated", true)
	if res.Error != nil {
		return errors.Wrap(res.Error, "backfill treated statuses")
	}
	log.Debugw("treated statuses backfilled", "rows", res.RowsAffected)
	return nil
}

func addHideEmptySections(ctx context.Context, env *Env) error {
	_, err := addColumnIfMissing(env.DB.WithContext(ctx), &model.GroupSettings{}, "HideEmptySections")
	return err
}

// addGroupSortOrder adds the column and numbers the groups in their historic
// order: built-in groups first, then custom groups by their own order.
// Rows that already carry an order are kept.
func addGroupSortOrder(ctx context.Context, env *Env) error {
	db := env.DB.WithContext(ctx)
	if _, err := addColumnIfMissing(db, &model.GroupSettings{}, "SortOrder"); err != nil {
		return err
	}
	if !db.Migrator().HasTable(&model.GroupSettings{}) {
		return nil
	}

	order := map[string]int{}
	for i, g := range model.BuiltInGroups {
		order[g] = i
	}
	if db.Migrator().HasTable(&model.CustomGroup{}) {
		var groups []model.CustomGroup
		if err := db.Select("id", "slug").Order("sort_order ASC, id ASC").Find(&groups).Error; err != nil {
			return errors.Wrap(err, "list custom groups")
		}
		for i, g := range groups {
			order[g.Slug] = len(model.BuiltInGroups) + i
		}
	}

	for slug, pos := range order {
		if pos == 0 {
			continue
		}
		err := db.Model(&model.GroupSettings{}).
			Where("group_slug = ? AND sort_order = ?", slug, 0).
			Update("sort_order", pos).Error
		if err != nil {
			return errors.Wrapf(err, "backfill sort order of group %s", slug)
		}
	}
	return nil
}

// moveLegacySettings copies each known legacy option into the Setting table
// and removes the legacy row once the copy is stored.
func moveLegacySettings(ctx context.Context, env *Env) error {
	if !env.Legacy.HasTable(ctx, model.LegacyOptionTable) {
		return nil
	}
	for _, name := range LegacySettingNames {
		value, ok, err := env.Legacy.GetOption(ctx, name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		exists, err := env.Settings.Exists(ctx, name)
		if err != nil {
			return errors.Wrapf(err, "check setting %s", name)
		}
		if !exists {
			if _, err := env.Settings.InsertIfAbsent(ctx, name, value, true); err != nil {
				return errors.Wrapf(err, "copy legacy setting %s", name)
			}
		}
		if err := env.Legacy.DeleteOption(ctx, name); err != nil {
			return errors.Wrapf(err, "remove legacy setting %s", name)
		}
		log.Debugw("legacy setting moved", "name", name, "copied", !exists)
	}
	return nil
}
