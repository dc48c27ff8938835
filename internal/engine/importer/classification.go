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

package importer

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/internal/engine/repo"
	"github.com/go-arcade/feedback/pkg/datatype"
	"github.com/go-arcade/feedback/pkg/metrics"
	"github.com/go-arcade/feedback/pkg/slug"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// legacy option names holding serialized classification data
const (
	optionListPrefix        = "feedback_"
	optionCustomGroups      = "feedback_custom_groups"
	optionCustomGroupPrefix = "feedback_custom_group_"
	optionGroupSettings     = "feedback_group_settings"
)

func listOptionName(group string) string {
	return optionListPrefix + group
}

func classificationOptionNames() []string {
	names := make([]string, 0, len(model.BuiltInGroups)+2)
	for _, g := range model.BuiltInGroups {
		names = append(names, listOptionName(g))
	}
	return append(names, optionCustomGroups, optionGroupSettings)
}

// entry is one decoded element of a legacy list. Legacy writers were loose
// about types, so every accessor coerces.
type entry map[string]any

func (e entry) str(keys ...string) string {
	for _, k := range keys {
		if v, ok := e[k]; ok && v != nil {
			if s := strings.TrimSpace(cast.ToString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func (e entry) boolean(key string, def bool) bool {
	v, ok := e[key]
	if !ok || v == nil {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

func (e entry) flag(key string, def bool) *bool {
	b := e.boolean(key, def)
	return &b
}

func (e entry) integer(key string, def int) int {
	v, ok := e[key]
	if !ok || v == nil {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return n
}

func (e entry) roles(key string) datatype.List[string] {
	out := datatype.List[string]{}
	for _, v := range cast.ToSlice(e[key]) {
		if s := strings.TrimSpace(cast.ToString(v)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (e entry) users(key string) datatype.List[uint64] {
	out := datatype.List[uint64]{}
	for _, v := range cast.ToSlice(e[key]) {
		if id, err := cast.ToUint64E(v); err == nil && id > 0 {
			out = append(out, id)
		}
	}
	return out
}

// optionFields maps a legacy list entry, defaulting every absent sub-field
func (e entry) optionFields(position int) model.OptionFields {
	label := e.str("label", "name")
	s := e.str("slug", "id")
	if s == "" {
		s = slug.Make(label)
	}
	if label == "" {
		label = s
	}
	f := model.OptionFields{
		Slug:          s,
		Label:         label,
		Emoji:         e.str("emoji", "icon"),
		Color:         e.str("color"),
		DisplayMode:   e.str("display_mode", "displayMode"),
		SortOrder:     position,
		Enabled:       e.flag("enabled", true),
		IsTreated:     e.boolean("is_treated", false),
		AIInstruction: e.str("ai_instruction", "aiInstruction"),
		AllowedRoles:  e.roles("allowed_roles"),
		AllowedUsers:  e.users("allowed_users"),
	}
	f.Normalize()
	return f
}

func (i *Importer) readList(ctx context.Context, name string, report *Report) ([]entry, bool) {
	raw, ok, err := i.repos.Legacy.GetOption(ctx, name)
	if err != nil {
		report.addError("legacy option %s: %v", name, err)
		return nil, false
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, false
	}
	var list []entry
	if err := sonic.UnmarshalString(raw, &list); err != nil {
		report.addError("legacy option %s: %v", name, err)
		return nil, false
	}
	return list, true
}

// ImportClassificationLists copies the four built-in lists, the custom groups
// with their items and the group settings map.
func (i *Importer) ImportClassificationLists(ctx context.Context) (*Report, error) {
	report := &Report{}
	for _, group := range model.BuiltInGroups {
		i.importBuiltInList(ctx, group, report)
	}
	if err := i.importCustomGroups(ctx, report); err != nil {
		return report, err
	}
	i.importGroupSettings(ctx, report)
	return report, nil
}

func (i *Importer) importBuiltInList(ctx context.Context, group string, report *Report) {
	list, ok := i.readList(ctx, listOptionName(group), report)
	if !ok {
		return
	}
	seen := map[string]struct{}{}
	for pos, e := range list {
		row := &model.MetadataType{GroupName: group, OptionFields: e.optionFields(pos)}
		if _, dup := seen[row.Slug]; dup {
			report.addError("%s: duplicate slug %s", group, row.Slug)
			continue
		}
		seen[row.Slug] = struct{}{}

		if _, err := i.repos.MetadataType.FindBySlug(ctx, group, row.Slug); err == nil {
			metrics.LegacyImportItemsTotal.WithLabelValues(kindMetadataType, metrics.ResultSkipped).Inc()
			continue
		} else if !repo.IsNotFound(err) {
			report.addError("%s/%s: %v", group, row.Slug, err)
			continue
		}
		if err := i.repos.MetadataType.Create(ctx, row); err != nil {
			metrics.LegacyImportItemsTotal.WithLabelValues(kindMetadataType, metrics.ResultError).Inc()
			report.addError("%s/%s: %v", group, row.Slug, err)
			continue
		}
		metrics.LegacyImportItemsTotal.WithLabelValues(kindMetadataType, metrics.ResultSuccess).Inc()
		report.Options++
	}
}

func (i *Importer) importCustomGroups(ctx context.Context, report *Report) error {
	groups, ok := i.readList(ctx, optionCustomGroups, report)
	if !ok {
		return nil
	}
	for pos, e := range groups {
		name := e.str("name", "label")
		s := e.str("slug", "id")
		if s == "" {
			s = slug.Make(name)
		}
		if name == "" {
			name = s
		}
		if model.IsBuiltInGroup(s) {
			report.addError("custom group %s: name is reserved", s)
			continue
		}

		group, err := i.repos.CustomGroup.GetBySlug(ctx, s)
		switch {
		case err == nil:
			metrics.LegacyImportItemsTotal.WithLabelValues(kindCustomGroup, metrics.ResultSkipped).Inc()
		case repo.IsNotFound(err):
			group = &model.CustomGroup{Slug: s, Name: name, SortOrder: pos}
			if err := i.repos.CustomGroup.Create(ctx, group); err != nil {
				metrics.LegacyImportItemsTotal.WithLabelValues(kindCustomGroup, metrics.ResultError).Inc()
				report.addError("custom group %s: %v", s, err)
				continue
			}
			metrics.LegacyImportItemsTotal.WithLabelValues(kindCustomGroup, metrics.ResultSuccess).Inc()
			report.CustomGroups++
		default:
			return errors.Wrapf(err, "look up custom group %s", s)
		}

		i.importCustomItems(ctx, group, report)
	}
	return nil
}

func (i *Importer) importCustomItems(ctx context.Context, group *model.CustomGroup, report *Report) {
	list, ok := i.readList(ctx, optionCustomGroupPrefix+group.Slug, report)
	if !ok {
		return
	}
	seen := map[string]struct{}{}
	for pos, e := range list {
		row := &model.MetadataItem{GroupID: group.ID, OptionFields: e.optionFields(pos)}
		if _, dup := seen[row.Slug]; dup {
			report.addError("%s: duplicate slug %s", group.Slug, row.Slug)
			continue
		}
		seen[row.Slug] = struct{}{}

		if _, err := i.repos.MetadataItem.FindBySlug(ctx, group.ID, row.Slug); err == nil {
			metrics.LegacyImportItemsTotal.WithLabelValues(kindMetadataItem, metrics.ResultSkipped).Inc()
			continue
		}
		if err := i.repos.MetadataItem.Create(ctx, row); err != nil {
			metrics.LegacyImportItemsTotal.WithLabelValues(kindMetadataItem, metrics.ResultError).Inc()
			report.addError("%s/%s: %v", group.Slug, row.Slug, err)
			continue
		}
		metrics.LegacyImportItemsTotal.WithLabelValues(kindMetadataItem, metrics.ResultSuccess).Inc()
		report.Options++
	}
}

func (i *Importer) importGroupSettings(ctx context.Context, report *Report) {
	raw, ok, err := i.repos.Legacy.GetOption(ctx, optionGroupSettings)
	if err != nil {
		report.addError("legacy option %s: %v", optionGroupSettings, err)
		return
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return
	}
	var bySlug map[string]entry
	if err := sonic.UnmarshalString(raw, &bySlug); err != nil {
		report.addError("legacy option %s: %v", optionGroupSettings, err)
		return
	}

	positions, err := i.groupPositions(ctx)
	if err != nil {
		report.addError("legacy option %s: %v", optionGroupSettings, err)
		return
	}

	for s, e := range bySlug {
		settings := model.DefaultGroupSettings(s)
		settings.Enabled = e.flag("enabled", true)
		settings.Required = e.boolean("required", settings.Required)
		settings.ShowInSidebar = e.flag("show_in_sidebar", true)
		settings.HideEmptySections = e.boolean("hide_empty_sections", settings.HideEmptySections)
		settings.SortOrder = e.integer("sort_order", positions[s])
		settings.AllowedRoles = e.roles("allowed_roles")
		settings.AllowedUsers = e.users("allowed_users")
		settings.AIInstruction = e.str("ai_instruction", "aiInstruction")

		if err := i.repos.GroupSettings.Save(ctx, &settings); err != nil {
			metrics.LegacyImportItemsTotal.WithLabelValues(kindGroupSettings, metrics.ResultError).Inc()
			report.addError("settings of group %s: %v", s, err)
			continue
		}
		metrics.LegacyImportItemsTotal.WithLabelValues(kindGroupSettings, metrics.ResultSuccess).Inc()
		report.GroupSettings++
	}
}

// groupPositions numbers every group the way the positional backfill does:
// built-in groups first, then custom groups by (sort_order, id)
func (i *Importer) groupPositions(ctx context.Context) (map[string]int, error) {
	positions := make(map[string]int, len(model.BuiltInGroups))
	for pos, name := range model.BuiltInGroups {
		positions[name] = pos
	}
	custom, err := i.repos.CustomGroup.List(ctx)
	if err != nil {
		return nil, err
	}
	for pos, g := range custom {
		positions[g.Slug] = len(model.BuiltInGroups) + pos
	}
	return positions, nil
}
