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

package service

import (
	"context"
	"sort"
	"strings"

	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/internal/engine/repo"
	"github.com/go-arcade/feedback/pkg/datatype"
	"github.com/go-arcade/feedback/pkg/log"
	"github.com/go-arcade/feedback/pkg/slug"
	"github.com/go-arcade/feedback/pkg/util"
)

var builtInNames = map[string]string{
	model.GroupStatuses:   "Statuses",
	model.GroupTypes:      "Types",
	model.GroupPriorities: "Priorities",
	model.GroupTags:       "Tags",
}

func seed(s, label, emoji, color string, treated bool) model.OptionFields {
	return model.OptionFields{
		Slug:         s,
		Label:        label,
		Emoji:        emoji,
		Color:        color,
		DisplayMode:  model.DisplayModeEmoji,
		Enabled:      util.Ptr(true),
		IsTreated:    treated,
		AllowedRoles: datatype.List[string]{},
		AllowedUsers: datatype.List[uint64]{},
	}
}

// DefaultItems are written the first time a built-in group is read empty
var DefaultItems = map[string][]model.OptionFields{
	model.GroupStatuses: {
		seed("new", "New", "🆕", "#3b82f6", false),
		seed("in_progress", "In Progress", "🔄", "#f59e0b", false),
		seed("resolved", "Resolved", "✅", "#10b981", true),
		seed("rejected", "Rejected", "❌", "#ef4444", true),
	},
	model.GroupTypes: {
		seed("bug", "Bug", "🐛", "#ef4444", false),
		seed("improvement", "Improvement", "💡", "#8b5cf6", false),
		seed("question", "Question", "❓", "#3b82f6", false),
		seed("design", "Design", "🎨", "#ec4899", false),
	},
	model.GroupPriorities: {
		seed("none", "None", "⚪", "#9ca3af", false),
		seed("low", "Low", "🟢", "#10b981", false),
		seed("medium", "Medium", "🟠", "#f59e0b", false),
		seed("high", "High", "🔴", "#ef4444", false),
	},
	model.GroupTags: {},
}

// MetadataRegistry manages the classification groups and their items
type MetadataRegistry struct {
	types         repo.IMetadataTypeRepository
	items         repo.IMetadataItemRepository
	groups        repo.ICustomGroupRepository
	groupSettings repo.IGroupSettingsRepository
}

func NewMetadataRegistry(repos *repo.Repositories) *MetadataRegistry {
	return &MetadataRegistry{
		types:         repos.MetadataType,
		items:         repos.MetadataItem,
		groups:        repos.CustomGroup,
		groupSettings: repos.GroupSettings,
	}
}

func (r *MetadataRegistry) store(ref GroupRef) OptionStore {
	if ref.IsBuiltIn() {
		return &typeStore{repo: r.types, group: ref.Name()}
	}
	return &itemStore{repo: r.items, groupID: ref.ID()}
}

// Ref resolves a group slug: a built-in name or the slug of a custom group
func (r *MetadataRegistry) Ref(ctx context.Context, groupSlug string) (GroupRef, error) {
	if model.IsBuiltInGroup(groupSlug) {
		return BuiltIn(groupSlug), nil
	}
	g, err := r.groups.GetBySlug(ctx, groupSlug)
	if repo.IsNotFound(err) {
		return GroupRef{}, ErrNotFound
	}
	if err != nil {
		return GroupRef{}, storageError("resolve group", err, "group", groupSlug)
	}
	return Custom(g.ID), nil
}

func (r *MetadataRegistry) checkRef(ctx context.Context, ref GroupRef) error {
	if ref.IsBuiltIn() {
		if !model.IsBuiltInGroup(ref.Name()) {
			return ErrNotFound
		}
		return nil
	}
	_, err := r.groups.GetByID(ctx, ref.ID())
	if repo.IsNotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return storageError("resolve group", err, "group", ref.String())
	}
	return nil
}

// GetItems returns the group's items ordered by (sort_order, id). An empty
// built-in group is seeded with its defaults first.
func (r *MetadataRegistry) GetItems(ctx context.Context, ref GroupRef) ([]model.Option, error) {
	if err := r.checkRef(ctx, ref); err != nil {
		return nil, err
	}
	store := r.store(ref)
	items, err := store.List(ctx)
	if err != nil {
		return nil, storageError("list items", err, "group", ref.String())
	}
	if len(items) > 0 || !ref.IsBuiltIn() || len(DefaultItems[ref.Name()]) == 0 {
		return items, nil
	}

	for pos, fields := range DefaultItems[ref.Name()] {
		opt := &model.Option{OptionFields: fields}
		opt.SortOrder = pos
		if err := store.Create(ctx, opt); err != nil {
			// a concurrent reader may have seeded the group first
			log.Warnw("seeding default items failed", "group", ref.String(), "error", err)
			break
		}
	}
	items, err = store.List(ctx)
	if err != nil {
		return nil, storageError("list items", err, "group", ref.String())
	}
	return items, nil
}

// HasItem reports whether slug names an item of the built-in group
func (r *MetadataRegistry) HasItem(ctx context.Context, group, itemSlug string) (bool, error) {
	items, err := r.GetItems(ctx, BuiltIn(group))
	if err != nil {
		return false, err
	}
	for _, it := range items {
		if it.Slug == itemSlug {
			return true, nil
		}
	}
	return false, nil
}

// SaveItem upserts an item: by slug in a built-in group, by id in a custom
// group. A new item gets a generated slug when none is given and is placed
// last. An update keeps the item's position.
func (r *MetadataRegistry) SaveItem(ctx context.Context, ref GroupRef, item model.Option) (*model.Option, error) {
	item.Label = strings.TrimSpace(item.Label)
	if item.Label == "" {
		return nil, invalid("label", "is required")
	}
	if item.DisplayMode != "" && item.DisplayMode != model.DisplayModeEmoji && item.DisplayMode != model.DisplayModeColorDot {
		return nil, invalid("display_mode", "must be emoji or color_dot")
	}
	if err := r.checkRef(ctx, ref); err != nil {
		return nil, err
	}
	item.Normalize()
	store := r.store(ref)

	existing, err := r.findExisting(ctx, ref, store, &item)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		item.ID = existing.ID
		item.Slug = existing.Slug
		item.SortOrder = existing.SortOrder
		if err := store.Update(ctx, &item); err != nil {
			return nil, storageError("update item", err, "group", ref.String(), "id", item.ID)
		}
		return &item, nil
	}

	if item.Slug == "" {
		item.Slug = slug.Unique(item.Label)
	}
	top, err := store.MaxSortOrder(ctx)
	if err != nil {
		return nil, storageError("read item order", err, "group", ref.String())
	}
	item.ID = 0
	item.SortOrder = top + 1
	if err := store.Create(ctx, &item); err != nil {
		return nil, storageError("create item", err, "group", ref.String(), "slug", item.Slug)
	}
	return &item, nil
}

func (r *MetadataRegistry) findExisting(ctx context.Context, ref GroupRef, store OptionStore, item *model.Option) (*model.Option, error) {
	if ref.IsBuiltIn() {
		if item.Slug == "" {
			return nil, nil
		}
		existing, err := store.FindBySlug(ctx, item.Slug)
		if repo.IsNotFound(err) {
			return nil, nil
		}
		if err != nil {
			return nil, storageError("find item", err, "group", ref.String(), "slug", item.Slug)
		}
		return existing, nil
	}

	if item.ID == 0 {
		return nil, nil
	}
	existing, err := store.Get(ctx, item.ID)
	if repo.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError("find item", err, "group", ref.String(), "id", item.ID)
	}
	return existing, nil
}

func (r *MetadataRegistry) DeleteItem(ctx context.Context, ref GroupRef, id uint64) error {
	if err := r.checkRef(ctx, ref); err != nil {
		return err
	}
	deleted, err := r.store(ref).Delete(ctx, id)
	if err != nil {
		return storageError("delete item", err, "group", ref.String(), "id", id)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// Reorder assigns positions 0..n-1 in the order of ids. Ids outside the group are ignored.
func (r *MetadataRegistry) Reorder(ctx context.Context, ref GroupRef, ids []uint64) error {
	if err := r.checkRef(ctx, ref); err != nil {
		return err
	}
	if err := r.store(ref).SetSortOrders(ctx, ids); err != nil {
		return storageError("reorder items", err, "group", ref.String())
	}
	return nil
}

// TreatedStatuses returns the slugs of statuses that close a feedback
func (r *MetadataRegistry) TreatedStatuses(ctx context.Context) ([]string, error) {
	slugs, err := r.types.TreatedSlugs(ctx)
	if err != nil {
		return nil, storageError("list treated statuses", err)
	}
	if len(slugs) > 0 {
		return slugs, nil
	}
	// an unseeded status group still has the default treated statuses
	items, err := r.GetItems(ctx, BuiltIn(model.GroupStatuses))
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, it := range items {
		if it.IsTreated {
			out = append(out, it.Slug)
		}
	}
	return out, nil
}

// CreateGroup creates a custom group named name, slugged from the name
func (r *MetadataRegistry) CreateGroup(ctx context.Context, name string) (*model.CustomGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "is required")
	}
	s := slug.Make(name)
	if model.IsBuiltInGroup(s) {
		return nil, invalid("name", "is reserved for a built-in group")
	}
	_, err := r.groups.GetBySlug(ctx, s)
	if err == nil {
		return nil, invalid("name", "a group with this name already exists")
	}
	if !repo.IsNotFound(err) {
		return nil, storageError("look up group", err, "slug", s)
	}

	top, err := r.groups.MaxSortOrder(ctx)
	if err != nil {
		return nil, storageError("read group order", err)
	}
	group := &model.CustomGroup{Slug: s, Name: name, SortOrder: top + 1}
	if err := r.groups.Create(ctx, group); err != nil {
		return nil, storageError("create group", err, "slug", s)
	}
	log.Infow("custom group created", "slug", s, "id", group.ID)
	return group, nil
}

// DeleteGroup removes a custom group together with its items and settings
func (r *MetadataRegistry) DeleteGroup(ctx context.Context, groupSlug string) error {
	if model.IsBuiltInGroup(groupSlug) {
		return invalid("group", "built-in groups cannot be deleted")
	}
	group, err := r.groups.GetBySlug(ctx, groupSlug)
	if repo.IsNotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return storageError("look up group", err, "slug", groupSlug)
	}
	if err := r.groups.DeleteWithItems(ctx, group); err != nil {
		return storageError("delete group", err, "slug", groupSlug)
	}
	log.Infow("custom group deleted", "slug", groupSlug, "id", group.ID)
	return nil
}

// ListGroups returns built-in then custom groups with their settings, ordered
// by the settings' sort order.
func (r *MetadataRegistry) ListGroups(ctx context.Context) ([]model.GroupInfo, error) {
	custom, err := r.groups.List(ctx)
	if err != nil {
		return nil, storageError("list groups", err)
	}
	stored, err := r.groupSettings.List(ctx)
	if err != nil {
		return nil, storageError("list group settings", err)
	}
	bySlug := make(map[string]model.GroupSettings, len(stored))
	for _, s := range stored {
		bySlug[s.GroupSlug] = s
	}
	settingsOf := func(s string, position int) model.GroupSettings {
		if gs, ok := bySlug[s]; ok {
			return gs
		}
		gs := model.DefaultGroupSettings(s)
		gs.SortOrder = position
		return gs
	}

	out := make([]model.GroupInfo, 0, len(model.BuiltInGroups)+len(custom))
	for i, g := range model.BuiltInGroups {
		out = append(out, model.GroupInfo{Slug: g, Name: builtInNames[g], BuiltIn: true, Settings: settingsOf(g, i)})
	}
	for i, g := range custom {
		out = append(out, model.GroupInfo{ID: g.ID, Slug: g.Slug, Name: g.Name, Settings: settingsOf(g.Slug, len(model.BuiltInGroups)+i)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Settings.SortOrder < out[j].Settings.SortOrder
	})
	return out, nil
}

// GetGroupSettings returns the stored settings of a group or its defaults
func (r *MetadataRegistry) GetGroupSettings(ctx context.Context, groupSlug string) (*model.GroupSettings, error) {
	position, err := r.groupPosition(ctx, groupSlug)
	if err != nil {
		return nil, err
	}
	gs, err := r.groupSettings.Get(ctx, groupSlug)
	if repo.IsNotFound(err) {
		def := model.DefaultGroupSettings(groupSlug)
		def.SortOrder = position
		return &def, nil
	}
	if err != nil {
		return nil, storageError("read group settings", err, "group", groupSlug)
	}
	return gs, nil
}

// SaveGroupSettings stores a group's settings, creating the row on first save.
// Enabled and ShowInSidebar left nil keep their stored value, or default to on.
func (r *MetadataRegistry) SaveGroupSettings(ctx context.Context, groupSlug string, settings model.GroupSettings) (*model.GroupSettings, error) {
	if _, err := r.groupPosition(ctx, groupSlug); err != nil {
		return nil, err
	}
	if settings.SortOrder < 0 {
		return nil, invalid("sort_order", "must not be negative")
	}
	settings.ID = 0
	settings.GroupSlug = groupSlug
	if err := r.groupSettings.Save(ctx, &settings); err != nil {
		return nil, storageError("save group settings", err, "group", groupSlug)
	}
	return r.GetGroupSettings(ctx, groupSlug)
}

// groupPosition is the default sort order of an existing group
func (r *MetadataRegistry) groupPosition(ctx context.Context, groupSlug string) (int, error) {
	for i, g := range model.BuiltInGroups {
		if g == groupSlug {
			return i, nil
		}
	}
	custom, err := r.groups.List(ctx)
	if err != nil {
		return 0, storageError("list groups", err)
	}
	for i, g := range custom {
		if g.Slug == groupSlug {
			return len(model.BuiltInGroups) + i, nil
		}
	}
	return 0, ErrNotFound
}

func canAccess(enabled bool, roles datatype.List[string], users datatype.List[uint64], actor model.Actor) bool {
	if !enabled {
		return false
	}
	if len(roles) == 0 && len(users) == 0 {
		return true
	}
	for _, id := range users {
		if id == actor.UserID {
			return true
		}
	}
	for _, role := range actor.Roles {
		if datatype.Contains(roles, role) {
			return true
		}
	}
	return false
}

// UserCanAccess applies an item's access rule: a disabled item is hidden,
// an item without restrictions is visible, otherwise the user must be listed
// or hold one of the listed roles.
func UserCanAccess(item model.Option, actor model.Actor) bool {
	return canAccess(item.IsEnabled(), item.AllowedRoles, item.AllowedUsers, actor)
}

// GroupAccessible applies the same rule to a group's settings
func GroupAccessible(settings model.GroupSettings, actor model.Actor) bool {
	return canAccess(settings.IsEnabled(), settings.AllowedRoles, settings.AllowedUsers, actor)
}

func FilterAccessible(items []model.Option, actor model.Actor) []model.Option {
	out := make([]model.Option, 0, len(items))
	for _, it := range items {
		if UserCanAccess(it, actor) {
			out = append(out, it)
		}
	}
	return out
}
