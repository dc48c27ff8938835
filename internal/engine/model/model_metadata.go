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

package model

import (
	"github.com/go-arcade/feedback/pkg/datatype"
	"github.com/go-arcade/feedback/pkg/util"
)

const (
	GroupStatuses   = "statuses"
	GroupTypes      = "types"
	GroupPriorities = "priorities"
	GroupTags       = "tags"

	DisplayModeEmoji    = "emoji"
	DisplayModeColorDot = "color_dot"

	DefaultColor = "#6b7280"
)

// BuiltInGroups lists the groups that always exist, in their default order
var BuiltInGroups = []string{GroupStatuses, GroupTypes, GroupPriorities, GroupTags}

// IsBuiltInGroup reports whether name is one of the fixed groups
func IsBuiltInGroup(name string) bool {
	for _, g := range BuiltInGroups {
		if g == name {
			return true
		}
	}
	return false
}

// OptionFields is the column set shared by built-in and custom classification items
type OptionFields struct {
	Slug          string                `gorm:"column:slug;type:varchar(191);not null;uniqueIndex:,composite:group_slug" json:"slug"`
	Label         string                `gorm:"column:label;type:varchar(255);not null" json:"label"`
	Emoji         string                `gorm:"column:emoji;type:varchar(32)" json:"emoji"`
	Color         string                `gorm:"column:color;type:varchar(32)" json:"color"`
	DisplayMode   string                `gorm:"column:display_mode;type:varchar(16)" json:"displayMode"`
	SortOrder     int                   `gorm:"column:sort_order;not null;default:0" json:"sortOrder"`
	Enabled       *bool                 `gorm:"column:enabled;not null;default:true" json:"enabled"`
	IsTreated     bool                  `gorm:"column:is_treated;not null;default:false" json:"isTreated"`
	AIInstruction string                `gorm:"column:ai_instruction;type:text" json:"aiInstruction"`
	AllowedRoles  datatype.List[string] `gorm:"column:allowed_roles" json:"allowedRoles"`
	AllowedUsers  datatype.List[uint64] `gorm:"column:allowed_users" json:"allowedUsers"`
}

// IsEnabled treats an unset switch as on, like the column default
func (o OptionFields) IsEnabled() bool {
	return o.Enabled == nil || *o.Enabled
}

// Normalize backfills optional fields that rows written by older releases may lack
func (o *OptionFields) Normalize() {
	if o.Enabled == nil {
		o.Enabled = util.Ptr(true)
	}
	if o.DisplayMode == "" {
		o.DisplayMode = DisplayModeEmoji
	}
	if o.Color == "" {
		o.Color = DefaultColor
	}
	if o.AllowedRoles == nil {
		o.AllowedRoles = datatype.List[string]{}
	}
	if o.AllowedUsers == nil {
		o.AllowedUsers = datatype.List[uint64]{}
	}
}

// MetadataType is an item of a built-in group, keyed by group name
type MetadataType struct {
	BaseModel
	GroupName string `gorm:"column:group_name;type:varchar(64);not null;uniqueIndex:,composite:group_slug" json:"groupName"`
	OptionFields
}

// MetadataItem is an item of a custom group, keyed by the group's id
type MetadataItem struct {
	BaseModel
	GroupID uint64 `gorm:"column:group_id;not null;uniqueIndex:,composite:group_slug" json:"groupId"`
	OptionFields
}

// CustomGroup is a user-defined classification group
type CustomGroup struct {
	BaseModel
	Slug      string `gorm:"column:slug;type:varchar(191);not null;uniqueIndex" json:"slug"`
	Name      string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	SortOrder int    `gorm:"column:sort_order;not null;default:0" json:"sortOrder"`
}

// GroupSettings holds per-group display and access settings, one row per group slug
type GroupSettings struct {
	BaseModel
	GroupSlug         string                `gorm:"column:group_slug;type:varchar(191);not null;uniqueIndex" json:"groupSlug"`
	Enabled           *bool                 `gorm:"column:enabled;not null;default:true" json:"enabled"`
	Required          bool                  `gorm:"column:required;not null;default:false" json:"required"`
	ShowInSidebar     *bool                 `gorm:"column:show_in_sidebar;not null;default:true" json:"showInSidebar"`
	HideEmptySections bool                  `gorm:"column:hide_empty_sections;not null;default:false" json:"hideEmptySections"`
	SortOrder         int                   `gorm:"column:sort_order;not null;default:0" json:"sortOrder"`
	AllowedRoles      datatype.List[string] `gorm:"column:allowed_roles" json:"allowedRoles"`
	AllowedUsers      datatype.List[uint64] `gorm:"column:allowed_users" json:"allowedUsers"`
	AIInstruction     string                `gorm:"column:ai_instruction;type:text" json:"aiInstruction"`
}

// DefaultGroupSettings is what a group without a stored row behaves as
func DefaultGroupSettings(slug string) GroupSettings {
	return GroupSettings{
		GroupSlug:     slug,
		Enabled:       util.Ptr(true),
		ShowInSidebar: util.Ptr(true),
		AllowedRoles:  datatype.List[string]{},
		AllowedUsers:  datatype.List[uint64]{},
	}
}

func (g GroupSettings) IsEnabled() bool {
	return g.Enabled == nil || *g.Enabled
}

func (g GroupSettings) IsShownInSidebar() bool {
	return g.ShowInSidebar == nil || *g.ShowInSidebar
}

// Normalize backfills unset switches and nil access lists
func (g *GroupSettings) Normalize() {
	if g.Enabled == nil {
		g.Enabled = util.Ptr(true)
	}
	if g.ShowInSidebar == nil {
		g.ShowInSidebar = util.Ptr(true)
	}
	if g.AllowedRoles == nil {
		g.AllowedRoles = datatype.List[string]{}
	}
	if g.AllowedUsers == nil {
		g.AllowedUsers = datatype.List[uint64]{}
	}
}

// Option is the storage-neutral view of a classification item
type Option struct {
	ID uint64 `json:"id"`
	OptionFields
}

func (m *MetadataType) ToOption() Option {
	o := Option{ID: m.ID, OptionFields: m.OptionFields}
	o.Normalize()
	return o
}

func (m *MetadataItem) ToOption() Option {
	o := Option{ID: m.ID, OptionFields: m.OptionFields}
	o.Normalize()
	return o
}

// GroupInfo describes a group as listed to callers
type GroupInfo struct {
	ID       uint64        `json:"id,omitempty"` // zero for built-in groups
	Slug     string        `json:"slug"`
	Name     string        `json:"name"`
	BuiltIn  bool          `json:"builtIn"`
	Settings GroupSettings `json:"settings"`
}
