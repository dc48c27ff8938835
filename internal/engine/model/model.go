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

import "time"

type BaseModel struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// Actor is the caller identity supplied by the authentication layer
type Actor struct {
	UserID       uint64   `json:"userId"`
	Roles        []string `json:"roles"`
	CanSeeOthers bool     `json:"canSeeOthers"` // may list items authored by other users
}

// Models returns every table owned by this module, in creation order
func Models() []any {
	return []any{
		&Setting{},
		&Feedback{},
		&Reply{},
		&MetadataType{},
		&CustomGroup{},
		&MetadataItem{},
		&GroupSettings{},
	}
}
