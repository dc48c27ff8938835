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

// Legacy store tables. They live under their own prefix and are always
// addressed with db.Table, so none of these types is auto-migrated in production.
const (
	LegacyContentTable   = "content"
	LegacyAttributeTable = "content_attribute"
	LegacyCommentTable   = "content_comment"
	LegacyOptionTable    = "option"
)

// LegacyContent is a generic content item; feedbacks have the configured content type
type LegacyContent struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	ContentType string    `gorm:"column:content_type;type:varchar(64)"`
	AuthorID    uint64    `gorm:"column:author_id"`
	Title       string    `gorm:"column:title;type:text"`
	Body        string    `gorm:"column:body;type:text"`
	Status      string    `gorm:"column:status;type:varchar(32)"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	ModifiedAt  time.Time `gorm:"column:modified_at"`
}

// LegacyAttribute is one key/value pair of a content item's attribute bag
type LegacyAttribute struct {
	ID        uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	ContentID uint64 `gorm:"column:content_id"`
	AttrKey   string `gorm:"column:attr_key;type:varchar(255)"`
	AttrValue string `gorm:"column:attr_value;type:text"`
}

// LegacyComment is a comment attached to a content item
type LegacyComment struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	ContentID   uint64    `gorm:"column:content_id"`
	AuthorID    uint64    `gorm:"column:author_id"`
	AuthorName  string    `gorm:"column:author_name;type:varchar(255)"`
	AuthorEmail string    `gorm:"column:author_email;type:varchar(255)"`
	Body        string    `gorm:"column:body;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

// LegacyOption is a row of the host application's global key/value store
type LegacyOption struct {
	ID          uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	OptionName  string `gorm:"column:option_name;type:varchar(191)"`
	OptionValue string `gorm:"column:option_value;type:text"`
	Autoload    string `gorm:"column:autoload;type:varchar(20)"`
}
