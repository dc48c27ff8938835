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
	"errors"

	"github.com/go-arcade/feedback/pkg/cache"
	"github.com/go-arcade/feedback/pkg/database"
	"gorm.io/gorm"
)

// ErrNoFields is returned by partial updates that carry no writable column
var ErrNoFields = errors.New("no updatable fields")

// Repositories groups every repository
type Repositories struct {
	Feedback      IFeedbackRepository
	Reply         IReplyRepository
	Setting       ISettingRepository
	MetadataType  IMetadataTypeRepository
	MetadataItem  IMetadataItemRepository
	CustomGroup   ICustomGroupRepository
	GroupSettings IGroupSettingsRepository
	Legacy        ILegacyRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db database.IDatabase, cache cache.ICache, legacyPrefix string) *Repositories {
	return &Repositories{
		Feedback:      NewFeedbackRepo(db),
		Reply:         NewReplyRepo(db),
		Setting:       NewSettingRepo(db, cache),
		MetadataType:  NewMetadataTypeRepo(db),
		MetadataItem:  NewMetadataItemRepo(db),
		CustomGroup:   NewCustomGroupRepo(db),
		GroupSettings: NewGroupSettingsRepo(db),
		Legacy:        NewLegacyRepo(db, legacyPrefix),
	}
}

func Count(tx *gorm.DB) (int64, error) {
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exist reports whether tx matches at least one row
func Exist(tx *gorm.DB) (bool, error) {
	var n int64
	if err := tx.Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsNotFound reports whether err is gorm's record-not-found
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
