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

package datatype

import (
	"database/sql/driver"
	"fmt"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// List is a JSON array column. NULL, empty and "null" all read back as an
// empty list, and an empty list is written as "[]" rather than NULL.
type List[T any] []T

// Value implements driver.Valuer
func (l List[T]) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := sonic.Marshal([]T(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *List[T]) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*l = List[T]{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("datatype: cannot scan %T into List", value)
	}
	return l.decode(raw)
}

func (l *List[T]) decode(raw []byte) error {
	if len(raw) == 0 || string(raw) == "null" {
		*l = List[T]{}
		return nil
	}
	var items []T
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("datatype: invalid json list: %w", err)
	}
	if items == nil {
		items = []T{}
	}
	*l = items
	return nil
}

// MarshalJSON keeps an empty list as [] instead of null
func (l List[T]) MarshalJSON() ([]byte, error) {
	if len(l) == 0 {
		return []byte("[]"), nil
	}
	return sonic.Marshal([]T(l))
}

// UnmarshalJSON implements json.Unmarshaler
func (l *List[T]) UnmarshalJSON(data []byte) error {
	return l.decode(data)
}

// Contains reports whether v is in the list
func Contains[T comparable](l List[T], v T) bool {
	for _, item := range l {
		if item == v {
			return true
		}
	}
	return false
}

// GormDataType implements schema.GormDataTypeInterface
func (List[T]) GormDataType() string {
	return "json"
}

// GormDBDataType picks the column type per dialect
func (List[T]) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	default:
		return "TEXT"
	}
}

