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
	"reflect"
	"strings"
	"sync"

	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gorm.io/gorm/schema"
)

// Coercer converts a raw attribute value into the Go type of its target column
type Coercer func(raw string) (any, error)

// FieldMapping moves one legacy attribute onto one Feedback column. Default
// is used when the attribute is absent or empty.
type FieldMapping struct {
	Key     string
	Column  string
	Coerce  Coercer
	Default any
}

func asString(raw string) (any, error) {
	return raw, nil
}

func asFloat(raw string) (any, error) {
	return cast.ToFloat64E(strings.TrimSpace(raw))
}

func asInt(raw string) (any, error) {
	return cast.ToIntE(strings.TrimSpace(raw))
}

func asNullableInt(raw string) (any, error) {
	n, err := cast.ToIntE(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func asNullableFloat(raw string) (any, error) {
	f, err := cast.ToFloat64E(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func asNullableID(raw string) (any, error) {
	n, err := cast.ToUint64E(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return (*uint64)(nil), nil
	}
	return &n, nil
}

var (
	noInt   *int
	noFloat *float64
	noID    *uint64
)

// FeedbackFields is the attribute → column table applied to every legacy item
var FeedbackFields = []FieldMapping{
	{Key: "_feedback_url", Column: "url", Coerce: asString, Default: ""},
	{Key: "_feedback_page_path", Column: "page_path", Coerce: asString, Default: ""},
	{Key: "_feedback_page_title", Column: "page_title", Coerce: asString, Default: ""},
	{Key: "_feedback_guest_name", Column: "guest_name", Coerce: asString, Default: ""},
	{Key: "_feedback_guest_email", Column: "guest_email", Coerce: asString, Default: ""},

	{Key: "_feedback_position_x", Column: "position_x", Coerce: asFloat, Default: float64(0)},
	{Key: "_feedback_position_y", Column: "position_y", Coerce: asFloat, Default: float64(0)},
	{Key: "_feedback_selector", Column: "selector", Coerce: asString, Default: ""},
	{Key: "_feedback_element_offset_x", Column: "element_offset_x", Coerce: asNullableFloat, Default: noFloat},
	{Key: "_feedback_element_offset_y", Column: "element_offset_y", Coerce: asNullableFloat, Default: noFloat},
	{Key: "_feedback_element_tag", Column: "element_tag", Coerce: asString, Default: ""},
	{Key: "_feedback_scroll_x", Column: "scroll_x", Coerce: asInt, Default: 0},
	{Key: "_feedback_scroll_y", Column: "scroll_y", Coerce: asInt, Default: 0},

	{Key: "_feedback_screenshot_id", Column: "screenshot_id", Coerce: asNullableID, Default: noID},
	{Key: "_feedback_screenshot_width", Column: "screenshot_width", Coerce: asNullableInt, Default: noInt},
	{Key: "_feedback_screenshot_height", Column: "screenshot_height", Coerce: asNullableInt, Default: noInt},

	{Key: "_feedback_viewport_width", Column: "viewport_width", Coerce: asNullableInt, Default: noInt},
	{Key: "_feedback_viewport_height", Column: "viewport_height", Coerce: asNullableInt, Default: noInt},
	{Key: "_feedback_screen_width", Column: "screen_width", Coerce: asNullableInt, Default: noInt},
	{Key: "_feedback_screen_height", Column: "screen_height", Coerce: asNullableInt, Default: noInt},
	{Key: "_feedback_device_pixel_ratio", Column: "device_pixel_ratio", Coerce: asNullableFloat, Default: noFloat},
	{Key: "_feedback_device_type", Column: "device_type", Coerce: asString, Default: ""},
	{Key: "_feedback_browser", Column: "browser", Coerce: asString, Default: ""},
	{Key: "_feedback_browser_version", Column: "browser_version", Coerce: asString, Default: ""},
	{Key: "_feedback_os", Column: "os", Coerce: asString, Default: ""},
	{Key: "_feedback_os_version", Column: "os_version", Coerce: asString, Default: ""},
	{Key: "_feedback_user_agent", Column: "user_agent", Coerce: asString, Default: ""},
	{Key: "_feedback_language", Column: "language", Coerce: asString, Default: ""},
	{Key: "_feedback_referrer", Column: "referrer", Coerce: asString, Default: ""},

	{Key: "_feedback_status", Column: "status", Coerce: asString, Default: model.DefaultStatus},
	{Key: "_feedback_priority", Column: "priority", Coerce: asString, Default: model.DefaultPriority},
	{Key: "_feedback_type", Column: "feedback_type", Coerce: asString, Default: model.DefaultFeedbackType},
	{Key: "_feedback_tags", Column: "tags", Coerce: asString, Default: ""},
}

var (
	feedbackSchemaOnce sync.Once
	feedbackSchema     *schema.Schema
	feedbackSchemaErr  error
)

func parseFeedbackSchema() (*schema.Schema, error) {
	feedbackSchemaOnce.Do(func() {
		feedbackSchema, feedbackSchemaErr = schema.Parse(&model.Feedback{}, &sync.Map{}, schema.NamingStrategy{})
	})
	return feedbackSchema, feedbackSchemaErr
}

// Mapper applies a FieldMapping table to Feedback values through gorm's
// schema, so the table names columns exactly as the store does.
type Mapper struct {
	fields []FieldMapping
	schema *schema.Schema
}

// NewMapper validates that every mapping targets a known column
func NewMapper(fields []FieldMapping) (*Mapper, error) {
	sch, err := parseFeedbackSchema()
	if err != nil {
		return nil, errors.Wrap(err, "parse feedback schema")
	}
	for _, fm := range fields {
		if sch.LookUpField(fm.Column) == nil {
			return nil, errors.Errorf("field mapping %s: unknown column %s", fm.Key, fm.Column)
		}
	}
	return &Mapper{fields: fields, schema: sch}, nil
}

// Apply sets every mapped column of f from attrs. A value that fails coercion
// falls back to the default and is reported; the remaining columns are still set.
func (m *Mapper) Apply(ctx context.Context, f *model.Feedback, attrs map[string]string) []error {
	var problems []error
	target := reflect.ValueOf(f).Elem()
	for _, fm := range m.fields {
		value := fm.Default
		if raw, ok := attrs[fm.Key]; ok && strings.TrimSpace(raw) != "" {
			coerced, err := fm.Coerce(raw)
			if err != nil {
				problems = append(problems, errors.Wrapf(err, "attribute %s", fm.Key))
			} else {
				value = coerced
			}
		}
		if err := m.schema.LookUpField(fm.Column).Set(ctx, target, value); err != nil {
			problems = append(problems, errors.Wrapf(err, "set column %s", fm.Column))
		}
	}
	return problems
}
