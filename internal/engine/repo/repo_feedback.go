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
	"strings"

	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/pkg/database"
	"github.com/go-arcade/feedback/pkg/util"
	"gorm.io/gorm"
)

type IFeedbackRepository interface {
	InsertFeedback(ctx context.Context, f *model.Feedback) (uint64, error)
	GetFeedback(ctx context.Context, id uint64) (*model.Feedback, error)
	ListFeedbacks(ctx context.Context, q *model.FeedbackQuery) ([]*model.Feedback, error)
	CountFeedbacks(ctx context.Context, q *model.FeedbackQuery) (int64, error)
	UpdateFeedback(ctx context.Context, id uint64, updates map[string]any) (bool, error)
	DeleteFeedback(ctx context.Context, id uint64) (bool, error)
	ListByPagePath(ctx context.Context, pagePath string, excludeStatuses []string) ([]*model.Feedback, error)
	CountAll(ctx context.Context) (int64, error)
}

const defaultFeedbackOrder = "created_at"

var (
	feedbackOrderColumns = util.SetOf("id", "created_at", "updated_at", "status", "priority", "feedback_type", "page_path")

	// every column except the key and the timestamps maintained by gorm
	feedbackWritableColumns = util.SetOf(
		"author_id", "guest_name", "guest_email", "comment", "url", "page_path", "page_title",
		"position_x", "position_y", "selector", "element_offset_x", "element_offset_y", "element_tag",
		"scroll_x", "scroll_y", "screenshot_id", "screenshot_width", "screenshot_height",
		"viewport_width", "viewport_height", "screen_width", "screen_height", "device_pixel_ratio",
		"device_type", "browser", "browser_version", "os", "os_version", "user_agent", "language",
		"referrer", "status", "priority", "feedback_type", "tags",
	)
)

type FeedbackRepo struct {
	database.IDatabase
}

func NewFeedbackRepo(db database.IDatabase) IFeedbackRepository {
	return &FeedbackRepo{IDatabase: db}
}

func (r *FeedbackRepo) db(ctx context.Context) *gorm.DB {
	return r.Database().WithContext(ctx)
}

// InsertFeedback fills default classification values and returns the new id.
// Telemetry pointers left nil are stored as NULL.
func (r *FeedbackRepo) InsertFeedback(ctx context.Context, f *model.Feedback) (uint64, error) {
	f.ApplyDefaults()
	if err := r.db(ctx).Create(f).Error; err != nil {
		return 0, fmt.Errorf("insert feedback: %w", err)
	}
	return f.ID, nil
}

func (r *FeedbackRepo) GetFeedback(ctx context.Context, id uint64) (*model.Feedback, error) {
	var f model.Feedback
	if err := r.db(ctx).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, fmt.Errorf("get feedback %d: %w", id, err)
	}
	return &f, nil
}

// likeEscaper makes search text match literally under ESCAPE '!'
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// applyFilters adds the allow-listed predicates; empty fields are ignored
func applyFilters(db *gorm.DB, q *model.FeedbackQuery) *gorm.DB {
	if q == nil {
		return db
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.Priority != "" {
		db = db.Where("priority = ?", q.Priority)
	}
	if q.FeedbackType != "" {
		db = db.Where("feedback_type = ?", q.FeedbackType)
	}
	if q.AuthorID != nil {
		db = db.Where("author_id = ?", *q.AuthorID)
	}
	if q.URL != "" {
		db = db.Where("url = ?", q.URL)
	}
	if q.PagePath != "" {
		db = db.Where("page_path = ?", q.PagePath)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + likeEscaper.Replace(s) + "%"
		db = db.Where("(comment LIKE ? ESCAPE '!' OR guest_name LIKE ? ESCAPE '!' OR guest_email LIKE ? ESCAPE '!')", like, like, like)
	}
	return db
}

// orderClause maps a requested order onto the allow-list. Unknown columns fall
// back to created_at and anything but ASC becomes DESC.
func orderClause(q *model.FeedbackQuery) string {
	column, dir := defaultFeedbackOrder, "DESC"
	if q != nil {
		if _, ok := feedbackOrderColumns[strings.ToLower(q.OrderBy)]; ok {
			column = strings.ToLower(q.OrderBy)
		}
		if strings.EqualFold(q.Order, "ASC") {
			dir = "ASC"
		}
	}
	if column == "id" {
		return column + " " + dir
	}
	// id breaks ties so pages are stable
	return column + " " + dir + ", id " + dir
}

func (r *FeedbackRepo) ListFeedbacks(ctx context.Context, q *model.FeedbackQuery) ([]*model.Feedback, error) {
	db := applyFilters(database.ReadDB(r.db(ctx)).Model(&model.Feedback{}), q).Order(orderClause(q))
	if q != nil && q.Limit > 0 {
		db = db.Limit(q.Limit)
		if q.Offset > 0 {
			db = db.Offset(q.Offset)
		}
	}

	var list []*model.Feedback
	if err := db.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list feedbacks: %w", err)
	}
	return list, nil
}

func (r *FeedbackRepo) CountFeedbacks(ctx context.Context, q *model.FeedbackQuery) (int64, error) {
	n, err := Count(applyFilters(database.ReadDB(r.db(ctx)).Model(&model.Feedback{}), q))
	if err != nil {
		return 0, fmt.Errorf("count feedbacks: %w", err)
	}
	return n, nil
}

// UpdateFeedback writes only the supplied writable columns. updated_at is
// refreshed by gorm. Returns false when the row does not exist.
func (r *FeedbackRepo) UpdateFeedback(ctx context.Context, id uint64, updates map[string]any) (bool, error) {
	fields := util.PickAllowed(updates, feedbackWritableColumns)
	if len(fields) == 0 {
		return false, ErrNoFields
	}

	res := r.db(ctx).Model(&model.Feedback{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("update feedback %d: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// MySQL reports 0 affected rows when nothing changed
	return Exist(database.WriteDB(r.db(ctx)).Model(&model.Feedback{}).Where("id = ?", id))
}

// DeleteFeedback removes the replies and then the feedback in one transaction
func (r *FeedbackRepo) DeleteFeedback(ctx context.Context, id uint64) (bool, error) {
	var deleted bool
	err := r.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("feedback_id = ?", id).Delete(&model.Reply{}).Error; err != nil {
			return fmt.Errorf("delete replies of feedback %d: %w", id, err)
		}
		res := tx.Where("id = ?", id).Delete(&model.Feedback{})
		if res.Error != nil {
			return fmt.Errorf("delete feedback %d: %w", id, res.Error)
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

// ListByPagePath matches the path with and without a trailing slash,
// optionally skipping items whose status is in excludeStatuses.
func (r *FeedbackRepo) ListByPagePath(ctx context.Context, pagePath string, excludeStatuses []string) ([]*model.Feedback, error) {
	db := database.ReadDB(r.db(ctx)).Where("page_path IN ?", pagePathVariants(pagePath))
	if len(excludeStatuses) > 0 {
		db = db.Where("status NOT IN ?", excludeStatuses)
	}

	var list []*model.Feedback
	if err := db.Order("created_at ASC, id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list feedbacks by page path: %w", err)
	}
	return list, nil
}

func pagePathVariants(p string) []string {
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return []string{"/", ""}
	}
	return []string{trimmed, trimmed + "/"}
}

func (r *FeedbackRepo) CountAll(ctx context.Context) (int64, error) {
	return Count(r.db(ctx).Model(&model.Feedback{}))
}
