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

	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/pkg/database"
	"gorm.io/gorm"
)

type IReplyRepository interface {
	InsertReply(ctx context.Context, reply *model.Reply) (uint64, error)
	ListReplies(ctx context.Context, feedbackID uint64) ([]*model.Reply, error)
	CountReplies(ctx context.Context, feedbackID uint64) (int64, error)
	DeleteReply(ctx context.Context, id uint64) (bool, error)
}

type ReplyRepo struct {
	database.IDatabase
}

func NewReplyRepo(db database.IDatabase) IReplyRepository {
	return &ReplyRepo{IDatabase: db}
}

func (r *ReplyRepo) db(ctx context.Context) *gorm.DB {
	return r.Database().WithContext(ctx)
}

// InsertReply keeps a caller supplied CreatedAt, which the importer relies on
func (r *ReplyRepo) InsertReply(ctx context.Context, reply *model.Reply) (uint64, error) {
	if err := r.db(ctx).Create(reply).Error; err != nil {
		return 0, fmt.Errorf("insert reply: %w", err)
	}
	return reply.ID, nil
}

func (r *ReplyRepo) ListReplies(ctx context.Context, feedbackID uint64) ([]*model.Reply, error) {
	var list []*model.Reply
	err := database.ReadDB(r.db(ctx)).
		Where("feedback_id = ?", feedbackID).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list replies of feedback %d: %w", feedbackID, err)
	}
	return list, nil
}

func (r *ReplyRepo) CountReplies(ctx context.Context, feedbackID uint64) (int64, error) {
	return Count(database.ReadDB(r.db(ctx)).Model(&model.Reply{}).Where("feedback_id = ?", feedbackID))
}

func (r *ReplyRepo) DeleteReply(ctx context.Context, id uint64) (bool, error) {
	res := r.db(ctx).Where("id = ?", id).Delete(&model.Reply{})
	if res.Error != nil {
		return false, fmt.Errorf("delete reply %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}
