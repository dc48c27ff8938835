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
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/internal/engine/repo"
	"github.com/go-arcade/feedback/pkg/event"
	"github.com/go-arcade/feedback/pkg/log"
	"github.com/spf13/cast"
	"gorm.io/gorm/schema"
)

// HideTreatedKey is the setting that hides treated feedbacks from page listings
const HideTreatedKey = "feedback_hide_resolved"

// classification columns checked against the registry
var classifiedColumns = map[string]string{
	"status":        model.GroupStatuses,
	"priority":      model.GroupPriorities,
	"feedback_type": model.GroupTypes,
}

type FeedbackService struct {
	feedbacks repo.IFeedbackRepository
	replies   repo.IReplyRepository
	settings  repo.ISettingRepository
	registry  *MetadataRegistry
	bus       *event.EventBus
}

func NewFeedbackService(repos *repo.Repositories, registry *MetadataRegistry, bus *event.EventBus) *FeedbackService {
	return &FeedbackService{
		feedbacks: repos.Feedback,
		replies:   repos.Reply,
		settings:  repos.Setting,
		registry:  registry,
		bus:       bus,
	}
}

func (s *FeedbackService) checkClassified(ctx context.Context, column, value string) error {
	ok, err := s.registry.HasItem(ctx, classifiedColumns[column], value)
	if err != nil {
		return err
	}
	if !ok {
		return invalid(column, "unknown value "+value)
	}
	return nil
}

// CreateFeedback validates f, stores it and publishes FeedbackCreated. The
// actor becomes the author unless f already names one.
func (s *FeedbackService) CreateFeedback(ctx context.Context, actor *model.Actor, f *model.Feedback) (*model.Feedback, error) {
	if strings.TrimSpace(f.Comment) == "" {
		return nil, invalid("comment", "is required")
	}
	if strings.TrimSpace(f.URL) == "" {
		return nil, invalid("url", "is required")
	}
	f.ApplyDefaults()
	for column, value := range map[string]string{
		"status":        f.Status,
		"priority":      f.Priority,
		"feedback_type": f.FeedbackType,
	} {
		if err := s.checkClassified(ctx, column, value); err != nil {
			return nil, err
		}
	}
	if f.AuthorID == nil && actor != nil && actor.UserID > 0 {
		author := actor.UserID
		f.AuthorID = &author
	}

	id, err := s.feedbacks.InsertFeedback(ctx, f)
	if err != nil {
		return nil, storageError("create feedback", err)
	}
	log.Infow("feedback created", "id", id, "pagePath", f.PagePath)

	if s.bus != nil {
		s.bus.Publish(event.FeedbackCreated{ID: id, Fields: columnMap(ctx, f)})
	}
	return f, nil
}

func (s *FeedbackService) GetFeedback(ctx context.Context, id uint64) (*model.Feedback, error) {
	f, err := s.feedbacks.GetFeedback(ctx, id)
	if repo.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageError("get feedback", err, "id", id)
	}
	return f, nil
}

// ListFeedbacks returns one page and the total count. An actor that cannot
// see others' items only sees its own.
func (s *FeedbackService) ListFeedbacks(ctx context.Context, actor model.Actor, q model.FeedbackQuery) ([]*model.Feedback, int64, error) {
	if !actor.CanSeeOthers {
		author := actor.UserID
		q.AuthorID = &author
	}
	list, err := s.feedbacks.ListFeedbacks(ctx, &q)
	if err != nil {
		return nil, 0, storageError("list feedbacks", err)
	}
	total, err := s.feedbacks.CountFeedbacks(ctx, &q)
	if err != nil {
		return nil, 0, storageError("count feedbacks", err)
	}
	return list, total, nil
}

// PageFeedbacks lists a page's feedbacks, leaving out treated ones when the
// hide setting is on.
func (s *FeedbackService) PageFeedbacks(ctx context.Context, pagePath string) ([]*model.Feedback, error) {
	var exclude []string
	if s.settings.GetBool(ctx, HideTreatedKey, false) {
		treated, err := s.registry.TreatedStatuses(ctx)
		if err != nil {
			return nil, err
		}
		exclude = treated
	}
	list, err := s.feedbacks.ListByPagePath(ctx, pagePath, exclude)
	if err != nil {
		return nil, storageError("list page feedbacks", err, "pagePath", pagePath)
	}
	return list, nil
}

// UpdateFeedback applies a partial update keyed by column name. Supplied
// classification values must exist in the registry.
func (s *FeedbackService) UpdateFeedback(ctx context.Context, id uint64, updates map[string]any) error {
	for column := range classifiedColumns {
		v, ok := updates[column]
		if !ok {
			continue
		}
		value, err := cast.ToStringE(v)
		if err != nil || value == "" {
			return invalid(column, "must be a non-empty string")
		}
		if err := s.checkClassified(ctx, column, value); err != nil {
			return err
		}
	}
	if v, ok := updates["comment"]; ok && strings.TrimSpace(cast.ToString(v)) == "" {
		return invalid("comment", "is required")
	}
	if v, ok := updates["url"]; ok && strings.TrimSpace(cast.ToString(v)) == "" {
		return invalid("url", "is required")
	}

	updated, err := s.feedbacks.UpdateFeedback(ctx, id, updates)
	if errors.Is(err, repo.ErrNoFields) {
		return invalid("fields", err.Error())
	}
	if err != nil {
		return storageError("update feedback", err, "id", id)
	}
	if !updated {
		return ErrNotFound
	}
	return nil
}

// DeleteFeedback removes the feedback and its replies
func (s *FeedbackService) DeleteFeedback(ctx context.Context, id uint64) error {
	deleted, err := s.feedbacks.DeleteFeedback(ctx, id)
	if err != nil {
		return storageError("delete feedback", err, "id", id)
	}
	if !deleted {
		return ErrNotFound
	}
	log.Infow("feedback deleted", "id", id)
	return nil
}

// AddReply appends a reply by actor to an existing feedback
func (s *FeedbackService) AddReply(ctx context.Context, actor *model.Actor, reply *model.Reply) (*model.Reply, error) {
	if strings.TrimSpace(reply.Content) == "" {
		return nil, invalid("content", "is required")
	}
	if _, err := s.GetFeedback(ctx, reply.FeedbackID); err != nil {
		return nil, err
	}
	if reply.AuthorID == nil && actor != nil && actor.UserID > 0 {
		author := actor.UserID
		reply.AuthorID = &author
	}
	if _, err := s.replies.InsertReply(ctx, reply); err != nil {
		return nil, storageError("create reply", err, "feedbackId", reply.FeedbackID)
	}
	return reply, nil
}

func (s *FeedbackService) ListReplies(ctx context.Context, feedbackID uint64) ([]*model.Reply, error) {
	list, err := s.replies.ListReplies(ctx, feedbackID)
	if err != nil {
		return nil, storageError("list replies", err, "feedbackId", feedbackID)
	}
	return list, nil
}

func (s *FeedbackService) CountReplies(ctx context.Context, feedbackID uint64) (int64, error) {
	n, err := s.replies.CountReplies(ctx, feedbackID)
	if err != nil {
		return 0, storageError("count replies", err, "feedbackId", feedbackID)
	}
	return n, nil
}

func (s *FeedbackService) DeleteReply(ctx context.Context, id uint64) error {
	deleted, err := s.replies.DeleteReply(ctx, id)
	if err != nil {
		return storageError("delete reply", err, "id", id)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

var (
	feedbackSchemaOnce sync.Once
	feedbackSchema     *schema.Schema
)

// columnMap returns f keyed by column name, as stored
func columnMap(ctx context.Context, f *model.Feedback) map[string]any {
	feedbackSchemaOnce.Do(func() {
		sch, err := schema.Parse(&model.Feedback{}, &sync.Map{}, schema.NamingStrategy{})
		if err != nil {
			log.Errorw("failed to parse feedback schema", "error", err)
			return
		}
		feedbackSchema = sch
	})
	out := map[string]any{}
	if feedbackSchema == nil {
		return out
	}
	rv := reflect.ValueOf(f).Elem()
	for _, field := range feedbackSchema.Fields {
		if field.DBName == "" {
			continue
		}
		v, zero := field.ValueOf(ctx, rv)
		if field.FieldType.Kind() == reflect.Ptr {
			if zero {
				v = nil
			} else {
				v = reflect.ValueOf(v).Elem().Interface()
			}
		}
		out[field.DBName] = v
	}
	return out
}
