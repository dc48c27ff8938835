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
	"fmt"
	"net/url"
	"strings"

	"github.com/go-arcade/feedback/internal/engine/config"
	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/internal/engine/repo"
	"github.com/go-arcade/feedback/pkg/log"
	"github.com/go-arcade/feedback/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

const (
	// CompletedKey is the boolean Setting written once the legacy import has run
	CompletedKey = "legacy_import_completed"

	DefaultContentType = "visual_feedback"

	batchSize = 100
)

const (
	kindFeedback      = "feedback"
	kindReply         = "reply"
	kindMetadataType  = "metadata_type"
	kindMetadataItem  = "metadata_item"
	kindCustomGroup   = "custom_group"
	kindGroupSettings = "group_settings"
)

// Report summarizes an import. Per-record failures are listed in Errors and
// never abort the batch.
type Report struct {
	Feedbacks     int      `json:"feedbacks"`
	Replies       int      `json:"replies"`
	Options       int      `json:"options"`
	CustomGroups  int      `json:"customGroups"`
	GroupSettings int      `json:"groupSettings"`
	Errors        []string `json:"errors"`
	// Skipped is set when the completion marker was already present
	Skipped bool `json:"skipped"`
}

func (r *Report) addError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Errors = append(r.Errors, msg)
	log.Warnw("legacy import problem", "error", msg)
}

func (r *Report) merge(o *Report) {
	if o == nil {
		return
	}
	r.Feedbacks += o.Feedbacks
	r.Replies += o.Replies
	r.Options += o.Options
	r.CustomGroups += o.CustomGroups
	r.GroupSettings += o.GroupSettings
	r.Errors = append(r.Errors, o.Errors...)
}

// Importer moves data out of the legacy content+attribute store
type Importer struct {
	repos       *repo.Repositories
	contentType string
	mapper      *Mapper
}

func NewImporter(repos *repo.Repositories, legacy config.LegacyConfig) (*Importer, error) {
	mapper, err := NewMapper(FeedbackFields)
	if err != nil {
		return nil, err
	}
	contentType := legacy.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}
	return &Importer{repos: repos, contentType: contentType, mapper: mapper}, nil
}

// Completed reports whether the completion marker is set
func (i *Importer) Completed(ctx context.Context) (bool, error) {
	v, ok, err := i.repos.Setting.GetUncached(ctx, CompletedKey)
	if err != nil || !ok {
		return false, err
	}
	return cast.ToBool(v), nil
}

func (i *Importer) markCompleted(ctx context.Context) error {
	return errors.Wrap(i.repos.Setting.Set(ctx, CompletedKey, true, true), "write import marker")
}

// NeedsContentImport is true while legacy feedbacks exist and the feedback
// table is still empty. It is a heuristic, callers serialize with the setup lock.
func (i *Importer) NeedsContentImport(ctx context.Context) (bool, error) {
	legacy, err := i.repos.Legacy.CountContent(ctx, i.contentType)
	if err != nil {
		return false, errors.Wrap(err, "count legacy feedbacks")
	}
	if legacy == 0 {
		return false, nil
	}
	n, err := i.repos.Feedback.CountAll(ctx)
	if err != nil {
		return false, errors.Wrap(err, "count feedbacks")
	}
	return n == 0, nil
}

// NeedsClassificationImport is true while legacy lists exist and no metadata type is stored
func (i *Importer) NeedsClassificationImport(ctx context.Context) (bool, error) {
	found := false
	for _, name := range classificationOptionNames() {
		_, ok, err := i.repos.Legacy.GetOption(ctx, name)
		if err != nil {
			return false, errors.Wrapf(err, "read legacy option %s", name)
		}
		if ok {
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}
	n, err := i.repos.MetadataType.CountAll(ctx)
	if err != nil {
		return false, errors.Wrap(err, "count metadata types")
	}
	return n == 0, nil
}

// ImportIfNeeded runs whichever imports are pending and sets the completion
// marker when at least one of them ran.
func (i *Importer) ImportIfNeeded(ctx context.Context) (*Report, error) {
	done, err := i.Completed(ctx)
	if err != nil {
		return nil, err
	}
	if done {
		return &Report{Skipped: true}, nil
	}

	report := &Report{}
	ran := false

	needContent, err := i.NeedsContentImport(ctx)
	if err != nil {
		return nil, err
	}
	if needContent {
		r, err := i.ImportContent(ctx)
		report.merge(r)
		if err != nil {
			return report, err
		}
		ran = true
	}

	needLists, err := i.NeedsClassificationImport(ctx)
	if err != nil {
		return report, err
	}
	if needLists {
		r, err := i.ImportClassificationLists(ctx)
		report.merge(r)
		if err != nil {
			return report, err
		}
		ran = true
	}

	if ran {
		if err := i.markCompleted(ctx); err != nil {
			return report, err
		}
		log.Infow("legacy import finished",
			"feedbacks", report.Feedbacks,
			"replies", report.Replies,
			"options", report.Options,
			"errors", len(report.Errors),
		)
	}
	return report, nil
}

// RunFullMigration imports content and classification lists unconditionally,
// then sets the completion marker.
func (i *Importer) RunFullMigration(ctx context.Context) (*Report, error) {
	report := &Report{}
	r, err := i.ImportContent(ctx)
	report.merge(r)
	if err != nil {
		return report, err
	}
	r, err = i.ImportClassificationLists(ctx)
	report.merge(r)
	if err != nil {
		return report, err
	}
	return report, i.markCompleted(ctx)
}

// ImportContent copies every legacy feedback with its comments. Only a failure
// to page through the legacy store is returned as an error.
func (i *Importer) ImportContent(ctx context.Context) (*Report, error) {
	report := &Report{}
	var after uint64
	for {
		items, err := i.repos.Legacy.ListContent(ctx, i.contentType, after, batchSize)
		if err != nil {
			return report, errors.Wrap(err, "read legacy feedbacks")
		}
		for idx := range items {
			i.importItem(ctx, &items[idx], report)
			after = items[idx].ID
		}
		if len(items) < batchSize {
			return report, nil
		}
	}
}

func (i *Importer) importItem(ctx context.Context, item *model.LegacyContent, report *Report) {
	attrs, err := i.repos.Legacy.Attributes(ctx, item.ID)
	if err != nil {
		metrics.LegacyImportItemsTotal.WithLabelValues(kindFeedback, metrics.ResultError).Inc()
		report.addError("legacy item %d: %v", item.ID, err)
		return
	}

	fb := &model.Feedback{Comment: item.Body}
	if item.AuthorID > 0 {
		author := item.AuthorID
		fb.AuthorID = &author
	}
	for _, problem := range i.mapper.Apply(ctx, fb, attrs) {
		report.addError("legacy item %d: %v", item.ID, problem)
	}
	if fb.PagePath == "" {
		fb.PagePath = pathOf(fb.URL)
	}
	if fb.PageTitle == "" {
		fb.PageTitle = strings.TrimSpace(item.Title)
	}
	fb.CreatedAt = item.CreatedAt
	fb.UpdatedAt = item.ModifiedAt
	if fb.UpdatedAt.IsZero() {
		fb.UpdatedAt = item.CreatedAt
	}

	id, err := i.repos.Feedback.InsertFeedback(ctx, fb)
	if err != nil {
		metrics.LegacyImportItemsTotal.WithLabelValues(kindFeedback, metrics.ResultError).Inc()
		report.addError("legacy item %d: insert feedback: %v", item.ID, err)
		return
	}
	metrics.LegacyImportItemsTotal.WithLabelValues(kindFeedback, metrics.ResultSuccess).Inc()
	report.Feedbacks++

	comments, err := i.repos.Legacy.Comments(ctx, item.ID)
	if err != nil {
		report.addError("legacy item %d: read comments: %v", item.ID, err)
		return
	}
	for _, c := range comments {
		reply := &model.Reply{
			FeedbackID:  id,
			AuthorName:  c.AuthorName,
			AuthorEmail: c.AuthorEmail,
			Content:     c.Body,
			CreatedAt:   c.CreatedAt,
		}
		if c.AuthorID > 0 {
			author := c.AuthorID
			reply.AuthorID = &author
		}
		if _, err := i.repos.Reply.InsertReply(ctx, reply); err != nil {
			metrics.LegacyImportItemsTotal.WithLabelValues(kindReply, metrics.ResultError).Inc()
			report.addError("legacy comment %d: %v", c.ID, err)
			continue
		}
		metrics.LegacyImportItemsTotal.WithLabelValues(kindReply, metrics.ResultSuccess).Inc()
		report.Replies++
	}
}

// pathOf returns the path of a page URL, "/" for a bare host
func pathOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}
