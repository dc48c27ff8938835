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
	"fmt"

	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/internal/engine/repo"
)

type groupKind int

const (
	builtInGroup groupKind = iota
	customGroup
)

// GroupRef addresses a classification group: a built-in group by name or a
// custom group by id.
type GroupRef struct {
	kind groupKind
	name string
	id   uint64
}

func BuiltIn(name string) GroupRef {
	return GroupRef{kind: builtInGroup, name: name}
}

func Custom(id uint64) GroupRef {
	return GroupRef{kind: customGroup, id: id}
}

func (g GroupRef) IsBuiltIn() bool {
	return g.kind == builtInGroup
}

// Name is the built-in group name, empty for custom groups
func (g GroupRef) Name() string {
	return g.name
}

// ID is the custom group id, zero for built-in groups
func (g GroupRef) ID() uint64 {
	return g.id
}

func (g GroupRef) String() string {
	if g.IsBuiltIn() {
		return g.name
	}
	return fmt.Sprintf("custom:%d", g.id)
}

// OptionStore is the storage of one group's items, whatever table backs it
type OptionStore interface {
	List(ctx context.Context) ([]model.Option, error)
	Count(ctx context.Context) (int64, error)
	Get(ctx context.Context, id uint64) (*model.Option, error)
	FindBySlug(ctx context.Context, slug string) (*model.Option, error)
	MaxSortOrder(ctx context.Context) (int, error)
	// Create stores a new item and sets its id
	Create(ctx context.Context, opt *model.Option) error
	// Update overwrites the fields of the existing item opt.ID
	Update(ctx context.Context, opt *model.Option) error
	Delete(ctx context.Context, id uint64) (bool, error)
	SetSortOrders(ctx context.Context, ids []uint64) error
}

// typeStore keeps a built-in group's items in the metadata type table
type typeStore struct {
	repo  repo.IMetadataTypeRepository
	group string
}

func (s *typeStore) List(ctx context.Context) ([]model.Option, error) {
	rows, err := s.repo.List(ctx, s.group)
	if err != nil {
		return nil, err
	}
	out := make([]model.Option, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToOption())
	}
	return out, nil
}

func (s *typeStore) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx, s.group)
}

func (s *typeStore) Get(ctx context.Context, id uint64) (*model.Option, error) {
	row, err := s.repo.Get(ctx, s.group, id)
	if err != nil {
		return nil, err
	}
	opt := row.ToOption()
	return &opt, nil
}

func (s *typeStore) FindBySlug(ctx context.Context, slug string) (*model.Option, error) {
	row, err := s.repo.FindBySlug(ctx, s.group, slug)
	if err != nil {
		return nil, err
	}
	opt := row.ToOption()
	return &opt, nil
}

func (s *typeStore) MaxSortOrder(ctx context.Context) (int, error) {
	return s.repo.MaxSortOrder(ctx, s.group)
}

func (s *typeStore) Create(ctx context.Context, opt *model.Option) error {
	row := &model.MetadataType{GroupName: s.group, OptionFields: opt.OptionFields}
	if err := s.repo.Create(ctx, row); err != nil {
		return err
	}
	opt.ID = row.ID
	return nil
}

func (s *typeStore) Update(ctx context.Context, opt *model.Option) error {
	row, err := s.repo.Get(ctx, s.group, opt.ID)
	if err != nil {
		return err
	}
	row.OptionFields = opt.OptionFields
	return s.repo.Save(ctx, row)
}

func (s *typeStore) Delete(ctx context.Context, id uint64) (bool, error) {
	return s.repo.Delete(ctx, s.group, id)
}

func (s *typeStore) SetSortOrders(ctx context.Context, ids []uint64) error {
	return s.repo.SetSortOrders(ctx, s.group, ids)
}

// itemStore keeps a custom group's items in the metadata item table
type itemStore struct {
	repo    repo.IMetadataItemRepository
	groupID uint64
}

func (s *itemStore) List(ctx context.Context) ([]model.Option, error) {
	rows, err := s.repo.List(ctx, s.groupID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Option, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToOption())
	}
	return out, nil
}

func (s *itemStore) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx, s.groupID)
}

func (s *itemStore) Get(ctx context.Context, id uint64) (*model.Option, error) {
	row, err := s.repo.Get(ctx, s.groupID, id)
	if err != nil {
		return nil, err
	}
	opt := row.ToOption()
	return &opt, nil
}

func (s *itemStore) FindBySlug(ctx context.Context, slug string) (*model.Option, error) {
	row, err := s.repo.FindBySlug(ctx, s.groupID, slug)
	if err != nil {
		return nil, err
	}
	opt := row.ToOption()
	return &opt, nil
}

func (s *itemStore) MaxSortOrder(ctx context.Context) (int, error) {
	return s.repo.MaxSortOrder(ctx, s.groupID)
}

func (s *itemStore) Create(ctx context.Context, opt *model.Option) error {
	row := &model.MetadataItem{GroupID: s.groupID, OptionFields: opt.OptionFields}
	if err := s.repo.Create(ctx, row); err != nil {
		return err
	}
	opt.ID = row.ID
	return nil
}

func (s *itemStore) Update(ctx context.Context, opt *model.Option) error {
	row, err := s.repo.Get(ctx, s.groupID, opt.ID)
	if err != nil {
		return err
	}
	row.OptionFields = opt.OptionFields
	return s.repo.Save(ctx, row)
}

func (s *itemStore) Delete(ctx context.Context, id uint64) (bool, error) {
	return s.repo.Delete(ctx, s.groupID, id)
}

func (s *itemStore) SetSortOrders(ctx context.Context, ids []uint64) error {
	return s.repo.SetSortOrders(ctx, s.groupID, ids)
}
