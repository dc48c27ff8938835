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

package migrate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/internal/engine/repo"
	"github.com/go-arcade/feedback/pkg/database"
	"github.com/go-arcade/feedback/pkg/id"
	"github.com/go-arcade/feedback/pkg/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// SetupLockKey is the Setting row that serializes first-boot setup across processes
const SetupLockKey = "setup_lock"

// ErrLockHeld is returned when another process holds a fresh setup lock
var ErrLockHeld = errors.New("setup lock is held by another process")

// SetupLock is a lease stored as a non-autoload Setting row whose value is
// "<owner>|<acquired unix seconds>". A lease older than ttl is considered
// abandoned and may be taken over.
type SetupLock struct {
	db       *gorm.DB
	settings repo.ISettingRepository
	ttl      time.Duration
	owner    string
	value    string
	now      func() time.Time
}

func NewSetupLock(db database.IDatabase, settings repo.ISettingRepository, ttl time.Duration) *SetupLock {
	return &SetupLock{
		db:       db.Database(),
		settings: settings,
		ttl:      ttl,
		owner:    id.GetUlid(),
		now:      time.Now,
	}
}

func (l *SetupLock) Owner() string {
	return l.owner
}

// ensureTable creates the Setting table ahead of EnsureSchema, since the lock
// lives in it. Losing a creation race to another process is fine.
func (l *SetupLock) ensureTable(ctx context.Context) error {
	db := database.WriteDB(l.db.WithContext(ctx))
	if db.Migrator().HasTable(&model.Setting{}) {
		return nil
	}
	if err := db.AutoMigrate(&model.Setting{}); err != nil {
		if db.Migrator().HasTable(&model.Setting{}) {
			return nil
		}
		return errors.Wrap(err, "create settings table")
	}
	return nil
}

func (l *SetupLock) encode(at time.Time) string {
	return fmt.Sprintf("%s|%d", l.owner, at.Unix())
}

func parseLease(value string) (owner string, at time.Time, ok bool) {
	owner, sec, found := strings.Cut(value, "|")
	if !found {
		return "", time.Time{}, false
	}
	n, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return owner, time.Unix(n, 0), true
}

// Acquire takes the lock without waiting and returns ErrLockHeld when
// another owner holds a fresh lease.
func (l *SetupLock) Acquire(ctx context.Context) error {
	if err := l.ensureTable(ctx); err != nil {
		return err
	}

	value := l.encode(l.now())
	ok, err := l.settings.InsertIfAbsent(ctx, SetupLockKey, value, false)
	if err != nil {
		return errors.Wrap(err, "acquire setup lock")
	}
	if ok {
		l.value = value
		return nil
	}

	current, found, err := l.settings.GetUncached(ctx, SetupLockKey)
	if err != nil {
		return errors.Wrap(err, "read setup lock")
	}
	if !found {
		// released between the insert and the read
		return l.Acquire(ctx)
	}
	owner, at, valid := parseLease(current)
	if valid && owner == l.owner {
		l.value = current
		return nil
	}
	if valid && l.now().Sub(at) < l.ttl {
		return ErrLockHeld
	}

	swapped, err := l.settings.CompareAndSwap(ctx, SetupLockKey, current, value)
	if err != nil {
		return errors.Wrap(err, "take over setup lock")
	}
	if !swapped {
		return ErrLockHeld
	}
	log.Warnw("took over a stale setup lock", "previous", current, "owner", l.owner)
	l.value = value
	return nil
}

// AcquireWait retries Acquire every interval until it succeeds or ctx ends
func (l *SetupLock) AcquireWait(ctx context.Context, interval time.Duration) error {
	for {
		err := l.Acquire(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), "wait for setup lock")
		}
		if !errors.Is(err, ErrLockHeld) {
			return err
		}
		log.Infow("waiting for setup lock", "owner", l.owner)
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "wait for setup lock")
		case <-time.After(interval):
		}
	}
}

// Release drops the lock if this process still holds it
func (l *SetupLock) Release(ctx context.Context) error {
	if l.value == "" {
		return nil
	}
	_, err := l.settings.CompareAndDelete(ctx, SetupLockKey, l.value)
	if err != nil {
		return errors.Wrap(err, "release setup lock")
	}
	l.value = ""
	return nil
}
