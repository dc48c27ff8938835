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

package database

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-arcade/feedback/pkg/log"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormLoggerAdapter routes gorm's statement log into the process zap logger
type GormLoggerAdapter struct {
	Config gormlogger.Config
	Level  gormlogger.LogLevel

	once  sync.Once
	sugar *zap.SugaredLogger
}

// NewGormLoggerAdapter creates a gorm logger bound to the global zap logger
func NewGormLoggerAdapter(config gormlogger.Config, level gormlogger.LogLevel) *GormLoggerAdapter {
	return &GormLoggerAdapter{Config: config, Level: level}
}

func (l *GormLoggerAdapter) logger() *zap.SugaredLogger {
	l.once.Do(func() {
		// skip gorm's callback frames so the caller points at the repository
		l.sugar = log.GetLogger().Desugar().WithOptions(zap.AddCallerSkip(2)).Sugar().Named("sql")
	})
	return l.sugar
}

func (l *GormLoggerAdapter) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := NewGormLoggerAdapter(l.Config, level)
	return clone
}

func (l *GormLoggerAdapter) Info(_ context.Context, msg string, data ...any) {
	if l.Level >= gormlogger.Info {
		l.logger().Infow(msg, data...)
	}
}

func (l *GormLoggerAdapter) Warn(_ context.Context, msg string, data ...any) {
	if l.Level >= gormlogger.Warn {
		l.logger().Warnw(msg, data...)
	}
}

func (l *GormLoggerAdapter) Error(_ context.Context, msg string, data ...any) {
	if l.Level >= gormlogger.Error {
		l.logger().Errorw(msg, data...)
	}
}

func (l *GormLoggerAdapter) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.Level >= gormlogger.Error &&
		(!errors.Is(err, gormlogger.ErrRecordNotFound) || !l.Config.IgnoreRecordNotFoundError):
		sql, rows := fc()
		l.logger().Errorw("statement failed", "sql", sql, "rows", rows, "elapsed", elapsed, "error", err)
	case l.Config.SlowThreshold > 0 && elapsed > l.Config.SlowThreshold && l.Level >= gormlogger.Warn:
		sql, rows := fc()
		l.logger().Warnw("slow statement", "sql", sql, "rows", rows, "elapsed", elapsed)
	case l.Level >= gormlogger.Info:
		sql, rows := fc()
		l.logger().Debugw("statement", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
