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
	"regexp"

	"github.com/go-arcade/feedback/internal/engine/model"
	"github.com/go-arcade/feedback/pkg/database"
	"github.com/go-arcade/feedback/pkg/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// identifiers allowed in table options; charset and collation names never need more
var charsetName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Schema declares the module's tables and applies them with gorm's AutoMigrate,
// which creates what is missing and never drops or truncates.
type Schema struct {
	db        *gorm.DB
	charset   string
	collation string
}

func NewSchema(db database.IDatabase, conf database.Database) *Schema {
	return &Schema{
		db:        db.Database(),
		charset:   conf.Charset,
		collation: conf.Collation,
	}
}

// EnsureSchema creates or completes every table. Safe to call repeatedly.
func (s *Schema) EnsureSchema(ctx context.Context) error {
	db := database.WriteDB(s.db.WithContext(ctx))

	if database.IsMySQL(s.db) {
		opts, err := s.tableOptions(ctx)
		if err != nil {
			return err
		}
		db = db.Set("gorm:table_options", opts)
	}

	for _, m := range model.Models() {
		if err := db.AutoMigrate(m); err != nil {
			return errors.Wrapf(err, "ensure table %s", s.tableName(m))
		}
	}
	log.Infow("schema ensured", "tables", s.Tables())
	return nil
}

// tableOptions uses the configured charset/collation, falling back to the
// database defaults reported by the server.
func (s *Schema) tableOptions(ctx context.Context) (string, error) {
	charset, collation := s.charset, s.collation
	if charset == "" || collation == "" {
		var dbCharset, dbCollation string
		row := s.db.WithContext(ctx).Raw("SELECT @@character_set_database, @@collation_database").Row()
		if err := row.Scan(&dbCharset, &dbCollation); err != nil {
			return "", errors.Wrap(err, "read database charset")
		}
		if charset == "" {
			charset = dbCharset
		}
		if collation == "" {
			collation = dbCollation
		}
	}
	if !charsetName.MatchString(charset) || !charsetName.MatchString(collation) {
		return "", fmt.Errorf("invalid charset %q or collation %q", charset, collation)
	}
	return fmt.Sprintf("ENGINE=InnoDB DEFAULT CHARSET=%s COLLATE=%s", charset, collation), nil
}

func (s *Schema) tableName(m any) string {
	stmt := &gorm.Statement{DB: s.db}
	if err := stmt.Parse(m); err != nil {
		return fmt.Sprintf("%T", m)
	}
	return stmt.Schema.Table
}

// Tables lists the declared table names with the prefix applied
func (s *Schema) Tables() []string {
	models := model.Models()
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, s.tableName(m))
	}
	return names
}

// Missing returns the declared tables that do not exist yet
func (s *Schema) Missing(ctx context.Context) []string {
	var missing []string
	migrator := s.db.WithContext(ctx).Migrator()
	for _, m := range model.Models() {
		if !migrator.HasTable(m) {
			missing = append(missing, s.tableName(m))
		}
	}
	return missing
}
