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
	"errors"
	"fmt"

	"github.com/go-arcade/feedback/pkg/log"
)

var (
	// ErrNotFound is returned when the addressed row does not exist
	ErrNotFound = errors.New("not found")
	// ErrStorage hides storage engine failures from callers; details are logged
	ErrStorage = errors.New("storage failure")
)

// ValidationError rejects an input before anything is written
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a *ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func storageError(op string, err error, keysAndValues ...any) error {
	log.Errorw("failed to "+op, append(keysAndValues, "error", err)...)
	return fmt.Errorf("%s: %w", op, ErrStorage)
}
