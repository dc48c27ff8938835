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

package model

const (
	AutoloadYes = "yes"
	AutoloadNo  = "no"
)

// Setting is a small key/value configuration row
type Setting struct {
	BaseModel
	OptionName  string `gorm:"column:option_name;type:varchar(191);not null;uniqueIndex" json:"optionName"`
	OptionValue string `gorm:"column:option_value;type:text" json:"optionValue"`
	Autoload    string `gorm:"column:autoload;type:varchar(20);not null;default:'yes';index" json:"autoload"`
}
