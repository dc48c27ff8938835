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

import "time"

const (
	DefaultStatus       = "new"
	DefaultPriority     = "none"
	DefaultFeedbackType = "bug"
)

// Feedback is a single annotation left on a page. Anchor coordinates are
// percentages of the captured screenshot; element offsets are percentages of
// the anchored element's box.
type Feedback struct {
	BaseModel
	AuthorID   *uint64 `gorm:"column:author_id;index" json:"authorId"`
	GuestName  string  `gorm:"column:guest_name;type:varchar(255)" json:"guestName"`
	GuestEmail string  `gorm:"column:guest_email;type:varchar(255)" json:"guestEmail"`
	Comment    string  `gorm:"column:comment;type:text;not null" json:"comment"`
	URL        string  `gorm:"column:url;type:varchar(2048);not null" json:"url"`
	PagePath   string  `gorm:"column:page_path;type:varchar(255);index" json:"pagePath"`
	PageTitle  string  `gorm:"column:page_title;type:varchar(255)" json:"pageTitle"`

	PositionX      float64  `gorm:"column:position_x;not null;default:0" json:"positionX"`
	PositionY      float64  `gorm:"column:position_y;not null;default:0" json:"positionY"`
	Selector       string   `gorm:"column:selector;type:text" json:"selector"`
	ElementOffsetX *float64 `gorm:"column:element_offset_x" json:"elementOffsetX"`
	ElementOffsetY *float64 `gorm:"column:element_offset_y" json:"elementOffsetY"`
	ElementTag     string   `gorm:"column:element_tag;type:varchar(64)" json:"elementTag"`
	ScrollX        int      `gorm:"column:scroll_x;not null;default:0" json:"scrollX"`
	ScrollY        int      `gorm:"column:scroll_y;not null;default:0" json:"scrollY"`

	ScreenshotID     *uint64 `gorm:"column:screenshot_id" json:"screenshotId"`
	ScreenshotWidth  *int    `gorm:"column:screenshot_width" json:"screenshotWidth"`
	ScreenshotHeight *int    `gorm:"column:screenshot_height" json:"screenshotHeight"`

	ViewportWidth    *int     `gorm:"column:viewport_width" json:"viewportWidth"`
	ViewportHeight   *int     `gorm:"column:viewport_height" json:"viewportHeight"`
	ScreenWidth      *int     `gorm:"column:screen_width" json:"screenWidth"`
	ScreenHeight     *int     `gorm:"column:screen_height" json:"screenHeight"`
	DevicePixelRatio *float64 `gorm:"column:device_pixel_ratio" json:"devicePixelRatio"`
	DeviceType       string   `gorm:"column:device_type;type:varchar(32)" json:"deviceType"`
	Browser          string   `gorm:"column:browser;type:varchar(64)" json:"browser"`
	BrowserVersion   string   `gorm:"column:browser_version;type:varchar(32)" json:"browserVersion"`
	OS               string   `gorm:"column:os;type:varchar(64)" json:"os"`
	OSVersion        string   `gorm:"column:os_version;type:varchar(32)" json:"osVersion"`
	UserAgent        string   `gorm:"column:user_agent;type:text" json:"userAgent"`
	Language         string   `gorm:"column:language;type:varchar(32)" json:"language"`
	Referrer         string   `gorm:"column:referrer;type:varchar(2048)" json:"referrer"`

	Status       string `gorm:"column:status;type:varchar(64);not null;default:'new';index" json:"status"`
	Priority     string `gorm:"column:priority;type:varchar(64);not null;default:'none'" json:"priority"`
	FeedbackType string `gorm:"column:feedback_type;type:varchar(64);not null;default:'bug'" json:"feedbackType"`
	Tags         string `gorm:"column:tags;type:text" json:"tags"`
}

// ApplyDefaults fills classification values left empty by the caller
func (f *Feedback) ApplyDefaults() {
	if f.Status == "" {
		f.Status = DefaultStatus
	}
	if f.Priority == "" {
		f.Priority = DefaultPriority
	}
	if f.FeedbackType == "" {
		f.FeedbackType = DefaultFeedbackType
	}
}

// Reply is a threaded comment on a Feedback
type Reply struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	FeedbackID  uint64    `gorm:"column:feedback_id;not null;index" json:"feedbackId"`
	AuthorID    *uint64   `gorm:"column:author_id" json:"authorId"`
	AuthorName  string    `gorm:"column:author_name;type:varchar(255)" json:"authorName"`
	AuthorEmail string    `gorm:"column:author_email;type:varchar(255)" json:"authorEmail"`
	Content     string    `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// FeedbackQuery is the filter set accepted by feedback listing.
// Zero values mean "no filter"; Limit <= 0 means no limit.
type FeedbackQuery struct {
	Status       string  `json:"status"`
	Priority     string  `json:"priority"`
	FeedbackType string  `json:"feedbackType"`
	AuthorID     *uint64 `json:"authorId"`
	URL          string  `json:"url"`
	PagePath     string  `json:"pagePath"`
	Search       string  `json:"search"`
	OrderBy      string  `json:"orderBy"`
	Order        string  `json:"order"`
	Limit        int     `json:"limit"`
	Offset       int     `json:"offset"`
}
