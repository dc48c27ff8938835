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

package event

// Event is anything published on the bus
type Event interface {
	// EventName returns the name of the event, used for routing
	EventName() string
	// EventType returns the type of the event
	EventType() string
}

// EventHandler consumes events it was registered for
type EventHandler interface {
	Handle(event Event)
}

// HandlerFunc adapts a plain function to EventHandler
type HandlerFunc func(event Event)

func (f HandlerFunc) Handle(event Event) {
	f(event)
}

const (
	FeedbackCreatedName = "feedback.created"
	TypeDomain          = "domain"
)

// FeedbackCreated is raised once a feedback row is stored.
// Fields holds the full column map as inserted, for notifiers.
type FeedbackCreated struct {
	ID     uint64
	Fields map[string]any
}

func (FeedbackCreated) EventName() string { return FeedbackCreatedName }

func (FeedbackCreated) EventType() string { return TypeDomain }
