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

package cache

import "github.com/google/wire"

// ProviderSet provides the process-local cache
var ProviderSet = wire.NewSet(
	ProvideFastCache,
	wire.Bind(new(ICache), new(*FastCache)),
)

// ProvideFastCache provides a FastCache sized from configuration
func ProvideFastCache(conf FastCacheConfig) *FastCache {
	return NewFastCache(conf)
}
