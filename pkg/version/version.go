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

package version

import (
	"fmt"
	"runtime"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

// set through -ldflags at build time
var (
	Version   = ""
	GitBranch = ""
	GitCommit = ""
	BuildTime = ""
)

// SchemaVersion is the database schema version this build migrates to
const SchemaVersion = "1.4.0"

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the application version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := GetVersion().Json()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

type Info struct {
	Version       string `json:"version"`
	SchemaVersion string `json:"schemaVersion"`
	GitBranch     string `json:"gitBranch"`
	GitCommit     string `json:"gitCommit"`
	BuildTime     string `json:"buildTime"`
	GoVersion     string `json:"goVersion"`
	Compiler      string `json:"compiler"`
	Platform      string `json:"platform"`
}

func GetVersion() *Info {
	return &Info{
		Version:       Version,
		SchemaVersion: SchemaVersion,
		GitBranch:     GitBranch,
		GitCommit:     GitCommit,
		BuildTime:     BuildTime,
		GoVersion:     runtime.Version(),
		Compiler:      runtime.Compiler,
		Platform:      runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (v *Info) Json() ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(v, "", "  ")
}
