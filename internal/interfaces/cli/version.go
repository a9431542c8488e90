package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/turtacn/MolSieve/internal/config"
)

// NewVersionCmd prints build metadata.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintResult(cmd, versionInfo{
				Version:   config.Version,
				GitCommit: config.GitCommit,
				BuildDate: config.BuildDate,
				GoVersion: runtime.Version(),
			})
		},
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

func (v versionInfo) Text() string {
	return "molsieve " + v.Version + "\n  commit: " + v.GitCommit + "\n  built:  " + v.BuildDate + "\n  go:     " + v.GoVersion + "\n"
}

//Personal.AI order the ending
