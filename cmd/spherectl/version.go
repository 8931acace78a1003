package main

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/spherenn/internal/version"
)

type versionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

func newVersionCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versionInfo{
				Version: version.Version,
				Commit:  version.Commit,
				Date:    version.Date,
				Go:      runtime.Version(),
				OS:      runtime.GOOS,
				Arch:    runtime.GOARCH,
			}
			if opts.json {
				return outputAsJSON(cmd, info)
			}
			outputText(cmd, "spherectl %s\n", info.Version)
			outputText(cmd, "  commit: %s\n", info.Commit)
			outputText(cmd, "  built:  %s\n", info.Date)
			outputText(cmd, "  go:     %s\n", info.Go)
			outputText(cmd, "  os:     %s/%s\n", info.OS, info.Arch)
			return nil
		},
	}
}
