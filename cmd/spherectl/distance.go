package main

import (
	"github.com/spf13/cobra"
)

type distanceResult struct {
	Metric  string  `json:"metric"`
	Radians float64 `json:"radians"`
	Degrees float64 `json:"degrees"`
}

func newDistanceCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "distance <azimuth1> <elevation1> <azimuth2> <elevation2>",
		Short: "Angular distance between two directions",
		Long: `Print the angular separation of two directions given in degrees.

Example:
  spherectl distance 0 0 90 0
  spherectl distance 10 45 200 -30 --metric haversine --json`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.parseMetric()
			if err != nil {
				return err
			}
			a, err := parseCoordinate(args[0], args[1])
			if err != nil {
				return err
			}
			b, err := parseCoordinate(args[2], args[3])
			if err != nil {
				return err
			}

			d := m.Distance(a.Point(), b.Point())
			res := distanceResult{Metric: m.String(), Radians: d, Degrees: degrees(d)}
			if opts.json {
				return outputAsJSON(cmd, res)
			}
			outputText(cmd, "%.12f rad (%.9f°)\n", res.Radians, res.Degrees)
			return nil
		},
	}
}
