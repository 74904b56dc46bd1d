package cmd

import (
	"fmt"

	"github.com/kozaktomas/face-threshold/internal/threshold"
	"github.com/spf13/cobra"
)

// mustGet reads a flag registered in init(). A lookup error means the flag was
// never defined on the command, which is a programming bug.
func mustGet[T any](name string, get func(string) (T, error)) T {
	val, err := get(name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	return mustGet(name, cmd.Flags().GetBool)
}

func mustGetInt(cmd *cobra.Command, name string) int {
	return mustGet(name, cmd.Flags().GetInt)
}

func mustGetString(cmd *cobra.Command, name string) string {
	return mustGet(name, cmd.Flags().GetString)
}

func mustGetFloat64(cmd *cobra.Command, name string) float64 {
	return mustGet(name, cmd.Flags().GetFloat64)
}

func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	return mustGet(name, cmd.Flags().GetStringSlice)
}

// addRangeFlags registers --start, --end and --step. Their zero defaults are
// placeholders; only flags the user sets override the measure's range.
func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("start", 0, "First threshold (default per measure)")
	cmd.Flags().Float64("end", 0, "Scan stops before this threshold (default per measure)")
	cmd.Flags().Float64("step", 0, "Threshold increment (default per measure)")
}

// rangeFromFlags layers the range flags that were set over def.
func rangeFromFlags(cmd *cobra.Command, def threshold.Range) threshold.Range {
	rng := def
	for name, field := range map[string]*float64{"start": &rng.Start, "end": &rng.End, "step": &rng.Step} {
		if cmd.Flags().Changed(name) {
			*field = mustGetFloat64(cmd, name)
		}
	}
	return rng
}
