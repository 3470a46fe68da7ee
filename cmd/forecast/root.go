package main

import (
	"time"

	"github.com/spf13/cobra"

	"salesforecast/internal/logging"
)

// cli carries state shared by every subcommand.
type cli struct {
	logLevel string
	jsonOut  bool
	now      func() time.Time
}

func newRootCmd() *cobra.Command {
	c := &cli{now: time.Now}

	root := &cobra.Command{
		Use:   "forecast",
		Short: "Predict next week's sales from pre-trained models",
		Long: `forecast assembles a feature record from the given inputs and runs it
through a pre-trained tree ensemble or time-series model.

Artifact locations come from ENSEMBLE_MODEL_PATH / TIMESERIES_MODEL_PATH
(or a .env file) and may be local paths or s3:// URIs.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupWriter(cmd.ErrOrStderr(), c.logLevel, true)
		},
	}

	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print JSON instead of formatted output")

	root.AddCommand(newPredictCmd(c))
	root.AddCommand(newSchemaCmd(c))
	return root
}
