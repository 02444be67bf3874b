package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Poll a job until it finishes",
	Long: `Poll a job at a fixed interval until it reaches completed or failed,
then print the final record. Polling is the only way to observe a job;
the server never blocks a request waiting for analysis to finish.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var watchInterval time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "Poll interval")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	job, err := pollUntilTerminal(args[0], watchInterval)
	if err != nil {
		return err
	}
	return printJob(job)
}
