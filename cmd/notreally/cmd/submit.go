package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	waitForResult bool
	pollInterval  time.Duration
)

// submitCmd represents the submit command
var submitCmd = &cobra.Command{
	Use:   "submit <video-file>",
	Short: "Submit a video for authenticity analysis",
	Long:  `Upload a video file to the analysis server. Returns a job id immediately; use --wait to poll until the verdict is ready.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().BoolVar(&waitForResult, "wait", false, "poll until the job reaches a terminal status")
	submitCmd.Flags().DurationVar(&pollInterval, "interval", 2*time.Second, "poll interval used with --wait")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	result, err := submitVideo(args[0])
	if err != nil {
		return err
	}

	if !waitForResult {
		if IsJSONOutput() {
			output, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(output))
			return nil
		}
		fmt.Printf("Job submitted: %s\n", result.JobID)
		fmt.Printf("Poll with: notreally watch %s\n", result.JobID)
		return nil
	}

	job, err := pollUntilTerminal(result.JobID, pollInterval)
	if err != nil {
		return err
	}
	return printJob(job)
}
