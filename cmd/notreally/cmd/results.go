package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// resultsCmd represents the results command
var resultsCmd = &cobra.Command{
	Use:   "results <job-id>",
	Short: "Get the analysis result for a job",
	Long:  `Retrieve the current status and, once completed, the scored verdict for a job.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	job, err := getJob(args[0])
	if err != nil {
		return err
	}
	return printJob(job)
}

// printJob renders a job in the selected output format
func printJob(job *jobResponse) error {
	if IsJSONOutput() {
		output, err := json.MarshalIndent(job, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")

	table.Append("Job ID", job.JobID)
	table.Append("Filename", job.Filename)
	table.Append("Status", job.Status)
	table.Append("Created At", job.CreatedAt.Format(time.RFC3339))
	if job.CompletedAt != nil {
		table.Append("Completed At", job.CompletedAt.Format(time.RFC3339))
	}
	if job.Error != "" {
		table.Append("Error", job.Error)
	}
	if job.Results != nil {
		table.Append("Authenticity Score", fmt.Sprintf("%.1f / 100", job.Results.AuthenticityScore))
		table.Append("Confidence", fmt.Sprintf("%.2f", job.Results.Confidence))
		table.Append("Verdict", job.Results.Verdict)
		table.Append("Summary", job.Results.Summary)
		for _, name := range job.Results.FeaturesAvailable {
			value := job.Results.Features[name]
			line := fmt.Sprintf("%.3f", value)
			if interp, ok := job.Results.Interpretations[name]; ok {
				line = fmt.Sprintf("%.3f (%s)", value, interp)
			}
			table.Append("  "+name, line)
		}
	}

	table.Render()
	return nil
}
