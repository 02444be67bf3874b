package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// jobsCmd represents the jobs command
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List all analysis jobs",
	Long:  `List every job the server knows about, newest first, with its status and verdict.`,
	RunE:  runJobs,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	var list jobsListResponse
	if err := getJSON(GetServerURL()+"/api/jobs", &list); err != nil {
		return err
	}

	if IsJSONOutput() {
		output, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	if list.Count == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Job ID", "Filename", "Status", "Score", "Verdict", "Created")

	for _, job := range list.Jobs {
		score := "-"
		verdict := "-"
		if job.Results != nil {
			score = fmt.Sprintf("%.1f", job.Results.AuthenticityScore)
			verdict = job.Results.Verdict
		}
		table.Append(job.JobID, job.Filename, job.Status, score, verdict,
			job.CreatedAt.Format(time.RFC3339))
	}

	table.Render()
	fmt.Printf("\nTotal: %d jobs\n", list.Count)
	return nil
}
