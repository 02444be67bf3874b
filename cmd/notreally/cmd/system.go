package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// systemCmd represents the system command
var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Show server capacity",
	Long:  `Show the server host's CPU and memory usage alongside its job counts.`,
	RunE:  runSystem,
}

func init() {
	rootCmd.AddCommand(systemCmd)
}

type systemInfo struct {
	CPUPercent    float64 `json:"cpu_percent"`
	CPUCount      int     `json:"cpu_count"`
	MemTotalBytes uint64  `json:"mem_total_bytes"`
	MemUsedPct    float64 `json:"mem_used_percent"`
	GoVersion     string  `json:"go_version"`
	ActiveJobs    int     `json:"active_jobs"`
	TotalJobs     int     `json:"total_jobs"`
}

func runSystem(cmd *cobra.Command, args []string) error {
	var info systemInfo
	if err := getJSON(GetServerURL()+"/api/system", &info); err != nil {
		return err
	}

	if IsJSONOutput() {
		output, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Metric", "Value")
	table.Append("CPU Usage", fmt.Sprintf("%.1f%%", info.CPUPercent))
	table.Append("CPU Cores", fmt.Sprintf("%d", info.CPUCount))
	table.Append("Memory Total", fmt.Sprintf("%.1f GB", float64(info.MemTotalBytes)/(1024*1024*1024)))
	table.Append("Memory Used", fmt.Sprintf("%.1f%%", info.MemUsedPct))
	table.Append("Go Version", info.GoVersion)
	table.Append("Active Jobs", fmt.Sprintf("%d", info.ActiveJobs))
	table.Append("Total Jobs", fmt.Sprintf("%d", info.TotalJobs))
	table.Render()
	return nil
}
