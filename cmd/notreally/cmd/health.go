package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	var status map[string]string
	if err := getJSON(GetServerURL()+"/api/health", &status); err != nil {
		return err
	}

	if IsJSONOutput() {
		output, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Server: %s\n", GetServerURL())
	fmt.Printf("Status: %s\n", status["status"])
	if msg, ok := status["message"]; ok {
		fmt.Printf("Message: %s\n", msg)
	}
	return nil
}
