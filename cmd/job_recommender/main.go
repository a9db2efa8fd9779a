// Package main provides the entry point for the job recommender HTTP API
// server and its offline ranking tool.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "job_recommender",
	Short: "Job Recommender HTTP API Server",
	Long:  "Job Recommender ranks job postings ingested into a session against the session's profile and personalizes the list from save, like and hide feedback.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
