package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-recommender/internal/feedback"
	"github.com/jonathan/job-recommender/internal/recs"
	"github.com/jonathan/job-recommender/internal/schemas"
	"github.com/jonathan/job-recommender/internal/types"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank job postings against a profile",
	Long:  "Scores the postings of a JobPostings JSON file against a UserProfile JSON file and prints the ranked list as JSON, without personalization.",
	RunE:  runRank,
}

var (
	rankProfile string
	rankJobs    string
	rankTop     int
)

func init() {
	rankCmd.Flags().StringVarP(&rankProfile, "profile", "p", "", "Path to input UserProfile JSON file (required)")
	rankCmd.Flags().StringVarP(&rankJobs, "jobs", "j", "", "Path to input JobPostings JSON file (required)")
	rankCmd.Flags().IntVarP(&rankTop, "top", "n", 0, "Number of recommendations to print (default 20, max 50)")

	if err := rankCmd.MarkFlagRequired("profile"); err != nil {
		panic(fmt.Sprintf("failed to mark profile flag as required: %v", err))
	}
	if err := rankCmd.MarkFlagRequired("jobs"); err != nil {
		panic(fmt.Sprintf("failed to mark jobs flag as required: %v", err))
	}

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, _ []string) error {
	var profile types.UserProfile
	if err := readValidated(rankProfile, schemas.UserProfile, &profile); err != nil {
		return err
	}
	if profile.Skills == nil {
		profile.Skills = []string{}
	}

	var jobs []types.JobPosting
	if err := readValidated(rankJobs, schemas.JobPostings, &jobs); err != nil {
		return err
	}

	service := recs.NewService(recs.Options{Boosts: feedback.NewStore()})
	result, err := service.Recommend(cmd.Context(), "cli", &profile, jobs, rankTop)
	if err != nil {
		return fmt.Errorf("failed to rank jobs: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations to JSON: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// readValidated loads a JSON file, checks it against an embedded schema and
// decodes it into v.
func readValidated(path string, schema schemas.Name, v any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := schemas.Validate(schema, content); err != nil {
		return fmt.Errorf("invalid %s: %w", path, err)
	}
	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return nil
}
