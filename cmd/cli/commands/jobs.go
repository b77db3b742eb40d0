package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tomlim2/unreal-mcp-jobs/internal/config"
	"github.com/tomlim2/unreal-mcp-jobs/internal/jobs"
	"github.com/tomlim2/unreal-mcp-jobs/internal/types"
)

// GetJobsCmd returns the jobs command group
func GetJobsCmd() *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage asynchronous backend jobs",
	}

	jobsCmd.AddCommand(startJobCmd())
	jobsCmd.AddCommand(jobStatusCmd())
	jobsCmd.AddCommand(cancelJobCmd())
	jobsCmd.AddCommand(watchJobCmd())
	jobsCmd.AddCommand(downloadJobCmd())

	return jobsCmd
}

// parseParams converts repeated key=value flags into job parameters
func parseParams(kvs []string) (map[string]any, error) {
	if len(kvs) == 0 {
		return nil, nil
	}

	params := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", kv)
		}
		params[key] = value
	}
	return params, nil
}

// printJSON pretty prints v to stdout
func printJSON(v any) error {
	prettyJSON, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	fmt.Println(string(prettyJSON))
	return nil
}

func startJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Submit a new job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobType, _ := cmd.Flags().GetString("type")
			sessionID, _ := cmd.Flags().GetString("session")
			kvs, _ := cmd.Flags().GetStringArray("param")

			params, err := parseParams(kvs)
			if err != nil {
				return err
			}

			jobID, err := apiClient.StartJob(context.Background(), types.StartJobRequest{
				JobType:    jobType,
				SessionID:  sessionID,
				Parameters: params,
			})
			if err != nil {
				return fmt.Errorf("error starting job: %w", err)
			}

			return printJSON(map[string]string{"job_id": jobID})
		},
	}

	cmd.Flags().StringP("type", "t", types.JobTypeScreenshot, "Job type to submit")
	cmd.Flags().String("session", "", "Session id to associate the job with")
	cmd.Flags().StringArrayP("param", "p", nil, "Job parameter as key=value (repeatable)")
	return cmd
}

func jobStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the status of a job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobID, _ := cmd.Flags().GetString("id")

			job, err := apiClient.FetchStatus(context.Background(), jobID)
			if err != nil {
				return fmt.Errorf("error fetching job status: %w", err)
			}
			return printJSON(job)
		},
	}

	cmd.Flags().StringP("id", "i", "", "Job ID to check")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func cancelJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobID, _ := cmd.Flags().GetString("id")

			confirmed, err := apiClient.CancelJob(context.Background(), jobID)
			if err != nil {
				return fmt.Errorf("error cancelling job: %w", err)
			}
			return printJSON(map[string]bool{"cancelled": confirmed})
		},
	}

	cmd.Flags().StringP("id", "i", "", "Job ID to cancel")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func watchJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Submit a job and stream its lifecycle until it finishes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobType, _ := cmd.Flags().GetString("type")
			sessionID, _ := cmd.Flags().GetString("session")
			kvs, _ := cmd.Flags().GetStringArray("param")

			params, err := parseParams(kvs)
			if err != nil {
				return err
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			opts, err := config.PollerOptions()
			if err != nil {
				return err
			}

			manager := jobs.NewManager(apiClient, opts)
			defer manager.Close()

			done := make(chan error, 1)
			manager.SetCallbacks(jobs.Callbacks{
				OnJobCreated: func(j *types.Job) {
					fmt.Printf("created %s (%s)\n", j.JobID, j.JobType)
				},
				OnJobUpdated: func(j *types.Job) {
					if j.Progress != nil {
						fmt.Printf("status %s (%d%%)\n", j.Status, *j.Progress)
						return
					}
					fmt.Printf("status %s\n", j.Status)
				},
				OnJobCompleted: func(j *types.Job) {
					_ = printJSON(j)
					done <- nil
				},
				OnJobFailed: func(j *types.Job) {
					done <- fmt.Errorf("job failed: %s", j.Error)
				},
				OnError: func(err error) {
					done <- err
				},
			})

			if _, err := manager.StartJob(context.Background(), jobType, sessionID, params); err != nil {
				return fmt.Errorf("error starting job: %w", err)
			}

			return <-done
		},
	}

	cmd.Flags().StringP("type", "t", types.JobTypeScreenshot, "Job type to submit")
	cmd.Flags().String("session", "", "Session id (generated when empty)")
	cmd.Flags().StringArrayP("param", "p", nil, "Job parameter as key=value (repeatable)")
	return cmd
}

func downloadJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the result file of a completed job",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobID, _ := cmd.Flags().GetString("id")
			output, _ := cmd.Flags().GetString("output")

			job, err := apiClient.FetchStatus(context.Background(), jobID)
			if err != nil {
				return fmt.Errorf("error fetching job status: %w", err)
			}

			if job.Status != types.JobStatusCompleted || job.Result == nil || job.Result.DownloadURL == "" {
				return fmt.Errorf("job %s has no downloadable result (status: %s)", jobID, job.Status)
			}

			data, err := apiClient.DownloadResult(context.Background(), job.Result.DownloadURL)
			if err != nil {
				return fmt.Errorf("error downloading result: %w", err)
			}

			if output == "" {
				output = job.Result.Filename
			}
			if output == "" {
				output = jobID
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("error writing %s: %w", output, err)
			}

			fmt.Printf("wrote %d bytes to %s\n", len(data), output)
			return nil
		},
	}

	cmd.Flags().StringP("id", "i", "", "Job ID to download")
	cmd.Flags().StringP("output", "o", "", "Output file path (defaults to the result filename)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
