package cmd

import (
	"github.com/spf13/cobra"
	"swissdox-cli/internal/app"
)

var (
	submitName         string
	submitComment      string
	submitExpires      string
	submitWait         bool
	submitOutDir       string
	submitSaveResponse string
)

var submitCmd = &cobra.Command{
	Use:   "submit <query_file_or_dir> [...]",
	Short: "Submit one query per file",
	Long: "Submit one query per file. The file content is sent as the query text and the\n" +
		"file stem becomes the query name unless --name is given.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunSubmit(cmd.Context(), app.SubmitOptions{
			CommonOptions:   commonOptions(),
			Inputs:          args,
			Name:            submitName,
			Comment:         submitComment,
			Expires:         submitExpires,
			SaveResponseDir: submitSaveResponse,
			Wait:            submitWait,
			OutputDir:       submitOutDir,
		})
	},
}

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status [job_id]",
	Short: "List all jobs, or show one job",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.StatusOptions{CommonOptions: commonOptions(), JSON: statusJSON}
		if len(args) == 1 {
			opts.ID = args[0]
		}
		return app.RunStatus(cmd.Context(), opts)
	},
}

var (
	waitID       string
	waitDownload bool
	waitOutput   string
	waitOutDir   string
)

var waitCmd = &cobra.Command{
	Use:   "wait [name]",
	Short: "Poll a job until it finishes or fails",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.WaitOptions{
			CommonOptions: commonOptions(),
			ID:            waitID,
			Download:      waitDownload,
			Output:        waitOutput,
			OutputDir:     waitOutDir,
		}
		if len(args) == 1 {
			opts.Name = args[0]
		}
		return app.RunWait(cmd.Context(), opts)
	},
}

var (
	downloadName   string
	downloadID     string
	downloadOutput string
	downloadOutDir string
)

var downloadCmd = &cobra.Command{
	Use:   "download --name <name> | --id <job_id>",
	Short: "Download the result of a finished job",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunDownload(cmd.Context(), app.DownloadOptions{
			CommonOptions: commonOptions(),
			Name:          downloadName,
			ID:            downloadID,
			Output:        downloadOutput,
			OutputDir:     downloadOutDir,
		})
	},
}

var namesCaseSensitive bool

var namesCmd = &cobra.Command{
	Use:   "names",
	Short: "List job names as name lookups see them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunNames(cmd.Context(), app.NamesOptions{
			CommonOptions: commonOptions(),
			CaseSensitive: namesCaseSensitive,
		})
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitName, "name", "", "query name (prefix when several files are given)")
	submitCmd.Flags().StringVar(&submitComment, "comment", "", "query comment (required)")
	submitCmd.Flags().StringVar(&submitExpires, "expires", "", "expiration date YYYY-MM-DD")
	submitCmd.Flags().BoolVar(&submitWait, "wait", false, "wait for each job and download its result")
	submitCmd.Flags().StringVarP(&submitOutDir, "out", "o", ".", "directory for downloaded results with --wait")
	submitCmd.Flags().StringVar(&submitSaveResponse, "save-response", "", "directory to keep each submission response as JSON")
	_ = submitCmd.MarkFlagRequired("comment")

	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print JSON instead of a table")

	waitCmd.Flags().StringVar(&waitID, "id", "", "job id (takes precedence over name)")
	waitCmd.Flags().BoolVar(&waitDownload, "download", false, "download the result when the job finishes")
	waitCmd.Flags().StringVarP(&waitOutput, "out", "o", "", "result file (default <out-dir>/<name>.tsv)")
	waitCmd.Flags().StringVar(&waitOutDir, "out-dir", ".", "directory for the result file")

	downloadCmd.Flags().StringVar(&downloadName, "name", "", "job name, matched trimmed and case-insensitively")
	downloadCmd.Flags().StringVar(&downloadID, "id", "", "job id (takes precedence over --name)")
	downloadCmd.Flags().StringVarP(&downloadOutput, "out", "o", "", "result file (default <out-dir>/<name>.tsv)")
	downloadCmd.Flags().StringVar(&downloadOutDir, "out-dir", ".", "directory for the result file")

	namesCmd.Flags().BoolVar(&namesCaseSensitive, "case-sensitive", false, "keep the original case")
}
