package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/ipp-client/internal/app"
	"github.com/jonathan/ipp-client/internal/fetch"
	"github.com/jonathan/ipp-client/internal/ingestion"
	"github.com/jonathan/ipp-client/internal/types"
)

var (
	uploadFile string
	uploadURL  string
)

var uploadCmd = &cobra.Command{
	Use:   "upload resume|job",
	Short: "Upload a resume or job description",
	Long:  "Validates and uploads a local file (PDF, DOC, DOCX or TXT, at most 10MB). A job description can also be fetched from a posting URL with --url.",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadFile, "file", "f", "", "Path to the document")
	uploadCmd.Flags().StringVar(&uploadURL, "url", "", "Job posting URL to fetch instead of a file")
	uploadCmd.MarkFlagsOneRequired("file", "url")
	uploadCmd.MarkFlagsMutuallyExclusive("file", "url")
	rootCmd.AddCommand(uploadCmd)
}

// parseDocType accepts the short names used on the command line.
func parseDocType(s string) (types.DocumentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "resume", "cv":
		return types.DocumentTypeResume, nil
	case "job", "job_description", "job-description":
		return types.DocumentTypeJobDescription, nil
	default:
		return "", fmt.Errorf("unknown document type %q (want resume or job)", s)
	}
}

func runUpload(cmd *cobra.Command, args []string) error {
	docType, err := parseDocType(args[0])
	if err != nil {
		return err
	}
	if uploadURL != "" && docType != types.DocumentTypeJobDescription {
		return fmt.Errorf("--url only applies to job descriptions")
	}

	return withApp(cmd, func(ctx context.Context, a *app.Context) error {
		ctl, _, err := a.Workspace(ctx)
		if err != nil {
			return err
		}
		defer ctl.Close()

		var doc *types.Document
		if uploadURL != "" {
			opts := fetch.DefaultOptions()
			opts.Timeout = a.Config.RequestTimeout.Std()
			opts.Logger = a.Logger
			posting, err := ingestion.FromURL(ctx, uploadURL, opts)
			if err != nil {
				return err
			}
			a.Logger.Info("cli.upload.fetched", "url", uploadURL, "platform", string(posting.Platform), "chars", len(posting.Text))
			doc, err = ctl.Upload(ctx, docType, posting.File(), posting.Reader())
			if err != nil {
				return err
			}
		} else {
			doc, err = ctl.UploadPath(ctx, docType, uploadFile)
			if err != nil {
				return err
			}
		}

		if err := a.SaveWorkspace(ctx, ctl); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout(cmd), "Uploaded %s as #%d.\n", doc.OriginalFilename, doc.ID)
		printer(cmd).PrintDocuments(ctl.Documents())
		return nil
	})
}
