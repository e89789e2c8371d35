package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/designcritic/internal/config"
	"github.com/dshills/designcritic/internal/critique"
	"github.com/dshills/designcritic/internal/render"
)

type reviewFlags struct {
	modelFlags

	brief     string
	briefFile string
	file      string
	format    string
	out       string
	failBelow float64
}

func newReviewCmd(rf *rootFlags) *cobra.Command {
	f := &reviewFlags{}

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Critique a design and produce a structured review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := rf.setup()
			if err != nil {
				return err
			}
			defer log.Sync()
			f.apply(cmd.Flags(), cfg)
			return runReview(cmd.Context(), f, cfg, log, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.brief, "brief", "", "What to evaluate, in plain words")
	flags.StringVar(&f.briefFile, "brief-file", "", "Read the brief from a file (- for stdin)")
	flags.StringVar(&f.file, "file", "", "Design file; only its name and type are sent to the model")
	flags.StringVar(&f.format, "format", "json", "Output format: json or md")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.Float64Var(&f.failBelow, "fail-below", 0, "Exit 2 if the overall score is below this value")
	f.register(flags)

	return cmd
}

// report is the JSON document written by review.
type report struct {
	Tool      string            `json:"tool"`
	Version   string            `json:"version"`
	RequestID string            `json:"request_id"`
	Input     reportInput       `json:"input"`
	Meta      reportMeta        `json:"meta"`
	Overall   float64           `json:"overall"`
	Result    critique.Critique `json:"result"`
}

type reportInput struct {
	BriefHash    string `json:"brief_hash"`
	ArtifactName string `json:"artifact_name"`
	ArtifactKind string `json:"artifact_kind"`
	Profile      string `json:"profile"`
}

type reportMeta struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Retries     int     `json:"retries"`
	Repaired    bool    `json:"repaired"`
	Redactions  int     `json:"redactions,omitempty"`
}

func runReview(ctx context.Context, f *reviewFlags, cfg *config.Config, log *zap.Logger, stdout io.Writer) error {
	if f.format != "json" && f.format != "md" {
		return exitError(3, "unknown format: %s", f.format)
	}

	// 1. Brief
	brief, err := readBrief(f.brief, f.briefFile)
	if err != nil {
		return err
	}
	req := critique.Request{Brief: brief}

	// 2. Artifact metadata
	if f.file != "" {
		log.Debug("inspecting design file", zap.String("path", f.file))
		req.ArtifactName, req.ArtifactKind, err = inspectFile(f.file)
		if err != nil {
			return exitError(3, "failed to read design file: %v", err)
		}
	}

	// 3. Pipeline
	reviewer, prof, err := f.newReviewer(ctx, cfg, log)
	if err != nil {
		return err
	}

	// 4. Review
	out, err := reviewer.Review(ctx, req)
	if err != nil {
		return reviewExit(err)
	}

	// 5. Output
	req = req.WithDefaults()
	var output string
	switch f.format {
	case "json":
		modelName := cfg.Model
		if modelName == "" {
			modelName = "(default)"
		}
		rep := report{
			Tool:      "designcritic",
			Version:   version,
			RequestID: out.RequestID,
			Input: reportInput{
				BriefHash:    req.BriefHash(),
				ArtifactName: req.ArtifactName,
				ArtifactKind: req.ArtifactKind,
				Profile:      prof.Name,
			},
			Meta: reportMeta{
				Provider:    out.Provider,
				Model:       modelName,
				Temperature: cfg.Temperature,
				Retries:     out.Retries,
				Repaired:    out.Repaired,
				Redactions:  out.Redactions,
			},
			Overall: out.Critique.Scores.Overall(),
			Result:  out.Critique,
		}
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		output = string(data) + "\n"
	case "md":
		output = render.Markdown(req, &out.Critique)
	}

	if err := writeOutput(f.out, output, stdout, log); err != nil {
		return err
	}

	// 6. Exit code based on --fail-below
	if overall := out.Critique.Scores.Overall(); f.failBelow > 0 && overall < f.failBelow {
		return exitError(2, "overall score %.1f is below %.1f", overall, f.failBelow)
	}
	return nil
}

func readBrief(brief, briefFile string) (string, error) {
	if brief != "" && briefFile != "" {
		return "", exitError(3, "use either --brief or --brief-file, not both")
	}
	if briefFile == "" {
		return brief, nil
	}
	var (
		data []byte
		err  error
	)
	if briefFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(briefFile)
	}
	if err != nil {
		return "", exitError(3, "failed to read brief: %v", err)
	}
	return string(data), nil
}

// inspectFile returns the base name and MIME type of a design file. Only
// the first 512 bytes are read, for sniffing.
func inspectFile(path string) (name, kind string, err error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", "", err
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return "", "", err
	}
	if info.IsDir() {
		return "", "", fmt.Errorf("%s is a directory", path)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(fh, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", "", err
	}
	name = filepath.Base(path)
	return name, critique.DetectKind(name, "", head[:n]), nil
}

func writeOutput(path, output string, stdout io.Writer, log *zap.Logger) error {
	if path == "" {
		_, err := io.WriteString(stdout, output)
		return err
	}
	log.Debug("writing output", zap.String("path", path))
	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
