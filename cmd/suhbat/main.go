package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/voicelayer-ai/suhbat/internal/server"
	"github.com/voicelayer-ai/suhbat/pkg/config"
	"github.com/voicelayer-ai/suhbat/pkg/logging"
	"github.com/voicelayer-ai/suhbat/pkg/pipeline"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "suhbat",
		Short:         "Audio conversation transcription, localization and analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newProcessCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP upload shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.SetLevel(cfg.LogLevel)

			processor, err := buildProcessor(cfg)
			if err != nil {
				return err
			}

			logging.NewLogger(cmd.Context()).Infof("listening on %s", cfg.ListenAddr)
			return server.New(processor).Run(cfg.ListenAddr)
		},
	}
}

func newProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <audio-file>",
		Short: "Process one audio file and write the transcripts next to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logging.SetLevel(cfg.LogLevel)

			processor, err := buildProcessor(cfg)
			if err != nil {
				return err
			}

			result, err := processor.Process(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			outDir := filepath.Dir(args[0])
			for _, artifact := range result.Artifacts() {
				outPath := filepath.Join(outDir, artifact.Filename)
				if err := os.WriteFile(outPath, []byte(artifact.Content), 0o644); err != nil {
					return err
				}
				cmd.Printf("wrote %s\n", outPath)
			}

			cmd.Println()
			cmd.Println(result.Summary.Render())
			return nil
		},
	}
}

func buildProcessor(cfg *config.Config) (*pipeline.Processor, error) {
	factories, err := buildFactories(cfg)
	if err != nil {
		return nil, err
	}

	return pipeline.NewProcessor(factories, pipeline.Options{
		TargetLanguage:     cfg.TargetLanguage,
		SpeakerLabel:       cfg.SpeakerLabel,
		TranscriptionModel: cfg.TranscriptionModel,
		CompletionModel:    cfg.CompletionModel,
	})
}
