package main

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"text/tabwriter"

	pockettts "github.com/MeKo-Christian/go-call-pocket-tts"
	"github.com/spf13/cobra"

	"github.com/example/go-friday-voice/internal/tts"
)

// exportVoice is a seam for tests.
var exportVoice = pockettts.ExportVoice

func newVoiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voice",
		Short: "Manage speaker profiles in the voice manifest",
	}
	cmd.AddCommand(newVoiceListCmd())
	cmd.AddCommand(newVoiceAddCmd())
	cmd.AddCommand(newVoiceExportCmd())
	return cmd
}

func newVoiceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List voices declared in the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			vm, err := tts.NewVoiceManager(cfg.Paths.VoiceManifest)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tPATH\tLICENSE\tSTATUS")
			for _, v := range vm.ListVoices() {
				status := "ok"
				if _, err := vm.ResolvePath(v.ID); err != nil {
					status = "missing"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.ID, v.Path, v.License, status)
			}
			return tw.Flush()
		},
	}
}

func newVoiceAddCmd() *cobra.Command {
	var license string

	cmd := &cobra.Command{
		Use:   "add <id> <reference.wav>",
		Short: "Register a reference sample as a speaker profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if err := addVoice(cfg.Paths.VoiceManifest, args[0], args[1], license); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "voice %q added to %s\n", args[0], cfg.Paths.VoiceManifest)
			return nil
		},
	}

	cmd.Flags().StringVar(&license, "license", "unknown", "License label for the sample")

	return cmd
}

func newVoiceExportCmd() *cobra.Command {
	var (
		audioPath string
		outPath   string
		id        string
		license   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a pocket-tts voice embedding from a WAV prompt",
		Long: "Export a voice embedding (.safetensors) from a WAV prompt and register it\n" +
			"in the voice manifest. Requires a Python pocket-tts installation.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if audioPath == "" {
				return errors.New("--audio is required")
			}
			if outPath == "" {
				return errors.New("--out is required")
			}

			err = exportVoice(cmd.Context(), audioPath, outPath, &pockettts.ExportVoiceOptions{
				Config:         cfg.TTS.CLIConfigPath,
				Quiet:          cfg.TTS.Quiet,
				ExecutablePath: cfg.TTS.CLIPath,
				LogWriter:      cmd.ErrOrStderr(),
			})
			if err != nil {
				var notFound *pockettts.ErrExecutableNotFound
				if errors.As(err, &notFound) || errors.Is(err, exec.ErrNotFound) {
					return fmt.Errorf("voice export requires the pocket-tts CLI (Python tooling): %w", err)
				}
				return err
			}

			if id == "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %s\n", outPath)
				return nil
			}
			if err := addVoice(cfg.Paths.VoiceManifest, id, outPath, license); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %s as voice %q\n", outPath, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&audioPath, "audio", "", "Input speaker audio WAV path")
	cmd.Flags().StringVar(&outPath, "out", "", "Output voice .safetensors path")
	cmd.Flags().StringVar(&id, "id", "", "Register the export under this voice ID (empty skips)")
	cmd.Flags().StringVar(&license, "license", "unknown", "License label for the manifest entry")

	return cmd
}

// addVoice stores sample in the manifest. Relative paths are rewritten
// relative to the manifest directory, which is how the manifest resolves them.
func addVoice(manifestPath, id, sample, license string) error {
	abs, err := filepath.Abs(sample)
	if err != nil {
		return err
	}
	path := abs
	if base, err := filepath.Abs(filepath.Dir(manifestPath)); err == nil {
		if rel, err := filepath.Rel(base, abs); err == nil {
			path = rel
		}
	}
	return tts.AddVoice(manifestPath, tts.Voice{ID: id, Path: path, License: license})
}
