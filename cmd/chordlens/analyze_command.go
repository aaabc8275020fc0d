package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
	"github.com/ewilliams-labs/chordlens/internal/core/services"
)

type analyzeEntryJSON struct {
	Pitch            string   `json:"pitch"`
	Status           string   `json:"status"`
	ReferenceHz      *float64 `json:"reference_hz"`
	EqualOffsetCents *float64 `json:"equal_offset_cents"`
	ObservedHz       *float64 `json:"observed_hz"`
	Cents            *float64 `json:"cents"`
}

type analyzeJSON struct {
	File        string             `json:"file"`
	SampleRate  int                `json:"sample_rate"`
	Root        string             `json:"root,omitempty"`
	EstList     []*float64         `json:"est_list"`
	Entries     []analyzeEntryJSON `json:"entries"`
	Diagnostics []string           `json:"diagnostics,omitempty"`
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var (
		pitches  []string
		root     string
		a4       float64
		rate     int
		presetID string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <audio-file>",
		Short: "Report how many cents each pitch of a recorded chord deviates from just intonation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read audio: %w", err)
			}

			var report domain.Report
			err = ctx.withService(cmd, func(svc *services.Orchestrator) error {
				var err error
				report, err = svc.Analyze(cmd.Context(), services.AnalyzeRequest{
					Audio:      raw,
					SampleRate: rate,
					Pitches:    pitches,
					Root:       root,
					A4:         a4,
					PresetID:   presetID,
				})
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, toAnalyzeJSON(args[0], report))
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(report.Entries))
			for _, e := range report.Entries {
				rows = append(rows, []string{
					e.Pitch,
					string(e.Status),
					hz(e.ReferenceHz),
					hz(e.ObservedHz),
					cents(e.Cents),
				})
			}
			fmt.Fprintf(out, "%s  %d Hz  root %s\n", args[0], report.SampleRate, displayRoot(report.Root))
			fmt.Fprintln(out, renderTable([]column{
				{title: "Pitch"},
				{title: "Status"},
				{title: "Just Hz", numeric: true},
				{title: "Observed Hz", numeric: true},
				{title: "Cents", numeric: true},
			}, rows))
			for _, d := range report.Diagnostics {
				fmt.Fprintf(out, "note: %s\n", d)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&pitches, "pitch", "p", nil, "Pitch to check, e.g. C4 (repeatable or comma separated)")
	cmd.Flags().StringVarP(&root, "root", "r", "", "Tonic of the just scale (default: estimated from the pitches)")
	cmd.Flags().Float64Var(&a4, "a4", 0, "Concert pitch in Hz (default from config)")
	cmd.Flags().IntVar(&rate, "rate", 0, "Declared sample rate in Hz")
	cmd.Flags().StringVar(&presetID, "preset", "", "Use the pitches and root of a saved preset")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func toAnalyzeJSON(file string, r domain.Report) analyzeJSON {
	out := analyzeJSON{
		File:        file,
		SampleRate:  r.SampleRate,
		Root:        r.Root,
		EstList:     make([]*float64, len(r.Deviations)),
		Entries:     make([]analyzeEntryJSON, len(r.Entries)),
		Diagnostics: r.Diagnostics,
	}
	for i, d := range r.Deviations {
		out.EstList[i] = domain.Nullable(d)
	}
	for i, e := range r.Entries {
		out.Entries[i] = analyzeEntryJSON{
			Pitch:            e.Pitch,
			Status:           string(e.Status),
			ReferenceHz:      domain.Nullable(e.ReferenceHz),
			EqualOffsetCents: domain.Nullable(e.EqualOffsetCents),
			ObservedHz:       domain.Nullable(e.ObservedHz),
			Cents:            domain.Nullable(e.Cents),
		}
	}
	return out
}

func displayRoot(root string) string {
	if strings.TrimSpace(root) == "" {
		return "-"
	}
	return root
}
