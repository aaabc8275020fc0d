package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/chordlens/internal/adapters/memory"
	"github.com/ewilliams-labs/chordlens/internal/core/domain"
	"github.com/ewilliams-labs/chordlens/internal/core/services"
)

type referenceRowJSON struct {
	Pitch       string   `json:"pitch"`
	Status      string   `json:"status"`
	JustHz      *float64 `json:"just_hz"`
	EqualHz     *float64 `json:"equal_hz"`
	OffsetCents *float64 `json:"offset_cents"`
}

type referenceJSON struct {
	Root        string             `json:"root,omitempty"`
	TonicSource string             `json:"tonic_source,omitempty"`
	A4          float64            `json:"a4"`
	Rows        []referenceRowJSON `json:"rows"`
}

func newReferenceCommand(ctx *commandContext) *cobra.Command {
	var (
		pitches []string
		root    string
		a4      float64
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Print just and equal-tempered frequencies for a pitch set",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(pitches) == 0 {
				return fmt.Errorf("at least one --pitch is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// Reference tables touch neither audio nor storage.
			svc := services.NewOrchestrator(nil, memory.NewPresetStore(), cfg.Analysis.A4Hz)
			table, err := svc.Reference(pitches, root, a4)
			if err != nil {
				return err
			}

			if asJSON {
				out := referenceJSON{
					Root:        table.Root,
					TonicSource: string(table.TonicSource),
					A4:          table.A4,
					Rows:        make([]referenceRowJSON, len(table.Rows)),
				}
				for i, r := range table.Rows {
					out.Rows[i] = referenceRowJSON{
						Pitch:       r.Pitch,
						Status:      string(r.Status),
						JustHz:      domain.Nullable(r.JustHz),
						EqualHz:     domain.Nullable(r.EqualHz),
						OffsetCents: domain.Nullable(r.OffsetCents),
					}
				}
				return writeJSON(cmd, out)
			}

			rows := make([][]string, 0, len(table.Rows))
			for _, r := range table.Rows {
				rows = append(rows, []string{
					r.Pitch,
					string(r.Status),
					hz(r.JustHz),
					hz(r.EqualHz),
					cents(r.OffsetCents),
				})
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "A4 = %s Hz  root %s (%s)\n", strconv.FormatFloat(table.A4, 'f', 2, 64), displayRoot(table.Root), displayRoot(string(table.TonicSource)))
			fmt.Fprintln(w, renderTable([]column{
				{title: "Pitch"},
				{title: "Status"},
				{title: "Just Hz", numeric: true},
				{title: "Equal Hz", numeric: true},
				{title: "Just - Equal", numeric: true},
			}, rows))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&pitches, "pitch", "p", nil, "Pitch to list, e.g. E4 (repeatable or comma separated)")
	cmd.Flags().StringVarP(&root, "root", "r", "", "Tonic of the just scale (default: estimated from the pitches)")
	cmd.Flags().Float64Var(&a4, "a4", 0, "Concert pitch in Hz (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
