package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ewilliams-labs/chordlens/internal/core/domain"
	"github.com/ewilliams-labs/chordlens/internal/core/services"
)

type presetJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Pitches   []string  `json:"pitches"`
	Root      string    `json:"root,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toPresetJSON(p domain.Preset) presetJSON {
	return presetJSON{ID: p.ID, Name: p.Name, Pitches: p.Pitches, Root: p.Root, CreatedAt: p.CreatedAt}
}

func newPresetsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "Manage saved pitch sets",
	}
	cmd.AddCommand(newPresetsListCommand(ctx))
	cmd.AddCommand(newPresetsSaveCommand(ctx))
	cmd.AddCommand(newPresetsDeleteCommand(ctx))
	return cmd
}

func newPresetsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved presets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *services.Orchestrator) error {
				presets, err := svc.ListPresets(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					out := make([]presetJSON, len(presets))
					for i, p := range presets {
						out[i] = toPresetJSON(p)
					}
					return writeJSON(cmd, out)
				}
				if len(presets) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No presets saved")
					return nil
				}
				rows := make([][]string, 0, len(presets))
				for _, p := range presets {
					rows = append(rows, []string{
						p.ID,
						p.Name,
						strings.Join(p.Pitches, " "),
						displayRoot(p.Root),
						p.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
					{title: "ID"},
					{title: "Name"},
					{title: "Pitches"},
					{title: "Root"},
					{title: "Created"},
				}, rows))
				n, err := svc.PresetCount(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d of %d presets stored\n", n, domain.MaxPresets)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newPresetsSaveCommand(ctx *commandContext) *cobra.Command {
	var (
		pitches []string
		root    string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save a named pitch set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *services.Orchestrator) error {
				p, err := svc.CreatePreset(cmd.Context(), args[0], pitches, root)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, toPresetJSON(p))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved preset %s (%s)\n", p.Name, p.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&pitches, "pitch", "p", nil, "Pitch in the set (repeatable or comma separated)")
	cmd.Flags().StringVarP(&root, "root", "r", "", "Optional tonic")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newPresetsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *services.Orchestrator) error {
				if err := svc.DeletePreset(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted preset %s\n", args[0])
				return nil
			})
		},
	}
}
