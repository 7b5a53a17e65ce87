package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"facewarp/internal/landmarks"
	"facewarp/internal/zones"
)

type zoneRow struct {
	ID        string         `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name"`
	Group     zones.Group    `json:"group" yaml:"group"`
	Behavior  zones.Behavior `json:"behavior" yaml:"behavior"`
	Region    zones.Region   `json:"region" yaml:"region"`
	Landmarks int            `json:"landmarks" yaml:"landmarks"`
}

// NewZonesCmd lists the zone registry, optionally aligned to a landmark file.
func NewZonesCmd() *cobra.Command {
	var format, lmPath string
	cmd := &cobra.Command{
		Use:   "zones",
		Short: "List facial zones and their regions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var set landmarks.Set
			if lmPath != "" {
				var err error
				if set, err = landmarks.ReadFile(lmPath); err != nil {
					return err
				}
			}
			rows := make([]zoneRow, 0)
			for _, d := range zones.All() {
				rows = append(rows, zoneRow{
					ID:        d.ID,
					Name:      d.Name,
					Group:     d.Group,
					Behavior:  d.Behavior,
					Region:    zones.Align(d, set),
					Landmarks: len(d.Landmarks),
				})
			}
			return writeZones(cmd.OutOrStdout(), format, rows)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, json, yaml")
	cmd.Flags().StringVar(&lmPath, "landmarks", "", "landmark file to align the regions to")
	return cmd
}

func writeZones(w io.Writer, format string, rows []zoneRow) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tGROUP\tBEHAVIOR\tCX\tCY\tRX\tRY\tLANDMARKS")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.3f\t%.3f\t%.3f\t%.3f\t%d\n",
				r.ID, r.Group, r.Behavior, r.Region.CX, r.Region.CY, r.Region.RX, r.Region.RY, r.Landmarks)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("cli: unknown format %q", format)
	}
}
