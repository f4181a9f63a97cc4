package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/mapexport/internal/config"
	"github.com/kiesman99/mapexport/internal/export"
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Show the zoom level and image size chosen for a bounding box",
	Long: `Print the automatically chosen zoom level for a bounding box together with
the image size at every selectable level of detail.

Examples:
  mapexport params --bbox 13.3,52.45,13.5,52.55

  # Machine readable
  mapexport params --bbox 170,-20,-170,-10 --json`,
	Args: cobra.NoArgs,
	RunE: runParams,
}

func init() {
	rootCmd.AddCommand(paramsCmd)

	paramsCmd.Flags().String("bbox", "", "bounding box as 'min-lon,min-lat,max-lon,max-lat' (required)")
	paramsCmd.Flags().Bool("json", false, "print JSON")
	paramsCmd.MarkFlagRequired("bbox")
}

func runParams(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	raw, _ := cmd.Flags().GetString("bbox")
	bounds, err := parseBBox(raw)
	if err != nil {
		return err
	}
	if err := checkBounds(bounds); err != nil {
		return err
	}

	p := export.OptimalParams(bounds)
	levels := export.DetailLevels(p, cfg.Tiles.MinZoom, cfg.Tiles.MaxZoom)

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			export.Params
			Details []export.Detail `json:"details"`
		}{p, levels})
	}

	fmt.Fprintf(out, "Bounding box:  %s\n", bounds)
	fmt.Fprintf(out, "Optimal zoom:  %d (%.0fx%.0f px)\n\n", p.Zoom, p.XResolution, p.YResolution)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DETAIL\tZOOM\tSIZE\tSCALE\tAVAILABLE")
	for _, d := range levels {
		fmt.Fprintf(tw, "%+d\t%d\t%dx%d\t%gx\t%t\n", d.Offset, d.Zoom, d.XResolution, d.YResolution, d.Scale, d.Available)
	}
	return tw.Flush()
}
