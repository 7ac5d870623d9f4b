package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/politic-in/stare/trixel"
	"github.com/politic-in/stare/types"
)

func trixelsCmd() *SubCommand {
	sc := newSubCommand(&cobra.Command{
		Use:   "trixels [sid ...]",
		Short: "Render trixel geometry",
		Long: `Trixels prints the geometry of each SID. Kinds:
  corners  (lon, lat) corners (default)
  centers  (lon, lat) centroids
  ecef     unit-vector corners
  gring    great-circle edge normals
  geojson  a FeatureCollection, antimeridian trixels split when --wrap_lon is set`,
	})
	sc.Cmd.RunE = func(cmd *cobra.Command, args []string) error {
		tokens, err := readTokens(cmd, args, sc.Conf.GetString("in"))
		if err != nil {
			return err
		}
		sids, err := parseSIDs(tokens)
		if err != nil {
			return err
		}
		wrapLon := sc.Conf.GetBool("wrap_lon")

		var out interface{}
		switch kind := sc.Conf.GetString("kind"); kind {
		case "corners":
			out, err = trixel.Corners(sids, wrapLon)
		case "centers":
			out, err = trixel.Centers(sids)
		case "ecef":
			out, err = trixel.CornersECEF(sids)
		case "gring":
			out, err = trixel.GRing(sids)
		case "geojson":
			out, err = trixel.FeatureCollection(sids, wrapLon)
		default:
			return errors.Wrapf(types.ErrInvalidInput, "unknown kind %q", kind)
		}
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if jsonOutput(sc) || sc.Conf.GetString("kind") == "geojson" {
			return writeJSON(w, out)
		}
		switch v := out.(type) {
		case [][3][2]float64:
			for i, c := range v {
				fmt.Fprintf(w, "%d %v\n", int64(sids[i]), c)
			}
		case [][2]float64:
			for i, c := range v {
				fmt.Fprintf(w, "%d %v\n", int64(sids[i]), c)
			}
		case [][3][3]float64:
			for i, c := range v {
				fmt.Fprintf(w, "%d %v\n", int64(sids[i]), c)
			}
		}
		return nil
	}
	f := sc.Cmd.Flags()
	f.String("kind", "corners", "One of [corners, centers, ecef, gring, geojson].")
	f.Bool("wrap_lon", true, "Fold longitudes above 180 back into (-180, 180].")
	f.String("in", "", "Read SIDs from this file (- for stdin) instead of arguments.")
	return sc
}
