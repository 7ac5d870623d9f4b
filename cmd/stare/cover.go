package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/politic-in/stare/cover"
	"github.com/politic-in/stare/data"
	setalgebra "github.com/politic-in/stare/set-algebra"
	"github.com/politic-in/stare/sid"
	"github.com/politic-in/stare/types"
)

func coverConfig(sc *SubCommand) cover.Config {
	cfg := cover.DefaultConfig()
	cfg.Level = sc.Conf.GetInt("level")
	cfg.Convex = sc.Conf.GetBool("convex")
	cfg.ForceCCW = sc.Conf.GetBool("force_ccw")
	cfg.Workers = sc.Conf.GetInt("workers")
	return cfg
}

func addCoverFlags(sc *SubCommand) {
	f := sc.Cmd.Flags()
	f.Int("level", cover.DefaultLevel, "Finest cover level.")
	f.Bool("convex", false, "Cover the convex hull of each ring.")
	f.Bool("force_ccw", true, "Reverse clockwise rings instead of covering their complement.")
}

// coveredRegion is the JSON form of one cover
type coveredRegion struct {
	ID    string  `json:"id"`
	Name  string  `json:"name,omitempty"`
	Cover []int64 `json:"cover"`
}

func coverCmd() *SubCommand {
	sc := newSubCommand(&cobra.Command{
		Use:   "cover [lat,lon ...]",
		Short: "Cover a ring or the polygons of a GeoJSON file with SIDs",
		Long: `Cover computes the multi-resolution SID cover of a ring given as lat,lon
vertices, or of every Polygon and MultiPolygon feature in --geojson. The ring is
implicitly closed. Covers never under-cover the region.`,
	})
	sc.Cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg := coverConfig(sc)
		start := time.Now()

		var results []coveredRegion
		if path := sc.Conf.GetString("geojson"); path != "" {
			regions, err := data.LoadRegions(path, data.Bindings{
				IDProperty:   sc.Conf.GetString("id_property"),
				NameProperty: sc.Conf.GetString("name_property"),
			})
			if err != nil {
				return err
			}
			for _, r := range regions {
				cells, err := cover.Geometry(r.Geometry, cfg)
				if err != nil {
					return errors.Wrapf(err, "region %s", r.ID)
				}
				if results, err = appendCover(sc, results, r.ID, r.Name, cells); err != nil {
					return err
				}
			}
		} else {
			ring := make([]types.LatLon, len(args))
			for i, tok := range args {
				ll, err := parseLatLon(tok)
				if err != nil {
					return err
				}
				ring[i] = ll
			}
			cells, err := cover.Ring(ring, cfg)
			if err != nil {
				return err
			}
			if results, err = appendCover(sc, results, "ring", "", cells); err != nil {
				return err
			}
		}

		var total int64
		for _, r := range results {
			total += int64(len(r.Cover))
		}
		glog.Infof("covered %s regions with %s cells at level %d in %s",
			humanize.Comma(int64(len(results))), humanize.Comma(total), cfg.Level, time.Since(start).Round(time.Millisecond))

		w := cmd.OutOrStdout()
		if jsonOutput(sc) {
			return writeJSON(w, results)
		}
		if len(results) == 1 && sc.Conf.GetString("geojson") == "" {
			return writeSIDs(sc, sidsOf(results[0].Cover))
		}
		for _, r := range results {
			parts := make([]string, len(r.Cover))
			for i, v := range r.Cover {
				parts[i] = fmt.Sprint(v)
			}
			fmt.Fprintf(w, "%s: %s\n", r.ID, strings.Join(parts, " "))
		}
		return nil
	}
	addCoverFlags(sc)
	f := sc.Cmd.Flags()
	f.Bool("dissolve", true, "Dissolve each cover into its most compact form.")
	f.String("geojson", "", "Cover the polygon features of this GeoJSON FeatureCollection.")
	f.String("id_property", "id", "Feature property holding the region ID.")
	f.String("name_property", "name", "Feature property holding the region name.")
	return sc
}

func appendCover(sc *SubCommand, out []coveredRegion, id, name string, cells []sid.SID) ([]coveredRegion, error) {
	if sc.Conf.GetBool("dissolve") {
		var err error
		if cells, err = setalgebra.Dissolve(cells); err != nil {
			return nil, err
		}
	}
	return append(out, coveredRegion{ID: id, Name: name, Cover: sid.ToInt64s(cells)}), nil
}

func sidsOf(values []int64) []sid.SID {
	out := make([]sid.SID, len(values))
	for i, v := range values {
		out[i] = sid.SID(v)
	}
	return out
}
