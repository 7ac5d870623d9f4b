package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/politic-in/stare/data"
	"github.com/politic-in/stare/types"
)

// regionHit is the JSON form of one lookup result
type regionHit struct {
	ID         string  `json:"id"`
	Name       string  `json:"name,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	MatchType  string  `json:"match_type,omitempty"`
}

func regionsCmd() *SubCommand {
	sc := newSubCommand(&cobra.Command{
		Use:   "regions <file.geojson>",
		Short: "Load a region catalog and query it",
		Long: `Regions loads the polygon features of a GeoJSON FeatureCollection into a
SID-backed catalog and answers one query: the regions containing --at, the
regions whose names best match --name, the regions overlapping the H3 cell
--h3, or catalog statistics with --stats.`,
		Args: cobra.ExactArgs(1),
	})
	sc.Cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg := data.DefaultConfig()
		cfg.Bindings.IDProperty = sc.Conf.GetString("id_property")
		cfg.Bindings.NameProperty = sc.Conf.GetString("name_property")
		cfg.Cover = coverConfig(sc)
		cfg.Exact = !sc.Conf.GetBool("cover_only")
		cfg.Workers = sc.Conf.GetInt("workers")

		start := time.Now()
		ix := data.NewRegionIndex(cfg)
		n, err := ix.LoadFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		glog.Infof("loaded %s regions from %s in %s", humanize.Comma(int64(n)), args[0],
			time.Since(start).Round(time.Millisecond))

		w := cmd.OutOrStdout()
		var hits []regionHit
		switch {
		case sc.Conf.GetBool("stats"):
			return writeStats(sc, w, ix.Stats())
		case sc.Conf.GetString("at") != "":
			ll, err := parseLatLon(sc.Conf.GetString("at"))
			if err != nil {
				return err
			}
			found, err := ix.FindAtPoint(ll.Lat, ll.Lon)
			if err != nil {
				return err
			}
			hits = regionHits(found)
		case sc.Conf.GetString("h3") != "":
			found, err := ix.FindByH3Cell(sc.Conf.GetString("h3"))
			if err != nil {
				return err
			}
			hits = regionHits(found)
		case sc.Conf.GetString("name") != "":
			matches, err := ix.FindByName(sc.Conf.GetString("name"), sc.Conf.GetInt("limit"))
			if err != nil {
				return err
			}
			for _, m := range matches {
				hits = append(hits, regionHit{
					ID: m.Region.ID, Name: m.Region.Name,
					Confidence: m.Confidence, MatchType: m.MatchType,
				})
			}
		default:
			return errors.Wrap(types.ErrInvalidInput, "one of --at, --name, --h3 or --stats is required")
		}

		if jsonOutput(sc) {
			if hits == nil {
				hits = []regionHit{}
			}
			return writeJSON(w, hits)
		}
		for _, h := range hits {
			if h.MatchType != "" {
				fmt.Fprintf(w, "%s\t%s\t%.3f %s\n", h.ID, h.Name, h.Confidence, h.MatchType)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\n", h.ID, h.Name)
		}
		return nil
	}
	addCoverFlags(sc)
	f := sc.Cmd.Flags()
	f.String("id_property", "id", "Feature property holding the region ID.")
	f.String("name_property", "name", "Feature property holding the region name.")
	f.Bool("cover_only", false, "Answer point lookups from the SID cover alone, without the boundary test.")
	f.String("at", "", "Find the regions containing this lat,lon point.")
	f.String("name", "", "Find the regions whose names best match this query.")
	f.Int("limit", data.DefaultCandidateLimit, "Maximum number of name matches.")
	f.String("h3", "", "Find the regions overlapping this H3 cell.")
	f.Bool("stats", false, "Print catalog statistics.")
	return sc
}

func regionHits(rs []*data.Region) []regionHit {
	out := make([]regionHit, len(rs))
	for i, r := range rs {
		out[i] = regionHit{ID: r.ID, Name: r.Name}
	}
	return out
}

func writeStats(sc *SubCommand, w io.Writer, st data.IndexStats) error {
	if jsonOutput(sc) {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "regions: %s (%s named)\n", humanize.Comma(int64(st.Regions)), humanize.Comma(int64(st.NamedRegions)))
	fmt.Fprintf(w, "cells:   %s\n", humanize.Comma(int64(st.Cells)))
	levels := make([]int, 0, len(st.CellsByLevel))
	for l := range st.CellsByLevel {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	for _, l := range levels {
		fmt.Fprintf(w, "  level %2d: %s\n", l, humanize.Comma(int64(st.CellsByLevel[l])))
	}
	return nil
}
