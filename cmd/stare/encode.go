package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/politic-in/stare/sid"
)

func encodeCmd() *SubCommand {
	sc := newSubCommand(&cobra.Command{
		Use:   "encode [lat,lon ...]",
		Short: "Encode coordinates into SIDs",
		Long: `Encode maps each lat,lon pair to the SID of the trixel containing it. With
--adaptive each point gets the finest level its spacing to the nearest other
point supports, capped at --level.`,
	})
	sc.Cmd.RunE = func(cmd *cobra.Command, args []string) error {
		tokens, err := readTokens(cmd, args, sc.Conf.GetString("in"))
		if err != nil {
			return err
		}
		lats := make([]float64, len(tokens))
		lons := make([]float64, len(tokens))
		for i, tok := range tokens {
			ll, err := parseLatLon(tok)
			if err != nil {
				return err
			}
			lats[i], lons[i] = ll.Lat, ll.Lon
		}

		level := sc.Conf.GetInt("level")
		var sids []sid.SID
		if sc.Conf.GetBool("adaptive") {
			sids, err = sid.EncodeAdaptive(lats, lons, level)
		} else {
			sids, err = sid.EncodePoints(lats, lons, level)
		}
		if err != nil {
			return err
		}
		return writeSIDs(sc, sids)
	}
	f := sc.Cmd.Flags()
	f.Int("level", sid.MaxLevel, "Encoding level (maximum level with --adaptive).")
	f.Bool("adaptive", false, "Pick each point's level from its spacing to its neighbours.")
	f.String("in", "", "Read lat,lon pairs from this file (- for stdin) instead of arguments.")
	return sc
}

// decoded is the JSON form of a decoded SID
type decoded struct {
	SID       int64      `json:"sid"`
	Hex       string     `json:"hex"`
	Level     int        `json:"level"`
	Path      []int      `json:"path"`
	Lats      [3]float64 `json:"corner_lats"`
	Lons      [3]float64 `json:"corner_lons"`
	CenterLat float64    `json:"center_lat"`
	CenterLon float64    `json:"center_lon"`
}

func decodeCmd() *SubCommand {
	sc := newSubCommand(&cobra.Command{
		Use:   "decode [sid ...]",
		Short: "Decode SIDs into trixel corners and centers",
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
		if level := sc.Conf.GetInt("level"); level >= 0 {
			for i, s := range sids {
				if sids[i], err = sid.CoerceToLevel(s, level); err != nil {
					return err
				}
			}
		}

		out := make([]decoded, len(sids))
		for i, s := range sids {
			v, err := sid.DecodeToVertices(s)
			if err != nil {
				return err
			}
			out[i] = decoded{
				SID: int64(s), Hex: s.Hex(), Level: s.Level(), Path: s.Path(),
				Lats: v.Lats, Lons: v.Lons, CenterLat: v.CenterLat, CenterLon: v.CenterLon,
			}
		}

		w := cmd.OutOrStdout()
		if jsonOutput(sc) {
			return writeJSON(w, out)
		}
		for _, d := range out {
			fmt.Fprintf(w, "%d %s level=%d center=(%.6f, %.6f) corners=[(%.6f, %.6f) (%.6f, %.6f) (%.6f, %.6f)]\n",
				d.SID, d.Hex, d.Level, d.CenterLat, d.CenterLon,
				d.Lats[0], d.Lons[0], d.Lats[1], d.Lons[1], d.Lats[2], d.Lons[2])
		}
		return nil
	}
	f := sc.Cmd.Flags()
	f.Int("level", -1, "Coerce every SID to this level before decoding (-1 keeps the encoded level).")
	f.String("in", "", "Read SIDs from this file (- for stdin) instead of arguments.")
	return sc
}
