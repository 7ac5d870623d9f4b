package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/politic-in/stare/sid"
	"github.com/politic-in/stare/types"
)

// readTokens returns args, or the whitespace separated tokens of the file
// named by from ("-" is stdin) when args is empty.
func readTokens(cmd *cobra.Command, args []string, from string) ([]string, error) {
	if len(args) > 0 || from == "" {
		return args, nil
	}
	var r io.Reader = cmd.InOrStdin()
	if from != "-" {
		f, err := os.Open(from)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var out []string
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, errors.Wrapf(sc.Err(), "reading %s", from)
}

// parseSIDs accepts decimal or 0x-prefixed hexadecimal integers. Negative
// values are the missing-data sentinel and are rejected.
func parseSIDs(tokens []string) ([]sid.SID, error) {
	values := make([]int64, len(tokens))
	for i, tok := range tokens {
		v, err := cast.ToInt64E(tok)
		if err != nil {
			return nil, errors.Wrapf(types.ErrInvalidSID, "%q", tok)
		}
		values[i] = v
	}
	sids, err := sid.FromInt64s(values)
	if err != nil {
		return nil, err
	}
	return sids, sid.ValidateAll(sids)
}

// parseLatLon parses "lat,lon".
func parseLatLon(tok string) (types.LatLon, error) {
	parts := strings.Split(tok, ",")
	if len(parts) != 2 {
		return types.LatLon{}, errors.Wrapf(types.ErrInvalidCoordinates, "%q is not lat,lon", tok)
	}
	lat, err := cast.ToFloat64E(strings.TrimSpace(parts[0]))
	if err != nil {
		return types.LatLon{}, errors.Wrapf(types.ErrInvalidCoordinates, "%q", tok)
	}
	lon, err := cast.ToFloat64E(strings.TrimSpace(parts[1]))
	if err != nil {
		return types.LatLon{}, errors.Wrapf(types.ErrInvalidCoordinates, "%q", tok)
	}
	return types.LatLon{Lat: lat, Lon: lon}, nil
}

func jsonOutput(sc *SubCommand) bool {
	return sc.Conf.GetString("format") == "json"
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeSIDs prints one SID per line, or a JSON array of integers.
func writeSIDs(sc *SubCommand, sids []sid.SID) error {
	w := sc.Cmd.OutOrStdout()
	if jsonOutput(sc) {
		return writeJSON(w, sid.ToInt64s(sids))
	}
	for _, s := range sids {
		if _, err := fmt.Fprintln(w, int64(s)); err != nil {
			return err
		}
	}
	return nil
}
