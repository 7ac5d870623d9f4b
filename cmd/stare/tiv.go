package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/politic-in/stare/tiv"
	"github.com/politic-in/stare/types"
)

var resolutionNames = map[string]int{
	"year":        tiv.ResolutionYear,
	"month":       tiv.ResolutionMonth,
	"day":         tiv.ResolutionDay,
	"hour":        tiv.ResolutionHour,
	"minute":      tiv.ResolutionMinute,
	"second":      tiv.ResolutionSecond,
	"millisecond": tiv.ResolutionMillisecond,
}

// parseResolution accepts a resolution number or a field name such as "day".
func parseResolution(s string) (int, error) {
	if r, ok := resolutionNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return r, nil
	}
	r, err := cast.ToIntE(s)
	if err != nil {
		return 0, errors.Wrapf(types.ErrInvalidInput, "resolution %q", s)
	}
	return r, nil
}

// decodedTIV is the JSON form of a decoded TIV
type decodedTIV struct {
	TIV     int64     `json:"tiv"`
	Lower   time.Time `json:"lower"`
	Center  time.Time `json:"center"`
	Upper   time.Time `json:"upper"`
	Forward int       `json:"forward_resolution"`
	Reverse int       `json:"reverse_resolution"`
}

func tivCmd() *SubCommand {
	sc := newSubCommand(&cobra.Command{
		Use:   "tiv [instant|tiv ...]",
		Short: "Encode instants into temporal index values, or decode them",
		Long: `Tiv encodes RFC 3339 instants into TIVs. The interval around each instant is
given either as resolutions (--forward, --reverse: a number or one of year,
month, day, hour, minute, second, millisecond) or as half-widths (--before,
--after: Go durations such as 36h). With --decode the arguments are TIVs and
their intervals are printed.`,
	})
	sc.Cmd.RunE = func(cmd *cobra.Command, args []string) error {
		tokens, err := readTokens(cmd, args, sc.Conf.GetString("in"))
		if err != nil {
			return err
		}
		if sc.Conf.GetBool("decode") {
			return decodeTIVs(sc, tokens)
		}

		before, after := sc.Conf.GetString("before"), sc.Conf.GetString("after")
		fwd, err := parseResolution(sc.Conf.GetString("forward"))
		if err != nil {
			return err
		}
		rev, err := parseResolution(sc.Conf.GetString("reverse"))
		if err != nil {
			return err
		}

		values := make([]int64, len(tokens))
		for i, tok := range tokens {
			t, err := time.Parse(time.RFC3339Nano, tok)
			if err != nil {
				return errors.Wrapf(types.ErrInvalidInput, "instant %q: %v", tok, err)
			}
			var v tiv.TIV
			if before != "" || after != "" {
				b, err := cast.ToDurationE(orZero(before))
				if err != nil {
					return errors.Wrapf(types.ErrInvalidInput, "--before: %v", err)
				}
				a, err := cast.ToDurationE(orZero(after))
				if err != nil {
					return errors.Wrapf(types.ErrInvalidInput, "--after: %v", err)
				}
				v, err = tiv.FromTriple(t.Add(-b), t, t.Add(a))
				if err != nil {
					return err
				}
			} else if v, err = tiv.FromTime(t, fwd, rev); err != nil {
				return err
			}
			values[i] = int64(v)
		}

		w := cmd.OutOrStdout()
		if jsonOutput(sc) {
			return writeJSON(w, values)
		}
		for _, v := range values {
			fmt.Fprintf(w, "%d %s\n", v, tiv.TIV(v))
		}
		return nil
	}
	f := sc.Cmd.Flags()
	f.Bool("decode", false, "Decode TIVs instead of encoding instants.")
	f.String("forward", "millisecond", "Forward resolution.")
	f.String("reverse", "millisecond", "Reverse resolution.")
	f.String("before", "", "Half-width before the instant; overrides --reverse.")
	f.String("after", "", "Half-width after the instant; overrides --forward.")
	f.String("in", "", "Read values from this file (- for stdin) instead of arguments.")
	return sc
}

func orZero(d string) string {
	if d == "" {
		return "0s"
	}
	return d
}

func decodeTIVs(sc *SubCommand, tokens []string) error {
	values := make([]int64, len(tokens))
	for i, tok := range tokens {
		v, err := cast.ToInt64E(tok)
		if err != nil {
			return errors.Wrapf(types.ErrInvalidTIV, "%q", tok)
		}
		values[i] = v
	}
	tivs, err := tiv.FromInt64s(values)
	if err != nil {
		return err
	}

	out := make([]decodedTIV, len(tivs))
	for i, v := range tivs {
		lower, center, upper, err := tiv.ToTriple(v)
		if err != nil {
			return errors.Wrapf(err, "tiv %d", i)
		}
		out[i] = decodedTIV{
			TIV: int64(v), Lower: lower, Center: center, Upper: upper,
			Forward: v.ForwardResolution(), Reverse: v.ReverseResolution(),
		}
	}

	w := sc.Cmd.OutOrStdout()
	if jsonOutput(sc) {
		return writeJSON(w, out)
	}
	const layout = "2006-01-02T15:04:05.000Z07:00"
	for _, d := range out {
		fmt.Fprintf(w, "%d %s %s %s\n", d.TIV, d.Lower.Format(layout), d.Center.Format(layout), d.Upper.Format(layout))
	}
	return nil
}
