package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	setalgebra "github.com/politic-in/stare/set-algebra"
	"github.com/politic-in/stare/sid"
	"github.com/politic-in/stare/types"
)

func dissolveCmd() *SubCommand {
	sc := newSubCommand(&cobra.Command{
		Use:   "dissolve [sid ...]",
		Short: "Merge complete sibling sets and drop redundant descendants",
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
		if level := sc.Conf.GetInt("expand"); level >= 0 {
			sids, err = setalgebra.Expand(sids, level)
		} else {
			sids, err = setalgebra.Dissolve(sids)
		}
		if err != nil {
			return err
		}
		return writeSIDs(sc, sids)
	}
	f := sc.Cmd.Flags()
	f.Int("expand", -1, "Instead of dissolving, rewrite the set at exactly this level.")
	f.String("in", "", "Read SIDs from this file (- for stdin) instead of arguments.")
	return sc
}

func intersectsCmd() *SubCommand {
	sc := newSubCommand(&cobra.Command{
		Use:   "intersects",
		Short: "Test or compute the overlap of two SID collections",
		Long: `Intersects compares the SIDs in --a with those in --b. Modes:
  each          one boolean per SID of a (default)
  any           a single boolean
  pairwise      a[i] against b[i]
  intersection  the overlapping cells, finer side kept`,
	})
	sc.Cmd.RunE = func(cmd *cobra.Command, args []string) error {
		a, err := readSIDFile(cmd, sc.Conf.GetString("a"))
		if err != nil {
			return errors.Wrap(err, "--a")
		}
		b, err := readSIDFile(cmd, sc.Conf.GetString("b"))
		if err != nil {
			return errors.Wrap(err, "--b")
		}
		method, err := setalgebra.ParseMethod(sc.Conf.GetString("method"))
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		switch mode := sc.Conf.GetString("mode"); mode {
		case "each", "pairwise":
			var hits []bool
			if mode == "each" {
				hits, err = setalgebra.Intersects(a, b, method)
			} else {
				hits, err = setalgebra.IntersectsPairwise(a, b)
			}
			if err != nil {
				return err
			}
			if jsonOutput(sc) {
				return writeJSON(w, hits)
			}
			for _, h := range hits {
				fmt.Fprintln(w, h)
			}
			return nil
		case "any":
			hit, err := setalgebra.IntersectsAny(a, b, method)
			if err != nil {
				return err
			}
			if jsonOutput(sc) {
				return writeJSON(w, hit)
			}
			_, err = fmt.Fprintln(w, hit)
			return err
		case "intersection":
			cells, err := setalgebra.Intersection(a, b, setalgebra.WithMultiResolution(sc.Conf.GetBool("multires")))
			if err != nil {
				return err
			}
			return writeSIDs(sc, cells)
		default:
			return errors.Wrapf(types.ErrInvalidInput, "unknown mode %q", mode)
		}
	}
	f := sc.Cmd.Flags()
	f.String("a", "", "File of SIDs (- for stdin).")
	f.String("b", "", "File of reference SIDs (- for stdin).")
	f.String("method", setalgebra.MethodBinarySearch.String(), "Search strategy, one of [linear, binsearch, nn].")
	f.String("mode", "each", "One of [each, any, pairwise, intersection].")
	f.Bool("multires", false, "Dissolve the intersection.")
	return sc
}

func readSIDFile(cmd *cobra.Command, path string) ([]sid.SID, error) {
	if path == "" {
		return nil, errors.Wrap(types.ErrInvalidInput, "no file given")
	}
	tokens, err := readTokens(cmd, nil, path)
	if err != nil {
		return nil, err
	}
	return parseSIDs(tokens)
}
