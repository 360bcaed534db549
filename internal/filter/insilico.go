package filter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/inodb/vibe-search/internal/search"
	"github.com/inodb/vibe-search/internal/variant"
)

// Predictors maps in-silico predictor names to whether they are categorical.
var Predictors = map[string]bool{
	"alphamissense":         false,
	"cadd":                  false,
	"eigen":                 false,
	"fathmm":                true,
	"gnomad_noncoding":      false,
	"mpc":                   false,
	"mut_pred":              false,
	"mut_taster":            true,
	"polyphen":              true,
	"primate_ai":            false,
	"revel":                 false,
	"sift":                  true,
	"splice_ai":             false,
	"splice_ai_consequence": true,
	"vest":                  false,
}

// buildInSilico passes rows where any requested predictor meets its
// threshold. Unless a score is required, rows missing every requested
// predictor also pass.
func buildInSilico(c *search.Criteria) (Expr, error) {
	names := make([]string, 0, len(c.InSilico.Thresholds))
	for name := range c.InSilico.Thresholds {
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, nil
	}
	sort.Strings(names)

	var members []Expr
	for _, name := range names {
		e, err := predictorLeaf(name, c.InSilico.Thresholds[name])
		if err != nil {
			return nil, err
		}
		members = append(members, e)
	}
	if !c.InSilico.RequireScore {
		members = append(members, Leaf("in_silico:all_missing", func(r *variant.Row) bool {
			for _, name := range names {
				if hasPrediction(r, name) {
					return false
				}
			}
			return true
		}))
	}
	return Or(members...), nil
}

func predictorLeaf(name, threshold string) (Expr, error) {
	categorical, ok := Predictors[name]
	if !ok {
		return nil, search.NewInvalidSearchError("unknown in silico predictor %q", name)
	}
	if categorical {
		allowed := make(map[string]bool)
		for _, v := range strings.Split(threshold, ",") {
			allowed[strings.TrimSpace(v)] = true
		}
		return Leaf("in_silico:"+name, func(r *variant.Row) bool {
			v, ok := r.Calls[name]
			return ok && allowed[v]
		}), nil
	}
	return scoreLeaf("in_silico:"+name, name, threshold)
}

func scoreLeaf(label, name, threshold string) (Expr, error) {
	cutoff, err := strconv.ParseFloat(threshold, 64)
	if err != nil {
		return nil, search.NewInvalidSearchError("invalid %s threshold %q", name, threshold)
	}
	return Leaf(label, func(r *variant.Row) bool {
		v, ok := r.Scores[name]
		return ok && v >= cutoff
	}), nil
}

func hasPrediction(r *variant.Row, name string) bool {
	if Predictors[name] {
		_, ok := r.Calls[name]
		return ok
	}
	_, ok := r.Scores[name]
	return ok
}
