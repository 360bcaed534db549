package inheritance

import (
	"sort"

	"go.uber.org/zap"

	"github.com/inodb/vibe-search/internal/filter"
	"github.com/inodb/vibe-search/internal/pedigree"
	"github.com/inodb/vibe-search/internal/search"
	"github.com/inodb/vibe-search/internal/variant"
)

// User-facing validation messages.
const (
	MsgMissingMode       = "Inheritance must be specified if custom affected status is set"
	MsgNoAffectedData    = "Inheritance based search is disabled in families with no data loaded for affected individuals"
	MsgNoData            = "No data loaded for the requested families"
	MsgInvalidCustomMode = "Invalid custom inheritance"
)

// Member is an individual with a loaded sample for the searched dataset.
type Member struct {
	Individual *pedigree.Individual
	SampleID   string
	Affected   pedigree.AffectedStatus
}

// FamilyPlan is one family in the search scope.
type FamilyPlan struct {
	Family  *pedigree.Family
	Members []*Member
	custom  map[string]Category
}

func (f *FamilyPlan) member(guid string) *Member {
	for _, m := range f.Members {
		if m.Individual.Guid == guid {
			return m
		}
	}
	return nil
}

// Plan is the validated genotype filter for one search.
type Plan struct {
	Mode     string
	Families []*FamilyPlan
	Quality  Quality

	rules           []rule
	custom          bool
	qualityOverride filter.Expr
	logger          *zap.Logger
}

// NewPlan validates the inheritance criteria and scopes families. Families
// without loaded data are dropped, and under an inheritance search so are
// families without an affected member with data. qualityOverride, when set,
// exempts matching rows from the quality thresholds.
func NewPlan(c *search.Criteria, families []*pedigree.Family, qualityOverride filter.Expr) (*Plan, error) {
	p := &Plan{
		Mode:            c.InheritanceMode(),
		Quality:         NewQuality(c.QualityFilter),
		qualityOverride: qualityOverride,
		logger:          zap.NewNop(),
	}

	var overrides map[string]string
	var custom map[string]Category
	if inh := c.Inheritance; inh != nil {
		overrides = inh.Filter.Affected
		if p.Mode == "" && len(inh.Filter.Genotype) == 0 && inh.Filter.Affected != nil {
			return nil, search.NewInvalidSearchError(MsgMissingMode)
		}
		for guid, status := range inh.Filter.Affected {
			switch pedigree.AffectedStatus(status) {
			case pedigree.Affected, pedigree.Unaffected, pedigree.Unknown:
			default:
				return nil, search.NewInvalidSearchError("invalid affected status %q for %s", status, guid)
			}
		}
		if len(inh.Filter.Genotype) > 0 {
			p.custom = true
			custom = make(map[string]Category, len(inh.Filter.Genotype))
			for guid, g := range inh.Filter.Genotype {
				cat, err := ParseCategory(g)
				if err != nil {
					return nil, err
				}
				custom[guid] = cat
			}
		}
	}
	if p.Mode != "" {
		rules, ok := rulesFor(p.Mode)
		if !ok {
			return nil, search.NewInvalidSearchError("unknown inheritance mode %q", p.Mode)
		}
		p.rules = rules
	}

	inheritanceSearch := p.Mode != "" || p.custom
	hasData := false
	customUsed := false
	for _, fam := range families {
		status := fam.AffectedStatus(c.DatasetType, overrides)
		fp := &FamilyPlan{Family: fam, custom: custom}
		affected := 0
		for _, ind := range fam.WithData(c.DatasetType) {
			sampleID, _ := ind.SampleID(c.DatasetType)
			m := &Member{Individual: ind, SampleID: sampleID, Affected: status[ind.Guid]}
			if m.Affected == pedigree.Affected {
				affected++
			}
			if _, ok := custom[ind.Guid]; ok {
				customUsed = true
			}
			fp.Members = append(fp.Members, m)
		}
		if len(fp.Members) == 0 {
			continue
		}
		hasData = true
		if inheritanceSearch && affected == 0 {
			continue
		}
		p.Families = append(p.Families, fp)
	}

	switch {
	case !hasData:
		return nil, search.NewInvalidSearchError(MsgNoData)
	case len(p.Families) == 0:
		return nil, search.NewInvalidSearchError(MsgNoAffectedData)
	case p.custom && !customUsed:
		return nil, search.NewInvalidSearchError(MsgInvalidCustomMode)
	}
	return p, nil
}

// SetLogger sets the logger for genotype filtering.
func (p *Plan) SetLogger(l *zap.Logger) {
	p.logger = l
}

// FamilyGuids returns the guids of the families in scope.
func (p *Plan) FamilyGuids() []string {
	guids := make([]string, len(p.Families))
	for i, f := range p.Families {
		guids[i] = f.Family.Guid
	}
	return guids
}

// SampleIDs returns the distinct sample ids of the families in scope.
func (p *Plan) SampleIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, f := range p.Families {
		for _, m := range f.Members {
			if !seen[m.SampleID] {
				seen[m.SampleID] = true
				ids = append(ids, m.SampleID)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// IncludesSingles reports whether single-variant matches are searched.
func (p *Plan) IncludesSingles() bool {
	return p.custom || p.Mode != ModeCompoundHet
}

// IncludesCompoundHets reports whether compound-het pairs are searched.
func (p *Plan) IncludesCompoundHets() bool {
	return !p.custom && IncludesCompoundHets(p.Mode)
}

// Match is a row that passed the genotype filter in one or more families.
type Match struct {
	Row         *variant.Row
	FamilyGuids []string
	// Genotypes maps individual guid to the joined genotype.
	Genotypes map[string]variant.Genotype
}

func (m *Match) addFamily(f *FamilyPlan, gts *Genotypes) {
	m.FamilyGuids = append(m.FamilyGuids, f.Family.Guid)
	for _, mem := range f.Members {
		m.Genotypes[mem.Individual.Guid] = gts.Get(mem.SampleID, m.Row.ID)
	}
}

func newMatch(row *variant.Row) *Match {
	return &Match{Row: row, Genotypes: make(map[string]variant.Genotype)}
}

// Filter returns the rows that match the plan in at least one family, in
// input order.
func (p *Plan) Filter(rows []*variant.Row, gts *Genotypes) []*Match {
	var matches []*Match
	for _, row := range rows {
		var m *Match
		for _, f := range p.Families {
			if !p.familyMatches(f, row, gts) {
				continue
			}
			if m == nil {
				m = newMatch(row)
			}
			m.addFamily(f, gts)
		}
		if m != nil {
			matches = append(matches, m)
		}
	}
	p.logger.Debug("genotype filter",
		zap.String("mode", p.Mode),
		zap.Int("rows", len(rows)),
		zap.Int("matches", len(matches)))
	return matches
}

func (p *Plan) familyMatches(f *FamilyPlan, row *variant.Row, gts *Genotypes) bool {
	if !p.passesQuality(f, row, gts) {
		return false
	}
	switch {
	case p.custom:
		return hasAlt(f.Members, row, gts) && f.matchesCustom(row, gts)
	case p.Mode == ModeAnyAffected:
		return hasAlt(affectedMembers(f), row, gts)
	case p.Mode == "":
		members := f.Members
		if p.Quality.AffectedOnly {
			members = affectedMembers(f)
		}
		return hasAlt(members, row, gts)
	}
	for _, r := range p.rules {
		if f.matchesRule(r, row, gts) {
			return true
		}
	}
	return false
}

func (p *Plan) passesQuality(f *FamilyPlan, row *variant.Row, gts *Genotypes) bool {
	if p.Quality.IsEmpty() {
		return true
	}
	if p.qualityOverride != nil && p.qualityOverride.Eval(row) {
		return true
	}
	for _, m := range f.Members {
		if p.Quality.AffectedOnly && m.Affected != pedigree.Affected {
			continue
		}
		if !p.Quality.Passes(gts.Get(m.SampleID, row.ID)) {
			return false
		}
	}
	return true
}

func (f *FamilyPlan) matchesRule(r rule, row *variant.Row, gts *Genotypes) bool {
	if !r.applies(row) {
		return false
	}
	for _, m := range f.Members {
		cat := r.category(m)
		if cat == "" {
			continue
		}
		if !cat.Matches(gts.Get(m.SampleID, row.ID)) {
			return false
		}
	}
	return hasAlt(f.Members, row, gts)
}

func (f *FamilyPlan) matchesCustom(row *variant.Row, gts *Genotypes) bool {
	for _, m := range f.Members {
		cat, ok := f.custom[m.Individual.Guid]
		if !ok {
			continue
		}
		if !cat.Matches(gts.Get(m.SampleID, row.ID)) {
			return false
		}
	}
	return true
}

func affectedMembers(f *FamilyPlan) []*Member {
	var out []*Member
	for _, m := range f.Members {
		if m.Affected == pedigree.Affected {
			out = append(out, m)
		}
	}
	return out
}

func hasAlt(members []*Member, row *variant.Row, gts *Genotypes) bool {
	for _, m := range members {
		if gts.Get(m.SampleID, row.ID).HasAlt() {
			return true
		}
	}
	return false
}
