package output

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// TabWriter writes results in tab-delimited format, one line per variant.
// Members of a compound-het pair share a pair number.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
	pairs   int
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#variant_id",
			"xpos",
			"families",
			"compound_het_pair",
			"gene",
			"transcript",
			"consequence",
			"hgvsc",
			"hgvsp",
			"clinvar",
			"hgmd",
			"gnomad_genomes_af",
			"genotypes",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes every variant of a record.
func (tw *TabWriter) Write(rec Record) error {
	pair := "-"
	if rec.Pair != nil {
		tw.pairs++
		pair = strconv.Itoa(tw.pairs)
	}
	for _, v := range rec.Variants() {
		if err := tw.writeVariant(v, pair); err != nil {
			return err
		}
	}
	return nil
}

func (tw *TabWriter) writeVariant(v *Variant, pair string) error {
	// Selected transcript
	gene, transcript, consequence, hgvsc, hgvsp := "-", "-", "-", "-", "-"
	for geneID, ts := range v.Transcripts {
		for _, t := range ts {
			if t.TranscriptID != v.SelectedMainTranscriptID {
				continue
			}
			gene = geneID
			transcript = t.TranscriptID
			consequence = orDash(t.MajorConsequence)
			hgvsc = orDash(t.HGVSc)
			hgvsp = orDash(t.HGVSp)
		}
	}

	clinvar := "-"
	if v.ClinVar != nil {
		clinvar = v.ClinVar.ClinicalSignificance
	}
	hgmd := "-"
	if v.HGMD != nil {
		hgmd = v.HGMD.Class
	}
	af := "-"
	if pop, ok := v.Populations["gnomad_genomes"]; ok && pop.AF != nil {
		af = strconv.FormatFloat(*pop.AF, 'g', -1, 64)
	}

	// Genotypes as guid:num_alt, sorted by guid
	guids := make([]string, 0, len(v.Genotypes))
	for guid := range v.Genotypes {
		guids = append(guids, guid)
	}
	sort.Strings(guids)
	genotypes := make([]string, len(guids))
	for i, guid := range guids {
		genotypes[i] = fmt.Sprintf("%s:%d", guid, v.Genotypes[guid].NumAlt)
	}

	values := []string{
		v.VariantID,
		strconv.FormatInt(v.Xpos, 10),
		orDash(strings.Join(v.FamilyGuids, ",")),
		pair,
		gene,
		transcript,
		consequence,
		hgvsc,
		hgvsp,
		clinvar,
		hgmd,
		af,
		orDash(strings.Join(genotypes, ",")),
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
