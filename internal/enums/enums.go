// Package enums holds the fixed, ordered vocabularies used by the variant
// datasets. Terms are stored on rows as integer ids; ids follow declaration
// order so that semantically ordered categories occupy contiguous ranges.
package enums

// Category names.
const (
	CategoryConsequence = "consequence"
	CategoryClinVar     = "clinvar"
	CategoryHGMD        = "hgmd"
	CategorySCREEN      = "screen"
)

// Impact levels for variant consequences.
const (
	ImpactHigh     = "HIGH"
	ImpactModerate = "MODERATE"
	ImpactLow      = "LOW"
	ImpactModifier = "MODIFIER"
)

// Consequence terms (Sequence Ontology), most severe first.
const (
	ConsequenceTranscriptAblation      = "transcript_ablation"
	ConsequenceSpliceAcceptor          = "splice_acceptor_variant"
	ConsequenceSpliceDonor             = "splice_donor_variant"
	ConsequenceStopGained              = "stop_gained"
	ConsequenceFrameshiftVariant       = "frameshift_variant"
	ConsequenceStopLost                = "stop_lost"
	ConsequenceStartLost               = "start_lost"
	ConsequenceInframeInsertion        = "inframe_insertion"
	ConsequenceInframeDeletion         = "inframe_deletion"
	ConsequenceMissenseVariant         = "missense_variant"
	ConsequenceProteinAltering         = "protein_altering_variant"
	ConsequenceSpliceDonor5thBase      = "splice_donor_5th_base_variant"
	ConsequenceSpliceRegion            = "splice_region_variant"
	ConsequenceSpliceDonorRegion       = "splice_donor_region_variant"
	ConsequenceSplicePolypyrimidine    = "splice_polypyrimidine_tract_variant"
	ConsequenceIncompleteTerminalCodon = "incomplete_terminal_codon_variant"
	ConsequenceStartRetained           = "start_retained_variant"
	ConsequenceStopRetained            = "stop_retained_variant"
	ConsequenceSynonymousVariant       = "synonymous_variant"
	ConsequenceCodingSequenceVariant   = "coding_sequence_variant"
	ConsequenceMatureMiRNA             = "mature_miRNA_variant"
	Consequence5PrimeUTR               = "5_prime_UTR_variant"
	Consequence3PrimeUTR               = "3_prime_UTR_variant"
	ConsequenceNonCodingExon           = "non_coding_transcript_exon_variant"
	ConsequenceIntronVariant           = "intron_variant"
	ConsequenceNMDTranscript           = "NMD_transcript_variant"
	ConsequenceNonCodingTranscript     = "non_coding_transcript_variant"
	ConsequenceCodingTranscript        = "coding_transcript_variant"
	ConsequenceUpstreamGene            = "upstream_gene_variant"
	ConsequenceDownstreamGene          = "downstream_gene_variant"
	ConsequenceIntergenicVariant       = "intergenic_variant"
	ConsequenceSequenceVariant         = "sequence_variant"
)

var consequenceTerms = []string{
	ConsequenceTranscriptAblation,
	ConsequenceSpliceAcceptor,
	ConsequenceSpliceDonor,
	ConsequenceStopGained,
	ConsequenceFrameshiftVariant,
	ConsequenceStopLost,
	ConsequenceStartLost,
	ConsequenceInframeInsertion,
	ConsequenceInframeDeletion,
	ConsequenceMissenseVariant,
	ConsequenceProteinAltering,
	ConsequenceSpliceDonor5thBase,
	ConsequenceSpliceRegion,
	ConsequenceSpliceDonorRegion,
	ConsequenceSplicePolypyrimidine,
	ConsequenceIncompleteTerminalCodon,
	ConsequenceStartRetained,
	ConsequenceStopRetained,
	ConsequenceSynonymousVariant,
	ConsequenceCodingSequenceVariant,
	ConsequenceMatureMiRNA,
	Consequence5PrimeUTR,
	Consequence3PrimeUTR,
	ConsequenceNonCodingExon,
	ConsequenceIntronVariant,
	ConsequenceNMDTranscript,
	ConsequenceNonCodingTranscript,
	ConsequenceCodingTranscript,
	ConsequenceUpstreamGene,
	ConsequenceDownstreamGene,
	ConsequenceIntergenicVariant,
	ConsequenceSequenceVariant,
}

// ClinVar significances, pathogenic end of the scale first.
var clinvarSignificances = []string{
	"Pathogenic",
	"Pathogenic/Likely_pathogenic",
	"Pathogenic/Likely_pathogenic/Established_risk_allele",
	"Pathogenic/Likely_pathogenic/Likely_risk_allele",
	"Pathogenic/Likely_risk_allele",
	"Likely_pathogenic",
	"Likely_pathogenic/Likely_risk_allele",
	"Established_risk_allele",
	"Likely_risk_allele",
	"Conflicting_classifications_of_pathogenicity",
	"Uncertain_risk_allele",
	"Uncertain_significance/Uncertain_risk_allele",
	"Uncertain_significance",
	"No_pathogenic_assertion",
	"Likely_benign",
	"Benign/Likely_benign",
	"Benign",
}

var hgmdClasses = []string{"DM", "DM?", "DP", "DFP", "FP", "R"}

var screenRegionTypes = []string{
	"CTCF-bound",
	"CTCF-only",
	"DNase-H3K4me3",
	"PLS",
	"dELS",
	"pELS",
	"DNase-only",
	"low-DNase",
}

// Pathogenicity filter terms as they appear in search requests.
const (
	ClinVarPathogenic       = "pathogenic"
	ClinVarLikelyPathogenic = "likely_pathogenic"
	ClinVarVUSOrConflicting = "vus_or_conflicting"
	ClinVarLikelyBenign     = "likely_benign"
	ClinVarBenign           = "benign"

	HGMDDiseaseCausing       = "disease_causing"
	HGMDLikelyDiseaseCausing = "likely_disease_causing"
	HGMDOther                = "hgmd_other"
)

// RangeConfig maps one filter term onto the stored scale. An empty End means
// the range runs to the last id of the category.
type RangeConfig struct {
	Term  string
	Start string
	End   string
}

var clinvarRanges = []RangeConfig{
	{ClinVarPathogenic, "Pathogenic", "Pathogenic/Likely_risk_allele"},
	{ClinVarLikelyPathogenic, "Pathogenic/Likely_pathogenic", "Likely_risk_allele"},
	{ClinVarVUSOrConflicting, "Conflicting_classifications_of_pathogenicity", "No_pathogenic_assertion"},
	{ClinVarLikelyBenign, "Likely_benign", "Benign/Likely_benign"},
	{ClinVarBenign, "Benign/Likely_benign", "Benign"},
}

var hgmdRanges = []RangeConfig{
	{HGMDDiseaseCausing, "DM", "DM"},
	{HGMDLikelyDiseaseCausing, "DM?", "DM?"},
	{HGMDOther, "DP", ""},
}

// ClinVarPathSignificances are the ClinVar filter terms that count as a
// pathogenicity override for frequency prefiltering.
var ClinVarPathSignificances = map[string]bool{
	ClinVarPathogenic:       true,
	ClinVarLikelyPathogenic: true,
}

// GetImpact returns the impact level for a consequence term.
func GetImpact(term string) string {
	switch term {
	case ConsequenceTranscriptAblation, ConsequenceStopGained, ConsequenceFrameshiftVariant,
		ConsequenceStopLost, ConsequenceStartLost,
		ConsequenceSpliceAcceptor, ConsequenceSpliceDonor:
		return ImpactHigh
	case ConsequenceMissenseVariant, ConsequenceInframeInsertion,
		ConsequenceInframeDeletion, ConsequenceProteinAltering:
		return ImpactModerate
	case ConsequenceSynonymousVariant, ConsequenceSpliceRegion,
		ConsequenceStopRetained, ConsequenceStartRetained,
		ConsequenceSpliceDonor5thBase, ConsequenceSpliceDonorRegion,
		ConsequenceSplicePolypyrimidine, ConsequenceIncompleteTerminalCodon:
		return ImpactLow
	default:
		return ImpactModifier
	}
}

// ImpactRank returns numeric rank for impact comparison (higher = more severe).
func ImpactRank(impact string) int {
	switch impact {
	case ImpactHigh:
		return 3
	case ImpactModerate:
		return 2
	case ImpactLow:
		return 1
	default:
		return 0
	}
}
