package parse

import "github.com/Zuo-Peng/softsplit/internal/table"

const (
	ProbesSection = "Probes"
	// TruncatedProbesName is the output name of the trimmed Probes table.
	TruncatedProbesName = "Probes_truncated"
)

// ProbeHeavyColumns are dropped from the Probes table by TrimProbes.
var ProbeHeavyColumns = []string{
	"Definition",
	"Ontology_Component",
	"Ontology_Process",
	"Ontology_Function",
	"Synonyms",
	"Obsolete_Probe_Id",
	"Probe_Sequence",
}

// TrimProbes returns t without ProbeHeavyColumns. Absent columns are ignored,
// so trimming an already trimmed table returns an equal table.
func TrimProbes(t *table.Table) *table.Table {
	return t.DropColumns(ProbeHeavyColumns...)
}
