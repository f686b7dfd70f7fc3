package diagfmt

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zeebo/blake3"

	"idiomlint/internal/diag"
	"idiomlint/internal/source"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	// fingerprintKey names the partial fingerprint; bump the suffix when
	// its inputs change.
	fingerprintKey = "idiomlint/v1"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	ShortDescription     sarifMessage `json:"shortDescription"`
	DefaultConfiguration struct {
		Level string `json:"level"`
	} `json:"defaultConfiguration"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine,omitempty"`
	StartColumn uint32 `json:"startColumn,omitempty"`
	EndLine     uint32 `json:"endLine,omitempty"`
	EndColumn   uint32 `json:"endColumn,omitempty"`
	ByteOffset  uint32 `json:"byteOffset"`
	ByteLength  uint32 `json:"byteLength"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           sarifRegion   `json:"region"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
	Message          *sarifMessage `json:"message,omitempty"`
}

type sarifReplacement struct {
	DeletedRegion   sarifRegion  `json:"deletedRegion"`
	InsertedContent sarifMessage `json:"insertedContent"`
}

type sarifChange struct {
	ArtifactLocation sarifArtifact      `json:"artifactLocation"`
	Replacements     []sarifReplacement `json:"replacements"`
}

type sarifFix struct {
	Description     sarifMessage  `json:"description"`
	ArtifactChanges []sarifChange `json:"artifactChanges,omitempty"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLocation   `json:"locations"`
	RelatedLocations    []sarifLocation   `json:"relatedLocations,omitempty"`
	Fixes               []sarifFix        `json:"fixes,omitempty"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
}

func sarifLevel(s diag.Severity) string {
	switch s {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	}
	return "note"
}

// Sarif writes a SARIF 2.1.0 log with one run. Rules are listed for the
// codes that occur; results keep the given order.
func Sarif(w io.Writer, items []diag.Diagnostic, fs *source.FileSet, meta SarifRunMeta) error {
	var codes []diag.Code
	for i := range items {
		codes = append(codes, items[i].Code)
	}
	slices.Sort(codes)
	codes = slices.Compact(codes)

	drv := sarifDriver{Name: meta.ToolName, Version: meta.ToolVersion, Rules: make([]sarifRule, 0, len(codes))}
	index := make(map[diag.Code]int, len(codes))
	for i, c := range codes {
		r := sarifRule{ID: c.ID(), Name: c.Name(), ShortDescription: sarifMessage{Text: c.Title()}}
		r.DefaultConfiguration.Level = "warning"
		drv.Rules = append(drv.Rules, r)
		index[c] = i
	}

	results := make([]sarifResult, 0, len(items))
	failed := false
	for i := range items {
		d := &items[i]
		if !d.Code.IsRule() {
			failed = true
		}
		res := sarifResult{
			RuleID:              d.Code.ID(),
			RuleIndex:           index[d.Code],
			Level:               sarifLevel(d.Severity),
			Message:             sarifMessage{Text: d.Message},
			Locations:           []sarifLocation{sarifLoc(fs, d.Primary, meta.PathMode, "")},
			PartialFingerprints: map[string]string{fingerprintKey: Fingerprint(fs, d)},
		}
		for _, n := range d.Notes {
			res.RelatedLocations = append(res.RelatedLocations, sarifLoc(fs, n.Span, meta.PathMode, n.Msg))
		}
		for _, fx := range d.Fixes {
			sf := sarifFix{Description: sarifMessage{Text: fx.Title}}
			for _, e := range fx.Edits {
				sf.ArtifactChanges = append(sf.ArtifactChanges, sarifChange{
					ArtifactLocation: sarifArtifact{URI: artifactURI(fs, e.Span.File, meta.PathMode)},
					Replacements: []sarifReplacement{{
						DeletedRegion:   sarifRegion{ByteOffset: e.Span.Start, ByteLength: e.Span.Len()},
						InsertedContent: sarifMessage{Text: e.NewText},
					}},
				})
			}
			res.Fixes = append(res.Fixes, sf)
		}
		results = append(results, res)
	}

	log := sarifLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool:        sarifTool{Driver: drv},
			Invocations: []sarifInvocation{{Arguments: meta.InvocationArgs, ExecutionSuccessful: !failed}},
			Results:     results,
		}},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func sarifLoc(fs *source.FileSet, span source.Span, mode PathMode, msg string) sarifLocation {
	start, end := fs.Resolve(span)
	loc := sarifLocation{PhysicalLocation: sarifPhysical{
		ArtifactLocation: sarifArtifact{URI: artifactURI(fs, span.File, mode)},
		Region: sarifRegion{
			StartLine:   start.Line,
			StartColumn: start.Col,
			EndLine:     end.Line,
			EndColumn:   end.Col,
			ByteOffset:  span.Start,
			ByteLength:  span.Len(),
		},
	}}
	if msg != "" {
		loc.Message = &sarifMessage{Text: msg}
	}
	return loc
}

func artifactURI(fs *source.FileSet, id source.FileID, mode PathMode) string {
	return filepath.ToSlash(displayPath(fs, id, mode))
}

// Fingerprint identifies a finding independently of its line number: the
// rule, the file, the flagged text with whitespace collapsed and the
// message. Moving code around keeps it stable.
func Fingerprint(fs *source.FileSet, d *diag.Diagnostic) string {
	h := blake3.New()
	path := ""
	if f := fs.Get(d.Primary.File); f != nil {
		path = filepath.ToSlash(f.Path)
	}
	for _, part := range []string{d.Code.ID(), path, strings.Join(strings.Fields(fs.Text(d.Primary)), " "), d.Message} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}
