package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"idiomlint/internal/diagfmt"
	"idiomlint/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules [name|id]",
	Short: "List the checks and their effective configuration",
	Long: `Rules prints every registered check with the severity and state the
current configuration gives it. With an argument it describes one check and
its options.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRules,
}

func init() {
	rulesCmd.Flags().String("format", "table", "output format (table|json)")
}

type ruleOptionPayload struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Default any    `json:"default"`
	Value   any    `json:"value,omitempty"`
	Doc     string `json:"doc,omitempty"`
}

type rulePayload struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Category    string              `json:"category"`
	Severity    string              `json:"severity"`
	Enabled     bool                `json:"enabled"`
	Advisory    bool                `json:"advisory,omitempty"`
	Description string              `json:"description"`
	Options     []ruleOptionPayload `json:"options,omitempty"`
}

func runRules(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "table" && format != "json" {
		return usageError(fmt.Errorf("unsupported format %q (must be table or json)", format))
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return usageError(err)
	}
	reg := rules.Builtin()
	sel, err := reg.Configure(cfg.RuleConfig())
	if err != nil {
		return usageError(fmt.Errorf("%s: %w", configName(cfg), err))
	}
	active := make(map[string]rules.Rule, len(sel.Rules))
	for _, r := range sel.Rules {
		active[r.Meta.ID()] = r
	}

	checks := reg.Checks()
	if len(args) == 1 {
		c, ok := reg.Lookup(args[0])
		if !ok {
			return usageError(fmt.Errorf("unknown rule %q", args[0]))
		}
		checks = []rules.Check{c}
	}

	payload := make([]rulePayload, 0, len(checks))
	for _, c := range checks {
		payload = append(payload, describeRule(c.Meta(), active))
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		return writeJSON(out, payload)
	}
	if len(args) == 1 {
		printRuleDetail(out, payload[0])
		return nil
	}
	rows := make([]diagfmt.RuleRow, 0, len(checks))
	for _, c := range checks {
		m := c.Meta()
		row := diagfmt.RuleRow{Code: m.Code, Category: m.Category.String(), Severity: m.Severity, Advisory: m.Advisory}
		if r, ok := active[m.ID()]; ok {
			row.Enabled = true
			row.Severity = r.Severity
		}
		rows = append(rows, row)
	}
	diagfmt.RulesTable(out, rows)
	return nil
}

func describeRule(m rules.Meta, active map[string]rules.Rule) rulePayload {
	p := rulePayload{
		ID:          m.ID(),
		Name:        m.Name(),
		Category:    m.Category.String(),
		Severity:    strings.ToLower(m.Severity.String()),
		Advisory:    m.Advisory,
		Description: m.Description(),
	}
	r, enabled := active[m.ID()]
	if enabled {
		p.Enabled = true
		p.Severity = strings.ToLower(r.Severity.String())
	}
	for _, o := range m.Options {
		op := ruleOptionPayload{Name: o.Name, Kind: o.Kind.String(), Default: o.Default, Doc: o.Doc}
		if enabled {
			op.Value = r.Options.Raw(o.Name)
		}
		p.Options = append(p.Options, op)
	}
	return p
}

func printRuleDetail(out io.Writer, p rulePayload) {
	state := "enabled"
	if !p.Enabled {
		state = "disabled"
	}
	fmt.Fprintf(out, "%s %s (%s)\n", p.ID, p.Name, p.Category)
	fmt.Fprintf(out, "  %s\n", p.Description)
	fmt.Fprintf(out, "  severity: %s, %s", p.Severity, state)
	if p.Advisory {
		fmt.Fprint(out, ", advisory")
	}
	fmt.Fprintln(out)
	for _, o := range p.Options {
		fmt.Fprintf(out, "  option %s (%s) default %v", o.Name, o.Kind, o.Default)
		if o.Value != nil {
			fmt.Fprintf(out, ", current %v", o.Value)
		}
		fmt.Fprintln(out)
		if o.Doc != "" {
			fmt.Fprintf(out, "    %s\n", o.Doc)
		}
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
