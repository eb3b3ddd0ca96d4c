// Package statements holds the warehouse SQL run by starload.
//
// Each dialect lives under sql/<dialect>/ with a manifest.yaml declaring the
// ordered statement names for every phase and one template file per
// statement at sql/<dialect>/<phase>/<name>.sql. Templates are rendered with
// text/template against Params; use the quote function for any value that
// becomes a SQL string literal.
package statements

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/leapstack-labs/starload/pkg/core"
	"gopkg.in/yaml.v3"
)

//go:embed sql
var sqlFS embed.FS

// Params are the values substituted into statement templates.
type Params struct {
	// LogData is the location of the event log JSON objects.
	LogData string
	// SongData is the location of the song metadata JSON objects.
	SongData string
	// LogJSONPath is the location of the JSONPath file mapping event fields.
	LogJSONPath string
	// RoleARN is the IAM role the warehouse assumes to read the sources.
	RoleARN string
	// Region is the object storage region. Empty means the warehouse's own.
	Region string
}

// Statement is one named, rendered SQL statement.
type Statement struct {
	Name     string
	Phase    core.Phase
	Position int // 1-based position within the phase
	SQL      string
}

// Plan is the full rendered statement set for one dialect.
type Plan struct {
	Dialect string
	phases  map[core.Phase][]Statement
}

type manifest struct {
	Phases map[string][]string `yaml:"phases"`
}

// Dialects lists the dialects with an embedded statement set.
func Dialects() []string {
	entries, err := fs.ReadDir(sqlFS, "sql")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Load renders every statement of dialect with params.
// All failures are configuration errors.
func Load(dialect string, params Params) (*Plan, error) {
	m, err := readManifest(dialect)
	if err != nil {
		return nil, core.ConfigError(err)
	}

	plan := &Plan{
		Dialect: dialect,
		phases:  make(map[core.Phase][]Statement, len(core.AllPhases)),
	}
	for _, phase := range core.AllPhases {
		names, ok := m.Phases[string(phase)]
		if !ok || len(names) == 0 {
			return nil, core.ConfigError(fmt.Errorf("%s manifest declares no %s statements", dialect, phase))
		}
		stmts := make([]Statement, 0, len(names))
		for i, name := range names {
			sql, err := render(dialect, phase, name, params)
			if err != nil {
				return nil, core.ConfigError(err)
			}
			stmts = append(stmts, Statement{
				Name:     name,
				Phase:    phase,
				Position: i + 1,
				SQL:      sql,
			})
		}
		plan.phases[phase] = stmts
	}
	return plan, nil
}

func readManifest(dialect string) (*manifest, error) {
	data, err := fs.ReadFile(sqlFS, path.Join("sql", dialect, "manifest.yaml"))
	if err != nil {
		return nil, fmt.Errorf("no statements for dialect %q (available: %s)", dialect, strings.Join(Dialects(), ", "))
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s manifest: %w", dialect, err)
	}
	for key := range m.Phases {
		if _, ok := core.ParsePhase(key); !ok {
			return nil, fmt.Errorf("%s manifest: unknown phase %q", dialect, key)
		}
	}
	return &m, nil
}

var funcs = template.FuncMap{
	"quote": quote,
}

func render(dialect string, phase core.Phase, name string, params Params) (string, error) {
	file := path.Join("sql", dialect, string(phase), name+".sql")
	data, err := fs.ReadFile(sqlFS, file)
	if err != nil {
		return "", fmt.Errorf("missing statement %s/%s for dialect %s", phase, name, dialect)
	}

	tmpl, err := template.New(name).Funcs(funcs).Parse(string(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", file, err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, params); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", file, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

// quote renders s as a SQL string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Phase returns the statements of phase in execution order.
func (p *Plan) Phase(phase core.Phase) []Statement {
	stmts := p.phases[phase]
	out := make([]Statement, len(stmts))
	copy(out, stmts)
	return out
}

// Reset returns the drop then create statements.
func (p *Plan) Reset() []Statement {
	return p.collect(core.ResetPhases)
}

// Load returns the stage, transform and verify statements.
func (p *Plan) Load() []Statement {
	return p.collect(core.LoadPhases)
}

// All returns every statement in execution order.
func (p *Plan) All() []Statement {
	return p.collect(core.AllPhases)
}

func (p *Plan) collect(phases []core.Phase) []Statement {
	var out []Statement
	for _, phase := range phases {
		out = append(out, p.phases[phase]...)
	}
	return out
}
