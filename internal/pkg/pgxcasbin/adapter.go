// Package pgxcasbin persists casbin policies in Postgres through pgx and
// propagates policy changes between instances with LISTEN/NOTIFY.
package pgxcasbin

import (
	"context"

	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/samber/lo"
	"go.uber.org/atomic"
)

const DefaultTable = "casbin_rule"

// Adapter stores policies in a table with columns (id, ptype, v0..v5).
type Adapter struct {
	store    *store
	filtered *atomic.Bool
}

var (
	_ persist.Adapter                = (*Adapter)(nil)
	_ persist.ContextAdapter         = (*Adapter)(nil)
	_ persist.BatchAdapter           = (*Adapter)(nil)
	_ persist.UpdatableAdapter       = (*Adapter)(nil)
	_ persist.FilteredAdapter        = (*Adapter)(nil)
	_ persist.ContextFilteredAdapter = (*Adapter)(nil)
)

// Filter selects rules by ptype and leading field values, e.g.
// Filter{"g": {{"42"}}} loads only the role assignments of subject 42.
type Filter map[string][][]string

type Option func(*adapterOptions)

type adapterOptions struct {
	table string
}

// WithTable overrides DefaultTable.
func WithTable(table string) Option {
	return func(o *adapterOptions) { o.table = lo.SnakeCase(table) }
}

// NewAdapter expects the table to exist; migrations create it.
func NewAdapter(db DB, opts ...Option) *Adapter {
	o := adapterOptions{table: DefaultTable}
	for _, opt := range opts {
		opt(&o)
	}
	return &Adapter{store: newStore(db, o.table), filtered: atomic.NewBool(false)}
}

func (a *Adapter) LoadPolicyCtx(ctx context.Context, m model.Model) error {
	a.filtered.Store(false)
	lines, err := a.store.load(ctx, "", 0)
	if err != nil {
		return err
	}
	return loadLines(m, lines)
}

func (a *Adapter) LoadFilteredPolicyCtx(ctx context.Context, m model.Model, filter any) error {
	f, ok := filter.(Filter)
	if !ok || lo.IsNil(filter) {
		return a.LoadPolicyCtx(ctx, m)
	}

	var lines [][]string
	for ptype, conds := range f {
		for _, values := range conds {
			got, err := a.store.load(ctx, ptype, 0, values...)
			if err != nil {
				return err
			}
			lines = append(lines, got...)
		}
	}

	a.filtered.Store(true)
	return loadLines(m, lo.UniqBy(lines, func(l []string) string { return lo.Reduce(l, joinField, "") }))
}

func (a *Adapter) IsFilteredCtx(context.Context) bool { return a.filtered.Load() }

func (a *Adapter) SavePolicyCtx(ctx context.Context, m model.Model) error {
	var lines [][]string
	for _, sec := range []string{"p", "g"} {
		for ptype, ast := range m[sec] {
			for _, rule := range ast.Policy {
				lines = append(lines, append([]string{ptype}, rule...))
			}
		}
	}
	return a.store.replaceAll(ctx, lines)
}

func (a *Adapter) AddPolicyCtx(ctx context.Context, _ string, ptype string, rule []string) error {
	return a.store.insert(ctx, ptype, rule)
}

func (a *Adapter) AddPoliciesCtx(ctx context.Context, _ string, ptype string, rules [][]string) error {
	return a.store.insert(ctx, ptype, rules...)
}

func (a *Adapter) RemovePolicyCtx(ctx context.Context, _ string, ptype string, rule []string) error {
	return a.store.remove(ctx, ptype, rule)
}

func (a *Adapter) RemovePoliciesCtx(ctx context.Context, _ string, ptype string, rules [][]string) error {
	return a.store.remove(ctx, ptype, rules...)
}

func (a *Adapter) RemoveFilteredPolicyCtx(ctx context.Context, _ string, ptype string, fieldIndex int, fieldValues ...string) error {
	return a.store.removeWhere(ctx, ptype, fieldIndex, fieldValues...)
}

func (a *Adapter) UpdatePolicyCtx(ctx context.Context, _ string, ptype string, oldRule, newRule []string) error {
	return a.store.update(ctx, ptype, [][]string{oldRule}, [][]string{newRule})
}

func (a *Adapter) UpdatePoliciesCtx(ctx context.Context, _ string, ptype string, oldRules, newRules [][]string) error {
	return a.store.update(ctx, ptype, oldRules, newRules)
}

// UpdateFilteredPoliciesCtx replaces the matching rules and returns the
// ones it removed.
func (a *Adapter) UpdateFilteredPoliciesCtx(ctx context.Context, sec string, ptype string, newRules [][]string, fieldIndex int, fieldValues ...string) ([][]string, error) {
	old, err := a.store.load(ctx, ptype, fieldIndex, fieldValues...)
	if err != nil {
		return nil, err
	}
	if err := a.store.removeWhere(ctx, ptype, fieldIndex, fieldValues...); err != nil {
		return nil, err
	}
	if err := a.store.insert(ctx, ptype, newRules...); err != nil {
		return nil, err
	}
	return lo.Map(old, func(l []string, _ int) []string { return l[1:] }), nil
}

// The non-context variants satisfy the plain casbin interfaces.

func (a *Adapter) LoadPolicy(m model.Model) error { return a.LoadPolicyCtx(context.Background(), m) }
func (a *Adapter) SavePolicy(m model.Model) error { return a.SavePolicyCtx(context.Background(), m) }
func (a *Adapter) IsFiltered() bool               { return a.filtered.Load() }

func (a *Adapter) LoadFilteredPolicy(m model.Model, filter any) error {
	return a.LoadFilteredPolicyCtx(context.Background(), m, filter)
}

func (a *Adapter) AddPolicy(sec, ptype string, rule []string) error {
	return a.AddPolicyCtx(context.Background(), sec, ptype, rule)
}

func (a *Adapter) AddPolicies(sec, ptype string, rules [][]string) error {
	return a.AddPoliciesCtx(context.Background(), sec, ptype, rules)
}

func (a *Adapter) RemovePolicy(sec, ptype string, rule []string) error {
	return a.RemovePolicyCtx(context.Background(), sec, ptype, rule)
}

func (a *Adapter) RemovePolicies(sec, ptype string, rules [][]string) error {
	return a.RemovePoliciesCtx(context.Background(), sec, ptype, rules)
}

func (a *Adapter) RemoveFilteredPolicy(sec, ptype string, fieldIndex int, fieldValues ...string) error {
	return a.RemoveFilteredPolicyCtx(context.Background(), sec, ptype, fieldIndex, fieldValues...)
}

func (a *Adapter) UpdatePolicy(sec, ptype string, oldRule, newRule []string) error {
	return a.UpdatePolicyCtx(context.Background(), sec, ptype, oldRule, newRule)
}

func (a *Adapter) UpdatePolicies(sec, ptype string, oldRules, newRules [][]string) error {
	return a.UpdatePoliciesCtx(context.Background(), sec, ptype, oldRules, newRules)
}

func (a *Adapter) UpdateFilteredPolicies(sec, ptype string, newRules [][]string, fieldIndex int, fieldValues ...string) ([][]string, error) {
	return a.UpdateFilteredPoliciesCtx(context.Background(), sec, ptype, newRules, fieldIndex, fieldValues...)
}

func loadLines(m model.Model, lines [][]string) error {
	for _, line := range lines {
		if err := persist.LoadPolicyArray(line, m); err != nil {
			return err
		}
	}
	return nil
}

func joinField(acc, field string, _ int) string {
	return acc + "\x00" + field
}
