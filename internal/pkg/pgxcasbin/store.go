package pgxcasbin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
)

// fieldCount is the number of v0..v5 columns in the rule table.
const fieldCount = 6

var (
	ErrRuleTooLong   = errors.New("pgxcasbin: rule has more than 6 fields")
	ErrEmptyPType    = errors.New("pgxcasbin: ptype is empty")
	ErrRulesMismatch = errors.New("pgxcasbin: old and new rule counts differ")
)

// DB is the subset of pgxpool.Pool used by the adapter.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type queries struct {
	table    string
	columns  string
	insert   string
	update   string
	delete   string
	truncate string
}

func newQueries(table string) queries {
	cols := lo.Times(fieldCount, func(i int) string { return "v" + strconv.Itoa(i) })
	colList := strings.Join(cols, ", ")

	// $1 is ptype; fields start at $2. Update binds the new rule first.
	placeholders := lo.Times(fieldCount, func(i int) string { return "$" + strconv.Itoa(i+2) })
	match := lo.Times(fieldCount, func(i int) string { return cols[i] + " = $" + strconv.Itoa(i+2) })
	oldMatch := lo.Times(fieldCount, func(i int) string { return cols[i] + " = $" + strconv.Itoa(i+2+fieldCount) })

	return queries{
		table:   table,
		columns: colList,
		insert: fmt.Sprintf("INSERT INTO %s (ptype, %s) VALUES ($1, %s) ON CONFLICT DO NOTHING",
			table, colList, strings.Join(placeholders, ", ")),
		update: fmt.Sprintf("UPDATE %s SET %s WHERE ptype = $1 AND %s",
			table, strings.Join(match, ", "), strings.Join(oldMatch, " AND ")),
		delete: fmt.Sprintf("DELETE FROM %s WHERE ptype = $1 AND %s",
			table, strings.Join(match, " AND ")),
		truncate: fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY", table),
	}
}

// selectWhere builds a filtered select. Empty values match anything.
func (q queries) selectWhere(ptype string, fieldIndex int, values ...string) (string, []any) {
	sql := fmt.Sprintf("SELECT ptype, %s FROM %s", q.columns, q.table)

	var conds []string
	var args []any
	if ptype != "" {
		args = append(args, ptype)
		conds = append(conds, "ptype = $1")
	}
	for i, v := range values {
		if v == "" {
			continue
		}
		args = append(args, v)
		conds = append(conds, "v"+strconv.Itoa(fieldIndex+i)+" = $"+strconv.Itoa(len(args)))
	}

	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	return sql + " ORDER BY id", args
}

type store struct {
	db DB
	q  queries
}

func newStore(db DB, table string) *store {
	return &store{db: db, q: newQueries(table)}
}

func (s *store) load(ctx context.Context, ptype string, fieldIndex int, values ...string) ([][]string, error) {
	if fieldIndex < 0 || len(values) > fieldCount-fieldIndex {
		return nil, ErrRuleTooLong
	}

	sql, args := s.q.selectWhere(ptype, fieldIndex, values...)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("pgxcasbin: select: %w", err)
	}
	defer rows.Close()

	var lines [][]string
	for rows.Next() {
		var pt string
		fields := make([]*string, fieldCount)
		dest := []any{&pt}
		for i := range fields {
			dest = append(dest, &fields[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("pgxcasbin: scan: %w", err)
		}

		line := []string{pt}
		for _, f := range fields {
			line = append(line, lo.FromPtr(f))
		}
		lines = append(lines, trimTrailingEmpty(line))
	}
	return lines, rows.Err()
}

func (s *store) insert(ctx context.Context, ptype string, rules ...[]string) error {
	return s.batch(ctx, s.db, s.q.insert, ptype, rules)
}

func (s *store) remove(ctx context.Context, ptype string, rules ...[]string) error {
	return s.batch(ctx, s.db, s.q.delete, ptype, rules)
}

func (s *store) update(ctx context.Context, ptype string, oldRules, newRules [][]string) error {
	if len(oldRules) != len(newRules) {
		return ErrRulesMismatch
	}

	pairs := make([][]string, len(oldRules))
	for i := range oldRules {
		n, err := pad(newRules[i])
		if err != nil {
			return err
		}
		o, err := pad(oldRules[i])
		if err != nil {
			return err
		}
		pairs[i] = append(n, o...)
	}

	b := &pgx.Batch{}
	for _, p := range pairs {
		b.Queue(s.q.update, append([]any{ptype}, lo.ToAnySlice(p)...)...)
	}
	return sendBatch(ctx, s.db, b)
}

func (s *store) removeWhere(ctx context.Context, ptype string, fieldIndex int, values ...string) error {
	if ptype == "" {
		return ErrEmptyPType
	}
	if fieldIndex < 0 || len(values) > fieldCount-fieldIndex {
		return ErrRuleTooLong
	}

	sql := "DELETE FROM " + s.q.table + " WHERE ptype = $1"
	args := []any{ptype}
	for i, v := range values {
		if v == "" {
			continue
		}
		args = append(args, v)
		sql += " AND v" + strconv.Itoa(fieldIndex+i) + " = $" + strconv.Itoa(len(args))
	}

	if _, err := s.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("pgxcasbin: delete where: %w", err)
	}
	return nil
}

// replaceAll swaps the whole table for lines (ptype first) in one transaction.
func (s *store) replaceAll(ctx context.Context, lines [][]string) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, s.q.truncate); err != nil {
			return fmt.Errorf("pgxcasbin: truncate: %w", err)
		}

		byType := lo.GroupBy(lines, func(l []string) string { return l[0] })
		for ptype, group := range byType {
			rules := lo.Map(group, func(l []string, _ int) []string { return l[1:] })
			if err := s.batch(ctx, tx, s.q.insert, ptype, rules); err != nil {
				return err
			}
		}
		return nil
	})
}

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func (s *store) batch(ctx context.Context, db batchSender, sql, ptype string, rules [][]string) error {
	if ptype == "" {
		return ErrEmptyPType
	}
	if len(rules) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for _, rule := range rules {
		padded, err := pad(rule)
		if err != nil {
			return err
		}
		b.Queue(sql, append([]any{ptype}, lo.ToAnySlice(padded)...)...)
	}
	return sendBatch(ctx, db, b)
}

func sendBatch(ctx context.Context, db batchSender, b *pgx.Batch) error {
	br := db.SendBatch(ctx, b)
	for range b.Len() {
		if _, err := br.Exec(); err != nil {
			return errors.Join(fmt.Errorf("pgxcasbin: batch: %w", err), br.Close())
		}
	}
	return br.Close()
}

// pad extends rule to fieldCount with empty strings.
func pad(rule []string) ([]string, error) {
	if len(rule) > fieldCount {
		return nil, ErrRuleTooLong
	}
	out := make([]string, fieldCount)
	copy(out, rule)
	return out, nil
}

func trimTrailingEmpty(line []string) []string {
	last := len(line) - 1
	for last > 0 && line[last] == "" {
		last--
	}
	return line[:last+1]
}
