package orm

import (
	"context"
	"fmt"
	"strings"
)

// JoinPair holds a source–target pair read from a join table.
type JoinPair[S, T comparable] struct {
	Source S
	Target T
}

// QueryJoinTable reads (sourceCol, targetCol) rows from the given join table
// where sourceCol IN (sourceIDs). It returns a slice of JoinPair ordered by
// target so that related rows come back in a stable order.
func QueryJoinTable[S, T comparable](
	ctx context.Context, db Querier, table, sourceCol, targetCol string, sourceIDs []S,
) ([]JoinPair[S, T], error) {
	if len(sourceIDs) == 0 {
		return nil, nil
	}

	d := db.dialect()
	qi := d.QuoteIdent

	args := make([]any, len(sourceIDs))
	for i, id := range sourceIDs {
		args[i] = id
	}

	query := fmt.Sprintf(
		"SELECT %s, %s FROM %s WHERE %s IN (%s) ORDER BY %s, %s",
		qi(sourceCol), qi(targetCol), qi(table), qi(sourceCol),
		repeatPlaceholders(len(sourceIDs)),
		qi(sourceCol), qi(targetCol),
	)

	query = rewritePlaceholders(d, query)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err //nolint:wrapcheck // pass through
	}
	defer func() { _ = rows.Close() }()

	var pairs []JoinPair[S, T]
	for rows.Next() {
		var p JoinPair[S, T]
		if err := rows.Scan(&p.Source, &p.Target); err != nil {
			return nil, err //nolint:wrapcheck // pass through
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err() //nolint:wrapcheck // pass through
}

// ReplaceJoinRows makes targets the complete set of rows linked to source in
// a join table: existing links are deleted and the new ones inserted.
// Callers wanting atomicity run it inside a Tx together with the owning row.
func ReplaceJoinRows[S, T comparable](
	ctx context.Context, db Querier, table, sourceCol, targetCol string, source S, targets []T,
) error {
	d := db.dialect()
	qi := d.QuoteIdent

	del := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", qi(table), qi(sourceCol))
	if _, err := db.ExecContext(ctx, rewritePlaceholders(d, del), source); err != nil {
		return fmt.Errorf("orm: clear %s: %w", table, err)
	}

	targets = uniqueValues(targets)
	if len(targets) == 0 {
		return nil
	}

	rows := make([]string, len(targets))
	args := make([]any, 0, len(targets)*2)
	for i, t := range targets {
		rows[i] = "(?, ?)"
		args = append(args, source, t)
	}
	ins := fmt.Sprintf(
		"INSERT INTO %s (%s, %s) VALUES %s",
		qi(table), qi(sourceCol), qi(targetCol), strings.Join(rows, ", "),
	)
	if _, err := db.ExecContext(ctx, rewritePlaceholders(d, ins), args...); err != nil {
		return fmt.Errorf("orm: insert %s: %w", table, err)
	}
	return nil
}

// UniqueTargets extracts deduplicated target values from a slice of JoinPair.
func UniqueTargets[S, T comparable](pairs []JoinPair[S, T]) []T {
	targets := make([]T, len(pairs))
	for i, p := range pairs {
		targets[i] = p.Target
	}
	return uniqueValues(targets)
}

// GroupBySource groups JoinPair values by source key into a map[S][]T.
func GroupBySource[S, T comparable](pairs []JoinPair[S, T]) map[S][]T {
	m := make(map[S][]T)
	for _, p := range pairs {
		m[p.Source] = append(m[p.Source], p.Target)
	}
	return m
}

func uniqueValues[T comparable](values []T) []T {
	seen := make(map[T]struct{}, len(values))
	result := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}
	return result
}
