package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"railnet/internal/track"
)

// ErrLayoutNotFound is returned by FetchLayout when no row has the given name.
var ErrLayoutNotFound = errors.New("layout not found")

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// LayoutRow is one row of the layouts catalog. Nullable columns leave the
// corresponding default untouched.
type LayoutRow struct {
	Name          string
	Width         float64
	Height        float64
	BorderRadius  float64
	InnerScale    float64
	Crossovers    bool
	SegmentLength sql.NullFloat64
	MaxBendRadius sql.NullFloat64
	TrainSpeed    sql.NullFloat64
}

// Apply overlays the row onto layout and params.
func (r LayoutRow) Apply(layout track.Layout, params track.Params) (track.Layout, track.Params, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return layout, params, fmt.Errorf("layout %q: non-positive size %gx%g", r.Name, r.Width, r.Height)
	}
	if r.InnerScale <= 0 || r.InnerScale >= 1 {
		return layout, params, fmt.Errorf("layout %q: inner scale %g outside (0, 1)", r.Name, r.InnerScale)
	}
	layout = track.Layout{
		Width:        r.Width,
		Height:       r.Height,
		BorderRadius: r.BorderRadius,
		InnerScale:   r.InnerScale,
		Crossovers:   r.Crossovers,
	}
	if r.SegmentLength.Valid {
		params.IdealSegmentLength = r.SegmentLength.Float64
	}
	if r.MaxBendRadius.Valid {
		params.MaxBendRadius = r.MaxBendRadius.Float64
	}
	if r.TrainSpeed.Valid {
		params.TrainSpeed = r.TrainSpeed.Float64
	}
	return layout, params, nil
}

// FetchLayout reads the named layout from public.layouts.
func FetchLayout(ctx context.Context, db *sql.DB, name string) (LayoutRow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return LayoutRow{}, fmt.Errorf("layout name is required")
	}
	q := `
SELECT name, width, height, border_radius, inner_scale, crossovers,
       segment_length, max_bend_radius, train_speed
FROM public.layouts
WHERE name = $1`
	var r LayoutRow
	err := db.QueryRowContext(ctx, q, name).Scan(
		&r.Name, &r.Width, &r.Height, &r.BorderRadius, &r.InnerScale, &r.Crossovers,
		&r.SegmentLength, &r.MaxBendRadius, &r.TrainSpeed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LayoutRow{}, fmt.Errorf("%w: %q", ErrLayoutNotFound, name)
		}
		return LayoutRow{}, fmt.Errorf("query layout %q: %w", name, err)
	}
	return r, nil
}

// ListLayouts returns the names in the catalog, alphabetically.
func ListLayouts(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM public.layouts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query layouts: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
