package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"travel_recommender/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valEnum(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// valID lets MySQL assign ids to destinations that do not carry one yet.
func valID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// rows per INSERT statement in ReplaceDestinations
const insertBatch = 500

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ReplaceDestinations swaps the whole destination set in one transaction.
func (r *Repo) ReplaceDestinations(ctx context.Context, ds []domain.Destination) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, deleteDestinationsSQL); err != nil {
		return fmt.Errorf("clear destinations: %w", err)
	}
	for start := 0; start < len(ds); start += insertBatch {
		end := min(start+insertBatch, len(ds))
		batch := ds[start:end]

		values := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*9) // 9 params per row
		for _, d := range batch {
			values = append(values, "(?,?,?,?,?,?,?,?,?)")
			args = append(args,
				valID(d.ID),
				d.Name,
				d.City,
				valEnum(string(d.Climate)),
				valEnum(string(d.Budget)),
				valStr(d.Info),
				valF64(d.Rating),
				valStr(d.Price),
				valStr(d.ImageURL),
			)
		}
		if _, err = tx.ExecContext(ctx, insertDestinationsPrefix+strings.Join(values, ","), args...); err != nil {
			return fmt.Errorf("insert destinations [%d:%d]: %w", start, end, err)
		}
	}
	return tx.Commit()
}

func (r *Repo) ListDestinations(ctx context.Context) ([]domain.Destination, error) {
	rows, err := r.db.QueryContext(ctx, listDestinationsSQL)
	if err != nil {
		return nil, err
	}
	return scanDestinations(rows)
}

func (r *Repo) FindDestinations(ctx context.Context, q domain.DestinationQuery) ([]domain.Destination, error) {
	var (
		where []string
		args  []any
	)
	if q.Budget != "" {
		where = append(where, "budget_category = ?")
		args = append(args, string(q.Budget))
	}
	if q.Climate != "" {
		where = append(where, "climate = ?")
		args = append(args, string(q.Climate))
	}
	if q.MinRating != nil {
		where = append(where, "rating IS NOT NULL AND rating >= ?")
		args = append(args, *q.MinRating)
	}
	if t := strings.TrimSpace(q.Text); t != "" {
		like := "%" + escapeLike(strings.ToLower(t)) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(city) LIKE ?)")
		args = append(args, like, like)
	}

	stmt := findDestinationsPrefix
	if len(where) > 0 {
		stmt += "WHERE " + strings.Join(where, " AND ")
	}
	rows, err := r.db.QueryContext(ctx, stmt+findDestinationsOrder, args...)
	if err != nil {
		return nil, err
	}
	return scanDestinations(rows)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanDestinations(rows *sql.Rows) ([]domain.Destination, error) {
	defer rows.Close()

	var out []domain.Destination
	for rows.Next() {
		var d domain.Destination
		var (
			climate, budget    sql.NullString
			info, price, image sql.NullString
			rating             sql.NullFloat64
		)
		if err := rows.Scan(
			&d.ID,
			&d.Name,
			&d.City,
			&climate,
			&budget,
			&info,
			&rating,
			&price,
			&image,
		); err != nil {
			return nil, err
		}

		d.Climate = domain.Climate(climate.String)
		d.Budget = domain.Budget(budget.String)
		if info.Valid {
			s := info.String
			d.Info = &s
		}
		if rating.Valid {
			f := rating.Float64
			d.Rating = &f
		}
		if price.Valid {
			s := price.String
			d.Price = &s
		}
		if image.Valid {
			s := image.String
			d.ImageURL = &s
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
