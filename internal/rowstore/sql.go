package rowstore

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
)

// dataProjection is the fixed column projection of every row query. The %s
// slot holds the identifier columns, which profile queries blank out.
const dataProjection = `d.id, %s, d.mimetype, d.display_name, r.starred, ` +
	`d.given_name, d.middle_name, d.family_name, d.prefix, d.suffix, ` +
	`d.phonetic_given_name, d.phonetic_middle_name, d.phonetic_family_name, ` +
	`d.data, d.type_code, d.label, ` +
	`d.street, d.city, d.region, d.postcode, d.country, d.formatted_address, ` +
	`d.company, d.title, d.department`

// SQLStore implements Store on top of a relational database holding the
// raw_contacts and contact_data tables.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an sqlx database handle.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// QueryRows runs one row query. Profile queries deliberately project NULL
// identifier columns, so the aggregator falls back to the profile sentinel
// key, mirroring a store that exposes the owner's rows without ids.
func (s *SQLStore) QueryRows(ctx context.Context, q Query) ([]Row, error) {
	var sb strings.Builder
	if q.Profile {
		fmt.Fprintf(&sb, "SELECT "+dataProjection, "NULL AS raw_contact_id, NULL AS contact_id, NULL AS source_id")
	} else {
		fmt.Fprintf(&sb, "SELECT "+dataProjection, "d.raw_contact_id, d.contact_id, r.source_id")
	}
	sb.WriteString(" FROM contact_data d JOIN raw_contacts r ON r.id = d.raw_contact_id")
	if q.Profile {
		sb.WriteString(" WHERE r.is_profile = 1")
	} else {
		sb.WriteString(" WHERE r.is_profile = 0")
		if q.Where != "" {
			sb.WriteString(" AND (" + q.Where + ")")
		}
	}
	if q.OrderBy != "" {
		sb.WriteString(" ORDER BY " + q.OrderBy)
	} else {
		sb.WriteString(" ORDER BY d.contact_id, d.id")
	}

	rows, err := s.db.QueryxContext(ctx, sb.String(), q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.StructScan(&r); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if r.Kind == KindPhoto && r.ContactID.Valid {
			r.PhotoURI = sql.NullString{
				String: photoPath(fmt.Sprint(r.ContactID.Int64)),
				Valid:  true,
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	return out, nil
}

// ApplyBatch executes the operations in order inside one transaction.
// Inserts carrying a Ref record their generated id into it, which resolves
// the back-references of later child inserts. Any failure rolls the whole
// batch back.
func (s *SQLStore) ApplyBatch(ctx context.Context, ops []*Operation) ([]Result, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("apply batch: %w", err)
	}
	results := make([]Result, 0, len(ops))
	for _, op := range ops {
		stmt, args, err := buildStatement(op)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("apply batch: %w", err)
		}
		var result Result
		if op.Kind == OpInsert {
			id, err := res.LastInsertId()
			if err != nil {
				tx.Rollback()
				return nil, fmt.Errorf("apply batch: %w", err)
			}
			result.LastInsertID = id
			if op.Ref != nil {
				op.Ref.Resolve(id)
			}
		}
		if n, err := res.RowsAffected(); err == nil {
			result.RowsAffected = n
		}
		results = append(results, result)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("apply batch: %w", err)
	}
	return results, nil
}

// buildStatement renders one operation into SQL. Column order follows the
// operation's value list, keeping generated statements deterministic.
func buildStatement(op *Operation) (string, []any, error) {
	switch op.Kind {
	case OpInsert:
		values := op.Values
		if op.ParentRef != nil {
			id, ok := op.ParentRef.ID()
			if !ok {
				return "", nil, errors.New("apply batch: unresolved back-reference")
			}
			for _, col := range op.ParentCols {
				values = append(values, Value{Column: col, Val: id})
			}
		}
		cols := make([]string, 0, len(values))
		marks := make([]string, 0, len(values))
		args := make([]any, 0, len(values))
		for _, v := range values {
			cols = append(cols, v.Column)
			marks = append(marks, "?")
			args = append(args, v.Val)
		}
		stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			op.Collection, strings.Join(cols, ", "), strings.Join(marks, ", "))
		return stmt, args, nil
	case OpUpdate:
		sets := make([]string, 0, len(op.Values))
		args := make([]any, 0, len(op.Values)+len(op.Args))
		for _, v := range op.Values {
			sets = append(sets, v.Column+" = ?")
			args = append(args, v.Val)
		}
		args = append(args, op.Args...)
		stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
			op.Collection, strings.Join(sets, ", "), op.Where)
		return stmt, args, nil
	case OpDelete:
		stmt := fmt.Sprintf("DELETE FROM %s WHERE %s", op.Collection, op.Where)
		return stmt, op.Args, nil
	}
	return "", nil, fmt.Errorf("apply batch: unknown operation kind %d", op.Kind)
}

// Count returns the number of contacts, the device owner excluded.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM raw_contacts WHERE is_profile = 0")
	if err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

// PhotoURI returns the photo path for a contact, or an empty string when the
// contact has no photo row.
func (s *SQLStore) PhotoURI(ctx context.Context, contactID string) (string, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM contact_data WHERE contact_id = ? AND mimetype = ?",
		contactID, KindPhoto)
	if err != nil {
		return "", fmt.Errorf("photo uri: %w", err)
	}
	if n == 0 {
		return "", nil
	}
	return photoPath(contactID), nil
}

// OpenPhoto streams the stored photo bytes of a contact.
func (s *SQLStore) OpenPhoto(ctx context.Context, contactID string) (io.ReadCloser, error) {
	var blob []byte
	err := s.db.GetContext(ctx, &blob,
		"SELECT photo FROM contact_data WHERE contact_id = ? AND mimetype = ?",
		contactID, KindPhoto)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open photo: %w", err)
	}
	return io.NopCloser(bytes.NewReader(blob)), nil
}

// Ping reports whether the store is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func photoPath(contactID string) string {
	return "/contacts/" + contactID + "/photo"
}
