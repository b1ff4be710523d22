package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

func (s *Store) InsertWarBase(ctx context.Context, base WarBase) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO war_bases (id, town_hall, link, notes, added_by, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			town_hall = excluded.town_hall,
			link = excluded.link,
			notes = excluded.notes
	`, base.ID, base.TownHall, base.Link, base.Notes, base.AddedBy, unixOrNow(base.AddedAt, s.now))
	return err
}

func (s *Store) GetWarBase(ctx context.Context, id string) (WarBase, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, town_hall, link, notes, added_by, added_at
		FROM war_bases WHERE id = ?`, id)
	base, err := scanWarBase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return WarBase{}, ErrNotFound
	}
	if err != nil {
		return WarBase{}, err
	}
	claims, err := s.warBaseClaims(ctx, id)
	if err != nil {
		return WarBase{}, err
	}
	base.Claims = claims
	return base, nil
}

// ListWarBases returns the bases for a town hall, or every base when townHall is zero.
func (s *Store) ListWarBases(ctx context.Context, townHall int) ([]WarBase, error) {
	query := `SELECT id, town_hall, link, notes, added_by, added_at FROM war_bases`
	var args []any
	if townHall > 0 {
		query += ` WHERE town_hall = ?`
		args = append(args, townHall)
	}
	query += ` ORDER BY town_hall DESC, added_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var bases []WarBase
	for rows.Next() {
		base, err := scanWarBase(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		bases = append(bases, base)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for idx := range bases {
		claims, err := s.warBaseClaims(ctx, bases[idx].ID)
		if err != nil {
			return nil, err
		}
		bases[idx].Claims = claims
	}
	return bases, nil
}

func (s *Store) DeleteWarBase(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM war_bases WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		err = ErrNotFound
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM war_base_claims WHERE base_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// AddWarBaseClaim adds the user to the claim set; adding twice is a no-op.
func (s *Store) AddWarBaseClaim(ctx context.Context, id, userID string) error {
	if err := s.warBaseExists(ctx, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO war_base_claims (base_id, user_id, claimed_at)
		VALUES (?, ?, ?)`, id, userID, s.now().UnixNano())
	return err
}

// RemoveWarBaseClaim pulls the user from the claim set.
func (s *Store) RemoveWarBaseClaim(ctx context.Context, id, userID string) error {
	if err := s.warBaseExists(ctx, id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM war_base_claims WHERE base_id = ? AND user_id = ?`, id, userID)
	return err
}

func (s *Store) warBaseExists(ctx context.Context, id string) error {
	var found int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM war_bases WHERE id = ?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *Store) warBaseClaims(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM war_base_claims WHERE base_id = ?
		ORDER BY claimed_at, user_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claims := []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		claims = append(claims, userID)
	}
	return claims, rows.Err()
}

func scanWarBase(row scanner) (WarBase, error) {
	var base WarBase
	var added int64
	if err := row.Scan(&base.ID, &base.TownHall, &base.Link, &base.Notes, &base.AddedBy, &added); err != nil {
		return WarBase{}, err
	}
	base.AddedAt = time.Unix(added, 0)
	return base, nil
}
