package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gamecollection/models"
)

// ErrNotFound は指定された id の行が存在しないことを表す
var ErrNotFound = errors.New("game not found")

const selectGames = `SELECT id, title, platform, genre, hours_played, completed, status FROM games`

const insertGame = `
	INSERT INTO games (title, platform, genre, hours_played, completed, status)
	VALUES (?, ?, ?, ?, ?, ?)`

// GameStore は games テーブルへのCRUDをまとめたもの
type GameStore struct {
	db *sql.DB
}

func NewGameStore(db *sql.DB) *GameStore {
	return &GameStore{db: db}
}

// Stats は /metrics 用の集計値
type Stats struct {
	TotalGames     int
	CompletedGames int
	TotalHours     int64
	SizeBytes      int64
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(s scanner) (models.Game, error) {
	var g models.Game
	var status sql.NullString
	if err := s.Scan(&g.ID, &g.Title, &g.Platform, &g.Genre, &g.HoursPlayed, &g.Completed, &status); err != nil {
		return models.Game{}, err
	}
	if status.Valid {
		st := models.Status(status.String)
		g.Status = &st
	}
	return g, nil
}

func insertArgs(in models.GameInput) []any {
	var status any
	if in.Status != nil {
		status = string(*in.Status)
	}
	return []any{in.Title, in.Platform, in.Genre, in.HoursPlayed, in.Completed, status}
}

// List は全件を登録順に返す。0件なら空のスライス
func (s *GameStore) List(ctx context.Context) ([]models.Game, error) {
	rows, err := s.db.QueryContext(ctx, selectGames+" ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	games := []models.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("list games: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

func (s *GameStore) Get(ctx context.Context, id int64) (models.Game, error) {
	g, err := scanGame(s.db.QueryRowContext(ctx, selectGames+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Game{}, ErrNotFound
	}
	if err != nil {
		return models.Game{}, fmt.Errorf("get game %d: %w", id, err)
	}
	return g, nil
}

// Create は1行追加して採番された id を返す
func (s *GameStore) Create(ctx context.Context, in models.GameInput) (int64, error) {
	result, err := s.db.ExecContext(ctx, insertGame, insertArgs(in)...)
	if err != nil {
		return 0, fmt.Errorf("create game: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create game: %w", err)
	}
	return id, nil
}

// Update は id 以外の項目をすべて置き換える。省略された項目は NULL になる
func (s *GameStore) Update(ctx context.Context, id int64, in models.GameInput) error {
	args := append(insertArgs(in), id)
	result, err := s.db.ExecContext(ctx, `
		UPDATE games SET
			title = ?, platform = ?, genre = ?, hours_played = ?, completed = ?, status = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update game %d: %w", id, err)
	}
	return requireRow(result)
}

func (s *GameStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM games WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete game %d: %w", id, err)
	}
	return requireRow(result)
}

// ReplaceAll は全件削除と再登録を1トランザクションで行う。
// 途中で失敗した場合は元のデータが残る。新しい id を入力順に返す
func (s *GameStore) ReplaceAll(ctx context.Context, inputs []models.GameInput) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("replace games: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM games"); err != nil {
		return nil, fmt.Errorf("replace games: delete: %w", err)
	}

	ids := make([]int64, 0, len(inputs))
	if len(inputs) > 0 {
		stmt, err := tx.PrepareContext(ctx, insertGame)
		if err != nil {
			return nil, fmt.Errorf("replace games: prepare: %w", err)
		}
		defer stmt.Close()

		for i, in := range inputs {
			result, err := stmt.ExecContext(ctx, insertArgs(in)...)
			if err != nil {
				return nil, fmt.Errorf("replace games: insert %d: %w", i, err)
			}
			id, err := result.LastInsertId()
			if err != nil {
				return nil, fmt.Errorf("replace games: insert %d: %w", i, err)
			}
			ids = append(ids, id)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("replace games: commit: %w", err)
	}
	return ids, nil
}

// DeleteAll は全件削除する。空のテーブルに対しても成功する
func (s *GameStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM games"); err != nil {
		return fmt.Errorf("delete games: %w", err)
	}
	return nil
}

func (s *GameStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(hours_played), 0)
		FROM games`).Scan(&st.TotalGames, &st.CompletedGames, &st.TotalHours)
	if err != nil {
		return Stats{}, fmt.Errorf("game stats: %w", err)
	}

	// DBファイルサイズ (SQLite特有) ページ数 * ページサイズ
	var pageSize, pageCount int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return Stats{}, fmt.Errorf("game stats: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return Stats{}, fmt.Errorf("game stats: %w", err)
	}
	st.SizeBytes = pageSize * pageCount
	return st, nil
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
