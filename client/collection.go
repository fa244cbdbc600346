package client

import (
	"errors"
	"strings"
	"sync"

	"gamecollection/models"
)

// ErrTitleRequired はタイトル未入力のままリクエストしようとした場合のエラー
var ErrTitleRequired = errors.New(models.MsgTitleIsRequired)

// API は Collection が使うAPI呼び出し
type API interface {
	List() ([]models.Game, error)
	Get(id int64) (models.Game, error)
	Create(in models.GameInput) (int64, error)
	Update(id int64, in models.GameInput) error
	Delete(id int64) error
	DeleteAll() error
}

// Collection はコレクション画面の状態。サーバーの一覧をメモリに持ち、
// 操作が成功したときだけ手元の一覧を更新する。失敗時は何も変えない
type Collection struct {
	api API

	mu         sync.RWMutex
	games      []models.Game
	loading    bool
	refreshing bool
}

func NewCollection(api API) *Collection {
	// 最初の取得が終わるまではロード中
	return &Collection{api: api, loading: true, games: []models.Game{}}
}

// Games は手元の一覧のコピーを返す
func (c *Collection) Games() []models.Game {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Game, len(c.games))
	copy(out, c.games)
	return out
}

func (c *Collection) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func (c *Collection) Refreshing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshing
}

// Fetch はサーバーから一覧を取り直す
func (c *Collection) Fetch() error {
	c.setLoading(true)
	games, err := c.api.List()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		return err
	}
	c.games = games
	return nil
}

// Refresh は引っ張って更新。Fetch の間 Refreshing() が true になる
func (c *Collection) Refresh() error {
	c.mu.Lock()
	c.refreshing = true
	c.mu.Unlock()

	err := c.Fetch()

	c.mu.Lock()
	c.refreshing = false
	c.mu.Unlock()
	return err
}

// Add は新しいゲームを登録する。status 未指定なら Not Started
func (c *Collection) Add(in models.GameInput) (models.Game, error) {
	if strings.TrimSpace(in.Title) == "" {
		return models.Game{}, ErrTitleRequired
	}
	if in.Status == nil {
		st := models.StatusNotStarted
		in.Status = &st
	}

	id, err := c.api.Create(in)
	if err != nil {
		return models.Game{}, err
	}

	game := in.Record(id)
	c.mu.Lock()
	c.games = append(c.games, game)
	c.mu.Unlock()
	return game, nil
}

// Edit は編集内容で上書きする
func (c *Collection) Edit(game models.Game) error {
	if strings.TrimSpace(game.Title) == "" {
		return ErrTitleRequired
	}
	if err := c.api.Update(game.ID, game.Input()); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.games {
		if c.games[i].ID == game.ID {
			c.games[i] = game
		}
	}
	return nil
}

func (c *Collection) Remove(id int64) error {
	if err := c.api.Delete(id); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.games[:0:0]
	for _, g := range c.games {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	c.games = kept
	return nil
}

func (c *Collection) RemoveAll() error {
	if err := c.api.DeleteAll(); err != nil {
		return err
	}

	c.mu.Lock()
	c.games = []models.Game{}
	c.mu.Unlock()
	return nil
}

// Details は詳細画面用に1件をサーバーから取得する
func (c *Collection) Details(id int64) (models.Game, error) {
	return c.api.Get(id)
}

func (c *Collection) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}
