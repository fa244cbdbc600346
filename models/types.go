package models

// Status はモバイルクライアントが表示する進行状況
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Game は games テーブルの1行。未設定の項目は JSON では null になる
type Game struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Platform    *string `json:"platform"`
	Genre       *string `json:"genre"`
	HoursPlayed *int64  `json:"hours_played"`
	Completed   *bool   `json:"completed"`
	Status      *Status `json:"status,omitempty"`
}

// GameInput は POST /api, PUT /api/:id および PUT /api の各要素で受け取るデータ
type GameInput struct {
	Title       string  `json:"title" validate:"required,notblank"`
	Platform    *string `json:"platform"`
	Genre       *string `json:"genre"`
	HoursPlayed *int64  `json:"hours_played" validate:"omitempty,min=0"`
	Completed   *bool   `json:"completed"`
	Status      *Status `json:"status" validate:"omitempty,oneof='Not Started' 'In Progress' 'Completed'"`
}

// Record は入力を保存済みレコードの形に変換する
func (in GameInput) Record(id int64) Game {
	return Game{
		ID:          id,
		Title:       in.Title,
		Platform:    in.Platform,
		Genre:       in.Genre,
		HoursPlayed: in.HoursPlayed,
		Completed:   in.Completed,
		Status:      in.Status,
	}
}

// Input は既存レコードを更新用の入力に戻す
func (g Game) Input() GameInput {
	return GameInput{
		Title:       g.Title,
		Platform:    g.Platform,
		Genre:       g.Genre,
		HoursPlayed: g.HoursPlayed,
		Completed:   g.Completed,
		Status:      g.Status,
	}
}

// DisplayStatus は画面に出す進行状況を返す。
// status 列が無い古いレコードは completed から判断し、どちらも無ければ Not Started
func DisplayStatus(g Game) Status {
	if g.Status != nil && *g.Status != "" {
		return *g.Status
	}
	if g.Completed != nil && *g.Completed {
		return StatusCompleted
	}
	return StatusNotStarted
}

type StatusResponse struct {
	Status string `json:"status"`
}

type CreateResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// レスポンスの status 文字列（既存クライアントとの互換のため綴りはそのまま）
const (
	MsgCreated         = "CREATE ENTRY SUCCESFUL"
	MsgUpdated         = "UPDATE GAME ENTRY SUCCESFUL"
	MsgDeleted         = "DELETE GAME ENTRY SUCCESFUL"
	MsgReplacedAll     = "REPLACE COLLECTION SUCCESFUL"
	MsgDeletedAll      = "DELETE COLLECTION SUCCESFUL"
	MsgGameNotFound    = "Game not found"
	MsgInvalidJSON     = "Invalid JSON"
	MsgTitleIsRequired = "Game title is required"
)
