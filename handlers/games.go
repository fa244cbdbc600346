package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"gamecollection/database"
	"gamecollection/models"
)

// ListGames: GET /api
func ListGames(store *database.GameStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		games, err := store.List(c.UserContext())
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(games)
	}
}

// CreateGame: POST /api
func CreateGame(store *database.GameStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input models.GameInput
		if err := c.BodyParser(&input); err != nil {
			return badRequest(c, models.MsgInvalidJSON)
		}
		if err := input.Validate(); err != nil {
			return badRequest(c, err.Error())
		}

		id, err := store.Create(c.UserContext(), input)
		if err != nil {
			return storeError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(models.CreateResponse{
			Status: models.MsgCreated,
			ID:     id,
		})
	}
}

// ReplaceGames: PUT /api
// 全件を削除して送られた配列で登録し直す。id は振り直される
func ReplaceGames(store *database.GameStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var inputs []models.GameInput
		// null は配列ではないので拒否する。空にするなら [] を送る
		if err := c.BodyParser(&inputs); err != nil || inputs == nil {
			return badRequest(c, models.MsgInvalidJSON)
		}
		if err := models.ValidateAll(inputs); err != nil {
			return badRequest(c, err.Error())
		}

		ids, err := store.ReplaceAll(c.UserContext(), inputs)
		if err != nil {
			return storeError(c, err)
		}
		log.Infof("Replaced collection with %d games", len(ids))

		return c.JSON(models.StatusResponse{Status: models.MsgReplacedAll})
	}
}

// DeleteGames: DELETE /api
func DeleteGames(store *database.GameStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := store.DeleteAll(c.UserContext()); err != nil {
			return storeError(c, err)
		}
		return c.JSON(models.StatusResponse{Status: models.MsgDeletedAll})
	}
}

// GetGame: GET /api/:id
func GetGame(store *database.GameStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := gameID(c)
		if !ok {
			return notFound(c)
		}

		game, err := store.Get(c.UserContext(), id)
		if err != nil {
			return storeError(c, err)
		}
		return c.JSON(game)
	}
}

// UpdateGame: PUT /api/:id
// id 以外の項目を送られた内容で置き換える
func UpdateGame(store *database.GameStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := gameID(c)
		if !ok {
			return notFound(c)
		}

		var input models.GameInput
		if err := c.BodyParser(&input); err != nil {
			return badRequest(c, models.MsgInvalidJSON)
		}
		if err := input.Validate(); err != nil {
			return badRequest(c, err.Error())
		}

		if err := store.Update(c.UserContext(), id, input); err != nil {
			return storeError(c, err)
		}
		return c.JSON(models.StatusResponse{Status: models.MsgUpdated})
	}
}

// DeleteGame: DELETE /api/:id
func DeleteGame(store *database.GameStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := gameID(c)
		if !ok {
			return notFound(c)
		}

		if err := store.Delete(c.UserContext(), id); err != nil {
			return storeError(c, err)
		}
		return c.JSON(models.StatusResponse{Status: models.MsgDeleted})
	}
}

// 数値でない id は存在しない id と同じ扱い
func gameID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func storeError(c *fiber.Ctx, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return notFound(c)
	}
	log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: err.Error()})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: models.MsgGameNotFound})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: msg})
}
