// Package server exposes SAN parsing, move validation and solo game sessions over
// HTTP, with a websocket stream of game state.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"termchess-local/game"
	"termchess-local/notation"
	"termchess-local/rules"
	"termchess-local/validator"
)

// validateTimeout bounds a single legality check.
const validateTimeout = 2 * time.Second

var (
	errNothingToUndo = errors.New("nothing to undo")
	errNothingToRedo = errors.New("nothing to redo")
	errNoMove        = errors.New("san or uci is required")
)

type Server struct {
	app   *fiber.App
	games *Manager
	log   *log.Logger

	validators map[rules.Kind]*validator.Validator
	mu         sync.Mutex
}

// New builds the HTTP app over games.
func New(games *Manager, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		app:        fiber.New(fiber.Config{DisableStartupMessage: true}),
		games:      games,
		log:        logger,
		validators: make(map[rules.Kind]*validator.Validator),
	}

	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))
	s.app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		s.log.Printf("server: %s %s -> %d", c.Method(), c.Path(), c.Response().StatusCode())
		return err
	})

	api := s.app.Group("/api")
	api.Post("/parse", s.parse)
	api.Post("/validate", s.validate)

	routes := api.Group("/games")
	routes.Post("/", s.createGame)
	routes.Get("/:id", s.getGame)
	routes.Delete("/:id", s.deleteGame)
	routes.Get("/:id/legal", s.legalMoves)
	routes.Get("/:id/pgn", s.pgn)
	routes.Post("/:id/moves", s.playMove)
	routes.Post("/:id/undo", s.undo)
	routes.Post("/:id/redo", s.redo)

	s.app.Use("/ws", s.upgrade)
	s.app.Get("/ws/games/:id", websocket.New(s.handleConnection))
	return s
}

// App returns the fiber app, for tests and embedding.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.log.Printf("server: listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown stops the listener and ends every session.
func (s *Server) Shutdown() error {
	return errors.Join(s.app.Shutdown(), s.games.Close())
}

func (s *Server) validatorFor(name string) (*validator.Validator, error) {
	kind, err := rules.ParseKind(name)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.validators[kind]; ok {
		return v, nil
	}
	oracle, err := rules.New(kind)
	if err != nil {
		return nil, err
	}
	v := validator.New(oracle)
	s.validators[kind] = v
	return v, nil
}

func (s *Server) parse(c *fiber.Ctx) error {
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	m, err := notation.Parse(req.SAN)
	if err != nil {
		var se *notation.SyntaxError
		if errors.As(err, &se) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  se.Error(),
				"reason": se.Reason,
				"detail": se.Detail,
			})
		}
		return errorJSON(c, err)
	}
	return c.JSON(moveJSON(m))
}

func (s *Server) validate(c *fiber.Ctx) error {
	var req validateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	v, err := s.validatorFor(req.Rules)
	if err != nil {
		return badRequest(c, err)
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), validateTimeout)
	defer cancel()
	return c.JSON(validationJSON(v.ValidateContext(ctx, req.SAN, strings.TrimSpace(req.FEN))))
}

func (s *Server) createGame(c *fiber.Ctx) error {
	var req createRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
	}
	kind, err := rules.ParseKind(req.Rules)
	if err != nil {
		return badRequest(c, err)
	}
	sess, err := s.games.Create(strings.TrimSpace(req.FEN), kind)
	if err != nil {
		return badRequest(c, err)
	}
	st, err := gameState(sess)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(st)
}

func (s *Server) getGame(c *fiber.Ctx) error {
	sess, err := s.games.Get(c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	st, err := gameState(sess)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(st)
}

func (s *Server) deleteGame(c *fiber.Ctx) error {
	if err := s.games.Remove(c.Params("id")); err != nil {
		return errorJSON(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) legalMoves(c *fiber.Ctx) error {
	sess, err := s.games.Get(c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	moves, err := sess.LegalMoves()
	if err != nil {
		return errorJSON(c, err)
	}
	if moves == nil {
		moves = []string{}
	}
	return c.JSON(fiber.Map{"moves": moves})
}

func (s *Server) pgn(c *fiber.Ctx) error {
	sess, err := s.games.Get(c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	text, err := sess.PGN("White", "Black")
	if err != nil {
		return errorJSON(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/x-chess-pgn")
	return c.SendString(text)
}

func (s *Server) playMove(c *fiber.Ctx) error {
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	id := c.Params("id")
	res, err := s.play(id, req)
	if err != nil {
		return errorJSON(c, err)
	}
	sess, err := s.games.Get(id)
	if err != nil {
		return errorJSON(c, err)
	}
	st, err := gameState(sess)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(fiber.Map{"san": res.SAN, "uci": res.UCI, "state": st})
}

func (s *Server) undo(c *fiber.Ctx) error {
	return s.step(c, s.undoGame)
}

func (s *Server) redo(c *fiber.Ctx) error {
	return s.step(c, s.redoGame)
}

func (s *Server) step(c *fiber.Ctx, f func(id string) error) error {
	id := c.Params("id")
	if err := f(id); err != nil {
		return errorJSON(c, err)
	}
	return s.getGame(c)
}

// play, undoGame and redoGame are shared by the HTTP and websocket handlers. They
// broadcast the new state on success.
func (s *Server) play(id string, req moveRequest) (game.MoveResult, error) {
	sess, err := s.games.Get(id)
	if err != nil {
		return game.MoveResult{}, err
	}
	var res game.MoveResult
	switch {
	case req.UCI != "":
		res, err = sess.PlayUCI(strings.TrimSpace(req.UCI))
	case req.SAN != "":
		res, err = sess.Play(req.SAN)
	default:
		return game.MoveResult{}, errNoMove
	}
	if err != nil {
		return game.MoveResult{}, err
	}
	s.broadcast(id)
	return res, nil
}

func (s *Server) undoGame(id string) error {
	sess, err := s.games.Get(id)
	if err != nil {
		return err
	}
	if !sess.Undo() {
		return errNothingToUndo
	}
	s.broadcast(id)
	return nil
}

func (s *Server) redoGame(id string) error {
	sess, err := s.games.Get(id)
	if err != nil {
		return err
	}
	if !sess.Redo() {
		return errNothingToRedo
	}
	s.broadcast(id)
	return nil
}

func (s *Server) broadcast(id string) {
	if err := s.games.Broadcast(id); err != nil {
		s.log.Printf("server: game %s: broadcast: %v", id, err)
	}
}

// upgrade only lets websocket requests for known games through.
func (s *Server) upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	id := strings.TrimPrefix(c.Path(), "/ws/games/")
	if _, err := s.games.Get(id); err != nil {
		return errorJSON(c, err)
	}
	return c.Next()
}

func (s *Server) handleConnection(c *websocket.Conn) {
	id := c.Params("id")
	sub, err := s.games.Subscribe(id, c)
	if err != nil {
		s.log.Printf("server: game %s: subscribe: %v", id, err)
		c.Close()
		return
	}
	defer sub.Close()
	s.serveConnection(id, sub, c)
}

// messageReader is the read half of a websocket connection.
type messageReader interface {
	ReadMessage() (int, []byte, error)
}

// serveConnection sends the current state, then handles client messages until
// the connection fails in either direction.
func (s *Server) serveConnection(id string, sub *Subscription, conn messageReader) {
	if sess, err := s.games.Get(id); err == nil {
		if msg, err := stateMessage(sess); err == nil && !s.reply(id, sub, msg) {
			return
		}
	}

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			s.log.Printf("server: game %s: connection closed: %v", id, err)
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			if !s.reply(id, sub, errorMessage(err)) {
				return
			}
			continue
		}
		if err := s.handleMessage(id, msg); err != nil && !s.reply(id, sub, errorMessage(err)) {
			return
		}
	}
}

// reply writes msg to one subscriber and reports whether the write succeeded.
func (s *Server) reply(id string, sub *Subscription, msg Message) bool {
	if err := sub.Send(msg); err != nil {
		s.log.Printf("server: game %s: write %s: %v", id, msg.Type, err)
		return false
	}
	return true
}

func (s *Server) handleMessage(id string, msg Message) error {
	switch msg.Type {
	case MessageTypeMove:
		var req moveRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return err
		}
		_, err := s.play(id, req)
		return err
	case MessageTypeUndo:
		return s.undoGame(id)
	case MessageTypeRedo:
		return s.redoGame(id)
	}
	return errors.New("unknown message type: " + string(msg.Type))
}

func errorMessage(err error) Message {
	payload, _ := json.Marshal(err.Error())
	return Message{Type: MessageTypeError, Payload: payload}
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

// errorJSON maps domain errors to HTTP statuses.
func errorJSON(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var (
		se *notation.SyntaxError
		le *validator.LegalityError
		pe *rules.PositionError
	)
	switch {
	case errors.Is(err, ErrGameNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, game.ErrGameOver),
		errors.Is(err, errNothingToUndo),
		errors.Is(err, errNothingToRedo):
		status = fiber.StatusConflict
	case errors.Is(err, errNoMove), errors.As(err, &pe):
		status = fiber.StatusBadRequest
	case errors.As(err, &le):
		status = fiber.StatusUnprocessableEntity
		if le.BadPosition {
			status = fiber.StatusBadRequest
		}
	case errors.As(err, &se):
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
