// Package uci drives an external chess engine over the Universal Chess Interface.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"termchess-local/engine"
)

// closeTimeout is how long Close waits for the process to exit after "quit".
const closeTimeout = 2 * time.Second

// Engine implements engine.Engine for a UCI binary such as Stockfish.
type Engine struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	lines chan string
	done  chan struct{}

	config engine.Config
	log    *log.Logger

	name   string
	eloMin int
	eloMax int
	hasElo bool

	mu sync.Mutex
}

// New creates an engine for cfg. Nothing is started until Connect.
func New(cfg engine.Config, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	cfg.Difficulty = engine.ClampDifficulty(cfg.Difficulty)
	return &Engine{config: cfg, log: logger}
}

// Name returns the engine's self-reported name once connected.
func (e *Engine) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

// Connect starts the engine subprocess and performs the UCI handshake.
func (e *Engine) Connect(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cmd = exec.Command(e.config.Path)

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	// Discard stderr to prevent blocking
	e.cmd.Stderr = nil

	if err := e.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", e.config.Path, err)
	}
	e.attach(stdout, stdin)

	if err := e.handshake(ctx); err != nil {
		e.shutdown()
		return err
	}
	return nil
}

// attach wires the engine to an already running process's pipes.
func (e *Engine) attach(r io.Reader, w io.WriteCloser) {
	e.stdin = w
	e.lines = make(chan string, 64)
	e.done = make(chan struct{})
	lines, done := e.lines, e.done
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- strings.TrimRight(sc.Text(), "\r"):
			case <-done:
				return
			}
		}
	}()
}

// handshake negotiates UCI mode, applies the difficulty settings and starts a new game.
// Must be called while holding the lock.
func (e *Engine) handshake(ctx context.Context) error {
	if err := e.send("uci"); err != nil {
		return err
	}
	if _, err := e.readUntil(ctx, "uciok", e.parseID); err != nil {
		return fmt.Errorf("uci handshake: %w", err)
	}

	d := e.config.Difficulty
	if err := e.send(fmt.Sprintf("setoption name Skill Level value %d", d)); err != nil {
		return err
	}
	if d < engine.MaxDifficulty && e.hasElo {
		elo := engine.Elo(d)
		if elo < e.eloMin {
			elo = e.eloMin
		}
		if e.eloMax > 0 && elo > e.eloMax {
			elo = e.eloMax
		}
		if err := e.send("setoption name UCI_LimitStrength value true"); err != nil {
			return err
		}
		if err := e.send(fmt.Sprintf("setoption name UCI_Elo value %d", elo)); err != nil {
			return err
		}
	}
	if err := e.ready(ctx); err != nil {
		return err
	}
	if err := e.send("ucinewgame"); err != nil {
		return err
	}
	return e.ready(ctx)
}

func (e *Engine) ready(ctx context.Context) error {
	if err := e.send("isready"); err != nil {
		return err
	}
	if _, err := e.readUntil(ctx, "readyok", nil); err != nil {
		return fmt.Errorf("waiting for readyok: %w", err)
	}
	return nil
}

// parseID records the engine name and the UCI_Elo range from the handshake.
func (e *Engine) parseID(line string) {
	if name, ok := strings.CutPrefix(line, "id name "); ok {
		e.name = name
		return
	}
	if !strings.HasPrefix(line, "option name UCI_Elo ") {
		return
	}
	e.hasElo = true
	fields := strings.Fields(line)
	for i := 0; i+1 < len(fields); i++ {
		n, err := strconv.Atoi(fields[i+1])
		if err != nil {
			continue
		}
		switch fields[i] {
		case "min":
			e.eloMin = n
		case "max":
			e.eloMax = n
		}
	}
}

// send writes one command line to the engine.
func (e *Engine) send(cmd string) error {
	if e.stdin == nil {
		return errors.New("engine not connected")
	}
	e.log.Printf("uci: sending '%s'", cmd)
	if _, err := fmt.Fprintf(e.stdin, "%s\n", cmd); err != nil {
		e.log.Printf("uci: write error: %v", err)
		return fmt.Errorf("failed to send command: %w", err)
	}
	return nil
}

// readUntil reads lines until one whose first word is want, passing every line to
// seen (if non-nil) on the way.
func (e *Engine) readUntil(ctx context.Context, want string, seen func(string)) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case line, ok := <-e.lines:
			if !ok {
				return "", fmt.Errorf("engine closed its output: %w", io.ErrUnexpectedEOF)
			}
			e.log.Printf("uci: read line '%s'", line)
			if seen != nil {
				seen(line)
			}
			if first, _, _ := strings.Cut(line, " "); first == want {
				return line, nil
			}
		}
	}
}

// search runs one "go" command and returns the bestmove line. When ctx ends first
// the search is stopped and its bestmove drained so the engine stays in sync.
// Must be called while holding the lock.
func (e *Engine) search(ctx context.Context, fen, goCmd string, seen func(string)) (string, error) {
	if err := e.send("position fen " + fen); err != nil {
		return "", err
	}
	if err := e.send(goCmd); err != nil {
		return "", err
	}
	line, err := e.readUntil(ctx, "bestmove", seen)
	if err == nil {
		return line, nil
	}
	if ctx.Err() != nil {
		e.log.Printf("uci: %v, stopping search", ctx.Err())
		if serr := e.send("stop"); serr == nil {
			drain, cancel := context.WithTimeout(context.Background(), closeTimeout)
			_, _ = e.readUntil(drain, "bestmove", nil)
			cancel()
		}
	}
	return "", err
}

// BestMove asks the engine for a move, letting it think for the given time.
func (e *Engine) BestMove(ctx context.Context, fen string, think time.Duration) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if think <= 0 {
		think = e.config.ThinkTime
	}
	line, err := e.search(ctx, fen, fmt.Sprintf("go movetime %d", think.Milliseconds()), nil)
	if err != nil {
		return "", err
	}
	return parseBestMove(line)
}

// Evaluate searches fen to the configured depth and reports the last score seen.
func (e *Engine) Evaluate(ctx context.Context, fen string) (engine.Score, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	depth := e.config.EvalDepth
	if depth <= 0 {
		depth = engine.DefaultConfig().EvalDepth
	}
	var score engine.Score
	var found bool
	line, err := e.search(ctx, fen, fmt.Sprintf("go depth %d", depth), func(l string) {
		if s, ok := parseInfo(l); ok {
			score, found = s, true
		}
	})
	if err != nil {
		return engine.Score{}, err
	}
	best, err := parseBestMove(line)
	if err != nil && !errors.Is(err, engine.ErrNoMove) {
		return engine.Score{}, err
	}
	if !found {
		return engine.Score{}, fmt.Errorf("engine reported no score for %q", fen)
	}
	score.Best = best
	return score, nil
}

// parseBestMove extracts the move from "bestmove e2e4 [ponder e7e5]".
func parseBestMove(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return "", fmt.Errorf("malformed bestmove line %q", line)
	}
	if fields[1] == "(none)" || fields[1] == "0000" {
		return "", engine.ErrNoMove
	}
	return fields[1], nil
}

// parseInfo extracts "score cp N" or "score mate N" from an info line.
func parseInfo(line string) (engine.Score, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return engine.Score{}, false
	}
	for i := 1; i+2 < len(fields); i++ {
		if fields[i] != "score" {
			continue
		}
		n, err := strconv.Atoi(fields[i+2])
		if err != nil {
			return engine.Score{}, false
		}
		switch fields[i+1] {
		case "cp":
			return engine.Centipawns(n, ""), true
		case "mate":
			return engine.MateIn(n, ""), true
		}
		return engine.Score{}, false
	}
	return engine.Score{}, false
}

// Close sends quit and waits for the process, killing it if it does not exit in time.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdown()
}

// shutdown must be called while holding the lock.
func (e *Engine) shutdown() error {
	if e.stdin == nil {
		return nil
	}
	_ = e.send("quit")
	e.stdin.Close()
	e.stdin = nil
	close(e.done)

	if e.cmd == nil || e.cmd.Process == nil {
		return nil
	}
	waited := make(chan error, 1)
	go func() { waited <- e.cmd.Wait() }()
	select {
	case <-waited:
		return nil
	case <-time.After(closeTimeout):
		e.log.Printf("uci: %s did not exit, killing", e.config.Path)
		_ = e.cmd.Process.Kill()
		<-waited
		return fmt.Errorf("engine %s did not exit after quit", e.config.Path)
	}
}
