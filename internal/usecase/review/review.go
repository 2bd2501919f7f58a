// Package review drives post-game critique: a cursor over a finalized move
// sequence that reconstructs historical positions on demand and re-analyzes
// them through the engine.
package review

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	chessdom "chess_mentor/internal/domain/chess"
	"chess_mentor/internal/domain/game"
	"chess_mentor/internal/rules"
	"chess_mentor/internal/usecase/advice"
)

type Analyzer interface {
	Ready() bool
	Evaluate(fen string, depth int, onSample chessdom.SampleFunc) error
}

// Commentator produces optional long-form commentary for a review position.
type Commentator interface {
	SendRequestToLlm(request string) (response string, err error)
}

// Update is delivered to the consumer every time the cursor lands somewhere
// and the re-analysis of that spot completes.
type Update struct {
	Cursor     int                     `json:"cursor"`
	FEN        string                  `json:"fen"`
	Advice     chessdom.Advice         `json:"advice"`
	Sample     chessdom.AnalysisSample `json:"sample"`
	Commentary string                  `json:"commentary,omitempty"`
}

// Navigator is a cursor over an immutable move sequence, range [-1, len-1]
// where -1 is the position before any move. Every cursor change replays the
// prefix from the starting position, an O(cursor) reconstruction with no
// incremental undo state to drift, then requests analysis of the position
// one ply before the cursor to learn what the engine would have preferred
// there. A sufficiently deep sample feeds the critique generator; the result
// reaches the consumer through the registered callback.
type Navigator struct {
	mu       sync.Mutex
	uci      []string
	san      []string
	cursor   int
	depth    int
	seq      int  // guards against samples of a superseded cursor position
	done     bool // an update for the current seq was already delivered
	analyzer Analyzer
	comment  Commentator
	onUpdate func(Update)
	log      *zap.SugaredLogger
}

func NewNavigator(moves []game.MoveRecord, analyzer Analyzer, comment Commentator, depth int, log *zap.SugaredLogger) *Navigator {
	uci := make([]string, len(moves))
	san := make([]string, len(moves))
	for i, m := range moves {
		uci[i] = m.UCI
		san[i] = m.SAN
	}
	return &Navigator{
		uci:      uci,
		san:      san,
		cursor:   -1,
		depth:    depth,
		analyzer: analyzer,
		comment:  comment,
		log:      log,
	}
}

// OnUpdate registers the consumer callback. Updates arrive on the engine's
// reader goroutine; the consumer must be safe for that.
func (n *Navigator) OnUpdate(fn func(Update)) {
	n.mu.Lock()
	n.onUpdate = fn
	n.mu.Unlock()
}

// Start positions the cursor on the last move of the game.
func (n *Navigator) Start() {
	n.jumpTo(len(n.uci) - 1)
}

// Seek moves the cursor relative to its current spot. Unknown targets are
// ignored. The cursor never leaves [-1, len-1].
func (n *Navigator) Seek(target string) {
	n.mu.Lock()
	cur := n.cursor
	n.mu.Unlock()

	switch target {
	case "start":
		n.jumpTo(-1)
	case "prev":
		n.jumpTo(cur - 1)
	case "next":
		n.jumpTo(cur + 1)
	case "end":
		n.jumpTo(len(n.uci) - 1)
	default:
		n.log.Warnf("review: unknown seek target %q", target)
	}
}

// Jump sets the cursor directly, clamped to the valid range.
func (n *Navigator) Jump(index int) {
	n.jumpTo(index)
}

func (n *Navigator) Cursor() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cursor
}

// PositionAt reconstructs the position after moves 0..index by replay. A pure
// function of the move-sequence prefix: two calls with the same index always
// agree.
func (n *Navigator) PositionAt(index int) (string, error) {
	return rules.FENAfter(n.uci, clamp(index, len(n.uci)))
}

func (n *Navigator) jumpTo(index int) {
	index = clamp(index, len(n.uci))

	n.mu.Lock()
	n.cursor = index
	n.seq++
	mySeq := n.seq
	n.done = false
	n.mu.Unlock()

	fen, err := n.PositionAt(index)
	if err != nil {
		n.log.Errorf("review: reconstruction at %d failed: %v", index, err)
		return
	}

	// Analyze one ply before the cursor: that is where the engine's
	// preference diverged from (or agreed with) the move actually played.
	priorFEN, err := n.PositionAt(index - 1)
	if err != nil {
		n.log.Errorf("review: reconstruction at %d failed: %v", index-1, err)
		return
	}

	if !n.analyzer.Ready() {
		n.deliver(Update{
			Cursor: index,
			FEN:    fen,
			Advice: chessdom.Advice{Text: "Engine analysis is unavailable right now."},
		})
		return
	}

	err = n.analyzer.Evaluate(priorFEN, n.depth, func(sample chessdom.AnalysisSample) {
		if sample.Depth < n.depth || sample.BestMove == "" {
			return
		}
		n.mu.Lock()
		if mySeq != n.seq || n.done {
			n.mu.Unlock()
			return
		}
		n.done = true
		n.mu.Unlock()

		// Off the engine reader goroutine: buildUpdate may call out to
		// the commentary agent.
		go n.deliver(n.buildUpdate(index, fen, priorFEN, sample))
	})
	if err != nil {
		n.log.Warnf("review: analysis request failed: %v", err)
	}
}

func (n *Navigator) buildUpdate(index int, fen, priorFEN string, sample chessdom.AnalysisSample) Update {
	upd := Update{Cursor: index, FEN: fen, Sample: sample}

	if index < 0 {
		upd.Advice = advice.StartingPositionAdvice()
		return upd
	}

	crit, err := advice.CritiqueMove(priorFEN, n.uci[index], sample)
	if err != nil {
		n.log.Errorf("review: critique at %d failed: %v", index, err)
		crit = chessdom.Advice{MoveSAN: n.san[index], Text: "No critique available for this move."}
	}
	upd.Advice = crit

	if n.comment != nil {
		if text, err := n.comment.SendRequestToLlm(n.commentaryPrompt(index, sample)); err == nil {
			upd.Commentary = text
		}
	}
	return upd
}

// commentaryPrompt gives the agent the game so far, the move under review and
// what the engine wanted instead.
func (n *Navigator) commentaryPrompt(index int, sample chessdom.AnalysisSample) string {
	var sb strings.Builder
	sb.WriteString("Moves so far: ")
	for i := 0; i < index; i++ {
		sb.WriteString(n.san[i])
		sb.WriteString(" ")
	}
	fmt.Fprintf(&sb, "\nMove under review: %s\nEngine preference: %s (eval %d centipawns at depth %d)\n",
		n.san[index], sample.BestMove, sample.CP, sample.Depth)
	sb.WriteString("Explain the difference for a club player in two sentences.")
	return sb.String()
}

func (n *Navigator) deliver(upd Update) {
	n.mu.Lock()
	fn := n.onUpdate
	n.mu.Unlock()
	if fn != nil {
		fn(upd)
	}
}

func clamp(index, length int) int {
	if index < -1 {
		return -1
	}
	if index > length-1 {
		return length - 1
	}
	return index
}
