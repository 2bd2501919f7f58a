package review

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chess_mentor/internal/adapters"
	"chess_mentor/internal/bootstrap"
	"chess_mentor/internal/delivery/auth"
	"chess_mentor/internal/httpresponse"
	repo "chess_mentor/internal/repository"
	"chess_mentor/internal/statuses"
	gameuc "chess_mentor/internal/usecase/game"
	"chess_mentor/internal/usecase/report"
	reviewuc "chess_mentor/internal/usecase/review"
)

type ReviewHandler struct {
	cfg         bootstrap.Config
	log         *zap.SugaredLogger
	games       *repo.GameRepository
	engine      *repo.EngineClient
	llm         *repo.LlmRepo
	authHandler *auth.AuthHandler

	notesMu sync.Mutex
	notes   map[string][]report.Annotation // critiques collected per public game key
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientMessage drives the review cursor.
type clientMessage struct {
	Action string `json:"action"` // "start", "seek", "jump"
	Target string `json:"target,omitempty"`
	Index  int    `json:"index,omitempty"`
}

func NewReviewHandler(
	cfg bootstrap.Config,
	log *zap.SugaredLogger,
	mongoAdapter *adapters.AdapterMongo,
	redisAdapter *adapters.AdapterRedis,
	engine *repo.EngineClient,
	llm *repo.LlmRepo,
	authHandler *auth.AuthHandler,
) *ReviewHandler {
	return &ReviewHandler{
		cfg:         cfg,
		log:         log,
		games:       repo.NewGameRepository(cfg, log, redisAdapter.GetClient(), mongoAdapter.Database),
		engine:      engine,
		llm:         llm,
		authHandler: authHandler,
		notes:       make(map[string][]report.Annotation),
	}
}

// HandleReview runs a websocket review session over a completed game. The
// client steers the cursor; every landing spot comes back with its position,
// the engine's verdict and a critique of the move played there.
func (h *ReviewHandler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gameKey := r.URL.Query().Get("game_key")
	playerID := h.authHandler.GetUserID(w, r)
	if gameKey == "" || playerID == "" {
		h.log.Error("missing game_key or player id")
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "missing game_key or player id")
		return
	}

	play, err := h.games.GetGameByPublicKey(ctx, gameKey)
	if err != nil {
		h.log.Error(err)
		httpresponse.WriteResponseWithStatus(w, http.StatusNotFound, "Game not found")
		return
	}
	if play.PlayerID != playerID {
		httpresponse.WriteResponseWithStatus(w, http.StatusForbidden, "not your game")
		return
	}
	if play.Status != statuses.StatusCompleted {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "game is still in progress")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("upgrade error:", err)
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	nav := reviewuc.NewNavigator(play.Moves, h.engine, h.llm, h.cfg.ReviewDepth, h.log)
	nav.OnUpdate(func(upd reviewuc.Update) {
		h.recordNote(play.GameKeyPublic, upd)
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(upd); err != nil {
			h.log.Warnf("review write error: %v", err)
		}
	})

	nav.Start()

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			h.log.Info("review session closed:", err)
			return
		}

		switch msg.Action {
		case "start":
			nav.Start()
		case "seek":
			nav.Seek(msg.Target)
		case "jump":
			nav.Jump(msg.Index)
		default:
			writeMu.Lock()
			conn.WriteMessage(websocket.TextMessage, []byte("unknown action: "+msg.Action))
			writeMu.Unlock()
		}
	}
}

// HandleReport streams a PDF summary of a completed game, including any
// critiques collected during review sessions.
func (h *ReviewHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gameKey := r.URL.Query().Get("game_key")
	playerID := h.authHandler.GetUserID(w, r)
	if gameKey == "" || playerID == "" {
		return
	}

	play, err := h.games.GetGameByPublicKey(ctx, gameKey)
	if err != nil {
		h.log.Error(err)
		httpresponse.WriteResponseWithStatus(w, http.StatusNotFound, "Game not found")
		return
	}
	if play.PlayerID != playerID {
		httpresponse.WriteResponseWithStatus(w, http.StatusForbidden, "not your game")
		return
	}

	h.notesMu.Lock()
	annotations := append([]report.Annotation(nil), h.notes[play.GameKeyPublic]...)
	h.notesMu.Unlock()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=game_"+play.GameKeyPublic+".pdf")
	if err := report.WriteGameReport(w, play, annotations); err != nil {
		h.log.Errorf("failed to render report for game %s: %v", play.GameKeyPublic, err)
	}
}

// HandlePGN returns the movetext of a completed game.
func (h *ReviewHandler) HandlePGN(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gameKey := r.URL.Query().Get("game_key")
	playerID := h.authHandler.GetUserID(w, r)
	if gameKey == "" || playerID == "" {
		return
	}

	play, err := h.games.GetGameByPublicKey(ctx, gameKey)
	if err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusNotFound, "Game not found")
		return
	}
	if play.PlayerID != playerID {
		httpresponse.WriteResponseWithStatus(w, http.StatusForbidden, "not your game")
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, gameuc.PGN(play.Moves, play.Result))
}

// recordNote keeps at most one annotation per ply, latest critique wins.
func (h *ReviewHandler) recordNote(publicKey string, upd reviewuc.Update) {
	if upd.Cursor < 0 || upd.Advice.Text == "" {
		return
	}
	h.notesMu.Lock()
	defer h.notesMu.Unlock()

	list := h.notes[publicKey]
	for i := range list {
		if list[i].Ply == upd.Cursor {
			list[i].Advice = upd.Advice
			return
		}
	}
	h.notes[publicKey] = append(list, report.Annotation{Ply: upd.Cursor, Advice: upd.Advice})
}
