package game

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chess_mentor/internal/adapters"
	"chess_mentor/internal/bootstrap"
	"chess_mentor/internal/delivery/auth"
	gamedom "chess_mentor/internal/domain/game"
	errs "chess_mentor/internal/errors"
	"chess_mentor/internal/httpresponse"
	repo "chess_mentor/internal/repository"
	"chess_mentor/internal/statuses"
	"chess_mentor/internal/usecase/decision"
	gameuc "chess_mentor/internal/usecase/game"
	"chess_mentor/internal/usecase/learn"
	"chess_mentor/internal/utils"
)

type GameHandler struct {
	cfg         bootstrap.Config
	log         *zap.SugaredLogger
	gameUC      *gameuc.GameUsecaseHandler
	authHandler *auth.AuthHandler
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientMessage is what the player sends over the live websocket.
type clientMessage struct {
	Action string `json:"action"` // "move", "hint", "resign"
	UCI    string `json:"uci,omitempty"`
}

var activeGames = make(map[string]*gamedom.Game)
var activeGamesMu sync.RWMutex

func NewGameHandler(
	cfg bootstrap.Config,
	log *zap.SugaredLogger,
	mongoAdapter *adapters.AdapterMongo,
	redisAdapter *adapters.AdapterRedis,
	engine *repo.EngineClient,
	book *repo.OpeningBook,
	authHandler *auth.AuthHandler,
) *GameHandler {
	patterns := repo.NewPatternStorage(redisAdapter.GetClient(), log)
	selector := decision.NewMoveSelector(book, patterns, log, rand.New(rand.NewSource(time.Now().UnixNano())))
	gameUC := gameuc.NewGameUsecaseHandler(
		cfg,
		log,
		repo.NewGameRepository(cfg, log, redisAdapter.GetClient(), mongoAdapter.Database),
		engine,
		selector,
		repo.NewMongoUserStorage(mongoAdapter, log),
		learn.NewLearner(patterns, log),
	)
	return &GameHandler{
		cfg:         cfg,
		log:         log,
		gameUC:      gameUC,
		authHandler: authHandler,
	}
}

func (g *GameHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.log.Error("Only POST method is allowed")
		httpresponse.WriteResponseWithStatus(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	userID := g.authHandler.GetUserID(w, r)
	if userID == "" {
		return
	}

	var req gamedom.CreateGameRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Error("JSON decode error:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	ctx := r.Context()
	newGame, err := g.gameUC.CreateGame(ctx, userID, req)
	if err != nil {
		g.log.Error(err)
		httpresponse.WriteResponseWithStatus(w, http.StatusInternalServerError,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	g.log.Infof("new game created with key: %s", newGame.GameKeyPublic)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, gamedom.GameCreateResponse{
		GameKeyPublic: newGame.GameKeyPublic,
		GameKeySecret: newGame.GameKeySecret,
	})
}

func (g *GameHandler) GetGameById(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.log.Error("Only POST method is allowed")
		httpresponse.WriteResponseWithStatus(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	var req gamedom.GameFindRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Error("JSON decode error:", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	foundGame, err := g.gameUC.GetGameByPublicKey(r.Context(), req.GameKeyPublic)
	if err != nil {
		if errors.Is(err, errs.ErrGameNotFound) {
			httpresponse.WriteResponseWithStatus(w, http.StatusNotFound,
				httpresponse.ErrorResponse{ErrorDescription: "Game not found"})
			return
		}
		g.log.Error(err)
		httpresponse.WriteResponseWithStatus(w, http.StatusInternalServerError,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	foundGame.GameKeySecret = ""
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, foundGame)
}

func (g *GameHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	userID := g.authHandler.GetUserID(w, r)
	if userID == "" {
		return
	}

	games, err := g.gameUC.GetArchiveGamesByPlayer(r.Context(), userID)
	if err != nil {
		g.log.Error(err)
		httpresponse.WriteResponseWithStatus(w, http.StatusInternalServerError,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}
	for i := range games {
		games[i].GameKeySecret = ""
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, games)
}

// HandleStartGame upgrades to a websocket and runs the live play loop: the
// player sends moves and hint requests, the server answers with the updated
// state after the bot's reply.
func (g *GameHandler) HandleStartGame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	gameKey := r.URL.Query().Get("game_key")
	playerID := g.authHandler.GetUserID(w, r)

	if gameKey == "" || playerID == "" {
		g.log.Error("missing game_key or player id")
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "missing game_key or player id")
		return
	}

	play, err := g.lookupActiveGame(ctx, gameKey)
	if err != nil {
		g.log.Error(err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	if play.PlayerID != playerID {
		g.log.Errorf("player %s does not own game %s", playerID, play.GameKeyPublic)
		httpresponse.WriteResponseWithStatus(w, http.StatusForbidden, "not your game")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error("upgrade error:", err)
		return
	}

	activeGamesMu.Lock()
	if play.PlayerWS != nil {
		play.PlayerWS.WriteMessage(websocket.TextMessage, []byte("You were disconnected, a new connection took over."))
		play.PlayerWS.Close()
	}
	play.PlayerWS = conn
	activeGamesMu.Unlock()

	defer func() {
		conn.Close()
		activeGamesMu.Lock()
		if play.PlayerWS == conn {
			play.PlayerWS = nil
		}
		activeGamesMu.Unlock()
	}()

	// When the player took black the bot opens the game.
	g.maybeBotMove(ctx, play, conn)

	for {
		var msg clientMessage
		if err = conn.ReadJSON(&msg); err != nil {
			g.log.Error("read error:", err)
			return
		}

		switch msg.Action {
		case "move":
			g.handlePlayerMove(ctx, play, conn, msg.UCI)
		case "hint":
			g.handleHint(ctx, play, conn)
		case "resign":
			g.handleResign(ctx, play, conn)
			return
		default:
			conn.WriteMessage(websocket.TextMessage, []byte("unknown action: "+msg.Action))
		}

		if play.Status != statuses.StatusActive {
			return
		}
	}
}

func (g *GameHandler) lookupActiveGame(ctx context.Context, gameKeySecret string) (*gamedom.Game, error) {
	activeGamesMu.Lock()
	defer activeGamesMu.Unlock()

	if ag, ok := activeGames[gameKeySecret]; ok {
		return ag, nil
	}
	foundGame, err := g.gameUC.GetGameBySecretKey(ctx, gameKeySecret)
	if err != nil {
		return nil, err
	}
	ag := &foundGame
	activeGames[gameKeySecret] = ag
	return ag, nil
}

func (g *GameHandler) handlePlayerMove(ctx context.Context, play *gamedom.Game, conn *websocket.Conn, uci string) {
	rec, over, result, err := g.gameUC.ApplyUserMove(ctx, *play, uci)
	if err != nil {
		g.log.Warnf("rejected move %s in game %s: %v", uci, play.GameKeyPublic, err)
		conn.WriteJSON(httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	state := gamedom.GameStateResponse{
		PlayerMove: &rec,
		FEN:        rec.FENAfter,
		Status:     play.Status,
	}

	if over {
		g.finishGame(ctx, play, result)
		state.Status = play.Status
		state.Result = result
		conn.WriteJSON(state)
		return
	}

	botRec, rationale, botOver, botResult, err := g.gameUC.BotMove(ctx, *play)
	if err != nil {
		g.log.Errorf("bot move failed in game %s: %v", play.GameKeyPublic, err)
		state.Status = play.Status
		conn.WriteJSON(state)
		conn.WriteJSON(httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	state.BotMove = &botRec
	state.BotRationale = rationale
	state.FEN = botRec.FENAfter
	if botOver {
		g.finishGame(ctx, play, botResult)
		state.Result = botResult
	}
	state.Status = play.Status
	conn.WriteJSON(state)
}

func (g *GameHandler) handleHint(ctx context.Context, play *gamedom.Game, conn *websocket.Conn) {
	hint, err := g.gameUC.Hint(ctx, *play)
	if err != nil {
		g.log.Warnf("hint failed in game %s: %v", play.GameKeyPublic, err)
		conn.WriteJSON(httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}
	conn.WriteJSON(gamedom.GameStateResponse{Advice: &hint, Status: play.Status})
}

func (g *GameHandler) handleResign(ctx context.Context, play *gamedom.Game, conn *websocket.Conn) {
	result := statuses.ResultBlackWins
	if play.PlayerColor == "black" {
		result = statuses.ResultWhiteWins
	}
	g.finishGame(ctx, play, result)
	conn.WriteJSON(gamedom.GameStateResponse{Status: play.Status, Result: result})
}

// maybeBotMove lets the bot open when it is its turn on connect.
func (g *GameHandler) maybeBotMove(ctx context.Context, play *gamedom.Game, conn *websocket.Conn) {
	if play.Status != statuses.StatusActive || play.PlayerColor != "black" {
		return
	}

	botRec, rationale, over, result, err := g.gameUC.BotMove(ctx, *play)
	if err != nil {
		if !errors.Is(err, errs.ErrNotYourTurn) {
			g.log.Warnf("opening bot move failed in game %s: %v", play.GameKeyPublic, err)
		}
		return
	}

	state := gamedom.GameStateResponse{
		BotMove:      &botRec,
		BotRationale: rationale,
		FEN:          botRec.FENAfter,
		Status:       play.Status,
	}
	if over {
		g.finishGame(ctx, play, result)
		state.Status = play.Status
		state.Result = result
	}
	conn.WriteJSON(state)
}

func (g *GameHandler) finishGame(ctx context.Context, play *gamedom.Game, result string) {
	if err := g.gameUC.Finish(ctx, *play, result); err != nil {
		g.log.Errorf("failed to finish game %s: %v", play.GameKeyPublic, err)
		return
	}
	play.Status = statuses.StatusCompleted
	play.Result = result

	activeGamesMu.Lock()
	delete(activeGames, play.GameKeySecret)
	activeGamesMu.Unlock()
}
