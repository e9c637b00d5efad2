package game

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	errs "kifu/internal/errors"
	"kifu/internal/httpresponse"
	gameuc "kifu/internal/usecase/game"
	"kifu/internal/utils"
)

type GameHandler struct {
	log    *zap.SugaredLogger
	gameUC *gameuc.GameUseCase
}

func NewGameHandler(log *zap.SugaredLogger, gameUC *gameuc.GameUseCase) *GameHandler {
	return &GameHandler{
		log:    log,
		gameUC: gameUC,
	}
}

// Routes mounts every game endpoint on r.
func (g *GameHandler) Routes(r chi.Router) {
	r.Post("/sessions", g.HandleCreateSession)
	r.Post("/sessions/new", g.HandleNewGame)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", g.HandleView)
		r.Delete("/", g.HandleCloseSession)
		r.Post("/load", g.HandleLoad)
		r.Post("/new", g.HandleNewGame)
		r.Post("/nav/{op}", g.HandleNavigate)
		r.Post("/play", g.HandlePlay)
		r.Post("/tabs/{n}", g.HandleSwitchTab)
		r.Delete("/tabs/{n}", g.HandleCloseTab)
		r.Post("/save", g.HandleSave)
		r.Get("/sgf", g.HandleSGF)
		r.Post("/analyse", g.HandleAnalyse)
		r.Post("/halt", g.HandleHalt)
		r.Get("/ws", g.HandleWebsocket)
	})
	r.Get("/records", g.HandleListRecords)
	r.Delete("/records/{id}", g.HandleDeleteRecord)
	r.Post("/records/{id}/open", g.HandleOpenRecord)
	r.Get("/archive", g.HandleArchive)
}

type LoadResponse struct {
	Session   string      `json:"session"`
	Games     int         `json:"games"`
	Parsed    int         `json:"parsed"`
	Charset   string      `json:"charset,omitempty"`
	Discarded int         `json:"discarded,omitempty"`
	Warning   string      `json:"warning,omitempty"`
	View      gameuc.View `json:"view"`
}

type NewGameRequest struct {
	Session  string   `json:"session,omitempty"`
	Size     int      `json:"size,omitempty"`
	Komi     *float64 `json:"komi,omitempty"`
	Handicap int      `json:"handicap,omitempty"`
}

type PlayRequest struct {
	Color string `json:"color,omitempty"`
	Point string `json:"point"`
}

type NavigateResponse struct {
	Changed bool        `json:"changed"`
	View    gameuc.View `json:"view"`
}

type SaveResponse struct {
	Record string `json:"record"`
}

type RecordsResponse struct {
	Records []string `json:"records"`
}

type AnalyseResponse struct {
	Search string `json:"search"`
}

type HaltResponse struct {
	Stopped int `json:"stopped"`
}

// HandleCreateSession takes a raw SGF body and opens its games in a new session.
func (g *GameHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	body, err := utils.ReadRequestBody(r)
	if err != nil {
		g.log.Error("Failed to read body:", err)
		httpresponse.WriteErrorResponse(w, http.StatusRequestEntityTooLarge, err)
		return
	}

	s, res, err := g.gameUC.CreateSession(r.Context(), body)
	if !loadSucceeded(res, err) {
		g.writeError(w, err)
		return
	}
	g.writeLoaded(w, s.ID, res, err)
}

// HandleLoad opens the games of a raw SGF body as new tabs of the session.
func (g *GameHandler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	body, err := utils.ReadRequestBody(r)
	if err != nil {
		g.log.Error("Failed to read body:", err)
		httpresponse.WriteErrorResponse(w, http.StatusRequestEntityTooLarge, err)
		return
	}

	res, err := g.gameUC.LoadIntoSession(r.Context(), id, body)
	if !loadSucceeded(res, err) {
		g.writeError(w, err)
		return
	}
	g.writeLoaded(w, id, res, err)
}

// loadSucceeded reports whether a load opened something. Hitting the tab limit
// after at least one game is a warning; opening nothing is an error.
func loadSucceeded(res *gameuc.LoadResult, err error) bool {
	if err == nil {
		return true
	}
	return errors.Is(err, errs.ErrTabLimit) && res != nil && res.Opened > 0
}

func (g *GameHandler) writeLoaded(w http.ResponseWriter, sessionID string, res *gameuc.LoadResult, loadErr error) {
	view, err := g.gameUC.View(sessionID)
	if err != nil {
		g.writeError(w, err)
		return
	}
	resp := LoadResponse{
		Session:   sessionID,
		Games:     res.Opened,
		Parsed:    len(res.Roots),
		Charset:   res.Charset,
		Discarded: res.Discarded,
		View:      view,
	}
	if res.DiscardErr != nil {
		resp.Warning = res.DiscardErr.Error()
	}
	if loadErr != nil {
		resp.Warning = loadErr.Error()
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

func (g *GameHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	var req NewGameRequest
	if r.ContentLength != 0 {
		if err := utils.DecodeJSONRequest(r, &req); err != nil {
			g.log.Error("JSON decode error:", err)
			httpresponse.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}
	}
	if id := chi.URLParam(r, "id"); id != "" {
		req.Session = id
	}

	s, err := g.gameUC.NewGame(req.Session, req.Size, req.Komi, req.Handicap)
	if err != nil {
		g.writeError(w, err)
		return
	}
	g.writeView(w, s.ID)
}

func (g *GameHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	g.writeView(w, chi.URLParam(r, "id"))
}

func (g *GameHandler) HandleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := g.gameUC.CloseSession(chi.URLParam(r, "id")); err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, nil)
}

func (g *GameHandler) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	view, changed, err := g.gameUC.Navigate(chi.URLParam(r, "id"), chi.URLParam(r, "op"))
	if err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, NavigateResponse{Changed: changed, View: view})
}

func (g *GameHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Error("JSON decode error:", err)
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	view, err := g.gameUC.PlayMove(chi.URLParam(r, "id"), req.Color, req.Point)
	if err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, view)
}

func (g *GameHandler) HandleSwitchTab(w http.ResponseWriter, r *http.Request) {
	g.withTab(w, r, g.gameUC.SwitchTab)
}

func (g *GameHandler) HandleCloseTab(w http.ResponseWriter, r *http.Request) {
	g.withTab(w, r, g.gameUC.CloseTab)
}

func (g *GameHandler) withTab(w http.ResponseWriter, r *http.Request, fn func(string, int) (gameuc.View, error)) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, errs.ErrNoSuchTab)
		return
	}
	view, err := fn(chi.URLParam(r, "id"), n)
	if err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, view)
}

func (g *GameHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	record, err := g.gameUC.SaveRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, SaveResponse{Record: record})
}

// HandleSGF returns the active game as an SGF file.
func (g *GameHandler) HandleSGF(w http.ResponseWriter, r *http.Request) {
	text, err := g.gameUC.SGF(chi.URLParam(r, "id"))
	if err != nil {
		g.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-go-sgf; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func (g *GameHandler) HandleOpenRecord(w http.ResponseWriter, r *http.Request) {
	s, err := g.gameUC.OpenRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		g.writeError(w, err)
		return
	}
	g.writeView(w, s.ID)
}

// HandleListRecords lists saved record IDs, newest first, ?limit=.
func (g *GameHandler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	var limit int64
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.ParseInt(l, 10, 64)
		if err != nil || n < 1 {
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: "invalid limit"})
			return
		}
		limit = n
	}
	ids, err := g.gameUC.ListRecords(r.Context(), limit)
	if err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, RecordsResponse{Records: ids})
}

func (g *GameHandler) HandleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := g.gameUC.DeleteRecord(r.Context(), chi.URLParam(r, "id")); err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, nil)
}

func (g *GameHandler) HandleAnalyse(w http.ResponseWriter, r *http.Request) {
	search, err := g.gameUC.Analyze(chi.URLParam(r, "id"))
	if err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusAccepted, AnalyseResponse{Search: search})
}

// HandleHalt stops the session's running searches.
func (g *GameHandler) HandleHalt(w http.ResponseWriter, r *http.Request) {
	stopped, err := g.gameUC.Halt(chi.URLParam(r, "id"))
	if err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, HaltResponse{Stopped: stopped})
}

// HandleArchive lists archived games by player name, ?player=&page=.
func (g *GameHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: "invalid page"})
			return
		}
		page = n
	}

	resp, err := g.gameUC.GetArchiveOfGames(r.Context(), page, r.URL.Query().Get("player"))
	if err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

func (g *GameHandler) writeView(w http.ResponseWriter, sessionID string) {
	view, err := g.gameUC.View(sessionID)
	if err != nil {
		g.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, view)
}

func (g *GameHandler) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		g.log.Errorw("request failed", "error", err)
		httpresponse.WriteErrorResponse(w, status, errs.ErrInternal)
		return
	}
	g.log.Infow("request rejected", "status", status, "error", err)
	httpresponse.WriteErrorResponse(w, status, err)
}

// StatusFor maps use case errors to HTTP statuses.
func StatusFor(err error) int {
	var perr *gameuc.ParseError
	switch {
	case errors.As(err, &perr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrSessionNotFound),
		errors.Is(err, errs.ErrRecordNotFound),
		errors.Is(err, errs.ErrNoSuchTab):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrUnknownOp), errors.Is(err, errs.ErrBadMove):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrTabLimit):
		return http.StatusConflict
	case errors.Is(err, errs.ErrEngineDisabled), errors.Is(err, errs.ErrArchiveDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
