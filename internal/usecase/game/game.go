package game

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kifu/internal/charset"
	"kifu/internal/domain"
	"kifu/internal/domain/sgf"
	errs "kifu/internal/errors"
	"kifu/internal/metrics"
	"kifu/internal/usecase/layout"
)

type RecordStore interface {
	SaveRecord(ctx context.Context, id string, sgfText string) error
	LoadRecord(ctx context.Context, id string) (string, error)
	ListRecords(ctx context.Context, limit int64) ([]string, error)
	DeleteRecord(ctx context.Context, id string) error
}

type ArchiveStore interface {
	ArchiveGames(ctx context.Context, entries []domain.ArchiveEntry) error
	GetArchiveGamesByName(ctx context.Context, name string, pageNum int) (*domain.ArchiveResponse, error)
}

type Analyzer interface {
	Analyze(request domain.AnalysisRequest) error
	Terminate(searchIDs ...string) error
}

type Settings struct {
	Load     LoadOptions
	TabLimit int
	View     layout.View
	Analysis AnalysisSettings
}

type GameUseCase struct {
	records  RecordStore
	archive  ArchiveStore
	engine   Analyzer
	settings Settings
	log      *zap.SugaredLogger

	mu          sync.RWMutex
	sessions    map[string]*Session
	subscribers map[string]map[chan struct{}]struct{}
	searches    sync.Map // search id -> session id
}

// NewGameUseCase wires the stores. archive may be nil; SetEngine adds the engine
// once it is running.
func NewGameUseCase(records RecordStore, archive ArchiveStore, settings Settings, log *zap.SugaredLogger) *GameUseCase {
	return &GameUseCase{
		records:     records,
		archive:     archive,
		settings:    settings,
		log:         log,
		sessions:    make(map[string]*Session),
		subscribers: make(map[string]map[chan struct{}]struct{}),
	}
}

// SetEngine replaces the engine; nil disables analysis. Searches sent to the
// previous engine are forgotten.
func (g *GameUseCase) SetEngine(engine Analyzer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.engine = engine
	g.searches.Range(func(key, _ any) bool {
		g.searches.Delete(key)
		return true
	})
}

func (g *GameUseCase) newSession() *Session {
	s := NewSession(uuid.NewString(), g.settings.TabLimit, g.settings.View)
	g.mu.Lock()
	g.sessions[s.ID] = s
	g.mu.Unlock()
	metrics.KifuSessions.Inc()
	return s
}

func (g *GameUseCase) GetSession(id string) (*Session, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, errs.ErrSessionNotFound)
	}
	return s, nil
}

func (g *GameUseCase) CloseSession(id string) error {
	if _, err := g.stopSearches(id); err != nil && !errors.Is(err, errs.ErrEngineDisabled) {
		g.log.Warnw("failed to stop searches of closed session", "session", id, "error", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, errs.ErrSessionNotFound)
	}
	delete(g.sessions, id)
	for ch := range g.subscribers[id] {
		close(ch)
	}
	delete(g.subscribers, id)
	metrics.KifuSessions.Dec()
	return nil
}

// LoadResult is the parsed collection of a load together with the number of its
// games that got a tab.
type LoadResult struct {
	*Collection
	Opened int
}

// CreateSession loads buf into a new session. When the tab limit cuts the load
// short the session and result are returned along with ErrTabLimit.
func (g *GameUseCase) CreateSession(ctx context.Context, buf []byte) (*Session, *LoadResult, error) {
	col, err := g.parse(buf)
	if err != nil {
		return nil, nil, err
	}
	s := g.newSession()
	opened, err := g.open(ctx, s, col)
	res := &LoadResult{Collection: col, Opened: opened}
	if err != nil && !errors.Is(err, errs.ErrTabLimit) {
		return nil, nil, err
	}
	return s, res, err
}

// LoadIntoSession opens the games in buf as new tabs of an existing session. Like
// CreateSession it returns the result along with ErrTabLimit.
func (g *GameUseCase) LoadIntoSession(ctx context.Context, sessionID string, buf []byte) (*LoadResult, error) {
	s, err := g.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	col, err := g.parse(buf)
	if err != nil {
		return nil, err
	}
	opened, err := g.open(ctx, s, col)
	return &LoadResult{Collection: col, Opened: opened}, err
}

func (g *GameUseCase) parse(buf []byte) (*Collection, error) {
	col, err := LoadSGF(buf, g.settings.Load)
	if err != nil {
		metrics.KifuLoadFailures.Inc()
		g.log.Warnw("failed to load SGF", "error", err, "bytes", len(buf))
		return nil, err
	}

	metrics.KifuTreesLoaded.Add(float64(len(col.Roots)))
	if col.Charset != "" {
		metrics.KifuCharsetRedecodes.WithLabelValues(charset.Canonical(col.Charset)).Inc()
		g.log.Infof("record re-decoded from %s", col.Charset)
	}
	if col.Discarded > 0 {
		metrics.KifuDiscardedBytes.Add(float64(col.Discarded))
		g.log.Warnw("discarded unreadable remainder", "bytes", col.Discarded, "error", col.DiscardErr)
	}
	g.log.Infof("loaded %d game trees", len(col.Roots))
	return col, nil
}

func (g *GameUseCase) open(ctx context.Context, s *Session, col *Collection) (int, error) {
	entries := g.summarize(s.ID, col)
	opened, err := s.AddCollection(col)
	if err != nil {
		g.log.Warnw("tab limit reached", "session", s.ID, "opened", opened, "games", len(col.Roots))
	}
	if g.archive != nil && len(entries) > 0 {
		if aerr := g.archive.ArchiveGames(ctx, entries); aerr != nil {
			g.log.Warnw("failed to archive games", "session", s.ID, "error", aerr)
		}
	}
	return opened, err
}

func (g *GameUseCase) summarize(sessionID string, col *Collection) []domain.ArchiveEntry {
	if g.archive == nil {
		return nil
	}
	now := time.Now()
	entries := make([]domain.ArchiveEntry, 0, len(col.Roots))
	for _, id := range col.Roots {
		entries = append(entries, Summarize(col.Forest, id, sessionID, col.Charset, now))
	}
	return entries
}

// Summarize builds the archive entry for the game rooted at root.
func Summarize(f *sgf.Forest, root sgf.NodeID, sessionID, declared string, now time.Time) domain.ArchiveEntry {
	n := f.Node(root)
	size, _ := BoardSize(n, 19)
	km, _ := strconv.ParseFloat(strings.TrimSpace(n.Props.Get("KM")), 64)
	return domain.ArchiveEntry{
		ID:          uuid.NewString(),
		Session:     sessionID,
		PlayerBlack: n.Props.Get("PB"),
		PlayerWhite: n.Props.Get("PW"),
		Result:      n.Props.Get("RE"),
		Date:        n.Props.Get("DT"),
		Event:       n.Props.Get("EV"),
		Komi:        km,
		BoardSize:   size,
		Nodes:       f.Count(root),
		Charset:     declared,
		SGF:         SaveSGF(f, root),
		CreatedAt:   now,
	}
}

// NewGame opens an empty board in sessionID, or in a new session when sessionID is
// empty. Zero size and komi take the configured defaults.
func (g *GameUseCase) NewGame(sessionID string, size int, komi *float64, handicap int) (*Session, error) {
	var s *Session
	if sessionID == "" {
		s = g.newSession()
	} else {
		var err error
		if s, err = g.GetSession(sessionID); err != nil {
			return nil, err
		}
	}
	if size < 1 || size > 25 {
		size = g.settings.Analysis.BoardSize
	}
	k := g.settings.Analysis.Komi
	if komi != nil {
		k = *komi
	}
	if handicap > 1 && komi == nil {
		k = 0.5
	}
	if _, err := s.NewGame(size, size, k, handicap); err != nil {
		return nil, err
	}
	return s, nil
}

func (g *GameUseCase) View(sessionID string) (View, error) {
	s, err := g.GetSession(sessionID)
	if err != nil {
		return View{}, err
	}
	v, err := s.View()
	if err != nil {
		return View{}, err
	}
	if v.Tree != nil {
		metrics.KifuLayoutNodes.Observe(float64(v.Tree.Nodes))
	}
	return v, nil
}

// Navigate applies op and returns the new view.
func (g *GameUseCase) Navigate(sessionID, op string) (View, bool, error) {
	s, err := g.GetSession(sessionID)
	if err != nil {
		return View{}, false, err
	}
	changed, err := s.Apply(op)
	if err != nil {
		return View{}, false, err
	}
	metrics.KifuNavigation.WithLabelValues(op, strconv.FormatBool(changed)).Inc()
	if op == OpForgetAnalysis {
		if _, err := g.stopSearches(sessionID); err != nil && !errors.Is(err, errs.ErrEngineDisabled) {
			g.log.Warnw("failed to stop searches", "session", sessionID, "error", err)
		}
	}
	v, err := g.View(sessionID)
	return v, changed, err
}

func (g *GameUseCase) PlayMove(sessionID, color, point string) (View, error) {
	s, err := g.GetSession(sessionID)
	if err != nil {
		return View{}, err
	}
	if _, err := s.PlayMove(color, point); err != nil {
		return View{}, err
	}
	return g.View(sessionID)
}

func (g *GameUseCase) SwitchTab(sessionID string, n int) (View, error) {
	s, err := g.GetSession(sessionID)
	if err != nil {
		return View{}, err
	}
	if err := s.SwitchTab(n); err != nil {
		return View{}, err
	}
	return g.View(sessionID)
}

func (g *GameUseCase) CloseTab(sessionID string, n int) (View, error) {
	s, err := g.GetSession(sessionID)
	if err != nil {
		return View{}, err
	}
	if err := s.CloseTab(n); err != nil {
		return View{}, err
	}
	return g.View(sessionID)
}

func (g *GameUseCase) SGF(sessionID string) (string, error) {
	s, err := g.GetSession(sessionID)
	if err != nil {
		return "", err
	}
	return s.SGF()
}

// SaveRecord stores every open game of the session under the session's ID.
func (g *GameUseCase) SaveRecord(ctx context.Context, sessionID string) (string, error) {
	s, err := g.GetSession(sessionID)
	if err != nil {
		return "", err
	}
	if err := g.records.SaveRecord(ctx, s.ID, s.SGFAll()); err != nil {
		return "", err
	}
	g.log.Infof("session %s saved", s.ID)
	return s.ID, nil
}

// OpenRecord loads a saved record into a new session.
func (g *GameUseCase) OpenRecord(ctx context.Context, recordID string) (*Session, error) {
	text, err := g.records.LoadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	col, err := g.parse([]byte(text))
	if err != nil {
		return nil, err
	}
	s := g.newSession()
	if _, err := s.AddCollection(col); err != nil && !errors.Is(err, errs.ErrTabLimit) {
		return nil, err
	}
	return s, nil
}

// ListRecords returns the newest saved record IDs.
func (g *GameUseCase) ListRecords(ctx context.Context, limit int64) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	return g.records.ListRecords(ctx, limit)
}

func (g *GameUseCase) DeleteRecord(ctx context.Context, recordID string) error {
	if _, err := g.records.LoadRecord(ctx, recordID); err != nil {
		return err
	}
	return g.records.DeleteRecord(ctx, recordID)
}

// ImportDirectory archives every .sgf file under dir and returns how many games
// were archived. Files that fail to load are logged and skipped.
func (g *GameUseCase) ImportDirectory(ctx context.Context, dir string) (int, error) {
	if g.archive == nil {
		return 0, errs.ErrArchiveDisabled
	}
	imported := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".sgf") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		col, err := g.parse(data)
		if err != nil {
			g.log.Warnw("skipping unreadable record", "path", path, "error", err)
			return nil
		}
		entries := make([]domain.ArchiveEntry, 0, len(col.Roots))
		now := time.Now()
		for _, id := range col.Roots {
			entries = append(entries, Summarize(col.Forest, id, "", col.Charset, now))
		}
		if err := g.archive.ArchiveGames(ctx, entries); err != nil {
			return fmt.Errorf("archive %s: %w", path, err)
		}
		imported += len(entries)
		return nil
	})
	if err != nil {
		return imported, err
	}
	g.log.Infof("imported %d games from %s", imported, dir)
	return imported, nil
}

func (g *GameUseCase) GetArchiveOfGames(ctx context.Context, pageNumber int, name string) (*domain.ArchiveResponse, error) {
	if g.archive == nil {
		return nil, errs.ErrArchiveDisabled
	}
	return g.archive.GetArchiveGamesByName(ctx, name, pageNumber)
}

// Analyze sends the focused position of the session to the engine and returns the
// search ID.
func (g *GameUseCase) Analyze(sessionID string) (string, error) {
	g.mu.RLock()
	engine := g.engine
	g.mu.RUnlock()
	if engine == nil {
		return "", errs.ErrEngineDisabled
	}
	s, err := g.GetSession(sessionID)
	if err != nil {
		return "", err
	}
	req, err := s.AnalysisRequest(g.settings.Analysis)
	if err != nil {
		return "", err
	}
	g.searches.Store(req.ID, s.ID)
	if err := engine.Analyze(req); err != nil {
		g.searches.Delete(req.ID)
		return "", err
	}
	return req.ID, nil
}

// RouteAnalysis is the engine callback: it hands each response to the session
// that asked for it and wakes that session's subscribers.
func (g *GameUseCase) RouteAnalysis(resp domain.AnalysisResponse) {
	v, ok := g.searches.Load(resp.ID)
	if !ok {
		metrics.KifuAnalysisResponses.WithLabelValues("false").Inc()
		return
	}
	if !resp.IsDuringSearch || resp.Error != "" {
		g.searches.Delete(resp.ID)
	}
	sessionID := v.(string)
	s, err := g.GetSession(sessionID)
	if err != nil {
		metrics.KifuAnalysisResponses.WithLabelValues("false").Inc()
		return
	}
	if resp.Error != "" {
		g.log.Warnw("engine rejected request", "id", resp.ID, "error", resp.Error)
	}
	applied := s.ReceiveAnalysis(resp)
	metrics.KifuAnalysisResponses.WithLabelValues(strconv.FormatBool(applied)).Inc()
	if applied {
		g.notify(sessionID)
	}
}

// Halt stops every running search of the session and returns how many were
// stopped. Their remaining responses are dropped.
func (g *GameUseCase) Halt(sessionID string) (int, error) {
	if _, err := g.GetSession(sessionID); err != nil {
		return 0, err
	}
	return g.stopSearches(sessionID)
}

func (g *GameUseCase) stopSearches(sessionID string) (int, error) {
	var ids []string
	g.searches.Range(func(key, value any) bool {
		if value.(string) == sessionID {
			ids = append(ids, key.(string))
		}
		return true
	})

	g.mu.RLock()
	engine := g.engine
	g.mu.RUnlock()
	if engine == nil {
		return 0, errs.ErrEngineDisabled
	}
	for _, id := range ids {
		g.searches.Delete(id)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := engine.Terminate(ids...); err != nil {
		return 0, err
	}
	g.log.Infow("searches halted", "session", sessionID, "count", len(ids))
	return len(ids), nil
}

// Subscribe returns a channel that receives a value whenever new analysis reaches
// the session. The channel is closed with the session or by cancel.
func (g *GameUseCase) Subscribe(sessionID string) (<-chan struct{}, func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sessions[sessionID]; !ok {
		return nil, nil, fmt.Errorf("session %s: %w", sessionID, errs.ErrSessionNotFound)
	}
	ch := make(chan struct{}, 1)
	if g.subscribers[sessionID] == nil {
		g.subscribers[sessionID] = make(map[chan struct{}]struct{})
	}
	g.subscribers[sessionID][ch] = struct{}{}

	cancel := func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if _, ok := g.subscribers[sessionID][ch]; ok {
			delete(g.subscribers[sessionID], ch)
			close(ch)
		}
	}
	return ch, cancel, nil
}

func (g *GameUseCase) notify(sessionID string) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for ch := range g.subscribers[sessionID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
