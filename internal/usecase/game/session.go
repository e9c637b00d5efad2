package game

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"kifu/internal/domain"
	"kifu/internal/domain/sgf"
	errs "kifu/internal/errors"
	"kifu/internal/usecase/layout"
)

// Navigation operations accepted by Session.Apply.
const (
	OpPrev                   = "prev"
	OpNext                   = "next"
	OpGoToRoot               = "go_to_root"
	OpGoToEnd                = "go_to_end"
	OpPrevSibling            = "prev_sibling"
	OpNextSibling            = "next_sibling"
	OpReturnToMain           = "return_to_main"
	OpReturnToVariationStart = "return_to_variation_start"
	OpPreviousFork           = "previous_fork"
	OpNextFork               = "next_fork"
	OpPromoteToMainLine      = "promote_to_main_line"
	OpDeleteNode             = "delete_node"
	OpDeleteOtherLines       = "delete_other_lines"
	OpForgetAnalysis         = "forget_analysis"
)

type navFunc func(f *sgf.Forest, id sgf.NodeID) (sgf.NodeID, bool)

var navigation = map[string]navFunc{
	OpPrev:                   (*sgf.Forest).Parent,
	OpNext:                   (*sgf.Forest).FirstChild,
	OpGoToRoot:               func(f *sgf.Forest, id sgf.NodeID) (sgf.NodeID, bool) { r := f.Root(id); return r, r != id },
	OpGoToEnd:                func(f *sgf.Forest, id sgf.NodeID) (sgf.NodeID, bool) { e := f.End(id); return e, e != id },
	OpPrevSibling:            (*sgf.Forest).PrevSibling,
	OpNextSibling:            (*sgf.Forest).NextSibling,
	OpReturnToMain:           (*sgf.Forest).ReturnToMainLine,
	OpReturnToVariationStart: (*sgf.Forest).ReturnToVariationStart,
	OpPreviousFork:           (*sgf.Forest).PreviousFork,
	OpNextFork:               (*sgf.Forest).NextFork,
	OpPromoteToMainLine: func(f *sgf.Forest, id sgf.NodeID) (sgf.NodeID, bool) {
		return id, f.PromoteToMainLine(id)
	},
	OpDeleteNode: (*sgf.Forest).Delete,
	OpDeleteOtherLines: func(f *sgf.Forest, id sgf.NodeID) (sgf.NodeID, bool) {
		return id, f.DeleteOtherLines(id)
	},
	OpForgetAnalysis: func(f *sgf.Forest, id sgf.NodeID) (sgf.NodeID, bool) {
		f.ForgetAnalysis(id)
		return id, true
	},
}

type tab struct {
	root  sgf.NodeID
	focus sgf.NodeID
}

// Session is one user's workspace: an arena holding every open game, one tab per
// game and a focus node per tab. All methods are safe for concurrent use.
type Session struct {
	ID string

	mu       sync.Mutex
	forest   *sgf.Forest
	tabs     []tab
	active   int
	tabLimit int
	view     layout.View

	cacheGen   uint64
	cacheFocus sgf.NodeID
	cached     *layout.Placement
}

func NewSession(id string, tabLimit int, view layout.View) *Session {
	return &Session{
		ID:       id,
		forest:   sgf.NewForest(),
		tabLimit: tabLimit,
		view:     view,
	}
}

// AddCollection opens every tree of col in a new tab, focused on the end of its
// main line, and switches to the first of them. When the tab limit is reached the
// remaining trees are dropped and ErrTabLimit is returned with the number opened.
// The nodes move into the session's arena; col.Forest is left empty.
func (s *Session) AddCollection(col *Collection) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.forest.Absorb(col.Forest)
	first := -1
	opened := 0
	var err error
	for i, root := range col.Roots {
		idx, ok := s.openTab(root, s.forest.End(root), i == 0)
		if !ok {
			err = fmt.Errorf("opened %d of %d games: %w", opened, len(col.Roots), errs.ErrTabLimit)
			break
		}
		if first < 0 {
			first = idx
		}
		opened++
	}
	if first >= 0 {
		s.active = first
	}
	s.collect()
	return opened, err
}

// openTab reuses the active tab, if allowed, when it holds nothing but an empty root.
func (s *Session) openTab(root, focus sgf.NodeID, reuse bool) (int, bool) {
	if reuse && len(s.tabs) > 0 && s.blank(s.tabs[s.active].root) {
		s.tabs[s.active] = tab{root: root, focus: focus}
		return s.active, true
	}
	if s.tabLimit > 0 && len(s.tabs) >= s.tabLimit {
		return -1, false
	}
	s.tabs = append(s.tabs, tab{root: root, focus: focus})
	return len(s.tabs) - 1, true
}

func (s *Session) blank(root sgf.NodeID) bool {
	n := s.forest.Node(root)
	return n == nil || len(n.Children) == 0
}

// NewGame opens an empty board. Handicap stones go into AB.
func (s *Session) NewGame(width, height int, komi float64, handicap int) (sgf.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root := s.forest.NewNode(sgf.NoNode)
	root.Props.Set("GM", "1")
	root.Props.Set("FF", "4")
	root.Props.Set("CA", "UTF-8")
	if width == height {
		root.Props.Set("SZ", strconv.Itoa(width))
	} else {
		root.Props.Set("SZ", fmt.Sprintf("%d:%d", width, height))
	}
	if stones := HandicapStones(handicap, width, height); len(stones) > 0 {
		root.Props.Set("HA", strconv.Itoa(len(stones)))
		root.Props.Set("AB", stones...)
	}
	root.Props.Set("KM", strconv.FormatFloat(komi, 'f', -1, 64))

	idx, ok := s.openTab(root.ID, root.ID, true)
	if !ok {
		return sgf.NoNode, errs.ErrTabLimit
	}
	s.active = idx
	s.collect()
	return root.ID, nil
}

// Apply runs one navigation operation on the active tab and reports whether the
// focus or the tree changed.
func (s *Session) Apply(op string) (bool, error) {
	nav, ok := navigation[op]
	if !ok {
		return false, fmt.Errorf("%q: %w", op, errs.ErrUnknownOp)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.current()
	if !ok {
		return false, errs.ErrNoSuchTab
	}
	gen := s.forest.Generation()
	focus, changed := nav(s.forest, t.focus)
	t.focus = focus
	if s.forest.Generation() != gen {
		s.collect()
	}
	return changed, nil
}

// PlayMove descends to the child holding the same move, or appends a new child for
// it. An empty point is a pass. Legality is not checked.
func (s *Session) PlayMove(color, point string) (sgf.NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.current()
	if !ok {
		return sgf.NoNode, errs.ErrNoSuchTab
	}
	color = strings.ToUpper(color)
	if color == "" {
		color = s.nextColor(t.focus)
	}
	if color != "B" && color != "W" {
		return sgf.NoNode, fmt.Errorf("color %q: %w", color, errs.ErrBadMove)
	}
	width, height := BoardSize(s.forest.Node(t.root), 19)
	if point != "" && !(point == "tt" && width <= 19 && height <= 19) {
		if _, err := sgfToStandard(point, width, height); err != nil {
			return sgf.NoNode, fmt.Errorf("%v: %w", err, errs.ErrBadMove)
		}
	}

	focus := s.forest.Node(t.focus)
	for _, id := range focus.Children {
		c, p, ok := s.forest.Node(id).Move()
		if ok && c == color && p == point {
			t.focus = id
			return id, nil
		}
	}
	child := s.forest.NewNode(t.focus)
	child.Props.Set(color, point)
	t.focus = child.ID
	return child.ID, nil
}

func (s *Session) Pass() (sgf.NodeID, error) {
	return s.PlayMove("", "")
}

func (s *Session) nextColor(id sgf.NodeID) string {
	n := s.forest.Node(id)
	if c, _, ok := n.Move(); ok {
		if c == "B" {
			return "W"
		}
		return "B"
	}
	if pl := strings.ToUpper(n.Props.Get("PL")); pl == "B" || pl == "W" {
		return pl
	}
	if n.IsRoot() && n.Props.Has("AB") && !n.Props.Has("AW") {
		return "W"
	}
	return "B"
}

// SwitchTab makes tab n active.
func (s *Session) SwitchTab(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 0 || n >= len(s.tabs) {
		return fmt.Errorf("tab %d: %w", n, errs.ErrNoSuchTab)
	}
	s.active = n
	return nil
}

// CloseTab drops tab n and its game. The last tab cannot be closed.
func (s *Session) CloseTab(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 0 || n >= len(s.tabs) || len(s.tabs) == 1 {
		return fmt.Errorf("tab %d: %w", n, errs.ErrNoSuchTab)
	}
	s.tabs = append(s.tabs[:n], s.tabs[n+1:]...)
	if s.active > n || s.active >= len(s.tabs) {
		s.active--
	}
	s.collect()
	return nil
}

// ReceiveAnalysis stores an engine result on the node named by its ID. Results for
// nodes that are no longer in any open game are dropped.
func (s *Session) ReceiveAnalysis(resp domain.AnalysisResponse) bool {
	id, ok := NodeIDFromSearchID(resp.ID)
	if !ok || resp.Error != "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.forest.Node(id)
	if n == nil || !s.owns(s.forest.Root(id)) {
		return false
	}
	n.Analysis = &resp
	return true
}

// Owns reports whether id is a node of one of the session's open games.
func (s *Session) Owns(id sgf.NodeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forest.Contains(id) && s.owns(s.forest.Root(id))
}

func (s *Session) owns(root sgf.NodeID) bool {
	for _, t := range s.tabs {
		if t.root == root {
			return true
		}
	}
	return false
}

// AnalysisRequest describes the focused position for the engine.
func (s *Session) AnalysisRequest(settings AnalysisSettings) (domain.AnalysisRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.current()
	if !ok {
		return domain.AnalysisRequest{}, errs.ErrNoSuchTab
	}
	return BuildAnalysisRequest(s.forest, t.focus, settings)
}

// SGF serializes the game in the active tab.
func (s *Session) SGF() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.current()
	if !ok {
		return "", errs.ErrNoSuchTab
	}
	return SaveSGF(s.forest, t.root), nil
}

// SGFAll serializes every open game, in tab order.
func (s *Session) SGFAll() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	roots := make([]sgf.NodeID, 0, len(s.tabs))
	for _, t := range s.tabs {
		roots = append(roots, t.root)
	}
	return SaveSGF(s.forest, roots...)
}

// Games returns a copy of each open game's root properties, in tab order.
func (s *Session) Games() []sgf.Properties {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]sgf.Properties, 0, len(s.tabs))
	for _, t := range s.tabs {
		var p sgf.Properties
		for _, prop := range s.forest.Node(t.root).Props.List() {
			p.Set(prop.Key, prop.Values...)
		}
		out = append(out, p)
	}
	return out
}

func (s *Session) current() (*tab, bool) {
	if s.active < 0 || s.active >= len(s.tabs) {
		return nil, false
	}
	return &s.tabs[s.active], true
}

// collect sweeps every node no tab can reach.
func (s *Session) collect() {
	roots := make([]sgf.NodeID, 0, len(s.tabs))
	for _, t := range s.tabs {
		roots = append(roots, t.root)
	}
	s.forest.Collect(roots...)
}

// View is what a client needs to draw the session.
type View struct {
	Session     string                   `json:"session"`
	Tab         int                      `json:"tab"`
	Tabs        int                      `json:"tabs"`
	Title       string                   `json:"title"`
	Focus       sgf.NodeID               `json:"focus"`
	Depth       int                      `json:"depth"`
	SiblingText string                   `json:"siblingText,omitempty"`
	Props       []sgf.Property           `json:"props"`
	Analysis    *domain.AnalysisResponse `json:"analysis,omitempty"`
	Tree        *layout.Placement        `json:"tree"`
}

// View lays out the active game around the focus. The layout is recomputed only
// when the tree or the focus changed since the last call.
func (s *Session) View() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.current()
	if !ok {
		return View{}, errs.ErrNoSuchTab
	}
	if s.cached == nil || s.cacheGen != s.forest.Generation() || s.cacheFocus != t.focus {
		p := s.view.Place(s.forest, t.focus)
		s.cached = &p
		s.cacheGen = s.forest.Generation()
		s.cacheFocus = t.focus
	}

	n := s.forest.Node(t.focus)
	return View{
		Session:     s.ID,
		Tab:         s.active,
		Tabs:        len(s.tabs),
		Title:       GameTitle(s.forest.Node(t.root)),
		Focus:       t.focus,
		Depth:       n.Depth,
		SiblingText: s.siblingText(t.focus),
		Props:       n.Props.List(),
		Analysis:    n.Analysis,
		Tree:        s.cached,
	}, nil
}

func (s *Session) siblingText(id sgf.NodeID) string {
	i := s.forest.ChildIndex(id)
	if i < 0 {
		return ""
	}
	total := len(s.forest.Node(s.forest.Node(id).Parent).Children)
	if total < 2 {
		return ""
	}
	return fmt.Sprintf("variation %d of %d", i+1, total)
}

// GameTitle builds "Black vs White" from the root, with the event when known.
func GameTitle(root *sgf.Node) string {
	if root == nil {
		return ""
	}
	pb, pw := strings.TrimSpace(root.Props.Get("PB")), strings.TrimSpace(root.Props.Get("PW"))
	var title string
	switch {
	case pb != "" && pw != "":
		title = pb + " vs " + pw
	case pb != "":
		title = pb + " (B)"
	case pw != "":
		title = pw + " (W)"
	}
	if ev := strings.TrimSpace(root.Props.Get("EV")); ev != "" {
		if title == "" {
			return ev
		}
		title += " - " + ev
	}
	return title
}
