package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kifu/internal/domain"
	"kifu/internal/domain/sgf"
	errs "kifu/internal/errors"
	"kifu/internal/usecase/layout"
)

var testView = layout.View{Width: 640, Height: 480, Spacing: layout.DefaultSpacing}

func loadedSession(t *testing.T, tabLimit int, input string) *Session {
	t.Helper()
	s := NewSession("s1", tabLimit, testView)
	_, err := s.AddCollection(mustLoad(t, input))
	require.NoError(t, err)
	return s
}

func focusNode(t *testing.T, s *Session) *sgf.Node {
	t.Helper()
	tb, ok := s.current()
	require.True(t, ok)
	return s.forest.Node(tb.focus)
}

const branched = "(;SZ[19]PB[Shusaku]PW[Gennan];B[pd](;W[dd];B[pp])(;W[dp]))"

func TestAddCollectionOpensTabs(t *testing.T) {
	s := loadedSession(t, 0, "(;SZ[9];B[cc];W[gg])(;SZ[13])")

	v, err := s.View()
	require.NoError(t, err)
	assert.Equal(t, 2, v.Tabs)
	assert.Equal(t, 0, v.Tab)
	assert.Equal(t, 2, v.Depth, "focus starts at the end of the main line")
	assert.Equal(t, "gg", focusNode(t, s).Props.Get("W"))
}

func TestAddCollectionReusesBlankTab(t *testing.T) {
	s := NewSession("s1", 0, testView)
	_, err := s.NewGame(19, 19, 6.5, 0)
	require.NoError(t, err)

	opened, err := s.AddCollection(mustLoad(t, "(;SZ[9];B[cc])(;SZ[13])"))
	require.NoError(t, err)
	assert.Equal(t, 2, opened)
	assert.Len(t, s.tabs, 2, "the empty board was replaced by the first game")
	assert.Equal(t, "9", s.forest.Node(s.tabs[0].root).Props.Get("SZ"))
	assert.Equal(t, 3, s.forest.Len(), "the replaced empty root is swept")
}

func TestAddCollectionTabLimit(t *testing.T) {
	s := NewSession("s1", 2, testView)

	opened, err := s.AddCollection(mustLoad(t, "(;SZ[9])(;SZ[13])(;SZ[19];B[pd])"))

	assert.ErrorIs(t, err, errs.ErrTabLimit)
	assert.Equal(t, 2, opened)
	assert.Len(t, s.tabs, 2)
	assert.Equal(t, 2, s.forest.Len(), "games without a tab are swept")
}

func TestNewGame(t *testing.T) {
	s := NewSession("s1", 0, testView)

	root, err := s.NewGame(19, 19, 0.5, 4)
	require.NoError(t, err)

	n := s.forest.Node(root)
	assert.Equal(t, "19", n.Props.Get("SZ"))
	assert.Equal(t, "0.5", n.Props.Get("KM"))
	assert.Equal(t, "4", n.Props.Get("HA"))
	assert.Equal(t, []string{"pd", "dp", "pp", "dd"}, n.Props.Values("AB"))

	root2, err := s.NewGame(9, 13, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, "9:13", s.forest.Node(root2).Props.Get("SZ"))
	assert.Len(t, s.tabs, 1, "a blank tab is reused")
	assert.False(t, s.forest.Contains(root))
}

func TestApplyNavigation(t *testing.T) {
	s := loadedSession(t, 0, branched)
	assert.Equal(t, "pp", focusNode(t, s).Props.Get("B"))

	changed, err := s.Apply(OpPrev)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "dd", focusNode(t, s).Props.Get("W"))

	changed, err = s.Apply(OpNextSibling)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "dp", focusNode(t, s).Props.Get("W"))

	v, err := s.View()
	require.NoError(t, err)
	assert.Equal(t, "variation 2 of 2", v.SiblingText)
	assert.Equal(t, "Shusaku vs Gennan", v.Title)

	changed, err = s.Apply(OpNext)
	require.NoError(t, err)
	assert.False(t, changed, "no child below a leaf")

	changed, err = s.Apply(OpReturnToMain)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "pd", focusNode(t, s).Props.Get("B"))

	_, err = s.Apply(OpGoToRoot)
	require.NoError(t, err)
	assert.True(t, focusNode(t, s).IsRoot())

	changed, err = s.Apply(OpPrev)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = s.Apply(OpNextFork)
	require.NoError(t, err)
	assert.Equal(t, "pd", focusNode(t, s).Props.Get("B"))

	_, err = s.Apply(OpGoToEnd)
	require.NoError(t, err)
	assert.Equal(t, "pp", focusNode(t, s).Props.Get("B"))

	_, err = s.Apply("fly")
	assert.ErrorIs(t, err, errs.ErrUnknownOp)
}

func TestApplyPromoteAndDelete(t *testing.T) {
	s := loadedSession(t, 0, branched)
	_, _ = s.Apply(OpPrev)
	_, _ = s.Apply(OpNextSibling)
	dp := focusNode(t, s).ID

	changed, err := s.Apply(OpPromoteToMainLine)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, dp, s.forest.Node(focusNode(t, s).Parent).Children[0])

	before := s.forest.Len()
	changed, err = s.Apply(OpDeleteNode)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "pd", focusNode(t, s).Props.Get("B"))
	assert.False(t, s.forest.Contains(dp))
	assert.Equal(t, before-1, s.forest.Len())
}

func TestApplyDeleteOtherLines(t *testing.T) {
	s := loadedSession(t, 0, branched)

	changed, err := s.Apply(OpDeleteOtherLines)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 4, s.forest.Len())
	assert.Equal(t, "(;GM[1]FF[4]CA[UTF-8]SZ[19]PB[Shusaku]PW[Gennan];B[pd];W[dd];B[pp])\n", s.SGFAll())
}

func TestApplyForgetAnalysis(t *testing.T) {
	s := loadedSession(t, 0, branched)
	focus := focusNode(t, s)
	require.True(t, s.ReceiveAnalysis(domain.AnalysisResponse{ID: SearchID(focus.ID)}))
	require.NotNil(t, focus.Analysis)

	_, err := s.Apply(OpForgetAnalysis)
	require.NoError(t, err)
	assert.Nil(t, focus.Analysis)
}

func TestPlayMove(t *testing.T) {
	s := NewSession("s1", 0, testView)
	_, err := s.NewGame(19, 19, 6.5, 0)
	require.NoError(t, err)

	first, err := s.PlayMove("", "pd")
	require.NoError(t, err)
	assert.Equal(t, "pd", s.forest.Node(first).Props.Get("B"))

	second, err := s.PlayMove("", "dd")
	require.NoError(t, err)
	assert.Equal(t, "dd", s.forest.Node(second).Props.Get("W"))

	_, _ = s.Apply(OpPrev)
	again, err := s.PlayMove("w", "dd")
	require.NoError(t, err)
	assert.Equal(t, second, again, "an existing child with the same move is reused")

	_, _ = s.Apply(OpPrev)
	other, err := s.PlayMove("", "dp")
	require.NoError(t, err)
	assert.Equal(t, []sgf.NodeID{second, other}, s.forest.Node(first).Children)

	pass, err := s.Pass()
	require.NoError(t, err)
	assert.Equal(t, "", s.forest.Node(pass).Props.Get("B"))
	assert.True(t, s.forest.Node(pass).Props.Has("B"))

	_, err = s.PlayMove("B", "zz")
	assert.ErrorIs(t, err, errs.ErrBadMove)
	_, err = s.PlayMove("X", "aa")
	assert.ErrorIs(t, err, errs.ErrBadMove)
}

func TestPlayMoveWhiteFirstWithHandicap(t *testing.T) {
	s := NewSession("s1", 0, testView)
	_, err := s.NewGame(19, 19, 0.5, 2)
	require.NoError(t, err)

	id, err := s.PlayMove("", "qq")
	require.NoError(t, err)
	assert.Equal(t, "qq", s.forest.Node(id).Props.Get("W"))
}

func TestTabs(t *testing.T) {
	s := loadedSession(t, 0, "(;SZ[9];B[cc])(;SZ[13];B[dd])(;SZ[19];B[pd])")

	require.NoError(t, s.SwitchTab(2))
	v, err := s.View()
	require.NoError(t, err)
	assert.Equal(t, 2, v.Tab)

	assert.ErrorIs(t, s.SwitchTab(3), errs.ErrNoSuchTab)
	assert.ErrorIs(t, s.SwitchTab(-1), errs.ErrNoSuchTab)

	require.NoError(t, s.CloseTab(0))
	assert.Equal(t, 1, s.active, "the active game keeps its tab")
	assert.Equal(t, "19", s.forest.Node(s.tabs[s.active].root).Props.Get("SZ"))
	assert.Equal(t, 4, s.forest.Len())

	require.NoError(t, s.CloseTab(1))
	assert.Equal(t, 0, s.active)
	assert.ErrorIs(t, s.CloseTab(0), errs.ErrNoSuchTab, "the last tab stays open")
}

func TestReceiveAnalysis(t *testing.T) {
	s := loadedSession(t, 0, "(;SZ[9];B[cc])(;SZ[13];B[dd])")
	focus := focusNode(t, s)

	assert.False(t, s.ReceiveAnalysis(domain.AnalysisResponse{ID: "halt_1"}))
	assert.False(t, s.ReceiveAnalysis(domain.AnalysisResponse{ID: SearchID(focus.ID), Error: "bad"}))

	resp := domain.AnalysisResponse{ID: SearchID(focus.ID), RootInfo: domain.RootInfo{Winrate: 0.4}}
	require.True(t, s.ReceiveAnalysis(resp))
	v, err := s.View()
	require.NoError(t, err)
	require.NotNil(t, v.Analysis)
	assert.Equal(t, 0.4, v.Analysis.RootInfo.Winrate)

	require.NoError(t, s.CloseTab(0))
	assert.False(t, s.Owns(focus.ID))
	assert.False(t, s.ReceiveAnalysis(resp), "results for closed games are dropped")
}

func TestViewCachesLayout(t *testing.T) {
	s := loadedSession(t, 0, branched)

	v1, err := s.View()
	require.NoError(t, err)
	v2, err := s.View()
	require.NoError(t, err)
	assert.Same(t, v1.Tree, v2.Tree)
	assert.Equal(t, 5, v1.Tree.Nodes)

	_, _ = s.Apply(OpPrev)
	v3, err := s.View()
	require.NoError(t, err)
	assert.NotSame(t, v1.Tree, v3.Tree)
}

func TestSessionSGF(t *testing.T) {
	s := loadedSession(t, 0, "(;SZ[9];B[cc])(;SZ[13])")

	text, err := s.SGF()
	require.NoError(t, err)
	assert.Equal(t, "(;GM[1]FF[4]CA[UTF-8]SZ[9];B[cc])\n", text)
	assert.Equal(t, text+"(;GM[1]FF[4]CA[UTF-8]SZ[13])\n", s.SGFAll())

	games := s.Games()
	require.Len(t, games, 2)
	games[0].Set("SZ", "5")
	assert.Equal(t, "9", s.forest.Node(s.tabs[0].root).Props.Get("SZ"), "Games returns copies")
}

func TestEmptySession(t *testing.T) {
	s := NewSession("s1", 0, testView)

	_, err := s.View()
	assert.ErrorIs(t, err, errs.ErrNoSuchTab)
	_, err = s.Apply(OpNext)
	assert.ErrorIs(t, err, errs.ErrNoSuchTab)
	_, err = s.PlayMove("B", "aa")
	assert.ErrorIs(t, err, errs.ErrNoSuchTab)
	_, err = s.SGF()
	assert.ErrorIs(t, err, errs.ErrNoSuchTab)
}

func TestGameTitle(t *testing.T) {
	title := func(props string) string {
		col := mustLoad(t, "(;"+props+")")
		return GameTitle(rootOf(col, 0))
	}
	assert.Equal(t, "Honinbo Shusaku vs Gennan Inseki", title("PB[Honinbo Shusaku]PW[Gennan Inseki]"))
	assert.Equal(t, "Shusaku (B) - Ear-reddening game", title("PB[Shusaku]EV[Ear-reddening game]"))
	assert.Equal(t, "Gennan (W)", title("PW[Gennan]"))
	assert.Equal(t, "Oteai", title("EV[Oteai]"))
	assert.Equal(t, "", title("SZ[19]"))
	assert.Equal(t, "", GameTitle(nil))
}
