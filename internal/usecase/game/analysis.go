package game

import (
	"fmt"
	"strconv"
	"strings"

	"kifu/internal/domain"
	"kifu/internal/domain/sgf"
	errs "kifu/internal/errors"
)

// AnalysisSettings fill whatever the record itself does not say.
type AnalysisSettings struct {
	Rules     string
	Komi      float64
	BoardSize int
	MaxVisits int
}

// BoardSize reads SZ, which is either "19" or "19:13".
func BoardSize(root *sgf.Node, fallback int) (width, height int) {
	sz := strings.TrimSpace(root.Props.Get("SZ"))
	if sz == "" {
		return fallback, fallback
	}
	w, h, square := strings.Cut(sz, ":")
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil || width < 1 || width > 25 {
		return fallback, fallback
	}
	if !square {
		return width, width
	}
	height, err = strconv.Atoi(strings.TrimSpace(h))
	if err != nil || height < 1 || height > 25 {
		return width, width
	}
	return width, height
}

// sgfToStandard converts "pd" to "Q16" on a board of the given height. The letter
// I is skipped as usual.
func sgfToStandard(sgfCoord string, width, height int) (string, error) {
	if len(sgfCoord) != 2 {
		return "", fmt.Errorf("bad SGF coordinate: %q", sgfCoord)
	}
	col := int(sgfCoord[0] - 'a')
	row := int(sgfCoord[1] - 'a')
	if col < 0 || col >= width || row < 0 || row >= height {
		return "", fmt.Errorf("coordinate off the board: %q", sgfCoord)
	}
	standardCol := byte('A' + col)
	if standardCol >= 'I' {
		standardCol++
	}
	return fmt.Sprintf("%c%d", standardCol, height-row), nil
}

func gtpMove(point string, width, height int) (string, error) {
	if point == "" || (point == "tt" && width <= 19 && height <= 19) {
		return "pass", nil
	}
	return sgfToStandard(point, width, height)
}

// BuildAnalysisRequest describes the position at id for the engine: root setup
// stones plus every move on the path from the root.
func BuildAnalysisRequest(f *sgf.Forest, id sgf.NodeID, s AnalysisSettings) (domain.AnalysisRequest, error) {
	path := f.Path(id)
	if len(path) == 0 {
		return domain.AnalysisRequest{}, fmt.Errorf("node %d is not in the forest", id)
	}
	root := f.Node(path[0])
	width, height := BoardSize(root, s.BoardSize)

	req := domain.AnalysisRequest{
		ID:            SearchID(id),
		Moves:         [][2]string{},
		Rules:         s.Rules,
		Komi:          s.Komi,
		BoardXSize:    width,
		BoardYSize:    height,
		MaxVisits:     s.MaxVisits,
		InitialPlayer: root.Props.Get("PL"),
	}
	if km, err := strconv.ParseFloat(strings.TrimSpace(root.Props.Get("KM")), 64); err == nil {
		req.Komi = km
	}

	for _, color := range []string{"B", "W"} {
		for _, point := range root.Props.Values("A" + color) {
			stone, err := sgfToStandard(point, width, height)
			if err != nil {
				return domain.AnalysisRequest{}, fmt.Errorf("%v: %w", err, errs.ErrBadMove)
			}
			req.InitialStones = append(req.InitialStones, [2]string{color, stone})
		}
	}

	for _, nid := range path {
		color, point, ok := f.Node(nid).Move()
		if !ok {
			continue
		}
		move, err := gtpMove(point, width, height)
		if err != nil {
			return domain.AnalysisRequest{}, fmt.Errorf("%v: %w", err, errs.ErrBadMove)
		}
		req.Moves = append(req.Moves, [2]string{color, move})
	}
	return req, nil
}
