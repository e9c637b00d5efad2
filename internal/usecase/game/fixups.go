package game

import (
	"math"
	"strconv"
	"strings"

	"kifu/internal/domain/sgf"
)

func applyFixups(root *sgf.Node, f *sgf.Forest) {
	root.Props.Set("GM", "1")
	root.Props.Set("FF", "4")
	root.Props.Set("CA", "UTF-8")
	fixKomi(root)
	fixPlayer(root, f)
}

// fixKomi converts komi written in Chinese counting (3.25, 3.75) to the area value.
// A missing or unreadable KM is left alone.
func fixKomi(root *sgf.Node) {
	km, err := strconv.ParseFloat(strings.TrimSpace(root.Props.Get("KM")), 64)
	if err != nil {
		return
	}
	if frac := km - math.Floor(km); frac == 0.25 || frac == 0.75 {
		root.Props.Set("KM", strconv.FormatFloat(km*2, 'f', -1, 64))
	}
}

// fixPlayer marks games where White moves first.
func fixPlayer(root *sgf.Node, f *sgf.Forest) {
	if root.Props.Get("PL") != "" || root.HasMove() || len(root.Children) == 0 {
		return
	}
	first := f.Node(root.Children[0])
	if first.Props.Has("W") && !first.Props.Has("B") {
		root.Props.Set("PL", "W")
	}
}
