package game

// HandicapStones returns the SGF points for a handicap of n stones, in the order
// they are traditionally placed. Boards too small or even-sized get corners only.
func HandicapStones(n, width, height int) []string {
	if n < 2 || width < 7 || height < 7 {
		return nil
	}
	if n > 9 {
		n = 9
	}

	dx, dy := 3, 3
	if width < 13 {
		dx = 2
	}
	if height < 13 {
		dy = 2
	}
	left, right := dx, width-1-dx
	top, bottom := dy, height-1-dy
	midX, midY := (width-1)/2, (height-1)/2
	oddBoard := width%2 == 1 && height%2 == 1

	if !oddBoard && n > 4 {
		n = 4
	}

	pts := [][2]int{{right, top}, {left, bottom}}
	if n >= 3 {
		pts = append(pts, [2]int{right, bottom})
	}
	if n >= 4 {
		pts = append(pts, [2]int{left, top})
	}
	if n >= 6 {
		pts = append(pts, [2]int{left, midY}, [2]int{right, midY})
	}
	if n >= 8 {
		pts = append(pts, [2]int{midX, top}, [2]int{midX, bottom})
	}
	if n%2 == 1 && n >= 5 {
		pts = append(pts, [2]int{midX, midY})
	}

	out := make([]string, 0, len(pts))
	for _, p := range pts {
		out = append(out, string([]byte{byte('a' + p[0]), byte('a' + p[1])}))
	}
	return out
}
