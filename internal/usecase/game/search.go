package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"kifu/internal/domain/sgf"
)

const searchPrefix = "node_"

// SearchID names one analysis request for node id. Every call returns a fresh token;
// the node ID is recoverable with NodeIDFromSearchID.
func SearchID(id sgf.NodeID) string {
	return fmt.Sprintf("%s%d:%s", searchPrefix, id, uuid.NewString())
}

func NodeIDFromSearchID(token string) (sgf.NodeID, bool) {
	rest, ok := strings.CutPrefix(token, searchPrefix)
	if !ok {
		return sgf.NoNode, false
	}
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		rest = rest[:i]
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n <= 0 {
		return sgf.NoNode, false
	}
	return sgf.NodeID(n), true
}
