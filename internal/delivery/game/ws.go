package game

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	gameuc "kifu/internal/usecase/game"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Command is one client message on the session socket. Op is a navigation
// operation or one of "view", "play", "pass", "tab", "analyse" and "halt".
type Command struct {
	Op    string `json:"op"`
	Color string `json:"color,omitempty"`
	Point string `json:"point,omitempty"`
	Tab   int    `json:"tab,omitempty"`
}

// Message is what the server pushes: the view after a command or after analysis
// arrived, or an error for the last command.
type Message struct {
	Type    string       `json:"type"`
	Changed bool         `json:"changed,omitempty"`
	Search  string       `json:"search,omitempty"`
	View    *gameuc.View `json:"view,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

// HandleWebsocket drives one session over a socket. The current view is sent on
// connect, after every command and whenever analysis for the session arrives.
func (g *GameHandler) HandleWebsocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	updates, cancel, err := g.gameUC.Subscribe(sessionID)
	if err != nil {
		g.writeError(w, err)
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error("upgrade error:", err)
		return
	}
	c := &wsConn{conn: conn}
	defer conn.Close()

	g.pushView(c, sessionID, "view", false)

	go func() {
		for range updates {
			g.pushView(c, sessionID, "analysis", false)
		}
		// Session closed.
		c.mu.Lock()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
		c.mu.Unlock()
	}()

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.log.Infow("websocket read ended", "session", sessionID, "error", err)
			}
			return
		}
		g.handleCommand(c, sessionID, cmd)
	}
}

func (g *GameHandler) handleCommand(c *wsConn, sessionID string, cmd Command) {
	var (
		changed bool
		search  string
		err     error
	)
	switch cmd.Op {
	case "view":
	case "play":
		_, err = g.gameUC.PlayMove(sessionID, cmd.Color, cmd.Point)
		changed = err == nil
	case "pass":
		_, err = g.gameUC.PlayMove(sessionID, "", "")
		changed = err == nil
	case "tab":
		_, err = g.gameUC.SwitchTab(sessionID, cmd.Tab)
		changed = err == nil
	case "analyse":
		search, err = g.gameUC.Analyze(sessionID)
	case "halt":
		_, err = g.gameUC.Halt(sessionID)
	default:
		_, changed, err = g.gameUC.Navigate(sessionID, cmd.Op)
	}
	if err != nil {
		if serr := c.send(Message{Type: "error", Error: err.Error()}); serr != nil {
			g.log.Error("write error:", serr)
		}
		return
	}
	if search != "" {
		if serr := c.send(Message{Type: "search", Search: search}); serr != nil {
			g.log.Error("write error:", serr)
		}
		return
	}
	g.pushView(c, sessionID, "view", changed)
}

func (g *GameHandler) pushView(c *wsConn, sessionID, kind string, changed bool) {
	view, err := g.gameUC.View(sessionID)
	msg := Message{Type: kind, Changed: changed, View: &view}
	if err != nil {
		msg = Message{Type: "error", Error: err.Error()}
	}
	if err := c.send(msg); err != nil {
		g.log.Error("write error:", err)
	}
}
