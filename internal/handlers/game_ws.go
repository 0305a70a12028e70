package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/voxfield/minesweeper3d-server/internal/field"
	"github.com/voxfield/minesweeper3d-server/internal/session"
)

// wsReply answers one websocket command: the session status after the
// command, the disclosures it produced, or the rejection reason.
type wsReply struct {
	Status string          `json:"status"`
	Events []session.Event `json:"events,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func parseWSIndex(args []string) (field.Index, error) {
	if len(args) != 3 {
		return field.Index{}, fmt.Errorf("expected 3 coordinates, got %d", len(args))
	}
	var coords [3]int
	for i, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return field.Index{}, fmt.Errorf("coordinate %q is not an int", arg)
		}
		coords[i] = n
	}
	return field.Index{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}

// runWSCommand executes one text command against the session:
//
//	o x y z   open the cell at (x,y,z)
//	m x y z   toggle the mark at (x,y,z)
//	f         forfeit the session
func runWSCommand(s *session.Session, command string) ([]session.Event, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	switch parts[0] {
	case "o":
		idx, err := parseWSIndex(parts[1:])
		if err != nil {
			return nil, err
		}
		return s.Open(idx)
	case "m":
		idx, err := parseWSIndex(parts[1:])
		if err != nil {
			return nil, err
		}
		return s.ToggleMark(idx)
	case "f":
		if len(parts) != 1 {
			return nil, fmt.Errorf("forfeit takes no arguments")
		}
		return s.Forfeit(), nil
	}
	return nil, fmt.Errorf("unknown command %q", parts[0])
}

// ConnectWS upgrades to a websocket and plays the session live: each
// text command is answered with the status and the events it caused.
// Rejected commands answer with an error and leave the connection
// open.
func (g *Game) ConnectWS(w http.ResponseWriter, r *http.Request) {
	h, ok := g.registry.Get(r.PathValue("id"))
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	c, err := g.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.WithError(err).Error("unable to upgrade connection")
		return
	}
	defer c.Close()

	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.log.WithError(err).Warn("abnormal ws break")
			}
			return
		}
		if mt != websocket.TextMessage {
			// Stray binary frames are not commands; the game stays up.
			continue
		}

		var reply wsReply
		_ = h.Do(func(s *session.Session) error {
			events, err := runWSCommand(s, strings.TrimSpace(string(message)))
			if err != nil {
				reply = wsReply{Status: s.Status().String(), Error: err.Error()}
				return nil
			}
			g.recordIfEnded(r, h.ID, s, events)
			reply = wsReply{Status: s.Status().String(), Events: events}
			return nil
		})

		if err := c.WriteJSON(reply); err != nil {
			g.log.WithError(err).Error("unable to write ws reply")
			return
		}
	}
}
