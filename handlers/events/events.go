// Package events fans editor change notifications out to storefront
// clients over socket.io. Each editor session has a room; clients join it
// and receive scene-update events after every mutation.
package events

import (
	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/engine.io/v2/utils"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// Hub wraps the socket.io server and exposes per-session broadcasting.
type Hub struct {
	io *socketio.Server
}

// NewHub creates the socket.io server and wires the room protocol.
func NewHub() *Hub {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})
	io := socketio.NewServer(nil, opts)

	io.On("connection", func(clients ...any) {
		socket := clients[0].(*socketio.Socket)
		me := socket.Id()

		socket.On("join-session", func(datas ...any) {
			sessionID, ok := datas[0].(string)
			if !ok || sessionID == "" {
				return
			}
			room := socketio.Room(sessionID)
			utils.Log().Printf("Socket %v has joined session %v\n", me, room)
			socket.Join(room)
		})

		socket.On("leave-session", func(datas ...any) {
			sessionID, ok := datas[0].(string)
			if !ok {
				return
			}
			socket.Leave(socketio.Room(sessionID))
		})

		socket.On("disconnect", func(datas ...any) {
			socket.RemoveAllListeners("")
			socket.Disconnect(true)
		})
	})

	return &Hub{io: io}
}

// Server exposes the underlying socket.io server for mounting and
// shutdown.
func (h *Hub) Server() *socketio.Server { return h.io }

// Broadcast emits a scene-update event to every client watching the
// session.
func (h *Hub) Broadcast(sessionID string, payload any) {
	h.io.To(socketio.Room(sessionID)).Emit("scene-update", payload)
	logrus.WithField("session_id", sessionID).Debug("Broadcast scene update")
}

// Close shuts the socket.io server down.
func (h *Hub) Close() {
	h.io.Close(nil)
}
