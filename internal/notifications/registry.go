// Package notifications provides real-time room membership and delivery.
package notifications

import (
	"context"

	"roommatch/internal/middleware"
	"roommatch/internal/observability"
)

type commandKind int

const (
	cmdJoin commandKind = iota
	cmdLeave
	cmdDrop
	cmdPublish
	cmdRoomSize
)

type command struct {
	kind    commandKind
	room    string
	client  *Client
	payload []byte
	reply   chan int
}

// Registry maps rooms to the clients joined to them. All state is owned by the
// goroutine running Run; every other method sends it a command.
type Registry struct {
	cmds chan command
	done chan struct{}

	rooms   map[string]map[*Client]struct{}
	members map[*Client]map[string]struct{}
}

// NewRegistry creates a registry. Call Run before using it.
func NewRegistry() *Registry {
	return &Registry{
		cmds:    make(chan command, 64),
		done:    make(chan struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		members: make(map[*Client]map[string]struct{}),
	}
}

// Name returns a human-readable identifier used in metrics.
func (r *Registry) Name() string { return "realtime" }

// Run processes commands until ctx is cancelled. On exit every client's send
// buffer is closed so its write pump terminates.
func (r *Registry) Run(ctx context.Context) {
	middleware.Logger.Info("realtime registry started")
	defer func() {
		for c := range r.members {
			r.drop(c)
		}
		close(r.done)
		middleware.Logger.Info("realtime registry stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-r.cmds:
			r.apply(cmd)
		}
	}
}

// Join adds client to room.
func (r *Registry) Join(room string, c *Client) {
	r.send(command{kind: cmdJoin, room: room, client: c})
}

// Leave removes client from room.
func (r *Registry) Leave(room string, c *Client) {
	r.send(command{kind: cmdLeave, room: room, client: c})
}

// Drop removes client from every room and closes its send buffer.
func (r *Registry) Drop(c *Client) {
	r.send(command{kind: cmdDrop, client: c})
}

// Publish delivers payload to every client in room. Delivery is best-effort.
func (r *Registry) Publish(room string, payload []byte) {
	r.send(command{kind: cmdPublish, room: room, payload: payload})
}

// RoomSize returns the number of clients joined to room.
func (r *Registry) RoomSize(room string) int {
	reply := make(chan int, 1)
	if !r.send(command{kind: cmdRoomSize, room: room, reply: reply}) {
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-r.done:
		return 0
	}
}

func (r *Registry) send(cmd command) bool {
	select {
	case r.cmds <- cmd:
		return true
	case <-r.done:
		return false
	}
}

func (r *Registry) apply(cmd command) {
	switch cmd.kind {
	case cmdJoin:
		r.join(cmd.room, cmd.client)
	case cmdLeave:
		r.leave(cmd.room, cmd.client)
	case cmdDrop:
		r.drop(cmd.client)
	case cmdPublish:
		for c := range r.rooms[cmd.room] {
			c.TrySend(cmd.payload)
		}
	case cmdRoomSize:
		cmd.reply <- len(r.rooms[cmd.room])
	}
	observability.WebSocketRoomsActive.Set(float64(len(r.rooms)))
	observability.WebSocketConnectionsTotal.Set(float64(len(r.members)))
}

func (r *Registry) join(room string, c *Client) {
	if c == nil || c.closed {
		return
	}
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		r.rooms[room] = members
	}
	members[c] = struct{}{}

	joined, ok := r.members[c]
	if !ok {
		joined = make(map[string]struct{})
		r.members[c] = joined
	}
	joined[room] = struct{}{}
}

func (r *Registry) leave(room string, c *Client) {
	if members, ok := r.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if joined, ok := r.members[c]; ok {
		delete(joined, room)
	}
}

func (r *Registry) drop(c *Client) {
	if c == nil || c.closed {
		return
	}
	for room := range r.members[c] {
		r.leave(room, c)
	}
	delete(r.members, c)
	c.closed = true
	close(c.Send)
}
