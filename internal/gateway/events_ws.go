package gateway

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// handleEvents streams provisioning lifecycle events over a
// websocket. Each event is one JSON message. The subscription is
// buffered; a client that cannot keep up misses events rather than
// slowing provisioning down.
func (g *Gateway) handleEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			g.logger.Warn("websocket accept failed", "error", err)
			return
		}
		defer c.CloseNow()

		ch, cancel := g.bus.Subscribe(64)
		defer cancel()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				_ = c.Close(websocket.StatusNormalClosure, "")
				return
			case e, ok := <-ch:
				if !ok {
					_ = c.Close(websocket.StatusNormalClosure, "")
					return
				}
				if err := wsjson.Write(ctx, c, e); err != nil {
					return
				}
			}
		}
	}
}
