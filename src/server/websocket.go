package server

import (
	"encoding/json"
	"net/http"

	"stock-dashboard/src/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (g *DeliveryGateway) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(uuid.NewString(), g, conn)
	g.Hub.Register(client)
	g.Logger.Info("Client %s connected from %s", client.id, c.ClientIP())

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage applies one control message. Malformed or unknown
// messages are logged and ignored; the connection stays open.
func (g *DeliveryGateway) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		g.Logger.Warning("Ignoring malformed message from %s: %v", client.id, err)
		return
	}

	if cmd.Type != models.MsgSubscribeStocks {
		g.Logger.Warning("Ignoring message type %q from %s", cmd.Type, client.id)
		return
	}

	symbols := normalizeSymbols(cmd.Symbols)
	added := g.Hub.Subscribe(client.id, symbols)
	if len(added) == 0 {
		return
	}
	g.Logger.Debug("Client %s subscribed to %v", client.id, added)

	for _, symbol := range added {
		go g.sendInitialQuote(client.id, symbol)
	}
}

// sendInitialQuote gives a new subscriber the current quote without waiting for the next refresh.
func (g *DeliveryGateway) sendInitialQuote(connID, symbol string) {
	quote, err := g.Quotes.FetchQuote(g.ctx, symbol)
	if err != nil {
		g.Logger.Warning("Initial quote for %s skipped: %v", symbol, err)
		return
	}
	if outcome := g.Hub.Send(connID, models.NewStockUpdate(quote)); outcome.Err != nil {
		g.Logger.Debug("Initial quote for %s not delivered: %v", symbol, outcome.Err)
	}
}
