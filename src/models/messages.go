package models

// -----------------------------------------------------------------------------
// Push channel messages
// -----------------------------------------------------------------------------

const (
	MsgSubscribeStocks = "SUBSCRIBE_STOCKS"
	MsgStockUpdate     = "STOCK_UPDATE"
)

// MSubscribeCommand for client messages
type MSubscribeCommand struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
}

type MStockUpdate struct {
	Type   string        `json:"type"`
	Symbol string        `json:"symbol"`
	Data   MQuotePayload `json:"data"`
}

func NewStockUpdate(q MQuoteRecord) MStockUpdate {
	return MStockUpdate{Type: MsgStockUpdate, Symbol: q.Symbol, Data: q.Payload()}
}

// -----------------------------------------------------------------------------
// Pull channel responses
// -----------------------------------------------------------------------------

type MErrorResponse struct {
	Error string `json:"error"`
}
