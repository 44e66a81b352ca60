package okx

// OKX public WebSocket wire types (books channel, V5 API).

type wsRequest struct {
	Op   string            `json:"op"` // subscribe, unsubscribe
	Args []subscriptionArg `json:"args"`
}

type subscriptionArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type wsMessage struct {
	Event  string          `json:"event,omitempty"` // subscribe, error
	Code   string          `json:"code,omitempty"`
	Msg    string          `json:"msg,omitempty"`
	Arg    subscriptionArg `json:"arg"`
	Action string          `json:"action,omitempty"` // snapshot, update
	Data   []bookData      `json:"data,omitempty"`
}

// bookData carries one book frame. Levels are [price, size, liquidated
// orders, order count]; only the first two matter here.
type bookData struct {
	Asks      [][]string `json:"asks"`
	Bids      [][]string `json:"bids"`
	Ts        string     `json:"ts"` // Unix milliseconds
	SeqID     int64      `json:"seqId"`
	PrevSeqID int64      `json:"prevSeqId"`
}

const (
	actionSnapshot = "snapshot"
	actionUpdate   = "update"
)
