package domain

// Event is the payload broadcast on the pub/sub channel. The operator panel
// and client widgets subscribe to it and filter by ClientID.
type Event struct {
	Sender   string `json:"sender"`
	Message  string `json:"message"`
	ClientID string `json:"clientId"`
}

// Message is an inbound chat message, either an OperatorMessage or a
// ClientMessage.
type Message interface {
	isMessage()
}

// OperatorMessage is written by a human on the support panel and is relayed
// without any completion.
type OperatorMessage struct {
	Sender   string
	Text     string
	ClientID string
}

// ClientMessage is written by an end user. OriginalMessage is relayed to the
// panel; MessageForGPT carries the instruction plus message for the model.
type ClientMessage struct {
	Sender          string
	OriginalMessage string
	MessageForGPT   string
	ClientID        string
}

func (OperatorMessage) isMessage() {}
func (ClientMessage) isMessage()   {}
