package wire

type MessageType uint8

const (
	MessageTypeHello MessageType = 1
	MessageTypeProof MessageType = 2
	MessageTypeData  MessageType = 3
	MessageTypeClose MessageType = 4
)

func (t MessageType) valid() bool {
	return t >= MessageTypeHello && t <= MessageTypeClose
}

func (t MessageType) String() string {
	switch t {
	case MessageTypeHello:
		return "HELLO"
	case MessageTypeProof:
		return "PROOF"
	case MessageTypeData:
		return "DATA"
	case MessageTypeClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}
