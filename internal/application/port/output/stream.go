package output

// EventSink receives the wire events of one streamed answer.
type EventSink interface {
	Delta(content string) error
	Error(message string) error
	Done() error
}
