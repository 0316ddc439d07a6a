// Package email defines the message model relayed by the forwarder.
package email

// Message is one received email as stored by the SES receipt pipeline.
// ID is the SES message identifier and doubles as the storage object key.
// Raw holds the stored MIME bytes exactly as they were written.
type Message struct {
	ID  string
	Raw []byte
}

// Size returns the payload length in bytes.
func (m *Message) Size() int {
	return len(m.Raw)
}
