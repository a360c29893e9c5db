package mqtt

import "fmt"

// maxPayloadSize is the maximum allowed payload size (1 MB).
// Larger payloads likely indicate a bug upstream.
const maxPayloadSize = 1024 * 1024

// Publish sends a message to the specified topic.
//
// The call blocks until the broker acknowledges the message (for QoS > 0)
// or the publish timeout elapses.
//
// Parameters:
//   - topic: Destination topic (must not be empty)
//   - payload: Message payload (JSON in the knxlink namespace)
//   - qos: Quality of service level (0, 1, or 2)
//   - retained: Whether the broker should retain the message
//
// Returns:
//   - error: ErrNotConnected, ErrInvalidTopic, ErrInvalidQoS, or
//     ErrPublishFailed wrapped with detail
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	if topic == "" {
		return ErrInvalidTopic
	}

	if qos > maxQoS {
		return fmt.Errorf("%w: got %d", ErrInvalidQoS, qos)
	}

	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d",
			ErrPublishFailed, len(payload), maxPayloadSize)
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v on topic %s",
			ErrPublishFailed, defaultPublishTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}
