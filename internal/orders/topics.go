package orders

import "strconv"

const (
	TopicOrderCreated  = "order.created"
	TopicStatusChanged = "order.status.changed"
)

// Partition key = order id, so every event for one order keeps its order.
func PartitionKey(orderID int64) []byte {
	return []byte(strconv.FormatInt(orderID, 10))
}
