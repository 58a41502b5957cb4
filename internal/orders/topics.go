package orders

import "strconv"

const TopicOrderTransactions = "inventory.order_transactions"

// Partition key = product id, so every stock change of one product stays in
// order on a single partition.
func PartitionKey(productID int64) []byte { return []byte(strconv.FormatInt(productID, 10)) }
