// Package store owns the key-value layout. The key names are a stable
// contract shared with every other consumer of the store; nothing outside
// this package builds a key string.
package store

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	KeyQueueCurrent = "queue:current"
	KeyQueueLast    = "queue:last"
	KeyQueueNext    = "queue:next"
	KeyQueueTickets = "queue:tickets"

	KeyUsersList        = "users:list"
	KeyUsersInitialized = "users:initialized"

	KeyLogs = "logs:z"
)

func TicketKey(n int) string {
	return fmt.Sprintf("queue:ticket:%d", n)
}

func RFQIndexKey(area string) string {
	return fmt.Sprintf("rfq:%s:ids", area)
}

func RFQKey(area, rfqNo string) string {
	return fmt.Sprintf("rfq:%s:%s", area, rfqNo)
}

func RFQHistoryKey(area, rfqNo string) string {
	return fmt.Sprintf("rfq:%s:history:%s", area, rfqNo)
}

func UserKey(username string) string {
	return "user:" + username
}

// Store is the shared handle every manager mutates through.
type Store struct {
	R *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{R: rdb}
}
