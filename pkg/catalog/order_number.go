package catalog

import (
	"fmt"
	"math/rand"
	"time"
)

// NewOrderNumber returns ORD-<unix millis>-<three random digits>.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%03d", now.UnixMilli(), rand.Intn(1000))
}
