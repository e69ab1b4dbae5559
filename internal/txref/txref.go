// Package txref builds and parses the merchant transaction references sent to the payment gateway.
//
// The canonical form is order-{orderID}-{unixSeconds}. Older deployments issued order_{orderID},
// so ParseOrderID accepts both separators.
package txref

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var orderIDPattern = regexp.MustCompile(`order[-_](\d+)`)

func New(orderID uint, at time.Time) string {
	return fmt.Sprintf("order-%d-%d", orderID, at.Unix())
}

func ParseOrderID(ref string) (uint, bool) {
	m := orderIDPattern.FindStringSubmatch(ref)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
