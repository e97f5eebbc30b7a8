package sqlxrepos

import (
	"strings"

	"github.com/trezcool/fyp/core"
)

func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

// orderBy builds the ORDER BY clause; fields outside allowed are dropped so they never reach the SQL.
func orderBy(ordering []core.DBOrdering, allowed []string, defaults ...core.DBOrdering) string {
	ordering = core.FilterOrderings(ordering, allowed...)
	if len(ordering) == 0 {
		ordering = defaults
	}
	if len(ordering) == 0 {
		return ""
	}
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}
