package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// FilterOrderings drops the orderings whose field is not in `allowed`, so that they can be safely used in queries.
func FilterOrderings(orderings []DBOrdering, allowed ...string) []DBOrdering {
	res := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		field := strings.ToLower(ord.Field)
		for _, a := range allowed {
			if field == a {
				res = append(res, DBOrdering{Field: field, Ascending: ord.Ascending})
				break
			}
		}
	}
	return res
}
