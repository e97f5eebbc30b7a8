package boltdb

import (
	"sort"
	"strings"
	"time"

	"github.com/trezcool/fyp/core"
)

// comparators return a negative number when a < b, 0 when a == b and a positive number when a > b.
type comparators[T any] map[string]func(a, b T) int

func compareStrings(a, b string) int { return strings.Compare(strings.ToLower(a), strings.ToLower(b)) }

func compareTimes(a, b time.Time) int { return a.Compare(b) }

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

// sortBy sorts objs in place following the orderings; unknown fields are ignored.
func sortBy[T any](objs []T, cmps comparators[T], orderings []core.DBOrdering, defaults ...core.DBOrdering) {
	orderings = core.FilterOrderings(orderings, keys(cmps)...)
	if len(orderings) == 0 {
		orderings = defaults
	}
	sort.SliceStable(objs, func(i, j int) bool {
		for _, ord := range orderings {
			c := cmps[ord.Field](objs[i], objs[j])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func keys[T any](cmps comparators[T]) []string {
	res := make([]string, 0, len(cmps))
	for k := range cmps {
		res = append(res, k)
	}
	return res
}
