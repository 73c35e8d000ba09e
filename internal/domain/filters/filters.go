package filters

import (
	"fmt"
	"strings"
)

const (
	AscSort  = "ASC"
	DescSort = "DESC"
)

type Filters struct {
	Sort         string
	SortSafelist []string
}

var ListsSortSafelist = []string{"name", "created_at", "updated_at", "-name", "-created_at", "-updated_at"}

// ForLists returns the filters used to order a user's lists, defaulting to newest first.
func ForLists(sort string) Filters {
	if sort == "" {
		sort = "-created_at"
	}
	return Filters{Sort: sort, SortSafelist: ListsSortSafelist}
}

func (f *Filters) Validate() error {
	for _, safeValue := range f.SortSafelist {
		if f.Sort == safeValue {
			return nil
		}
	}
	return fmt.Errorf("unknown sort column: %s", f.Sort)
}

func (f *Filters) SortColumn() string {
	s := strings.TrimPrefix(f.Sort, "-")
	for _, safeValue := range f.SortSafelist {
		if strings.EqualFold(strings.TrimPrefix(safeValue, "-"), s) {
			return s
		}
	}
	panic(fmt.Errorf("unknown sort column: %s", f.Sort))
}

func (f *Filters) SortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return DescSort
	}
	return AscSort
}
