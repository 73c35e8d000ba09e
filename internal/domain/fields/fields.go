package fields

import (
	"fmt"
	"math"
	"strconv"
)

// Percent is a watch-progress ratio rendered as "NN%".
type Percent float64

func NewPercent(part, total int) Percent {
	if total <= 0 {
		return 0
	}
	p := float64(part) / float64(total) * 100
	return Percent(math.Min(p, 100))
}

func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(fmt.Sprintf("%d%%", int(math.Round(float64(p)))))), nil
}
