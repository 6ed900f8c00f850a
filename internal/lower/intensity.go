package lower

import (
	"fmt"

	"github.com/sohaibafifi/schedkit/internal/ir"
	"github.com/sohaibafifi/schedkit/internal/model"
)

// maxIntensityRows caps the enumerated table of one intensity interval.
const maxIntensityRows = 200000

// lowerIntensity ties the size of an interval to its length through the
// stepwise intensity function: the length is the smallest l whose
// accumulated intensity over [start, start+l) reaches size*granularity.
// The relation enumerates as a table over (start, size, length), with a
// presence column and a single absent row when the interval is optional.
func (c *compiler) lowerIntensity(itv *model.IntervalVar) error {
	iv := c.vars(itv)
	sv, zv, lv := c.prog.Var(iv.start), c.prog.Var(iv.size), c.prog.Var(iv.length)
	steps := itv.Intensity()
	g := itv.Granularity()

	var rows [][]int
	for s := sv.Lo; s <= sv.Hi; s++ {
		lim := lv.Hi
		if h := c.horizon - s; h < lim {
			lim = h
		}
		for z := zv.Lo; z <= zv.Hi; z++ {
			l, ok := minimalLength(steps, g, s, z, lim)
			if !ok || l < lv.Lo {
				continue
			}
			rows = append(rows, []int{s, z, l})
			if len(rows) > maxIntensityRows {
				return fmt.Errorf("lower: interval %q: intensity table exceeds %d rows; tighten the start or size bounds", itv.Name(), maxIntensityRows)
			}
		}
	}

	if !itv.Optional() {
		if len(rows) == 0 {
			c.prog.Add(ir.Clause{})
			return nil
		}
		c.prog.Add(ir.Table{
			Vars: []ir.VarID{iv.start, iv.size, iv.length},
			Rows: rows,
		})
		return nil
	}

	wide := make([][]int, 0, len(rows)+1)
	for _, r := range rows {
		wide = append(wide, []int{1, r[0], r[1], r[2]})
	}
	wide = append(wide, []int{0, sv.Lo, zv.Lo, lv.Lo})
	c.prog.Add(ir.Table{
		Vars: []ir.VarID{iv.pres, iv.start, iv.size, iv.length},
		Rows: wide,
	})
	return nil
}

// minimalLength walks the stepwise function segment by segment from s
// and returns the smallest l <= lim whose accumulated intensity reaches
// z times the granularity. The function is zero before the first
// threshold and constant from the last one on.
func minimalLength(steps []model.Step, g, s, z, lim int) (int, bool) {
	if z == 0 {
		return 0, true
	}
	if lim < 0 {
		return 0, false
	}
	rem := z * g
	t := s
	end := s + lim
	j := -1
	for k := range steps {
		if steps[k].From <= t {
			j = k
		}
	}
	for t < end {
		v := 0
		if j >= 0 {
			v = steps[j].Value
		}
		segEnd := end
		if j+1 < len(steps) && steps[j+1].From < end {
			segEnd = steps[j+1].From
		}
		if v > 0 {
			need := (rem + v - 1) / v
			if t+need <= segEnd {
				return t + need - s, true
			}
			rem -= v * (segEnd - t)
		}
		if segEnd == end {
			break
		}
		t = segEnd
		j++
	}
	return 0, false
}
