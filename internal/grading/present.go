package grading

import (
	"math"
	"strconv"
	"strings"
)

// Percent is floor(examinee / max * 100). A zero max yields 0.
func Percent(max, examinee int) int {
	if max <= 0 {
		return 0
	}
	return int(math.Floor(float64(examinee) / float64(max) * 100))
}

type Percentages struct {
	Sum   int   `json:"sum"`
	Parts []int `json:"parts"`
}

func ToPercentages(s ExaminationScore) Percentages {
	p := Percentages{
		Sum:   Percent(s.Sum.Max, s.Sum.Examinee),
		Parts: make([]int, len(s.Parts)),
	}
	for i, part := range s.Parts {
		p.Parts[i] = Percent(part.Max, part.Examinee)
	}
	return p
}

// PercentColor maps a percentage onto a blue-to-red CSS color in 10% steps.
func PercentColor(percent int) string {
	d := math.Floor(float64(percent)/10) / 10
	rgb := []float64{d * d * 255, 0, (1 - d*d) * 255 / 2}
	parts := make([]string, len(rgb))
	for i, v := range rgb {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "rgb(" + strings.Join(parts, ", ") + ")"
}

type Colors struct {
	Sum   string   `json:"sum"`
	Parts []string `json:"parts"`
}

func ToColors(p Percentages) Colors {
	c := Colors{Sum: PercentColor(p.Sum), Parts: make([]string, len(p.Parts))}
	for i, v := range p.Parts {
		c.Parts[i] = PercentColor(v)
	}
	return c
}
