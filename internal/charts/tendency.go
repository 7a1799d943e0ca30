package charts

import (
	"sort"

	"github.com/MikeSquared-Agency/waddle/internal/calls"
	"github.com/MikeSquared-Agency/waddle/internal/export"
)

const (
	friendAnnotation = "is your friend."
	selfAnnotation   = "is you."
)

type Share struct {
	Party    string  `json:"party"`
	Count    int     `json:"count"`
	Fraction float64 `json:"fraction"`
}

type TendencyChart struct {
	Title      string  `json:"title"`
	Shares     []Share `json:"shares"`
	Top        string  `json:"top,omitempty"`
	Annotation string  `json:"annotation,omitempty"`
}

// Callers shows who tends to start calls.
func Callers(cs []calls.Call, ref *export.Partner) TendencyChart {
	return tendency("The person who's most likely to start the call...", cs, ref,
		func(c calls.Call) string { return c.Caller })
}

// Terminators shows who tends to hang up.
func Terminators(cs []calls.Call, ref *export.Partner) TendencyChart {
	return tendency("The person who's most likely to hang up...", cs, ref,
		func(c calls.Call) string { return c.Terminator })
}

func tendency(title string, cs []calls.Call, ref *export.Partner, party func(calls.Call) string) TendencyChart {
	chart := TendencyChart{Title: title}

	counts := make(map[string]int)
	total := 0
	for _, c := range cs {
		p := party(c)
		if p == "" {
			continue
		}
		counts[p]++
		total++
	}
	if total == 0 {
		return chart
	}

	for p, n := range counts {
		chart.Shares = append(chart.Shares, Share{Party: p, Count: n, Fraction: float64(n) / float64(total)})
	}
	sort.Slice(chart.Shares, func(i, j int) bool { return chart.Shares[i].Party < chart.Shares[j].Party })

	top := chart.Shares[0]
	for _, s := range chart.Shares[1:] {
		if s.Count > top.Count {
			top = s
		}
	}
	chart.Top = top.Party

	if ref != nil {
		chart.Annotation = selfAnnotation
		if top.Party == ref.Label || top.Party == ref.Username {
			chart.Annotation = friendAnnotation
		}
	}
	return chart
}
