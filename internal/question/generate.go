// Package question holds the pure arithmetic templates. The engine consumes
// a generated set once at battle start and never calls back in.
package question

import (
	"fmt"
	"math"
	"math/rand"

	"mathbattle/internal/model"
)

// Generator produces one question/answer pair from a randomness source.
type Generator func(rng *rand.Rand) model.Question

// Topic is one selectable question template.
type Topic struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var generators = map[string]Generator{
	"add20": func(rng *rand.Rand) model.Question {
		a, b := randInt(rng, 1, 20), randInt(rng, 1, 20)
		return q("%d+%d", a+b, a, b)
	},
	"add100": func(rng *rand.Rand) model.Question {
		a, b := randInt(rng, 11, 99), randInt(rng, 11, 99)
		return q("%d+%d", a+b, a, b)
	},
	"mult9": func(rng *rand.Rand) model.Question {
		a, b := randInt(rng, 2, 9), randInt(rng, 2, 9)
		return q("%d×%d", a*b, a, b)
	},
	"div9": func(rng *rand.Rand) model.Question {
		b, ans := randInt(rng, 2, 9), randInt(rng, 2, 9)
		return q("%d÷%d", ans, b*ans, b)
	},
	"mult2": func(rng *rand.Rand) model.Question {
		a, b := randInt(rng, 11, 99), randInt(rng, 2, 9)
		return q("%d×%d", a*b, a, b)
	},
	"div2": func(rng *rand.Rand) model.Question {
		b, ans := randInt(rng, 2, 9)*10, randInt(rng, 2, 12)*10
		return q("%d÷%d", ans, b*ans, b)
	},
	"round": func(rng *rand.Rand) model.Question {
		off := randInt(rng, 1, 3)
		if rng.Intn(2) == 0 {
			off = -off
		}
		a := randInt(rng, 2, 9)*100 + off
		b := randInt(rng, 11, 99)
		return q("%d+%d", a+b, a, b)
	},
	"mix1": func(rng *rand.Rand) model.Question {
		a, b := randInt(rng, 1, 9)*10, randInt(rng, 1, 9)*10
		c := randInt(rng, 2, 5)
		return q("(%d+%d)×%d", (a+b)*c, a, b, c)
	},
	"mixSpeed": func(rng *rand.Rand) model.Question {
		pairs := [][2]int{{25, 4}, {125, 8}, {15, 4}, {25, 8}, {50, 2}}
		p := pairs[rng.Intn(len(pairs))]
		a, b := p[0], p[1]
		if rng.Intn(2) == 0 {
			a, b = b, a
		}
		prod := a * b
		c := randInt(rng, 10, 99)
		if rng.Intn(2) == 0 {
			return q("%d × %d + %d", prod+c, a, b, c)
		}
		if prod <= c {
			c = randInt(rng, 1, max(1, prod-1))
		}
		return q("%d × %d - %d", prod-c, a, b, c)
	},
	"decAddSub": func(rng *rand.Rand) model.Question {
		a := float64(randInt(rng, 11, 99)) / 10
		b := float64(randInt(rng, 11, 99)) / 10
		return model.Question{
			Q: fmt.Sprintf("%.1f+%.1f", a, b),
			A: math.Round((a+b)*10) / 10,
		}
	},
	"decMultDiv": func(rng *rand.Rand) model.Question {
		a := float64(randInt(rng, 11, 99)) / 10
		b := randInt(rng, 2, 9)
		return model.Question{
			Q: fmt.Sprintf("%.1f×%d", a, b),
			A: math.Round(a*float64(b)*10) / 10,
		}
	},
	"mix2": func(rng *rand.Rand) model.Question {
		a, b := randInt(rng, 2, 9), randInt(rng, 2, 9)
		prod := a * b
		c := randInt(rng, 11, 99)
		if rng.Intn(2) == 0 {
			return q("%d×%d + %d", prod+c, a, b, c)
		}
		if prod <= c {
			return q("%d + %d×%d", c+prod, c, a, b)
		}
		return q("%d×%d - %d", prod-c, a, b, c)
	},
}

var gradeTopics = map[string][]Topic{
	"g12": {
		{ID: "add20", Name: "20以内加减"},
		{ID: "add100", Name: "100以内加减"},
		{ID: "mult9", Name: "九九乘法表"},
		{ID: "div9", Name: "表内除法"},
	},
	"g34": {
		{ID: "mult2", Name: "多位数乘法"},
		{ID: "div2", Name: "多位数除法"},
		{ID: "round", Name: "灵活凑整"},
		{ID: "mix1", Name: "基础混合"},
		{ID: "mixSpeed", Name: "混合速算"},
	},
	"g56": {
		{ID: "decAddSub", Name: "小数加减"},
		{ID: "decMultDiv", Name: "小数乘除"},
		{ID: "mix2", Name: "进阶混合"},
	},
}

// Topics lists the selectable templates for a grade.
func Topics(grade string) []Topic {
	return gradeTopics[grade]
}

// Generate produces a deduplicated question set. Unknown topic ids are
// skipped; with no usable topics it falls back to the full grade table. The
// loop is bounded so a tiny template space cannot spin forever.
func Generate(rng *rand.Rand, grade string, types []string, count int) []model.Question {
	var pool []Generator
	for _, id := range types {
		if gen, ok := generators[id]; ok {
			pool = append(pool, gen)
		}
	}
	if len(pool) == 0 {
		for _, t := range Topics(grade) {
			pool = append(pool, generators[t.ID])
		}
	}
	if len(pool) == 0 {
		return nil
	}

	questions := make([]model.Question, 0, count)
	seen := make(map[string]bool)
	for loops := 0; len(questions) < count && loops < 500; loops++ {
		cand := pool[rng.Intn(len(pool))](rng)
		if seen[cand.Q] {
			continue
		}
		seen[cand.Q] = true
		questions = append(questions, cand)
	}
	return questions
}

func q(format string, answer int, args ...any) model.Question {
	return model.Question{Q: fmt.Sprintf(format, args...), A: float64(answer)}
}

func randInt(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}
