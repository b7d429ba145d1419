package question

import (
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRng() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func TestGenerateCountAndDedup(t *testing.T) {
	qs := Generate(testRng(), "g34", []string{"mult2", "div2"}, 20)
	assert.Len(t, qs, 20)

	seen := map[string]bool{}
	for _, q := range qs {
		assert.False(t, seen[q.Q], "duplicate question %q", q.Q)
		seen[q.Q] = true
	}
}

func TestGenerateUnknownTypesFallBackToGrade(t *testing.T) {
	qs := Generate(testRng(), "g12", []string{"nope"}, 10)
	assert.Len(t, qs, 10)
}

func TestGenerateUnknownGrade(t *testing.T) {
	assert.Nil(t, Generate(testRng(), "g99", nil, 10))
}

func TestGenerateBoundedOnTinySpace(t *testing.T) {
	// add20 has at most 400 distinct prompts; asking for more must still
	// terminate.
	qs := Generate(testRng(), "g12", []string{"add20"}, 1000)
	assert.LessOrEqual(t, len(qs), 400)
	assert.NotEmpty(t, qs)
}

func TestAdditionAnswers(t *testing.T) {
	rng := testRng()
	gen := generators["add20"]
	for i := 0; i < 50; i++ {
		q := gen(rng)
		parts := strings.Split(q.Q, "+")
		require.Len(t, parts, 2)
		a, _ := strconv.Atoi(parts[0])
		b, _ := strconv.Atoi(parts[1])
		assert.InDelta(t, float64(a+b), q.A, 0.001)
		assert.GreaterOrEqual(t, a, 1)
		assert.LessOrEqual(t, a, 20)
	}
}

func TestDivisionAnswers(t *testing.T) {
	rng := testRng()
	gen := generators["div9"]
	for i := 0; i < 50; i++ {
		q := gen(rng)
		parts := strings.Split(q.Q, "÷")
		require.Len(t, parts, 2)
		dividend, _ := strconv.Atoi(parts[0])
		divisor, _ := strconv.Atoi(parts[1])
		require.NotZero(t, divisor)
		assert.InDelta(t, float64(dividend/divisor), q.A, 0.001)
		assert.Zero(t, dividend%divisor, "table division must divide evenly")
	}
}

func TestDecimalAnswersRounded(t *testing.T) {
	rng := testRng()
	gen := generators["decAddSub"]
	for i := 0; i < 50; i++ {
		q := gen(rng)
		// Answers carry at most one decimal place.
		assert.InDelta(t, q.A, float64(int(q.A*10+0.5))/10, 0.0001)
	}
}

func TestTopics(t *testing.T) {
	assert.Len(t, Topics("g12"), 4)
	assert.Len(t, Topics("g34"), 5)
	assert.Len(t, Topics("g56"), 3)
	assert.Empty(t, Topics("g99"))

	for _, grade := range []string{"g12", "g34", "g56"} {
		for _, topic := range Topics(grade) {
			_, ok := generators[topic.ID]
			assert.True(t, ok, "topic %s has no generator", topic.ID)
		}
	}
}
