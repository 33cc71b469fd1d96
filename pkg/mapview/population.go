package mapview

import (
	"math"
	"strconv"
	"strings"
)

// PopulationCategory is a coarse bucket of a city's population.
type PopulationCategory string

const (
	CategoryVillage  PopulationCategory = "village"
	CategoryTown     PopulationCategory = "town"
	CategoryCity     PopulationCategory = "city"
	CategoryMegacity PopulationCategory = "megacity"
)

const (
	townMinPopulation     = 10_000
	cityMinPopulation     = 50_000
	largeCityPopulation   = 500_000
	megacityMinPopulation = 1_000_000
)

func ParsePopulationCategory(s string) (PopulationCategory, bool) {
	switch c := PopulationCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryVillage, CategoryTown, CategoryCity, CategoryMegacity:
		return c, true
	}
	return "", false
}

// ParsePopulation normalizes free-text population values such as "215K",
// "2.1M" or "10,000". The second result is false when the value cannot be
// used for numeric comparison.
func ParsePopulation(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(",", "", " ", "", "_", "").Replace(s)
	if s == "" || s == "n/a" {
		return 0, false
	}
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "k"):
		mult = 1e3
		s = strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		mult = 1e6
		s = strings.TrimSuffix(s, "m")
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0, false
	}
	return n * mult, true
}

// CategoryForPopulation buckets an already normalized population.
func CategoryForPopulation(n float64) PopulationCategory {
	switch {
	case n >= megacityMinPopulation:
		return CategoryMegacity
	case n >= cityMinPopulation:
		return CategoryCity
	case n >= townMinPopulation:
		return CategoryTown
	default:
		return CategoryVillage
	}
}

// Contains reports whether the normalized population n falls in c.
func (c PopulationCategory) Contains(n float64) bool {
	return CategoryForPopulation(n) == c
}

// MatchesPopulation reports whether the place's population string parses
// and falls in c.
func (c PopulationCategory) MatchesPopulation(population string) bool {
	n, ok := ParsePopulation(population)
	return ok && c.Contains(n)
}
