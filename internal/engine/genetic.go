package engine

import (
	"context"
	"math/rand"
	"sort"
)

// GeneticConfig holds parameters for the genetic algorithm optimizer.
type GeneticConfig struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	TournamentSize int
	EliteCount     int
	Seed           int64
}

// DefaultGeneticConfig returns sensible default parameters.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize: 50,
		Generations:    100,
		MutationRate:   0.15,
		TournamentSize: 3,
		EliteCount:     2,
		Seed:           42,
	}
}

// scaledGeneticConfig grows the search for larger piece counts.
func scaledGeneticConfig(pieces int) GeneticConfig {
	config := DefaultGeneticConfig()
	if pieces > 20 {
		config.Generations = 150
	}
	if pieces > 50 {
		config.Generations = 200
		config.PopulationSize = 80
	}
	return config
}

// chromosome is a cutting order over the expanded pieces.
type chromosome struct {
	genes   []int // positions into geneticOptimizer.pieces
	fitness float64
}

// geneticOptimizer evolves piece orders that first-fit turns into bars.
type geneticOptimizer struct {
	prob   *problem
	config GeneticConfig
	pieces []int // part index per piece
	rng    *rand.Rand
}

func newGeneticOptimizer(prob *problem, config GeneticConfig) *geneticOptimizer {
	return &geneticOptimizer{
		prob:   prob,
		config: config,
		pieces: expandPieces(prob),
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// optimize runs the genetic algorithm and returns the bars of the best order.
// It stops early when ctx is done and returns the best order found so far.
func (g *geneticOptimizer) optimize(ctx context.Context) ([]*bar, []int) {
	if len(g.pieces) == 0 || len(g.prob.stockIDs) == 0 {
		return nil, nil
	}

	population := g.initPopulation()
	for i := range population {
		population[i].fitness = g.evaluate(population[i])
	}

	for gen := 0; gen < g.config.Generations; gen++ {
		if ctx.Err() != nil {
			break
		}
		// Sort by fitness descending (higher is better)
		sort.SliceStable(population, func(i, j int) bool {
			return population[i].fitness > population[j].fitness
		})

		newPop := make([]chromosome, 0, g.config.PopulationSize)

		// Elitism: carry over the best individuals unchanged
		eliteCount := g.config.EliteCount
		if eliteCount > len(population) {
			eliteCount = len(population)
		}
		for i := 0; i < eliteCount; i++ {
			newPop = append(newPop, g.copyChromosome(population[i]))
		}

		for len(newPop) < g.config.PopulationSize {
			parent1 := g.tournamentSelect(population)
			parent2 := g.tournamentSelect(population)

			child := g.orderCrossover(parent1, parent2)
			g.mutate(&child)

			child.fitness = g.evaluate(child)
			newPop = append(newPop, child)
		}

		population = newPop
	}

	sort.SliceStable(population, func(i, j int) bool {
		return population[i].fitness > population[j].fitness
	})
	return g.decode(population[0])
}

// initPopulation creates random orders plus one longest-first order so the
// result is never worse than first-fit decreasing.
func (g *geneticOptimizer) initPopulation() []chromosome {
	n := len(g.pieces)
	population := make([]chromosome, g.config.PopulationSize)
	for i := range population {
		population[i] = chromosome{genes: g.rng.Perm(n)}
	}
	if g.config.PopulationSize > 0 {
		population[0] = g.createGreedyChromosome()
	}
	return population
}

func (g *geneticOptimizer) createGreedyChromosome() chromosome {
	genes := make([]int, len(g.pieces))
	for i := range genes {
		genes[i] = i
	}
	sort.SliceStable(genes, func(i, j int) bool {
		return g.prob.parts[g.pieces[genes[i]]].Length > g.prob.parts[g.pieces[genes[j]]].Length
	})
	return chromosome{genes: genes}
}

// evaluate scores an order by the negated cost of its packing. Pieces that
// cannot be placed are charged more than any bar.
func (g *geneticOptimizer) evaluate(c chromosome) float64 {
	bars, unplaced := g.decode(c)
	cost := barsCost(g.prob, bars)
	if len(unplaced) > 0 {
		var maxBar float64
		for _, id := range g.prob.stockIDs {
			if pc := g.prob.barCost[id] + g.prob.avgPerMM*g.prob.stock[id].Length; pc > maxBar {
				maxBar = pc
			}
		}
		cost += float64(len(unplaced)) * (maxBar + 1) * 10
	}
	return -cost
}

// decode converts an order into bars using first-fit.
func (g *geneticOptimizer) decode(c chromosome) ([]*bar, []int) {
	order := make([]int, len(c.genes))
	for i, pos := range c.genes {
		order[i] = g.pieces[pos]
	}
	return newPacker(g.prob).pack(order)
}

// tournamentSelect picks the best individual from a random tournament.
func (g *geneticOptimizer) tournamentSelect(population []chromosome) chromosome {
	best := population[g.rng.Intn(len(population))]
	for i := 1; i < g.config.TournamentSize; i++ {
		candidate := population[g.rng.Intn(len(population))]
		if candidate.fitness > best.fitness {
			best = candidate
		}
	}
	return g.copyChromosome(best)
}

// orderCrossover implements Order Crossover (OX1) for permutation chromosomes.
// It preserves the relative order of genes from both parents.
func (g *geneticOptimizer) orderCrossover(parent1, parent2 chromosome) chromosome {
	n := len(parent1.genes)
	if n <= 2 {
		return g.copyChromosome(parent1)
	}

	point1 := g.rng.Intn(n)
	point2 := g.rng.Intn(n)
	if point1 > point2 {
		point1, point2 = point2, point1
	}

	child := chromosome{genes: make([]int, n)}

	// Copy segment from parent1
	inSegment := make(map[int]bool)
	for i := point1; i <= point2; i++ {
		child.genes[i] = parent1.genes[i]
		inSegment[parent1.genes[i]] = true
	}

	// Fill remaining positions with genes from parent2 in order
	childIdx := (point2 + 1) % n
	for _, pg := range parent2.genes {
		if !inSegment[pg] {
			child.genes[childIdx] = pg
			childIdx = (childIdx + 1) % n
		}
	}

	return child
}

// mutate applies swap and inversion mutations.
func (g *geneticOptimizer) mutate(c *chromosome) {
	n := len(c.genes)
	if n < 2 {
		return
	}

	if g.rng.Float64() < g.config.MutationRate {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
	}

	// Inversion mutation: reverse a segment (less frequent)
	if g.rng.Float64() < g.config.MutationRate*0.5 {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		if i > j {
			i, j = j, i
		}
		for i < j {
			c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
			i++
			j--
		}
	}
}

func (g *geneticOptimizer) copyChromosome(c chromosome) chromosome {
	genes := make([]int, len(c.genes))
	copy(genes, c.genes)
	return chromosome{genes: genes, fitness: c.fitness}
}
