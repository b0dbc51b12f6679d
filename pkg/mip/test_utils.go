package mip

import "math/rand/v2"

// GenerateCoveringInstance builds a random covering model with some pairwise exclusions; it may be infeasible
func GenerateCoveringInstance(random *rand.Rand, variables, elements int) *Model {
	model := &Model{
		Name:      "random-covering",
		Variables: make([]string, variables),
		Objective: make([]float64, variables),
	}
	for variable := range variables {
		model.Variables[variable] = "y"
		model.Objective[variable] = float64(random.IntN(10) + 1)
	}

	for element := range elements {
		constraint := Constraint{Sense: GreaterEqual, Rhs: 1}
		for variable := range variables {
			if random.Float32() < 0.4 {
				constraint.Terms = append(constraint.Terms, Term{Variable: variable, Coefficient: 1})
			}
		}
		if len(constraint.Terms) == 0 {
			constraint.Terms = append(constraint.Terms, Term{Variable: element % variables, Coefficient: 1})
		}
		model.Constraints = append(model.Constraints, constraint)
	}

	for range variables / 2 {
		first, second := random.IntN(variables), random.IntN(variables)
		if first == second {
			continue
		}
		model.Constraints = append(model.Constraints, Constraint{
			Sense: LessEqual,
			Rhs:   1,
			Terms: []Term{{Variable: first, Coefficient: 1}, {Variable: second, Coefficient: 1}},
		})
	}
	return model
}

// BruteForce enumerates every binary assignment; only usable on tiny models
func BruteForce(model *Model) Solution {
	variables := len(model.Variables)
	best := Solution{Status: StatusInfeasible}

	values := make([]float64, variables)
	for mask := range 1 << variables {
		for variable := range variables {
			values[variable] = float64((mask >> variable) & 1)
		}
		objective, feasible := model.Evaluate(values)
		if feasible && (best.Status == StatusInfeasible || objective < best.Objective) {
			best = Solution{Status: StatusOptimal, Objective: objective, Values: append([]float64(nil), values...)}
		}
	}
	return best
}
