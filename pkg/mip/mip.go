package mip

import (
	"fmt"
	"strconv"
	"strings"
)

type Sense int

const (
	LessEqual Sense = iota
	Equal
	GreaterEqual
)

func (sense Sense) String() string {
	switch sense {
	case LessEqual:
		return "<="
	case Equal:
		return "="
	case GreaterEqual:
		return ">="
	}
	return fmt.Sprintf("Sense(%d)", int(sense))
}

// Holds reports whether lhs satisfies the relation against rhs, allowing a small numeric tolerance
func (sense Sense) Holds(lhs, rhs float64) bool {
	const tolerance = 1e-6
	switch sense {
	case LessEqual:
		return lhs <= rhs+tolerance
	case Equal:
		return lhs >= rhs-tolerance && lhs <= rhs+tolerance
	case GreaterEqual:
		return lhs >= rhs-tolerance
	}
	return false
}

type Term struct {
	Variable    int
	Coefficient float64
}

type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	Rhs   float64
}

// Model is a minimization problem over binary variables. A variable is identified by its position in Variables,
// the names are only descriptive.
type Model struct {
	Name        string
	Variables   []string
	Objective   []float64 // One coefficient per variable
	Constraints []Constraint
}

// Evaluate returns the objective value of the given assignment and whether every constraint holds
func (model *Model) Evaluate(values []float64) (objective float64, feasible bool) {
	value := func(variable int) float64 {
		if variable < len(values) {
			return values[variable]
		}
		return 0
	}

	for variable, coefficient := range model.Objective {
		objective += coefficient * value(variable)
	}

	for _, constraint := range model.Constraints {
		lhs := 0.0
		for _, term := range constraint.Terms {
			lhs += term.Coefficient * value(term.Variable)
		}
		if !constraint.Sense.Holds(lhs, constraint.Rhs) {
			return objective, false
		}
	}
	return objective, true
}

// ToLP renders the model in CPLEX-LP format. Variables are written as "x<index>" and constraints as "c<index>",
// every variable appears in the objective (even with a zero coefficient) so that solvers number columns in index order.
func (model *Model) ToLP() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "\\ %v\n", strings.ReplaceAll(model.Name, "\n", " "))

	builder.WriteString("Minimize\n obj:")
	for variable := range model.Variables {
		coefficient := 0.0
		if variable < len(model.Objective) {
			coefficient = model.Objective[variable]
		}
		writeTerm(&builder, Term{Variable: variable, Coefficient: coefficient}, variable == 0)
	}
	builder.WriteString("\n")

	builder.WriteString("Subject To\n")
	if len(model.Constraints) == 0 {
		builder.WriteString(" c0: x0 >= 0\n") // Some readers reject an empty section
	}
	for i, constraint := range model.Constraints {
		fmt.Fprintf(&builder, " c%d:", i)
		if len(constraint.Terms) == 0 {
			builder.WriteString(" 0 x0")
		}
		for j, term := range constraint.Terms {
			writeTerm(&builder, term, j == 0)
		}
		fmt.Fprintf(&builder, " %v %v\n", constraint.Sense, formatNumber(constraint.Rhs))
	}

	builder.WriteString("Binary\n")
	for variable := range model.Variables {
		fmt.Fprintf(&builder, " x%d\n", variable)
	}
	builder.WriteString("End\n")
	return builder.String()
}

func writeTerm(builder *strings.Builder, term Term, first bool) {
	coefficient := term.Coefficient
	sign := "+"
	if coefficient < 0 {
		sign = "-"
		coefficient = -coefficient
	}

	if first && sign == "+" {
		fmt.Fprintf(builder, " %v x%d", formatNumber(coefficient), term.Variable)
	} else {
		fmt.Fprintf(builder, " %v %v x%d", sign, formatNumber(coefficient), term.Variable)
	}
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}
