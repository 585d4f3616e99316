package dap2

import (
	"strings"

	"github.com/samber/lo"

	"github.com/met-norway/dars/internal/daperr"
)

// Projection is one comma-separated element of a constraint: a variable
// (optionally a "var.member" structure selector) and its per-dimension
// hyperslabs, in declaration order.
type Projection struct {
	Variable string
	Member   string // empty unless the projection used "var.member"
	Slabs    []Hyperslab
}

// HasMember reports whether this projection selected a structure member
// ("var.member") rather than a bare variable.
func (p Projection) HasMember() bool {
	return p.Member != ""
}

// Constraint is an ordered list of projections, as they appeared in the
// client's query string.
type Constraint struct {
	Projections []Projection
}

// ParseConstraint parses a comma-separated projection list per the grammar:
//
//	projection = name ("." name)? ( "[" hyper "]" )*
//	query      = projection ("," projection)*
//
// An empty query string yields a Constraint with no projections (the
// caller should treat that as "unconstrained").
func ParseConstraint(query string) (Constraint, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Constraint{}, nil
	}

	parts := lo.Map(strings.Split(query, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})

	projections := make([]Projection, 0, len(parts))
	for _, part := range parts {
		p, err := parseProjection(part)
		if err != nil {
			return Constraint{}, err
		}
		projections = append(projections, p)
	}

	return Constraint{Projections: projections}, nil
}

func parseProjection(s string) (Projection, error) {
	if s == "" {
		return Projection{}, daperr.New(daperr.InvalidConstraint, "empty projection")
	}

	// Split off the trailing hyperslab brackets, if any.
	name := s
	var slabStr string
	if i := strings.IndexByte(s, '['); i >= 0 {
		name = s[:i]
		slabStr = s[i:]
	}
	if name == "" {
		return Projection{}, daperr.New(daperr.InvalidConstraint, "empty projection: "+s)
	}

	variable := name
	member := ""
	if i := strings.IndexByte(name, '.'); i >= 0 {
		variable = name[:i]
		member = name[i+1:]
		if variable == "" || member == "" {
			return Projection{}, daperr.New(daperr.InvalidConstraint, "malformed structure selector: "+name)
		}
	}

	slabs, err := parseHyperslabs(slabStr)
	if err != nil {
		return Projection{}, err
	}

	return Projection{Variable: variable, Member: member, Slabs: slabs}, nil
}
