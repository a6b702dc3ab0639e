package compiler

// CompileContext tunes how a filter set is compiled. The same filters are
// compiled under different contexts for the main query, every facet and the
// scoring and sorting scopes.
type CompileContext struct {
	// FilterToIgnore names the filter whose value clause is skipped, so a
	// multi-select facet counts as if its own selection were not applied.
	// Empty means no filter is ignored.
	FilterToIgnore string

	// HonorFilterTerms adds the defined-term clause a filter may carry.
	HonorFilterTerms bool

	// CheckNested wraps three-segment fields in nested queries.
	CheckNested bool
}

func mainContext() CompileContext {
	return CompileContext{CheckNested: true}
}

func facetContext(ignore string) CompileContext {
	return CompileContext{FilterToIgnore: ignore, HonorFilterTerms: true, CheckNested: true}
}

// scopedContext compiles filters attached to a score strategy or a nested sort.
func scopedContext() CompileContext {
	return CompileContext{}
}

func (cc CompileContext) ignores(name string) bool {
	return cc.FilterToIgnore != "" && cc.FilterToIgnore == name
}
