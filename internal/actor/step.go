package actor

// Step applies a reducer to a single (state, input) pair and returns the next
// state and effects without running them.
//
// Reducer-level tests use it to drive transitions deterministically.
func Step[S any](state S, input Input, reducer ReducerFunc[S]) (S, []Effect) {
	return reducer(state, input)
}

// Replay folds inputs through reducer starting at state and returns the final
// state together with every effect produced, in order.
func Replay[S any](state S, reducer ReducerFunc[S], inputs ...Input) (S, []Effect) {
	var all []Effect
	for _, in := range inputs {
		var effects []Effect
		state, effects = reducer(state, in)
		all = append(all, effects...)
	}
	return state, all
}
