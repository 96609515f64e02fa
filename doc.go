// Package reducer builds rule-driven reducers over action type tables.
//
// A Reducer owns one slice of a larger state tree. It matches incoming action
// types against its actiontype.Types, looks up the rule for the matched
// logical name, normalizes the payload entity and writes the rule's result
// back at the slice path, sharing every untouched branch with the input:
//
//	reddit := actiontype.DefaultSetup().Creator("REDDIT").
//		AddAsync("LOAD_NEW").
//		Build()
//
//	types, _ := reddit.Group("LOAD_NEW")
//	posts, _ := reducer.NewBuilder[any](types, reducer.FixedPath("reddit", "posts")).
//		IndexEntity("id").
//		Build()
//
//	next, err := posts.Update(state, reducer.NewAction("REDDIT_LOAD_NEW_END", list))
//
// START, END and ERROR rules are seeded by default. START and ERROR toggle the
// loading and error flags; END clears both and stores the entity according to
// the builder's UpdateMode.
package reducer
