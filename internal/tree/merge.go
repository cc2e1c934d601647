package tree

// Merge overlays override onto base and returns the result. When both sides
// hold a mapping under the same key the mappings are merged recursively; in
// every other case the override value wins. Neither input is modified and
// every key of base is present in the result.
func Merge(base, override Mapping) Mapping {
	out := base.clone()
	for _, key := range override.keys {
		next := override.values[key]
		current, exists := out.values[key]

		switch {
		case exists && current.kind == KindMapping && next.kind == KindMapping:
			out.set(key, Map(Merge(current.mapping, next.mapping)))
		case next.kind == KindList:
			// Lists are replaced as a whole, never concatenated or merged by index.
			out.set(key, next)
		default:
			out.set(key, next)
		}
	}
	return out
}

// MergeAll folds overrides onto base from left to right.
func MergeAll(base Mapping, overrides ...Mapping) Mapping {
	out := base
	for _, override := range overrides {
		out = Merge(out, override)
	}
	return out
}
