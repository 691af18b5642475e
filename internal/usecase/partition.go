package usecase

import "sort"

// partitionChangeIDs splits two identifier sets into their intersection
// and the two one-sided remainders. Outputs are sorted and pairwise
// disjoint; their union covers exactly idsA ∪ idsB.
func partitionChangeIDs(idsA, idsB []string) (shared, aOnly, bOnly []string) {
	setB := make(map[string]struct{}, len(idsB))
	for _, id := range idsB {
		setB[id] = struct{}{}
	}

	seenA := make(map[string]struct{}, len(idsA))
	for _, id := range idsA {
		if _, dup := seenA[id]; dup {
			continue
		}
		seenA[id] = struct{}{}
		if _, ok := setB[id]; ok {
			shared = append(shared, id)
		} else {
			aOnly = append(aOnly, id)
		}
	}

	for _, id := range idsB {
		if _, ok := seenA[id]; !ok {
			bOnly = append(bOnly, id)
		}
	}

	sort.Strings(shared)
	sort.Strings(aOnly)
	sort.Strings(bOnly)
	return shared, aOnly, bOnly
}

// bucketProjects assigns each project to the tree that exclusively
// claims it. Projects claimed by both trees, or by neither, fall into
// rest and take the shared label.
func bucketProjects(projects, treeA, treeB []string) (aExclusive, bExclusive, rest []string) {
	inA := make(map[string]struct{}, len(treeA))
	for _, p := range treeA {
		inA[p] = struct{}{}
	}
	inB := make(map[string]struct{}, len(treeB))
	for _, p := range treeB {
		inB[p] = struct{}{}
	}

	for _, p := range projects {
		_, a := inA[p]
		_, b := inB[p]
		switch {
		case a && !b:
			aExclusive = append(aExclusive, p)
		case b && !a:
			bExclusive = append(bExclusive, p)
		default:
			rest = append(rest, p)
		}
	}
	return aExclusive, bExclusive, rest
}
