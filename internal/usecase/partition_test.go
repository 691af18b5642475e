package usecase

import (
	"reflect"
	"testing"
)

func TestPartitionChangeIDs(t *testing.T) {
	tests := []struct {
		name   string
		idsA   []string
		idsB   []string
		shared []string
		aOnly  []string
		bOnly  []string
	}{
		{
			name:   "overlapping sets",
			idsA:   []string{"I2", "I1", "I3"},
			idsB:   []string{"I3", "I4", "I2"},
			shared: []string{"I2", "I3"},
			aOnly:  []string{"I1"},
			bOnly:  []string{"I4"},
		},
		{
			name:  "disjoint sets",
			idsA:  []string{"Ia"},
			idsB:  []string{"Ib"},
			aOnly: []string{"Ia"},
			bOnly: []string{"Ib"},
		},
		{
			name:   "identical sets",
			idsA:   []string{"I1", "I2"},
			idsB:   []string{"I2", "I1"},
			shared: []string{"I1", "I2"},
		},
		{
			name:  "one side empty",
			idsA:  []string{"I1"},
			idsB:  nil,
			aOnly: []string{"I1"},
		},
		{
			name: "both empty",
		},
		{
			name:   "duplicates collapse",
			idsA:   []string{"I1", "I1", "I2"},
			idsB:   []string{"I2", "I2"},
			shared: []string{"I2"},
			aOnly:  []string{"I1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shared, aOnly, bOnly := partitionChangeIDs(tt.idsA, tt.idsB)
			assertStrings(t, "shared", shared, tt.shared)
			assertStrings(t, "aOnly", aOnly, tt.aOnly)
			assertStrings(t, "bOnly", bOnly, tt.bOnly)
		})
	}
}

func TestPartitionChangeIDsDisjoint(t *testing.T) {
	idsA := []string{"I1", "I2", "I3", "I4"}
	idsB := []string{"I3", "I4", "I5"}
	shared, aOnly, bOnly := partitionChangeIDs(idsA, idsB)

	seen := make(map[string]string)
	for _, groups := range []struct {
		name string
		ids  []string
	}{
		{"shared", shared},
		{"aOnly", aOnly},
		{"bOnly", bOnly},
	} {
		for _, id := range groups.ids {
			if prev, dup := seen[id]; dup {
				t.Fatalf("id %s in both %s and %s", id, prev, groups.name)
			}
			seen[id] = groups.name
		}
	}

	if got, want := len(seen), 5; got != want {
		t.Errorf("union covers %d ids, want %d", got, want)
	}
}

func TestBucketProjects(t *testing.T) {
	projects := []string{"only-a", "only-b", "both", "neither"}
	treeA := []string{"only-a", "both"}
	treeB := []string{"only-b", "both"}

	aExclusive, bExclusive, rest := bucketProjects(projects, treeA, treeB)

	assertStrings(t, "aExclusive", aExclusive, []string{"only-a"})
	assertStrings(t, "bExclusive", bExclusive, []string{"only-b"})
	assertStrings(t, "rest", rest, []string{"both", "neither"})
}

func assertStrings(t *testing.T, name string, got, want []string) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}
