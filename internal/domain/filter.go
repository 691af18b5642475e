package domain

// CommitFilter is the structured predicate set for commit queries.
// Absent fields impose no constraint; present fields combine with AND.
type CommitFilter struct {
	Classification *Classification
	Project        string
	// Author matches case-insensitively as a substring.
	Author string
	// Search matches case-insensitively across subject and body.
	Search string
	// Since and Until are inclusive bounds on the commit date.
	Since string
	Until string
}

// CommitWithRemote pairs a stored commit with its project's remote URL,
// the input for read-time URL derivation.
type CommitWithRemote struct {
	Commit
	RemoteURL string
}
