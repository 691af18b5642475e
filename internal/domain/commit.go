package domain

// Classification is the three-way provenance label assigned to a commit
// after a diff run.
type Classification string

const (
	ClassificationShared       Classification = "shared"
	ClassificationUpstreamOnly Classification = "upstream_only"
	ClassificationVendorOnly   Classification = "vendor_only"
)

// Valid reports whether c is one of the known labels.
func (c Classification) Valid() bool {
	switch c {
	case ClassificationShared, ClassificationUpstreamOnly, ClassificationVendorOnly:
		return true
	}
	return false
}

// Commit is one commit record, keyed by its content hash. Immutable once
// written except for Classification.
type Commit struct {
	Hash           string          `json:"hash"`
	Project        string          `json:"project"`
	ChangeID       string          `json:"changeId,omitempty"`
	Author         string          `json:"author"`
	CommitDate     string          `json:"date"`
	Subject        string          `json:"subject"`
	Body           string          `json:"body,omitempty"`
	Classification *Classification `json:"classification"`
	ReviewURL      string          `json:"reviewUrl,omitempty"`

	// Derived at read time, never stored.
	URL            string   `json:"url,omitempty"`
	Labels         []Label  `json:"labels"`
	RelatedCommits []Commit `json:"relatedCommits,omitempty"`
}

// Project is one entry of a repo manifest.
type Project struct {
	Name      string `json:"name"`
	RemoteURL string `json:"remoteUrl,omitempty"`
	Path      string `json:"path"`
}

// Label is a user-managed category attachable to commits.
type Label struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
}

// DiffSummary holds the counts produced by one classification run.
type DiffSummary struct {
	TotalUpstream int `json:"totalUpstream"`
	TotalVendor   int `json:"totalVendor"`
	Shared        int `json:"shared"`
	UpstreamOnly  int `json:"upstreamOnly"`
	VendorOnly    int `json:"vendorOnly"`
}
