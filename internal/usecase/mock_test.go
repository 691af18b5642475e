package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/basediff/basediff/internal/domain"
)

// memCommitRepo is an in-memory CommitRepository for exercising the
// usecases without a database.
type memCommitRepo struct {
	mu      sync.Mutex
	commits []domain.Commit
	remotes map[string]string

	resetCalls int
	failOn     string
	failErr    error
}

func newMemCommitRepo() *memCommitRepo {
	return &memCommitRepo{remotes: map[string]string{}}
}

func (r *memCommitRepo) fail(op string) error {
	if r.failOn == op {
		return r.failErr
	}
	return nil
}

func (r *memCommitRepo) BulkInsert(ctx context.Context, commits []domain.Commit) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("BulkInsert"); err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(r.commits))
	for _, c := range r.commits {
		seen[c.Hash] = struct{}{}
	}
	var inserted int64
	for _, c := range commits {
		if _, dup := seen[c.Hash]; dup {
			continue
		}
		seen[c.Hash] = struct{}{}
		r.commits = append(r.commits, c)
		inserted++
	}
	return inserted, nil
}

func (r *memCommitRepo) DistinctChangeIDs(ctx context.Context, projects []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("DistinctChangeIDs"); err != nil {
		return nil, err
	}

	inSet := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		inSet[p] = struct{}{}
	}
	idSet := make(map[string]struct{})
	for _, c := range r.commits {
		if c.ChangeID == "" {
			continue
		}
		if _, ok := inSet[c.Project]; !ok {
			continue
		}
		idSet[c.ChangeID] = struct{}{}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memCommitRepo) SetClassificationByChangeIDs(ctx context.Context, changeIDs []string, label domain.Classification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("SetClassificationByChangeIDs"); err != nil {
		return 0, err
	}

	inSet := make(map[string]struct{}, len(changeIDs))
	for _, id := range changeIDs {
		inSet[id] = struct{}{}
	}
	var updated int64
	for i := range r.commits {
		if _, ok := inSet[r.commits[i].ChangeID]; ok {
			value := label
			r.commits[i].Classification = &value
			updated++
		}
	}
	return updated, nil
}

func (r *memCommitRepo) ProjectsWithoutChangeID(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("ProjectsWithoutChangeID"); err != nil {
		return nil, err
	}

	set := make(map[string]struct{})
	for _, c := range r.commits {
		if c.ChangeID == "" {
			set[c.Project] = struct{}{}
		}
	}
	projects := make([]string, 0, len(set))
	for p := range set {
		projects = append(projects, p)
	}
	sort.Strings(projects)
	return projects, nil
}

func (r *memCommitRepo) SetClassificationByProjectsWithoutChangeID(ctx context.Context, projects []string, label domain.Classification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inSet := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		inSet[p] = struct{}{}
	}
	var updated int64
	for i := range r.commits {
		if r.commits[i].ChangeID != "" {
			continue
		}
		if _, ok := inSet[r.commits[i].Project]; ok {
			value := label
			r.commits[i].Classification = &value
			updated++
		}
	}
	return updated, nil
}

func (r *memCommitRepo) Query(ctx context.Context, filter domain.CommitFilter, limit, offset int) ([]domain.CommitWithRemote, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("Query"); err != nil {
		return nil, 0, err
	}

	var matched []domain.CommitWithRemote
	for _, c := range r.commits {
		if filter.Classification != nil {
			if c.Classification == nil || *c.Classification != *filter.Classification {
				continue
			}
		}
		if filter.Project != "" && c.Project != filter.Project {
			continue
		}
		if filter.Author != "" && !strings.Contains(strings.ToLower(c.Author), strings.ToLower(filter.Author)) {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(c.Subject), needle) &&
				!strings.Contains(strings.ToLower(c.Body), needle) {
				continue
			}
		}
		if filter.Since != "" && c.CommitDate < filter.Since {
			continue
		}
		if filter.Until != "" && c.CommitDate > filter.Until {
			continue
		}
		matched = append(matched, domain.CommitWithRemote{Commit: c, RemoteURL: r.remotes[c.Project]})
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CommitDate != matched[j].CommitDate {
			return matched[i].CommitDate > matched[j].CommitDate
		}
		return matched[i].Hash < matched[j].Hash
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (r *memCommitRepo) ByChangeIDs(ctx context.Context, changeIDs []string) ([]domain.CommitWithRemote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("ByChangeIDs"); err != nil {
		return nil, err
	}

	inSet := make(map[string]struct{}, len(changeIDs))
	for _, id := range changeIDs {
		inSet[id] = struct{}{}
	}
	var matched []domain.CommitWithRemote
	for _, c := range r.commits {
		if _, ok := inSet[c.ChangeID]; ok {
			matched = append(matched, domain.CommitWithRemote{Commit: c, RemoteURL: r.remotes[c.Project]})
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Hash < matched[j].Hash })
	return matched, nil
}

func (r *memCommitRepo) DistinctProjects(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]struct{})
	for _, c := range r.commits {
		set[c.Project] = struct{}{}
	}
	projects := make([]string, 0, len(set))
	for p := range set {
		projects = append(projects, p)
	}
	sort.Strings(projects)
	return projects, nil
}

func (r *memCommitRepo) DistinctAuthors(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]struct{})
	for _, c := range r.commits {
		set[c.Author] = struct{}{}
	}
	authors := make([]string, 0, len(set))
	for a := range set {
		authors = append(authors, a)
	}
	sort.Strings(authors)
	return authors, nil
}

func (r *memCommitRepo) CountByClassification(ctx context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, c := range r.commits {
		key := ""
		if c.Classification != nil {
			key = string(*c.Classification)
		}
		counts[key]++
	}
	return counts, nil
}

func (r *memCommitRepo) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("Reset"); err != nil {
		return err
	}
	r.resetCalls++
	r.commits = nil
	return nil
}

func (r *memCommitRepo) classificationOf(hash string) *domain.Classification {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.commits {
		if c.Hash == hash {
			return c.Classification
		}
	}
	return nil
}

type memProjectRepo struct {
	mu       sync.Mutex
	upserted []domain.Project
}

func (r *memProjectRepo) UpsertAll(ctx context.Context, projects []domain.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserted = append(r.upserted, projects...)
	return nil
}

type memLabelRepo struct {
	mu     sync.Mutex
	nextID int64
	labels []domain.Label
	links  map[string][]int64
}

func newMemLabelRepo() *memLabelRepo {
	return &memLabelRepo{nextID: 1, links: map[string][]int64{}}
}

func (r *memLabelRepo) List(ctx context.Context) ([]domain.Label, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Label, len(r.labels))
	copy(out, r.labels)
	return out, nil
}

func (r *memLabelRepo) Add(ctx context.Context, name string, isDefault bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.labels = append(r.labels, domain.Label{ID: id, Name: name, IsDefault: isDefault})
	return id, nil
}

func (r *memLabelRepo) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, l := range r.labels {
		if l.ID == id {
			r.labels = append(r.labels[:i], r.labels[i+1:]...)
			return nil
		}
	}
	return domain.NotFoundError{Resource: "label"}
}

func (r *memLabelRepo) SetForCommit(ctx context.Context, hash string, labelIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[hash] = append([]int64(nil), labelIDs...)
	return nil
}

func (r *memLabelRepo) ForCommits(ctx context.Context, hashes []string) (map[string][]domain.Label, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID := make(map[int64]domain.Label, len(r.labels))
	for _, l := range r.labels {
		byID[l.ID] = l
	}
	out := make(map[string][]domain.Label)
	for _, h := range hashes {
		for _, id := range r.links[h] {
			if l, ok := byID[id]; ok {
				out[h] = append(out[h], l)
			}
		}
	}
	return out, nil
}

type stubManifestReader struct {
	trees map[string][]domain.Project
	errs  map[string]error
}

func (r *stubManifestReader) Read(root string) ([]domain.Project, error) {
	if err := r.errs[root]; err != nil {
		return nil, err
	}
	return r.trees[root], nil
}

type stubLogReader struct {
	logs map[string][]domain.Commit
	errs map[string]error
}

func (r *stubLogReader) Scan(ctx context.Context, project domain.Project) ([]domain.Commit, error) {
	if err := r.errs[project.Name]; err != nil {
		return nil, err
	}
	return r.logs[project.Name], nil
}

type progressRecorder struct {
	mu     sync.Mutex
	events []domain.Progress
}

func (p *progressRecorder) Publish(ctx context.Context, event domain.Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *progressRecorder) stages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Stage)
	}
	return out
}
