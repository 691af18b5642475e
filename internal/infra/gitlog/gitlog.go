// Package gitlog reads raw commit records from a project checkout by
// shelling out to git.
package gitlog

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/basediff/basediff/internal/domain"
)

// Separators unlikely to appear inside a commit message.
const (
	commitSep = "<<GIT_COMMIT_SEP>>"
	fieldSep  = "<<FIELD_SEP>>"
)

const defaultTimeout = 5 * time.Minute

var (
	hashPattern       = regexp.MustCompile(`^[0-9a-f]{40}$`)
	changeIDPattern   = regexp.MustCompile(`(?im)^\s*Change-Id:\s*([A-Za-z0-9]+)`)
	reviewedOnPattern = regexp.MustCompile(`(?im)^\s*Reviewed-on:\s*(\S+)`)
)

type Reader struct {
	timeout time.Duration
}

func NewReader() *Reader {
	return &Reader{timeout: defaultTimeout}
}

// Scan runs git log on the project's checkout and returns its commit
// records, most recent first. A missing path or a non-repository yields
// zero commits, not an error: one broken project must not abort a scan.
func (r *Reader) Scan(ctx context.Context, project domain.Project) ([]domain.Commit, error) {
	if _, err := os.Stat(project.Path); err != nil {
		slog.Warn("project path missing, skipping",
			slog.String("project", project.Name),
			slog.String("path", project.Path),
		)
		return nil, nil
	}
	if _, err := os.Stat(filepath.Join(project.Path, ".git")); err != nil {
		slog.Warn("not a git repository, skipping",
			slog.String("project", project.Name),
			slog.String("path", project.Path),
		)
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	format := commitSep + "%H" + fieldSep + "%an" + fieldSep + "%ad" + fieldSep + "%s" + fieldSep + "%B"
	cmd := exec.CommandContext(ctx, "git",
		"-C", project.Path,
		"log",
		"--pretty=format:"+format,
		"--date=iso",
	)

	out, err := cmd.Output()
	if err != nil {
		slog.Warn("git log failed, skipping project",
			slog.String("project", project.Name),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	return parseLog(string(out), project.Name), nil
}

func parseLog(out, projectName string) []domain.Commit {
	var commits []domain.Commit
	for _, entry := range strings.Split(out, commitSep) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, fieldSep, 5)
		if len(parts) < 4 {
			continue
		}

		hash := strings.TrimSpace(parts[0])
		if !hashPattern.MatchString(hash) {
			// Malformed record: skip it, keep the rest of the batch.
			continue
		}

		fullMessage := ""
		if len(parts) > 4 {
			fullMessage = strings.TrimSpace(parts[4])
		}

		commits = append(commits, domain.Commit{
			Project:    projectName,
			Hash:       hash,
			ChangeID:   ExtractChangeID(fullMessage),
			Author:     strings.TrimSpace(parts[1]),
			CommitDate: strings.TrimSpace(parts[2]),
			Subject:    strings.TrimSpace(parts[3]),
			Body:       messageBody(fullMessage),
			ReviewURL:  ExtractReviewedOn(fullMessage),
		})
	}
	return commits
}

// messageBody strips the subject line from a full commit message.
func messageBody(fullMessage string) string {
	lines := strings.SplitN(fullMessage, "\n", 2)
	if len(lines) < 2 {
		return ""
	}
	return strings.TrimSpace(lines[1])
}

// ExtractChangeID pulls the Change-Id trailer token from a commit
// message. The key match is case-insensitive.
func ExtractChangeID(message string) string {
	m := changeIDPattern.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExtractReviewedOn pulls the review URL from the Reviewed-on trailer.
// The first occurrence wins when a message carries several.
func ExtractReviewedOn(message string) string {
	m := reviewedOnPattern.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	return m[1]
}
