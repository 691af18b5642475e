// Package manifest reads repo-manifest files (.repo/manifest.xml) and
// resolves each project's remote fetch URL.
package manifest

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"

	"github.com/basediff/basediff/internal/domain"
)

type manifestXML struct {
	Remotes  []remoteXML  `xml:"remote"`
	Default  *defaultXML  `xml:"default"`
	Projects []projectXML `xml:"project"`
}

type remoteXML struct {
	Name  string `xml:"name,attr"`
	Fetch string `xml:"fetch,attr"`
}

type defaultXML struct {
	Remote string `xml:"remote,attr"`
}

type projectXML struct {
	Name   string `xml:"name,attr"`
	Path   string `xml:"path,attr"`
	Remote string `xml:"remote,attr"`
}

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// Read parses <root>/.repo/manifest.xml and returns the project list.
// Project paths are resolved against root; a project without an explicit
// path defaults to its name.
func (r *Reader) Read(root string) ([]domain.Project, error) {
	path := filepath.Join(root, ".repo", "manifest.xml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NotFoundError{Resource: "manifest " + path}
		}
		return nil, err
	}
	return parse(data, root)
}

func parse(data []byte, root string) ([]domain.Project, error) {
	var m manifestXML
	if err := xml.Unmarshal(data, &m); err != nil {
		return nil, domain.MalformedInputError{Reason: "invalid manifest xml: " + err.Error()}
	}

	remotes := make(map[string]string, len(m.Remotes))
	for _, remote := range m.Remotes {
		if remote.Name == "" || remote.Fetch == "" {
			continue
		}
		remotes[remote.Name] = strings.TrimRight(remote.Fetch, "/")
	}

	defaultRemote := ""
	if m.Default != nil {
		defaultRemote = m.Default.Remote
	}

	projects := make([]domain.Project, 0, len(m.Projects))
	for _, p := range m.Projects {
		if p.Name == "" {
			continue
		}
		relPath := p.Path
		if relPath == "" {
			relPath = p.Name
		}
		remote := p.Remote
		if remote == "" {
			remote = defaultRemote
		}
		projects = append(projects, domain.Project{
			Name:      p.Name,
			RemoteURL: remotes[remote],
			Path:      filepath.Join(root, relPath),
		})
	}
	return projects, nil
}
