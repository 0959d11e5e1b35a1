package engine

import (
	"bufio"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/docfix/pkg/autodoc"
	"github.com/arthur-debert/docfix/pkg/errors"
	"github.com/arthur-debert/docfix/pkg/paths"
	"github.com/arthur-debert/docfix/pkg/theming"
)

var (
	onlyStart = regexp.MustCompile(`^<!--\s*only:\s*(.+?)\s*-->$`)
	onlyEnd   = regexp.MustCompile(`^<!--\s*endonly\s*-->$`)
)

const frontMatterFence = "---"

// Document is a parsed source document, the unit stored in the doctree cache
type Document struct {
	// Name is the document name: the source path relative to the source
	// directory, slash separated, without suffix
	Name    string
	Source  string
	Title   string
	Meta    map[string]string
	Content string
	ModTime time.Time
}

// discover maps document names to their source info, skipping excluded and
// hidden entries
func (a *App) discover() (map[string]fs.FileInfo, error) {
	suffix := a.Config.SourceSuffix
	docs := make(map[string]fs.FileInfo)
	root := a.SrcDir.String()

	err := afero.Walk(a.fs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return err
		}
		rel = filepath.ToSlash(rel)

		if a.excluded(rel, info) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || !strings.HasSuffix(rel, suffix) {
			return nil
		}
		docs[strings.TrimSuffix(rel, suffix)] = info
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSourceRead, "cannot scan source directory %s", root)
	}
	return docs, nil
}

func (a *App) excluded(rel string, info fs.FileInfo) bool {
	base := filepath.Base(rel)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if info.IsDir() && rel == theming.ThemesDir {
		return true
	}
	// The output and doctree directories are never sources, wherever they live
	full := a.SrcDir.Join(filepath.FromSlash(rel))
	if info.IsDir() && (full.Equal(a.OutDir) || full.Equal(a.DoctreeDir)) {
		return true
	}
	first := strings.SplitN(rel, "/", 2)[0]
	for _, pattern := range a.Config.ExcludePatterns {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, first); ok {
			return true
		}
	}
	return false
}

// readDocument reads and pre-processes one source file
func (a *App) readDocument(name string, info fs.FileInfo) (*Document, error) {
	source := name + a.Config.SourceSuffix
	text, err := a.SrcDir.Join(filepath.FromSlash(source)).ReadText()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrSourceRead, "cannot read %s", source)
	}

	doc := &Document{
		Name:    name,
		Source:  source,
		Meta:    map[string]string{},
		ModTime: info.ModTime(),
	}

	body, err := a.splitFrontMatter(doc, text)
	if err != nil {
		return nil, err
	}
	content, err := a.preprocess(doc, body)
	if err != nil {
		return nil, err
	}
	doc.Content = content
	doc.Title = documentTitle(doc)
	return doc, nil
}

// splitFrontMatter parses a leading YAML block delimited by "---" lines
func (a *App) splitFrontMatter(doc *Document, text string) (string, error) {
	if !strings.HasPrefix(text, frontMatterFence+"\n") {
		return text, nil
	}
	rest := "\n" + text[len(frontMatterFence)+1:]
	end := strings.Index(rest, "\n"+frontMatterFence)
	if end < 0 {
		return text, a.warn(doc.Source, "unterminated front matter")
	}
	block := rest[:end]
	body := strings.TrimPrefix(rest[end+1+len(frontMatterFence):], "\n")

	var meta map[string]interface{}
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return body, a.warn(doc.Source, "invalid front matter: %v", err)
	}
	for k, v := range meta {
		doc.Meta[k] = fmt.Sprint(v)
	}
	return body, nil
}

// preprocess applies only-blocks and autodoc directives line by line
func (a *App) preprocess(doc *Document, body string) (string, error) {
	expandAutodoc := a.Config.HasExtension(autodoc.ExtensionName)

	var out strings.Builder
	var onlyStack []bool
	keep := func() bool {
		for _, k := range onlyStack {
			if !k {
				return false
			}
		}
		return true
	}

	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		location := fmt.Sprintf("%s:%d", doc.Source, lineno)

		if m := onlyStart.FindStringSubmatch(trimmed); m != nil {
			onlyStack = append(onlyStack, a.Tags.Eval(m[1]))
			continue
		}
		if onlyEnd.MatchString(trimmed) {
			if len(onlyStack) == 0 {
				if err := a.warn(location, "endonly without matching only"); err != nil {
					return "", err
				}
				continue
			}
			onlyStack = onlyStack[:len(onlyStack)-1]
			continue
		}
		if !keep() {
			continue
		}

		if expandAutodoc {
			expanded, ok, err := autodoc.Expand(a.documenters, line)
			if ok {
				if err != nil {
					if werr := a.warn(location, "%s", errors.Message(err)); werr != nil {
						return "", werr
					}
					continue
				}
				out.WriteString(expanded)
				continue
			}
		}

		out.WriteString(line)
		out.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", errors.Wrapf(err, errors.ErrSourceRead, "cannot read %s", doc.Source)
	}
	if len(onlyStack) > 0 {
		if err := a.warn(doc.Source, "unterminated only block"); err != nil {
			return "", err
		}
	}
	return out.String(), nil
}

func documentTitle(doc *Document) string {
	if title := doc.Meta["title"]; title != "" {
		return title
	}
	for _, line := range strings.Split(doc.Content, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return doc.Name
}

// doctreePath is where the cached doctree of docname is stored
func (a *App) doctreePath(docname string) paths.Path {
	return a.DoctreeDir.Join(filepath.FromSlash(docname) + doctreeSuffix)
}
