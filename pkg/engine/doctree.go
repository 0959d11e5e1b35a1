package engine

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/arthur-debert/docfix/pkg/errors"
)

const (
	doctreeSuffix      = ".doctree"
	environmentFile    = "environment.xml"
	environmentVersion = "1"
)

// environment is the cached index of documents from the previous build
type environment struct {
	loaded   bool
	docnames map[string]bool
}

// fingerprint captures the configuration that affects how sources are read.
// Cached doctrees are discarded when it changes.
func (a *App) fingerprint() string {
	exts := append([]string{}, a.Config.Extensions...)
	sort.Strings(exts)
	return strings.Join([]string{
		a.Config.SourceSuffix,
		strings.Join(exts, ","),
		strings.Join(a.Tags.List(), ","),
	}, "|")
}

func (a *App) loadEnvironment() (*environment, error) {
	env := &environment{docnames: map[string]bool{}}
	status := "loading pickled environment... "

	if a.FreshEnv {
		a.info(status + "skipped (fresh environment)")
		return env, nil
	}

	path := a.DoctreeDir.Join(environmentFile)
	if !path.Exists() {
		a.info(status + "not yet created")
		return env, nil
	}

	data, err := path.ReadBytes()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrDoctreeRead, "cannot read %s", path)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil || doc.Root() == nil || doc.Root().Tag != "environment" {
		a.info(status + "failed: unreadable environment")
		return env, nil
	}
	root := doc.Root()
	if root.SelectAttrValue("version", "") != environmentVersion {
		a.info(status + "failed: environment version changed")
		return env, nil
	}
	if root.SelectAttrValue("fingerprint", "") != a.fingerprint() {
		a.info(status + "failed: configuration changed")
		return env, nil
	}

	for _, el := range root.SelectElements("doc") {
		env.docnames[el.SelectAttrValue("name", "")] = true
	}
	env.loaded = true
	a.info(status + "done")
	return env, nil
}

func (a *App) saveEnvironment(docnames []string) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("environment")
	root.CreateAttr("version", environmentVersion)
	root.CreateAttr("fingerprint", a.fingerprint())
	for _, name := range docnames {
		root.CreateElement("doc").CreateAttr("name", name)
	}
	doc.Indent(2)

	path := a.DoctreeDir.Join(environmentFile)
	data, err := doc.WriteToBytes()
	if err == nil {
		err = path.WriteBytes(data)
	}
	if err != nil {
		return errors.Wrapf(err, errors.ErrDoctreeWrite, "cannot write %s", path)
	}
	return nil
}

// readAll returns the doctree of every document, reusing cached ones whose
// source did not change
func (a *App) readAll(env *environment, names []string, infos map[string]fs.FileInfo) (map[string]*Document, error) {
	trees := make(map[string]*Document, len(names))
	reused := 0

	for i, name := range names {
		info := infos[name]
		if env.loaded && env.docnames[name] {
			if cached, err := a.loadDoctree(name); err == nil && cached.ModTime.Equal(info.ModTime()) {
				trees[name] = cached
				reused++
				continue
			}
		}

		a.info("reading sources... [%3d%%] %s", percent(i+1, len(names)), name)
		doc, err := a.readDocument(name, info)
		if err != nil {
			return nil, err
		}
		if err := a.writeDoctree(doc); err != nil {
			return nil, err
		}
		trees[name] = doc
	}

	if reused > 0 {
		a.info("%d source files up to date", reused)
	}
	log.Debug().Int("documents", len(names)).Int("reused", reused).Msg("Sources read")
	return trees, nil
}

// pruneDoctrees removes cached doctrees of documents that no longer exist
func (a *App) pruneDoctrees(env *environment, current map[string]fs.FileInfo) error {
	for name := range env.docnames {
		if _, ok := current[name]; ok {
			continue
		}
		if err := a.doctreePath(name).RemoveTree(); err != nil {
			return errors.Wrapf(err, errors.ErrDoctreeWrite, "cannot remove stale doctree %s", name)
		}
	}
	return nil
}

// documentXML serialises doc as an XML document
func documentXML(doc *Document) *etree.Document {
	xml := etree.NewDocument()
	xml.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := xml.CreateElement("document")
	root.CreateAttr("name", doc.Name)
	root.CreateAttr("source", doc.Source)
	root.CreateAttr("title", doc.Title)
	root.CreateAttr("mtime", doc.ModTime.UTC().Format(time.RFC3339Nano))

	for _, key := range sortedKeys(doc.Meta) {
		meta := root.CreateElement("meta")
		meta.CreateAttr("key", key)
		meta.SetText(doc.Meta[key])
	}
	root.CreateElement("content").SetText(doc.Content)
	xml.Indent(2)
	return xml
}

func parseDocumentXML(data []byte) (*Document, error) {
	xml := etree.NewDocument()
	if err := xml.ReadFromBytes(data); err != nil {
		return nil, err
	}
	root := xml.Root()
	if root == nil || root.Tag != "document" {
		return nil, errors.New(errors.ErrDoctreeRead, "not a document tree")
	}

	mtime, err := time.Parse(time.RFC3339Nano, root.SelectAttrValue("mtime", ""))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDoctreeRead, "invalid mtime")
	}
	doc := &Document{
		Name:    root.SelectAttrValue("name", ""),
		Source:  root.SelectAttrValue("source", ""),
		Title:   root.SelectAttrValue("title", ""),
		Meta:    map[string]string{},
		ModTime: mtime,
	}
	for _, meta := range root.SelectElements("meta") {
		doc.Meta[meta.SelectAttrValue("key", "")] = meta.Text()
	}
	if content := root.SelectElement("content"); content != nil {
		doc.Content = content.Text()
	}
	return doc, nil
}

func (a *App) writeDoctree(doc *Document) error {
	path := a.doctreePath(doc.Name)
	if err := path.Dir().MakeDirs(); err != nil {
		return err
	}
	data, err := documentXML(doc).WriteToBytes()
	if err == nil {
		err = path.WriteBytes(data)
	}
	if err != nil {
		return errors.Wrapf(err, errors.ErrDoctreeWrite, "cannot write doctree %s", filepath.ToSlash(doc.Name))
	}
	return nil
}

func (a *App) loadDoctree(name string) (*Document, error) {
	data, err := a.doctreePath(name).ReadBytes()
	if err != nil {
		return nil, err
	}
	return parseDocumentXML(data)
}
