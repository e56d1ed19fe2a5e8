// Package blurb reads and updates BookSmart project files: book description
// (bbf2.xml) and media registry (media_registry.xml).
package blurb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"golang.org/x/net/html/charset"

	"flowbook/layout"
)

const (
	BookFile     = "bbf2.xml"
	RegistryFile = "media_registry.xml"
	BackupDir    = "old_bbfs"
)

// Book is parsed book description of a project extracted into a directory.
type Book struct {
	dir string
	doc *etree.Document
}

func newDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Permissive:    true,
		// text flows keep CDATA sections
		PreserveCData: true,
	}
	doc.WriteSettings = etree.WriteSettings{
		CanonicalText:    true,
		CanonicalAttrVal: true,
	}
	return doc
}

func readDocument(path string) (*etree.Document, error) {
	doc := newDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%s has no root element", filepath.Base(path))
	}
	return doc, nil
}

func writeDocument(doc *etree.Document, path string) error {
	doc.Indent(2)
	return doc.WriteToFile(path)
}

// LoadBook reads book description from project directory.
func LoadBook(dir string) (*Book, error) {
	doc, err := readDocument(filepath.Join(dir, BookFile))
	if err != nil {
		return nil, fmt.Errorf("unable to read book: %w", err)
	}
	return &Book{dir: dir, doc: doc}, nil
}

// Dir returns project directory.
func (b *Book) Dir() string {
	return b.dir
}

// Save writes book description back to project directory.
func (b *Book) Save() error {
	if err := writeDocument(b.doc, filepath.Join(b.dir, BookFile)); err != nil {
		return fmt.Errorf("unable to write book: %w", err)
	}
	return nil
}

// PageSize returns page dimensions declared on the book root element.
func (b *Book) PageSize() (float64, float64, error) {
	root := b.doc.Root()
	w, err := floatAttr(root, "width")
	if err != nil {
		return 0, 0, err
	}
	h, err := floatAttr(root, "height")
	if err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

func floatAttr(el *etree.Element, name string) (float64, error) {
	attr := el.SelectAttr(name)
	if attr == nil {
		return 0, fmt.Errorf("element <%s> has no %s attribute", el.Tag, name)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(attr.Value), 64)
	if err != nil {
		return 0, fmt.Errorf("element <%s> has bad %s attribute: %w", el.Tag, name, err)
	}
	return v, nil
}

func pageNumber(page *etree.Element) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(page.SelectAttrValue("number", "")))
	if err != nil {
		return 0, fmt.Errorf("page has bad number: %w", err)
	}
	return n, nil
}

func (b *Book) pages() []*etree.Element {
	return b.doc.FindElements(".//section/page")
}

// EmptyPages returns numbers of pages without any containers in document
// order. Cover pages are never returned.
func (b *Book) EmptyPages() ([]int, error) {
	var numbers []int
	for _, page := range b.pages() {
		if page.SelectElement("container") != nil {
			continue
		}
		n, err := pageNumber(page)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			// cover
			continue
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

// LastPage returns number of the last page of the book.
func (b *Book) LastPage() (int, error) {
	pages := b.pages()
	if len(pages) == 0 {
		return 0, errors.New("book has no pages")
	}
	return pageNumber(pages[len(pages)-1])
}

// UsedImages returns guids of media referenced anywhere in the book.
func (b *Book) UsedImages() map[string]bool {
	used := make(map[string]bool)
	for _, img := range b.doc.FindElements(".//image[@src]") {
		used[guidOf(img.SelectAttrValue("src", ""))] = true
	}
	return used
}

// guidOf strips extension from media file name.
func guidOf(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

func (b *Book) findPage(number int) (*etree.Element, error) {
	pages := b.doc.FindElements(fmt.Sprintf(".//section/page[@number='%d']", number))
	if len(pages) != 1 {
		return nil, fmt.Errorf("expected single page %d, found %d", number, len(pages))
	}
	return pages[0], nil
}

// Apply writes laid out pages into the book. Every placement becomes a new
// image container, right hand page of a double spread is removed. Image file
// names are taken from files keyed by image ID, ".jpg" is assumed when name is
// unknown.
func (b *Book) Apply(pages []layout.Page, files map[string]string) error {
	for _, p := range pages {
		page, err := b.findPage(p.Number)
		if err != nil {
			return err
		}
		page.CreateAttr("spread", strconv.FormatBool(p.Double))
		if p.Double {
			rhs, err := b.findPage(p.Number + 1)
			if err != nil {
				return fmt.Errorf("right hand page of spread: %w", err)
			}
			rhs.Parent().RemoveChild(rhs)
		}
		for _, pl := range p.Placements {
			id, err := uuid.NewRandom()
			if err != nil {
				return fmt.Errorf("unable to generate container id: %w", err)
			}
			src, ok := files[pl.Image.ID]
			if !ok {
				src = pl.Image.ID + ".jpg"
			}

			container := page.CreateElement("container")
			container.CreateAttr("x", formatFloat(pl.X))
			container.CreateAttr("y", formatFloat(pl.Y))
			container.CreateAttr("width", formatFloat(pl.Width))
			container.CreateAttr("height", formatFloat(pl.Height))
			container.CreateAttr("type", "image")
			container.CreateAttr("transform", "1 0 0 1")
			container.CreateAttr("id", id.String())

			img := container.CreateElement("image")
			img.CreateAttr("scale", formatFloat(pl.Scale))
			img.CreateAttr("x", "0")
			img.CreateAttr("y", "0")
			img.CreateAttr("autolayout", "fill")
			img.CreateAttr("flip", "none")
			img.CreateAttr("src", src)
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Backup preserves current book description as old_bbfs/bbf2_NNNNNNNNNN.xml
// using first unused sequence number and returns backup name.
func Backup(dir string) (string, error) {
	backups := filepath.Join(dir, BackupDir)
	if err := os.MkdirAll(backups, 0755); err != nil {
		return "", fmt.Errorf("unable to create backup directory: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, BookFile))
	if err != nil {
		return "", fmt.Errorf("unable to read book: %w", err)
	}
	for n := 1; ; n++ {
		name := filepath.Join(backups, fmt.Sprintf("bbf2_%010d.xml", n))
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("unable to create backup: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("unable to write backup: %w", err)
		}
		return name, f.Close()
	}
}
