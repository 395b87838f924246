// Package reader is the terminal reading surface: it opens a book, shows one page at a
// time and drives a tracker with the user's page turns, input and focus changes.
package reader

import (
	"archive/tar"
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"rsc.io/pdf"

	"github.com/listenupapp/readtrack/internal/domain"
	"github.com/listenupapp/readtrack/internal/util"
)

// ErrUnsupportedFormat is returned for files whose extension maps to no book type.
var ErrUnsupportedFormat = errors.New("unsupported book format")

// Book is an opened, paginated book.
type Book struct {
	ID    string
	Title string
	Path  string
	Type  domain.BookType

	// Pages is zero when the format gives no way to count pages.
	Pages int

	// spine holds EPUB spine document paths, one per page.
	spine []string
	// images holds comic page entry names in reading order.
	images []string
}

// DetectBookType maps a file extension to the reader surface it opens in.
func DetectBookType(filename string) (domain.BookType, error) {
	bookType, err := domain.BookTypeFromPath(filename)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	return bookType, nil
}

// OpenBook detects the book type and counts its pages. bookID overrides the default
// identifier, which is the slugified file name without its extension.
func OpenBook(filename, bookID string) (*Book, error) {
	bookType, err := DetectBookType(filename)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(filename)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	if bookID == "" {
		bookID = util.Slugify(title)
	}
	if bookID == "" {
		return nil, fmt.Errorf("cannot derive a book id from %q", base)
	}

	b := &Book{ID: bookID, Title: title, Path: filename, Type: bookType}

	switch {
	case bookType == domain.BookTypePDF:
		err = b.countPDF()
	case bookType == domain.BookTypeEPUB:
		err = b.countEPUB()
	case strings.EqualFold(filepath.Ext(filename), ".cbz"):
		err = b.countCBZ()
	case strings.EqualFold(filepath.Ext(filename), ".cbt"):
		err = b.countCBT()
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Location returns the opaque position string for page (1-based): a page number for
// PDF and comics, a spine CFI for EPUB.
func (b *Book) Location(page int) string {
	if b.Type == domain.BookTypeEPUB {
		// Spine items sit at even steps of the package document's spine node.
		return "epubcfi(/6/" + strconv.Itoa(page*2) + ")"
	}
	return strconv.Itoa(page)
}

// Progress returns the percentage read at page, or nil when the page count is unknown.
func (b *Book) Progress(page int) *float64 {
	if b.Pages <= 0 {
		return nil
	}
	return domain.Progress(float64(page) / float64(b.Pages) * 100)
}

// PageLabel describes the content of page for display.
func (b *Book) PageLabel(page int) string {
	switch {
	case len(b.spine) >= page && page > 0:
		return b.spine[page-1]
	case len(b.images) >= page && page > 0:
		return b.images[page-1]
	default:
		return ""
	}
}

func (b *Book) countPDF() error {
	doc, err := pdf.Open(b.Path)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	b.Pages = doc.NumPage()
	return nil
}

type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubPackage struct {
	Title    string `xml:"metadata>title"`
	Manifest []struct {
		ID   string `xml:"id,attr"`
		Href string `xml:"href,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

func (b *Book) countEPUB() error {
	zr, err := zip.OpenReader(b.Path)
	if err != nil {
		return fmt.Errorf("open epub: %w", err)
	}
	defer zr.Close()

	var container epubContainer
	if err := decodeZipXML(&zr.Reader, "META-INF/container.xml", &container); err != nil {
		return err
	}
	if len(container.Rootfiles) == 0 {
		return errors.New("epub container lists no package document")
	}

	opfPath := container.Rootfiles[0].FullPath
	var pkg epubPackage
	if err := decodeZipXML(&zr.Reader, opfPath, &pkg); err != nil {
		return err
	}

	hrefs := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		hrefs[item.ID] = item.Href
	}

	dir := path.Dir(opfPath)
	for _, ref := range pkg.Spine {
		href, ok := hrefs[ref.IDRef]
		if !ok {
			continue
		}
		b.spine = append(b.spine, path.Join(dir, href))
	}
	b.Pages = len(b.spine)
	if t := strings.TrimSpace(pkg.Title); t != "" {
		b.Title = t
	}
	return nil
}

func decodeZipXML(zr *zip.Reader, name string, v any) error {
	f, err := zr.Open(name)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	if err := xml.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func (b *Book) countCBZ() error {
	zr, err := zip.OpenReader(b.Path)
	if err != nil {
		return fmt.Errorf("open cbz: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if !f.FileInfo().IsDir() && isImage(f.Name) {
			b.images = append(b.images, f.Name)
		}
	}
	sort.Strings(b.images)
	b.Pages = len(b.images)
	return nil
}

func (b *Book) countCBT() error {
	f, err := os.Open(b.Path)
	if err != nil {
		return fmt.Errorf("open cbt: %w", err)
	}
	defer f.Close()

	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read cbt: %w", err)
		}
		if hdr.Typeflag == tar.TypeReg && isImage(hdr.Name) {
			b.images = append(b.images, hdr.Name)
		}
	}
	sort.Strings(b.images)
	b.Pages = len(b.images)
	return nil
}

func isImage(name string) bool {
	if strings.HasPrefix(path.Base(name), ".") {
		return false
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif":
		return true
	}
	return false
}
