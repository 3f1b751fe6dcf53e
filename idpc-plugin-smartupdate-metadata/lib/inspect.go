package smartupdate

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gorpher/idpc-plugins/utils"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const DefaultLang = "en"

// ErrNotAPackage means a file is not a recognized Smart Update component.
var ErrNotAPackage = errors.New("not a smart update package")

var componentID = regexp.MustCompile(`(?i)cp\d+`)

// Inspector reads package metadata, preferring Lang for localized fields and
// falling back to DefaultLang.
type Inspector struct {
	Lang        string
	DefaultLang string
}

func NewInspector(lang string) *Inspector {
	return &Inspector{Lang: lang, DefaultLang: DefaultLang}
}

// Inspect opens path as a component archive and reads its descriptor.
// Every failure wraps ErrNotAPackage.
func (in *Inspector) Inspect(filePath string) (*Metadata, error) {
	id := componentID.FindString(filepath.Base(filePath))

	z, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, errors.Wrapf(ErrNotAPackage, "%s: %v", filePath, err)
	}
	defer z.Close()

	entry := findDescriptor(z.File, id)
	if entry == nil {
		return nil, errors.Wrapf(ErrNotAPackage, "%s: no descriptor for %q", filePath, id)
	}
	data, err := readZipFile(entry)
	if err != nil {
		return nil, errors.Wrapf(ErrNotAPackage, "%s: %v", filePath, err)
	}
	pkg, err := parseDescriptor(data)
	if err != nil {
		return nil, errors.Wrapf(ErrNotAPackage, "%s: %s: %v", filePath, entry.Name, err)
	}
	log.Debug().Str("file", filePath).Str("descriptor", entry.Name).Msg("package inspected")
	return in.metadata(pkg, filePath), nil
}

// findDescriptor looks for <id>.xml, or any cp*.xml when the file name has
// no component id.
func findDescriptor(files []*zip.File, id string) *zip.File {
	for _, f := range files {
		name := strings.ToLower(path.Base(strings.ReplaceAll(f.Name, "\\", "/")))
		if id != "" {
			if name == strings.ToLower(id)+".xml" {
				return f
			}
			continue
		}
		if ok, _ := path.Match("cp*.xml", name); ok {
			return f
		}
	}
	return nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func parseDescriptor(data []byte) (*cpqPackage, error) {
	data, err := utils.DecodeXML(data)
	if err != nil {
		return nil, err
	}
	var pkg cpqPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, errors.Wrap(err, "failed to parse descriptor")
	}
	return &pkg, nil
}

func (in *Inspector) metadata(pkg *cpqPackage, filePath string) *Metadata {
	lang, fallback := in.Lang, in.DefaultLang
	if lang == "" {
		lang = DefaultLang
	}

	m := &Metadata{
		Name:         pkg.Name.pick(lang, fallback),
		Version:      pkg.Version.String(),
		Date:         pkg.ReleaseDate.Time(),
		Manufacturer: strings.TrimSpace(pkg.Manufacturer),
		Category:     pkg.Category.pick(lang, fallback),
		Description:  pkg.Description.pick(lang, fallback),
		FileName:     filepath.Base(filePath),
	}
	if len(pkg.Divisions) > 0 {
		m.Content = pkg.Divisions[0].pick(lang, fallback)
	}
	for _, l := range strings.Split(pkg.Languages, ",") {
		if l = strings.TrimSpace(l); l != "" {
			m.Languages = append(m.Languages, l)
		}
	}
	return m
}
