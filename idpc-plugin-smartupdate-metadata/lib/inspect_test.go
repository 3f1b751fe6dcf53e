package smartupdate

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorpher/idpc-plugins/report"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

const descriptor = `<?xml version="1.0" encoding="UTF-8"?>
<cpq_package version="2.1.0">
  <filename>cp045678.exe</filename>
  <version value="4.12" revision="A" type_of_change="2"/>
  <release_date>
    <year>2023</year><month>3</month><day>14</day>
    <hour>9</hour><minute>30</minute><second>0</second>
  </release_date>
  <manufacturer_name>Hewlett Packard Enterprise</manufacturer_name>
  <languages>English (US),Japanese</languages>
  <name>
    <name_xlate lang="en">Online ROM Flash Component for Linux - Smart Array P408i</name_xlate>
    <name_xlate lang="ja">Smart Array P408i オンラインROMフラッシュ</name_xlate>
  </name>
  <description>
    <description_xlate lang="en">Updates the controller firmware.</description_xlate>
  </description>
  <category>
    <category_xlate lang="en">Firmware - Storage Controller</category_xlate>
    <category_xlate lang="ja">ファームウェア - ストレージコントローラー</category_xlate>
  </category>
  <divisions>
    <division key="4000"><division_xlate lang="en">Server</division_xlate></division>
    <division key="4100"><division_xlate lang="en">Storage</division_xlate></division>
  </divisions>
</cpq_package>
`

// writeZip creates an archive holding files at path.
func writeZip(t *testing.T, path string, files map[string][]byte) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func component(t *testing.T, dir, name string) string {
	return writeZip(t, filepath.Join(dir, name), map[string][]byte{
		"cp045678.xml":  []byte(descriptor),
		"setup.exe":     []byte("MZ"),
		"payload/a.bin": {0, 1, 2},
	})
}

func TestInspect(t *testing.T) {
	path := component(t, t.TempDir(), "cp045678.exe")

	m, err := NewInspector("en").Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, &Metadata{
		Name:         "Online ROM Flash Component for Linux - Smart Array P408i",
		Content:      "Server",
		Version:      "4.12(A)",
		Date:         time.Date(2023, time.March, 14, 9, 30, 0, 0, time.UTC),
		Manufacturer: "Hewlett Packard Enterprise",
		Languages:    []string{"English (US)", "Japanese"},
		Category:     "Firmware - Storage Controller",
		Description:  "Updates the controller firmware.",
		FileName:     "cp045678.exe",
	}, m)
}

func TestInspectLocalized(t *testing.T) {
	path := component(t, t.TempDir(), "cp045678.exe")

	m, err := NewInspector("ja").Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, "Smart Array P408i オンラインROMフラッシュ", m.Name)
	assert.Equal(t, "ファームウェア - ストレージコントローラー", m.Category)
	// no japanese variant: default language
	assert.Equal(t, "Updates the controller firmware.", m.Description)
	assert.Equal(t, "Server", m.Content)

	m, err = (&Inspector{Lang: "de"}).Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, "Online ROM Flash Component for Linux - Smart Array P408i", m.Name)
}

func TestInspectDescriptorLookup(t *testing.T) {
	dir := t.TempDir()

	t.Run("case insensitive", func(t *testing.T) {
		path := writeZip(t, filepath.Join(dir, "CP045678.zip"), map[string][]byte{
			"src/CP045678.XML": []byte(descriptor),
		})
		m, err := NewInspector("en").Inspect(path)
		require.NoError(t, err)
		assert.Equal(t, "4.12(A)", m.Version)
	})

	t.Run("wildcard without id", func(t *testing.T) {
		path := writeZip(t, filepath.Join(dir, "raid-firmware.zip"), map[string][]byte{
			"readme.xml":   []byte("<readme/>"),
			"cp045678.xml": []byte(descriptor),
		})
		m, err := NewInspector("en").Inspect(path)
		require.NoError(t, err)
		assert.Equal(t, "raid-firmware.zip", m.FileName)
	})

	t.Run("utf-16 descriptor", func(t *testing.T) {
		utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(descriptor))
		require.NoError(t, err)
		path := writeZip(t, filepath.Join(dir, "cp045679.exe"), map[string][]byte{"cp045679.xml": utf16})
		m, err := NewInspector("en").Inspect(path)
		require.NoError(t, err)
		assert.Equal(t, "Hewlett Packard Enterprise", m.Manufacturer)
	})
}

func TestInspectNotAPackage(t *testing.T) {
	dir := t.TempDir()
	notZip := filepath.Join(dir, "cp000001.exe")
	require.NoError(t, os.WriteFile(notZip, []byte("MZ not an archive"), 0o644))

	tests := map[string]string{
		"not an archive": notZip,
		"missing":        filepath.Join(dir, "cp000002.exe"),
		"no descriptor": writeZip(t, filepath.Join(dir, "cp000003.exe"), map[string][]byte{
			"cp999999.xml": []byte(descriptor),
		}),
		"malformed descriptor": writeZip(t, filepath.Join(dir, "cp000004.exe"), map[string][]byte{
			"cp000004.xml": []byte("<cpq_package><name>"),
		}),
		"other document": writeZip(t, filepath.Join(dir, "cp000005.exe"), map[string][]byte{
			"cp000005.xml": []byte("<manifest/>"),
		}),
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewInspector("en").Inspect(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotAPackage))
		})
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	component(t, dir, "cp045680.exe")
	component(t, dir, "cp045678.exe")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	component(t, filepath.Join(dir, "nested"), "cp045690.exe")

	single := component(t, t.TempDir(), "cp045600.exe")

	pkgs := NewInspector("en").Scan([]string{dir, single, filepath.Join(dir, "missing")})
	require.Len(t, pkgs, 3)
	assert.Equal(t, "cp045600.exe", pkgs[0].FileName)
	assert.Equal(t, "cp045678.exe", pkgs[1].FileName)
	assert.Equal(t, "cp045680.exe", pkgs[2].FileName)

	assert.Empty(t, NewInspector("en").Scan(nil))
}

func TestMetadataEmit(t *testing.T) {
	m := &Metadata{
		Name:      "Online ROM Flash Component",
		Version:   "4.12(A)",
		Date:      time.Date(2023, time.March, 14, 9, 30, 0, 0, time.UTC),
		Languages: []string{"English (US)", "Japanese"},
		Category:  "Firmware - Storage Controller",
		FileName:  "cp045678.exe",
	}

	var buf bytes.Buffer
	require.NoError(t, m.Emit(report.NewEmitter(&buf, report.Text)))
	want := `package file=cp045678.exe {
  name "Online ROM Flash Component"
  version 4.12(A)
  date 2023-03-14T09:30:00Z
  languages @("English (US)", "Japanese")
  category "Firmware - Storage Controller"
}
`
	assert.Equal(t, want, buf.String())

	buf.Reset()
	require.NoError(t, (&Metadata{Name: "A & B", FileName: "cp1.exe"}).Emit(report.NewEmitter(&buf, report.XML)))
	assert.Equal(t, "<package file=\"cp1.exe\">\n  <name>A &amp; B</name>\n</package>\n", buf.String())
}

func TestTable(t *testing.T) {
	out := Table([]*Metadata{
		{Name: "Online ROM Flash Component", Version: "4.12(A)", FileName: "cp045678.exe",
			Date: time.Date(2023, time.March, 14, 0, 0, 0, 0, time.UTC), Languages: []string{"en", "ja"}},
		{Name: "NIC firmware", FileName: "cp045680.exe"},
	})
	assert.Contains(t, out, "FILE")
	assert.Contains(t, out, "cp045678.exe")
	assert.Contains(t, out, "2023-03-14")
	assert.Contains(t, out, "en,ja")
	assert.Contains(t, out, "NIC firmware")
}
