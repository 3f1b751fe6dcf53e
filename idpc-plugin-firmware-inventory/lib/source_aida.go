package inventory

import (
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorpher/idpc-plugins/report"
	"github.com/gorpher/idpc-plugins/utils"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var aidaScalars = map[Fact]aidaKey{
	FactSystemManufacturer: {"DMI", "DMI System Manufacturer"},
	FactSystemModel:        {"DMI", "DMI System Product"},
	FactSystemSerial:       {"DMI", "DMI System Serial Number"},
	FactSystemUUID:         {"DMI", "DMI System UUID"},
	FactBIOSVendor:         {"DMI", "DMI BIOS Vendor"},
	FactBIOSVersion:        {"DMI", "DMI BIOS Version"},
	FactEnclosureVendor:    {"DMI", "DMI Chassis Manufacturer"},
	FactEnclosureType:      {"DMI", "DMI Chassis Type"},
	FactEnclosureSerial:    {"DMI", "DMI Chassis Serial Number"},
	FactEnclosureVersion:   {"DMI", "DMI Chassis Version"},
}

var aidaLists = map[Fact]struct {
	key      aidaKey
	typeName string
	prefix   string
}{
	FactStorageControllers: {aidaKey{"Storage", "Storage Controller"}, TypeController, "controller"},
	FactStorageDisks:       {aidaKey{"Storage", "Disk Drive"}, TypeDisk, "disk"},
	FactNetworkAdapters:    {aidaKey{"Network", "Network Adapter"}, TypeAdapter, "adapter"},
}

// AidaTimeout bounds an unattended AIDA64 report run.
const AidaTimeout = 5 * time.Minute

// aidaParams are the switches of an unattended AIDA64 summary report.
var aidaParams = []string{"/SILENT", "/LANGen", "/XML", "/NOICONS", "/NOLICENSE"}

// AidaSource answers facts from a saved AIDA64 XML report, typically
// produced with "aida64.exe /R report.xml /XML /SUM".
type AidaSource struct {
	report aidaReport
}

// LoadAidaReport reads an AIDA64 report. AIDA declares iso-8859-1 even when
// it writes the system code page, so charset, when set, overrides the
// declaration (e.g. "gb2312").
func LoadAidaReport(path, charset string) (*AidaSource, error) {
	data, err := os.ReadFile(utils.ExpandHome(path))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read aida report")
	}
	return parseAidaReport(data, charset)
}

// RunAidaReport runs AIDA64 to write a summary report into dir, then loads
// it. exePath may be empty; the executable is then looked up like any tool,
// with AIDA64_PATH as its environment variable.
func RunAidaReport(ctx context.Context, run Runner, exePath, dir, charset string) (*AidaSource, error) {
	exe, err := utils.ScanFile(exePath, "aida64", "AIDA64_PATH")
	if err != nil {
		return nil, errors.Wrap(ErrFactUnavailable, err.Error())
	}
	out := filepath.Join(dir, "aida-summary.xml")
	params := append(append([]string{}, aidaParams...), "/R", out, "/SUM")

	ctx, cancel := context.WithTimeout(ctx, AidaTimeout)
	defer cancel()
	log.Debug().Str("cmd", exe+" "+strings.Join(params, " ")).Msg("running")
	if _, err := run(ctx, exe, params...); err != nil {
		if strings.Contains(err.Error(), "requires elevation") {
			return nil, errors.Wrap(err, "aida64 requires administrator privileges")
		}
		return nil, errors.Wrap(err, "failed to run aida64")
	}
	return LoadAidaReport(out, charset)
}

func parseAidaReport(data []byte, charset string) (*AidaSource, error) {
	var err error
	if charset != "" {
		data, err = utils.DecodeXMLAs(data, charset)
	} else {
		data, err = utils.DecodeXML(data)
	}
	if err != nil {
		return nil, err
	}

	s := &AidaSource{}
	if err := xml.Unmarshal(data, &s.report); err != nil {
		return nil, errors.Wrap(err, "failed to parse aida report")
	}
	log.Debug().Int("pages", len(s.report.Page)).Str("lang", s.report.Lang).Msg("loaded aida report")
	return s, nil
}

func (s *AidaSource) Query(_ context.Context, fact Fact) (report.Value, error) {
	if k, ok := aidaScalars[fact]; ok {
		values := s.report.values(k)
		if len(values) == 0 {
			return report.Null{}, nil
		}
		return text(values[0]), nil
	}

	l, ok := aidaLists[fact]
	if !ok {
		return nil, errors.Wrapf(ErrFactUnavailable, "aida report has no %s", fact)
	}
	list := report.List{}
	for i, v := range s.report.values(l.key) {
		model, detail := splitAidaValue(v)
		fields := []report.Field{
			{Name: "name", Value: report.String(l.prefix + strconv.Itoa(i))},
			{Name: "model", Value: text(model)},
		}
		if detail != "" {
			fields = append(fields, report.Field{Name: "detail", Value: report.String(detail)})
		}
		list = append(list, report.Struct{Type: l.typeName, Text: model, Fields: fields})
	}
	return list, nil
}

// splitAidaValue splits "WDC WD10EZEX (1 TB, SATA-III)" into the model and
// the parenthesized detail.
func splitAidaValue(v string) (model, detail string) {
	v = strings.TrimSpace(v)
	i := strings.LastIndex(v, " (")
	if i < 0 || !strings.HasSuffix(v, ")") {
		return v, ""
	}
	return strings.TrimSpace(v[:i]), v[i+2 : len(v)-1]
}
