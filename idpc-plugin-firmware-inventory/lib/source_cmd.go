package inventory

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorpher/idpc-plugins/report"
	"github.com/gorpher/idpc-plugins/utils"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const DefaultCommandTimeout = 15 * time.Second

// Runner executes name with args and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// command is one external query. parse turns its output into a value.
type command struct {
	tool  string
	args  []string
	parse func(out []byte) (report.Value, error)
}

func (c command) String() string {
	return strings.Join(append([]string{c.tool}, c.args...), " ")
}

func dmidecode(keyword string) []command {
	return []command{{tool: "dmidecode", args: []string{"-s", keyword}, parse: parseDMIString}}
}

func ipmiField(field string) []command {
	return []command{{tool: "ipmitool", args: []string{"mc", "info"}, parse: func(out []byte) (report.Value, error) {
		return parseColonField(out, field), nil
	}}}
}

// commandFacts lists the commands answering each fact, tried in order.
var commandFacts = map[Fact][]command{
	FactSystemManufacturer: dmidecode("system-manufacturer"),
	FactSystemModel:        dmidecode("system-product-name"),
	FactSystemSerial:       dmidecode("system-serial-number"),
	FactSystemUUID:         dmidecode("system-uuid"),
	FactBIOSVendor:         dmidecode("bios-vendor"),
	FactBIOSVersion:        dmidecode("bios-version"),
	FactBIOSDate:           dmidecode("bios-release-date"),
	FactEnclosureVendor:    dmidecode("chassis-manufacturer"),
	FactEnclosureType:      dmidecode("chassis-type"),
	FactEnclosureSerial:    dmidecode("chassis-serial-number"),
	FactEnclosureVersion:   dmidecode("chassis-version"),
	FactBMCManufacturer:    ipmiField("Manufacturer Name"),
	FactBMCFirmware:        ipmiField("Firmware Revision"),
	FactBMCIPMIVersion:     ipmiField("IPMI Version"),
	FactStorageDisks: {
		{tool: "lsblk", args: []string{"-d", "-n", "-b", "-P", "-o", "NAME,VENDOR,MODEL,SERIAL,REV,SIZE,TYPE"}, parse: parseLsblk},
	},
	FactSoftwarePackages: {
		{tool: "dpkg-query", args: []string{"-W", "-f", `${Package}\t${Version}\n`}, parse: parsePackages},
		{tool: "rpm", args: []string{"-qa", "--qf", `%{NAME}\t%{VERSION}-%{RELEASE}\n`}, parse: parsePackages},
	},
}

// CommandSource answers facts by running platform tools, one query per fact.
// Tool locations come from Tools, then the usual ScanFile search.
type CommandSource struct {
	// Tools maps a tool name to an explicit path.
	Tools   map[string]string
	Timeout time.Duration
	// DryRun, when set, receives the planned command lines instead of
	// running them.
	DryRun io.Writer
	Run    Runner

	located map[string]string
	outputs map[string][]byte
	planned map[string]bool
}

func NewCommandSource(tools map[string]string) *CommandSource {
	return &CommandSource{
		Tools:   tools,
		Timeout: DefaultCommandTimeout,
		Run:     CallCMD,
	}
}

func (s *CommandSource) Query(ctx context.Context, fact Fact) (report.Value, error) {
	cmds, ok := commandFacts[fact]
	if !ok {
		return nil, errors.Wrapf(ErrFactUnavailable, "no command for %s", fact)
	}

	var last error
	for _, c := range cmds {
		out, err := s.output(ctx, c)
		if err != nil {
			last = err
			continue
		}
		v, err := c.parse(out)
		if err != nil {
			last = errors.Wrapf(err, "failed to parse output of %s", c)
			continue
		}
		return v, nil
	}
	return nil, last
}

// output runs c once per source; facts sharing a command reuse the output.
func (s *CommandSource) output(ctx context.Context, c command) ([]byte, error) {
	key := c.String()
	if out, ok := s.outputs[key]; ok {
		return out, nil
	}

	path, err := s.locate(c.tool)
	if s.DryRun != nil {
		if err != nil {
			path = c.tool
		}
		if !s.planned[key] {
			fmt.Fprintf(s.DryRun, "%s %s\n", path, strings.Join(c.args, " "))
			if s.planned == nil {
				s.planned = map[string]bool{}
			}
			s.planned[key] = true
		}
		return nil, errors.Wrapf(ErrFactUnavailable, "dry run of %s", c)
	}
	if err != nil {
		return nil, errors.Wrap(ErrFactUnavailable, err.Error())
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	run := s.Run
	if run == nil {
		run = CallCMD
	}
	log.Debug().Str("cmd", key).Msg("running")
	out, err := run(ctx, path, c.args...)
	if err != nil {
		if strings.Contains(err.Error(), "permission denied") {
			return nil, errors.Wrapf(err, "%s requires elevated privileges", c.tool)
		}
		return nil, errors.Wrapf(err, "failed to run %s", c)
	}

	if s.outputs == nil {
		s.outputs = map[string][]byte{}
	}
	s.outputs[key] = out
	return out, nil
}

func (s *CommandSource) locate(tool string) (string, error) {
	if p, ok := s.located[tool]; ok {
		return p, nil
	}
	env := strings.ToUpper(strings.ReplaceAll(tool, "-", "_")) + "_PATH"
	p, err := utils.ScanFile(s.Tools[tool], tool, env)
	if err != nil {
		return "", err
	}
	if s.located == nil {
		s.located = map[string]string{}
	}
	s.located[tool] = p
	return p, nil
}

// CallCMD 同步阻塞调用命令行工具，返回标准输出
// name 程序名称，建议使用绝对路径
func CallCMD(ctx context.Context, name string, params ...string) ([]byte, error) {
	command := exec.CommandContext(ctx, name, params...)
	if filepath.IsAbs(name) {
		command.Dir = filepath.Dir(name)
	}
	var stderr bytes.Buffer
	command.Stderr = &stderr
	out, err := command.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Wrap(err, msg)
		}
		return nil, err
	}
	return out, nil
}

func parseDMIString(out []byte) (report.Value, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return text(line), nil
	}
	return report.Null{}, sc.Err()
}

// parseColonField finds "Field : value" in ipmitool style output.
func parseColonField(out []byte, field string) report.Value {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		k, v, ok := strings.Cut(sc.Text(), ":")
		if ok && strings.TrimSpace(k) == field {
			return text(v)
		}
	}
	return report.Null{}
}

var lsblkPair = regexp.MustCompile(`([A-Z-]+)="([^"]*)"`)

var lsblkEscape = regexp.MustCompile(`\\x([0-9a-fA-F]{2})`)

func parseLsblk(out []byte) (report.Value, error) {
	disks := report.List{}
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		row := map[string]string{}
		for _, m := range lsblkPair.FindAllStringSubmatch(sc.Text(), -1) {
			row[m[1]] = lsblkEscape.ReplaceAllStringFunc(m[2], func(e string) string {
				b, _ := strconv.ParseUint(e[2:], 16, 8)
				// lsblk escapes byte by byte, so multi-byte names are rebuilt here
				return string([]byte{byte(b)})
			})
		}
		if row["TYPE"] != "disk" {
			continue
		}
		size := report.Value(report.Null{})
		if n, err := strconv.ParseInt(row["SIZE"], 10, 64); err == nil {
			size = report.Int(n)
		}
		disks = append(disks, report.Struct{
			Type: TypeDisk,
			Text: row["NAME"],
			Fields: []report.Field{
				{Name: "name", Value: report.String(row["NAME"])},
				{Name: "vendor", Value: text(row["VENDOR"])},
				{Name: "model", Value: text(row["MODEL"])},
				{Name: "serial", Value: text(row["SERIAL"])},
				{Name: "firmware", Value: text(row["REV"])},
				{Name: "size", Value: size},
			},
		})
	}
	return disks, sc.Err()
}

func parsePackages(out []byte) (report.Value, error) {
	type pkg struct{ name, version string }
	var pkgs []pkg
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		name, version, ok := strings.Cut(sc.Text(), "\t")
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		pkgs = append(pkgs, pkg{strings.TrimSpace(name), strings.TrimSpace(version)})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].name < pkgs[j].name })

	list := make(report.List, 0, len(pkgs))
	for _, p := range pkgs {
		list = append(list, report.Struct{
			Type:    TypePackage,
			Text:    p.name,
			Display: []string{"version"},
			Fields: []report.Field{
				{Name: "name", Value: report.String(p.name)},
				{Name: "version", Value: text(p.version)},
			},
		})
	}
	return list, nil
}
