package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorpher/idpc-plugins/report"
	"github.com/rs/zerolog/log"
)

// Section is a top-level part of the inventory report.
type Section string

const (
	SectionSystem   Section = "system"
	SectionStorage  Section = "storage"
	SectionNetwork  Section = "network"
	SectionSoftware Section = "software"
)

var AllSections = []Section{SectionSystem, SectionStorage, SectionNetwork, SectionSoftware}

// ParseSections parses a comma separated section list. An empty list means
// every section.
func ParseSections(s string) ([]Section, error) {
	var out []Section
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		switch sec := Section(part); sec {
		case SectionSystem, SectionStorage, SectionNetwork, SectionSoftware:
			out = append(out, sec)
		default:
			return nil, fmt.Errorf("unknown section '%s', available sections: %s, %s, %s and %s",
				part, SectionSystem, SectionStorage, SectionNetwork, SectionSoftware)
		}
	}
	return out, nil
}

type leafSpec struct {
	name    string
	fact    Fact
	version bool
}

type groupSpec struct {
	name     string
	leaves   []leafSpec
	children []groupSpec
}

var systemLayout = groupSpec{
	name: "system",
	leaves: []leafSpec{
		{"manufacturer", FactSystemManufacturer, false},
		{"model", FactSystemModel, false},
		{"serial", FactSystemSerial, false},
		{"uuid", FactSystemUUID, false},
	},
	children: []groupSpec{
		{name: "bios", leaves: []leafSpec{
			{"vendor", FactBIOSVendor, false},
			{"version", FactBIOSVersion, true},
			{"date", FactBIOSDate, true},
		}},
		{name: "management_controller", leaves: []leafSpec{
			{"manufacturer", FactBMCManufacturer, false},
			{"firmware", FactBMCFirmware, true},
			{"ipmi", FactBMCIPMIVersion, true},
		}},
		{name: "enclosure", leaves: []leafSpec{
			{"vendor", FactEnclosureVendor, false},
			{"type", FactEnclosureType, false},
			{"serial", FactEnclosureSerial, false},
			{"version", FactEnclosureVersion, true},
		}},
	},
}

// listSpec describes how the items of a list fact become blocks. key is the
// field used as the block's attribute; versions are the fields kept in
// version-only reports.
type listSpec struct {
	fact     Fact
	block    string
	key      string
	versions []string
}

var (
	controllerList = listSpec{FactStorageControllers, "controller", "address", []string{"firmware"}}
	diskList       = listSpec{FactStorageDisks, "disk", "name", []string{"firmware"}}
	adapterList    = listSpec{FactNetworkAdapters, "adapter", "name", []string{"firmware"}}
)

// Options selects what Assemble writes.
type Options struct {
	Sections    []Section
	VersionOnly bool
	// Host is written as an attribute of the top block when set.
	Host string
}

// Assembler walks facts from a Source and shapes them into a report.
type Assembler struct {
	src Source
	em  *report.Emitter
}

func NewAssembler(src Source, em *report.Emitter) *Assembler {
	return &Assembler{src: src, em: em}
}

// Assemble writes one "computer" block. Facts the source cannot provide are
// left out; only output errors are returned.
func (a *Assembler) Assemble(ctx context.Context, opts Options) error {
	sections := opts.Sections
	if len(sections) == 0 {
		sections = AllSections
	}
	var attrs map[string]string
	if opts.Host != "" {
		attrs = map[string]string{"host": opts.Host}
	}

	return a.em.WithBlock("computer", attrs, func() error {
		for _, sec := range sections {
			var err error
			switch sec {
			case SectionSystem:
				err = a.emitGroup(a.resolve(ctx, systemLayout, opts.VersionOnly))
			case SectionStorage:
				err = a.emitLists(ctx, string(sec), opts.VersionOnly, controllerList, diskList)
			case SectionNetwork:
				err = a.emitLists(ctx, string(sec), opts.VersionOnly, adapterList)
			case SectionSoftware:
				err = a.emitSoftware(ctx)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

type resolvedGroup struct {
	name     string
	names    []string
	values   map[string]report.Value
	children []resolvedGroup
}

func (g resolvedGroup) empty() bool {
	for _, v := range g.values {
		if !report.IsAbsent(v) {
			return false
		}
	}
	for _, c := range g.children {
		if !c.empty() {
			return false
		}
	}
	return true
}

func (a *Assembler) resolve(ctx context.Context, spec groupSpec, versionOnly bool) resolvedGroup {
	g := resolvedGroup{name: spec.name, values: map[string]report.Value{}}
	for _, l := range spec.leaves {
		if versionOnly && !l.version {
			continue
		}
		g.names = append(g.names, l.name)
		g.values[l.name] = query(ctx, a.src, l.fact)
	}
	for _, c := range spec.children {
		g.children = append(g.children, a.resolve(ctx, c, versionOnly))
	}
	return g
}

func (a *Assembler) emitGroup(g resolvedGroup) error {
	if g.empty() {
		return nil
	}
	return a.em.WithBlock(g.name, nil, func() error {
		if err := a.em.Collect(g.names, report.MapLookup(g.values)); err != nil {
			return err
		}
		for _, c := range g.children {
			if err := a.emitGroup(c); err != nil {
				return err
			}
		}
		return nil
	})
}

// items queries a list fact and keeps its structured items.
func (a *Assembler) items(ctx context.Context, fact Fact) []report.Struct {
	v := query(ctx, a.src, fact)
	list, ok := v.(report.List)
	if !ok {
		if !report.IsAbsent(v) {
			log.Debug().Str("fact", string(fact)).Msgf("expected a list, got %T", v)
		}
		return nil
	}
	var out []report.Struct
	for _, item := range list {
		if s, ok := item.(report.Struct); ok {
			out = append(out, s)
		}
	}
	return out
}

func (a *Assembler) emitLists(ctx context.Context, section string, versionOnly bool, specs ...listSpec) error {
	found := make([][]report.Struct, len(specs))
	total := 0
	for i, spec := range specs {
		found[i] = a.items(ctx, spec.fact)
		total += len(found[i])
	}
	if total == 0 {
		return nil
	}

	return a.em.WithBlock(section, nil, func() error {
		for i, spec := range specs {
			for _, item := range found[i] {
				if err := a.emitItem(spec, item, versionOnly); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (a *Assembler) emitItem(spec listSpec, item report.Struct, versionOnly bool) error {
	var attrs map[string]string
	if key := item.Get(spec.key); !report.IsAbsent(key) {
		attrs = map[string]string{spec.key: report.Plain(key)}
	}

	var names []string
	values := map[string]report.Value{}
	for _, f := range item.Fields {
		if f.Name == spec.key || (versionOnly && !contains(spec.versions, f.Name)) {
			continue
		}
		names = append(names, f.Name)
		values[f.Name] = f.Value
	}
	if versionOnly && (resolvedGroup{values: values}).empty() {
		return nil
	}

	return a.em.WithBlock(spec.block, attrs, func() error {
		return a.em.Collect(names, report.MapLookup(values))
	})
}

func (a *Assembler) emitSoftware(ctx context.Context) error {
	var pkgs []report.Struct
	for _, p := range a.items(ctx, FactSoftwarePackages) {
		if !displayAbsent(p) {
			pkgs = append(pkgs, p)
		}
	}
	if len(pkgs) == 0 {
		return nil
	}
	return a.em.WithBlock(string(SectionSoftware), nil, func() error {
		for _, p := range pkgs {
			name := report.Plain(p.Get("name"))
			if err := a.em.Leaf("package", p, report.Attrs(map[string]string{"name": name})); err != nil {
				return err
			}
		}
		return nil
	})
}

// displayAbsent reports whether s has display fields and none of them is
// present, so writing it would only print $null.
func displayAbsent(s report.Struct) bool {
	if len(s.Display) == 0 {
		return false
	}
	for _, name := range s.Display {
		if !report.IsAbsent(s.Get(name)) {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
