package inventory

import (
	"context"
	"strings"

	"github.com/gorpher/idpc-plugins/report"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Fact names one piece of hardware or software information.
type Fact string

const (
	FactSystemManufacturer Fact = "system.manufacturer"
	FactSystemModel        Fact = "system.model"
	FactSystemSerial       Fact = "system.serial"
	FactSystemUUID         Fact = "system.uuid"

	FactBIOSVendor  Fact = "bios.vendor"
	FactBIOSVersion Fact = "bios.version"
	FactBIOSDate    Fact = "bios.date"

	FactBMCManufacturer Fact = "bmc.manufacturer"
	FactBMCFirmware     Fact = "bmc.firmware"
	FactBMCIPMIVersion  Fact = "bmc.ipmi"

	FactEnclosureVendor  Fact = "enclosure.vendor"
	FactEnclosureType    Fact = "enclosure.type"
	FactEnclosureSerial  Fact = "enclosure.serial"
	FactEnclosureVersion Fact = "enclosure.version"

	// list facts: report.List of report.Struct
	FactStorageControllers Fact = "storage.controllers"
	FactStorageDisks       Fact = "storage.disks"
	FactNetworkAdapters    Fact = "network.adapters"
	FactSoftwarePackages   Fact = "software.packages"
)

// Struct type names used by list facts.
const (
	TypeController = "StorageController"
	TypeDisk       = "Disk"
	TypeAdapter    = "NetworkAdapter"
	TypePackage    = "Package"
)

// ErrFactUnavailable means a source cannot provide a fact on this machine.
var ErrFactUnavailable = errors.New("fact unavailable")

// Source answers fact queries. Every query is independent: one failing fact
// says nothing about the others.
type Source interface {
	Query(ctx context.Context, fact Fact) (report.Value, error)
}

// Chain asks each source in turn and returns the first present value.
type Chain []Source

func (c Chain) Query(ctx context.Context, fact Fact) (report.Value, error) {
	var last error = ErrFactUnavailable
	for _, src := range c {
		v, err := src.Query(ctx, fact)
		if err != nil {
			last = err
			continue
		}
		if !report.IsAbsent(v) {
			return v, nil
		}
	}
	return report.Null{}, last
}

// placeholder values firmware tables use for "nothing here"
var placeholders = map[string]bool{
	"":                        true,
	"unknown":                 true,
	"none":                    true,
	"not specified":           true,
	"not available":           true,
	"not present":             true,
	"default string":          true,
	"to be filled by o.e.m.":  true,
	"system serial number":    true,
	"0123456789":              true,

	"00000000-0000-0000-0000-000000000000": true,
}

// text returns s as a value, or Null when s is empty or a placeholder.
func text(s string) report.Value {
	s = strings.TrimSpace(s)
	if placeholders[strings.ToLower(s)] {
		return report.Null{}
	}
	return report.String(s)
}

// query runs one fact query and degrades any failure to an absent value.
func query(ctx context.Context, src Source, fact Fact) report.Value {
	v, err := src.Query(ctx, fact)
	if err != nil {
		log.Debug().Err(err).Str("fact", string(fact)).Msg("fact unavailable")
		return report.Null{}
	}
	if v == nil {
		return report.Null{}
	}
	return v
}
