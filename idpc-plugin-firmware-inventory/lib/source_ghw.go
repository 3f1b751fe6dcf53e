package inventory

import (
	"context"

	"github.com/gorpher/idpc-plugins/report"
	"github.com/jaypipes/ghw"
	"github.com/pkg/errors"
)

// storage controllers are PCI class 01, mass storage
const pciClassMassStorage = "01"

// GHWSource reads SMBIOS tables, block devices and PCI devices from the local
// machine through ghw.
type GHWSource struct{}

func NewGHWSource() *GHWSource {
	return &GHWSource{}
}

func (s *GHWSource) Query(_ context.Context, fact Fact) (report.Value, error) {
	switch fact {
	case FactSystemManufacturer, FactSystemModel, FactSystemSerial, FactSystemUUID:
		product, err := ghw.Product()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read product info")
		}
		return map[Fact]report.Value{
			FactSystemManufacturer: text(product.Vendor),
			FactSystemModel:        text(product.Name),
			FactSystemSerial:       text(product.SerialNumber),
			FactSystemUUID:         text(product.UUID),
		}[fact], nil

	case FactBIOSVendor, FactBIOSVersion, FactBIOSDate:
		bios, err := ghw.BIOS()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read bios info")
		}
		return map[Fact]report.Value{
			FactBIOSVendor:  text(bios.Vendor),
			FactBIOSVersion: text(bios.Version),
			FactBIOSDate:    text(bios.Date),
		}[fact], nil

	case FactEnclosureVendor, FactEnclosureType, FactEnclosureSerial, FactEnclosureVersion:
		chassis, err := ghw.Chassis()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read chassis info")
		}
		return map[Fact]report.Value{
			FactEnclosureVendor:  text(chassis.Vendor),
			FactEnclosureType:    text(chassis.TypeDescription),
			FactEnclosureSerial:  text(chassis.SerialNumber),
			FactEnclosureVersion: text(chassis.Version),
		}[fact], nil

	case FactStorageDisks:
		return s.disks()
	case FactStorageControllers:
		return s.controllers()
	case FactNetworkAdapters:
		return s.adapters()
	}
	return nil, errors.Wrapf(ErrFactUnavailable, "ghw has no %s", fact)
}

func (s *GHWSource) disks() (report.Value, error) {
	block, err := ghw.Block()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read block devices")
	}
	disks := report.List{}
	for _, d := range block.Disks {
		if d.IsRemovable {
			continue
		}
		disks = append(disks, report.Struct{
			Type: TypeDisk,
			Text: d.Name,
			Fields: []report.Field{
				{Name: "name", Value: report.String(d.Name)},
				{Name: "vendor", Value: text(d.Vendor)},
				{Name: "model", Value: text(d.Model)},
				{Name: "serial", Value: text(d.SerialNumber)},
				{Name: "size", Value: report.Int(d.SizeBytes)},
				{Name: "type", Value: report.Enum{Type: "DriveType", Repr: d.DriveType.String()}},
				{Name: "controller", Value: report.Enum{Type: "StorageController", Repr: d.StorageController.String()}},
			},
		})
	}
	return disks, nil
}

func (s *GHWSource) controllers() (report.Value, error) {
	pci, err := ghw.PCI()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read pci devices")
	}
	controllers := report.List{}
	for _, dev := range pci.Devices {
		if dev.Class == nil || dev.Class.ID != pciClassMassStorage {
			continue
		}
		fields := []report.Field{{Name: "address", Value: report.String(dev.Address)}}
		if dev.Vendor != nil {
			fields = append(fields, report.Field{Name: "vendor", Value: text(dev.Vendor.Name)})
		}
		if dev.Product != nil {
			fields = append(fields, report.Field{Name: "model", Value: text(dev.Product.Name)})
		}
		fields = append(fields, report.Field{Name: "driver", Value: text(dev.Driver)})
		controllers = append(controllers, report.Struct{Type: TypeController, Text: dev.Address, Fields: fields})
	}
	return controllers, nil
}

func (s *GHWSource) adapters() (report.Value, error) {
	network, err := ghw.Network()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read network adapters")
	}
	// vendor and product names come from the pci database; a failure here
	// only drops those two fields
	pci, _ := ghw.PCI()

	adapters := report.List{}
	for _, nic := range network.NICs {
		if nic.IsVirtual {
			continue
		}
		fields := []report.Field{
			{Name: "name", Value: report.String(nic.Name)},
			{Name: "mac", Value: text(nic.MacAddress)},
		}
		if nic.PCIAddress != nil && pci != nil {
			if dev := pci.GetDevice(*nic.PCIAddress); dev != nil {
				if dev.Vendor != nil {
					fields = append(fields, report.Field{Name: "vendor", Value: text(dev.Vendor.Name)})
				}
				if dev.Product != nil {
					fields = append(fields, report.Field{Name: "model", Value: text(dev.Product.Name)})
				}
				fields = append(fields, report.Field{Name: "driver", Value: text(dev.Driver)})
			}
		}
		adapters = append(adapters, report.Struct{Type: TypeAdapter, Text: nic.Name, Fields: fields})
	}
	return adapters, nil
}
