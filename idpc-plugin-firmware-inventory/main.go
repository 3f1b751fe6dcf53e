package main

import inventory "github.com/gorpher/idpc-plugins/idpc-plugin-firmware-inventory/lib"

func main() {
	inventory.Do()
}
