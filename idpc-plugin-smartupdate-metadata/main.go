package main

import smartupdate "github.com/gorpher/idpc-plugins/idpc-plugin-smartupdate-metadata/lib"

func main() {
	smartupdate.Do()
}
