// SchemTrace routes schematic traces between chip pins and places net
// labels, then writes the layout as JSON, SVG, PNG, PDF, DXF or XLSX.
//
// Build:
//   go build -o schemtrace ./cmd/schemtrace

package main

import "github.com/piwi3910/SchemTrace/cmd/schemtrace/cmd"

func main() {
	cmd.Execute()
}
