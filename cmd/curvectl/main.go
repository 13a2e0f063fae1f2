// =============================
// File: cmd/curvectl/main.go
// =============================
package main

import "github.com/rovshanmuradov/bondcurve/internal/cli"

func main() {
	cli.Execute()
}
