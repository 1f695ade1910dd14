// Package main provides the entry point for the expense-manager CLI.
package main

import (
	"fjacquet/expense-manager/cmd/categorize"
	"fjacquet/expense-manager/cmd/ref"
	"fjacquet/expense-manager/cmd/root"
	"fjacquet/expense-manager/cmd/run"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(run.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(ref.Cmd)
}

func main() {
	root.Execute()
}
