package main

import (
	"fmt"
	"os"
	"sort"

	awlsim "awlsim/shared"
	"awlsim/shared/parser"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
)

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func dumpBlock(b *awlsim.Block) {
	fmt.Printf("%s:\n", b)
	for _, f := range b.Interface.Fields {
		fmt.Printf("  %-10s %-12s %s @%s\n", f.Kind, f.Name, f.Type, f.Layout.Offset)
	}
	for _, insn := range b.Insns {
		fmt.Printf("  %4d  [%4d]  %s\n", insn.Index, insn.LineNr, insn)
	}
}

// awldump prints the raw parse tree of an AWL source or, with -t, the
// translated blocks.
func main() {
	var (
		file      string
		translate bool
		extended  bool
	)
	for _, arg := range os.Args[1:] {
		switch arg {
		case "-t", "--translate":
			translate = true
		case "-x", "--extended-insns":
			extended = true
		default:
			file = arg
		}
	}

	var (
		tree *parser.ParseTree
		err  error
	)
	if file == "" {
		var text string
		if text, err = parser.ReadSource(os.Stdin); err == nil {
			tree, err = parser.Parse(text)
		}
	} else {
		tree, err = parser.ParseFile(file)
	}
	if err != nil {
		logrus.Fatal(err)
	}
	if !translate {
		pp.Println(tree)
		return
	}

	config := awlsim.DefaultConfig()
	config.ExtendedInsns = extended
	cpu := awlsim.NewCPU(awlsim.DefaultSpecs(), config)
	if err := cpu.Load(tree); err != nil {
		logrus.Fatal(err)
	}
	for _, nr := range sortedKeys(tree.OBs) {
		b, _ := cpu.OB(nr)
		dumpBlock(b)
	}
	for _, nr := range sortedKeys(tree.FBs) {
		b, _ := cpu.FB(nr)
		dumpBlock(b)
	}
	for _, nr := range sortedKeys(tree.FCs) {
		b, _ := cpu.FC(nr)
		dumpBlock(b)
	}
	for _, nr := range sortedKeys(tree.DBs) {
		db, _ := cpu.DB(nr)
		pp.Println(db.String(), db.Struct)
	}
}
