package main

import (
	"testing"

	awlsim "awlsim/shared"

	"github.com/sirupsen/logrus"
)

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"-c", "3", "-l", "0.5", "-4", "-m", "de", "-x", "-I", "0x2=255", "-q", "prog.awl"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.cycles != 3 || opts.cycleLimit != 0.5 || !opts.fourAccus || !opts.extended {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.mnemonics != awlsim.MnemonicsDE {
		t.Errorf("mnemonics = %v", opts.mnemonics)
	}
	if opts.level != logrus.WarnLevel {
		t.Errorf("level = %v", opts.level)
	}
	if len(opts.inputs) != 1 || opts.inputs[0] != (inputPreset{offset: 2, value: 255}) {
		t.Errorf("inputs = %+v", opts.inputs)
	}
	if opts.file != "prog.awl" {
		t.Errorf("file = %q", opts.file)
	}

	defaults, err := parseArgs(nil)
	if err != nil {
		t.Fatal(err)
	}
	if defaults.cycles != 1 || defaults.level != logrus.InfoLevel || defaults.file != "" {
		t.Errorf("unexpected defaults %+v", defaults)
	}
}

func TestParseArgsErrors(t *testing.T) {
	for _, args := range [][]string{
		{"-c"},
		{"-c", "x"},
		{"-c", "-1"},
		{"-l", "fast"},
		{"-m", "fr"},
		{"--bogus"},
		{"a.awl", "b.awl"},
		{"-I", "3"},
		{"-I", "1=256"},
	} {
		if _, err := parseArgs(args); err == nil {
			t.Errorf("parseArgs(%q) succeeded", args)
		}
	}
}
