package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	awlsim "awlsim/shared"
	"awlsim/shared/parser"

	"github.com/k0kubun/pp/v3"
	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
)

type inputPreset struct {
	offset int
	value  byte
}

type options struct {
	file       string
	cycles     int
	cycleLimit float64
	fourAccus  bool
	mnemonics  awlsim.Mnemonics
	extended   bool
	screen     bool
	dump       bool
	profile    bool
	level      logrus.Level
	inputs     []inputPreset
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `Usage: %s [OPTIONS] [FILE.awl]

  -c|--cycles N             Run N cycles, 0 runs until interrupted (default 1)
  -l|--cycle-limit SECONDS  Cycle time limit (default 5.0)
  -4|--four-accus           Enable 4 accumulators
  -m|--mnemonics TYPE       auto, en or de (default auto)
  -x|--extended-insns       Enable __ debug instructions
  -s|--screen               Show the CPU state on a terminal screen
  -d|--dump                 Dump the CPU state after each cycle
  -I|--input BYTE=VALUE     Preset an input byte
  -P|--profile              Write a CPU profile to the working directory
  -v|--verbose              Debug logging
  -q|--quiet                Only log warnings and errors
  -h|--help                 Show this help
`, os.Args[0])
}

func parseArgs(args []string) (*options, error) {
	opts := &options{
		cycles:     1,
		cycleLimit: awlsim.DefaultConfig().CycleTimeLimit,
		level:      logrus.InfoLevel,
	}
	value := func(i *int) (string, error) {
		if *i+1 >= len(args) {
			return "", errors.Errorf("Option %s requires a value", args[*i])
		}
		*i++
		return args[*i], nil
	}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-c", "--cycles":
			v, err := value(&i)
			if err != nil {
				return nil, err
			}
			if opts.cycles, err = strconv.Atoi(v); err != nil || opts.cycles < 0 {
				return nil, errors.Errorf("Invalid cycle count: %s", v)
			}
		case "-l", "--cycle-limit":
			v, err := value(&i)
			if err != nil {
				return nil, err
			}
			if opts.cycleLimit, err = strconv.ParseFloat(v, 64); err != nil {
				return nil, errors.Errorf("Invalid cycle limit: %s", v)
			}
		case "-4", "--four-accus":
			opts.fourAccus = true
		case "-m", "--mnemonics":
			v, err := value(&i)
			if err != nil {
				return nil, err
			}
			if opts.mnemonics, err = awlsim.ParseMnemonics(v); err != nil {
				return nil, err
			}
		case "-x", "--extended-insns":
			opts.extended = true
		case "-s", "--screen":
			opts.screen = true
		case "-d", "--dump":
			opts.dump = true
		case "-I", "--input":
			v, err := value(&i)
			if err != nil {
				return nil, err
			}
			p, err := parseInputPreset(v)
			if err != nil {
				return nil, err
			}
			opts.inputs = append(opts.inputs, p)
		case "-P", "--profile":
			opts.profile = true
		case "-v", "--verbose":
			opts.level = logrus.DebugLevel
		case "-q", "--quiet":
			opts.level = logrus.WarnLevel
		case "-h", "--help":
			usage(os.Stdout)
			os.Exit(0)
		default:
			if strings.HasPrefix(arg, "-") && arg != "-" {
				return nil, errors.Errorf("Unknown option %s", arg)
			}
			if opts.file != "" {
				return nil, errors.New("Only one source file may be given")
			}
			opts.file = arg
		}
	}
	return opts, nil
}

// parseInputPreset parses BYTE=VALUE. Both accept decimal or 0x hex.
func parseInputPreset(s string) (inputPreset, error) {
	off, val, ok := strings.Cut(s, "=")
	if !ok {
		return inputPreset{}, errors.Errorf("Invalid input preset '%s', expected BYTE=VALUE", s)
	}
	o, err := strconv.ParseUint(off, 0, 16)
	if err != nil {
		return inputPreset{}, errors.Wrapf(err, "input preset '%s'", s)
	}
	v, err := strconv.ParseUint(val, 0, 8)
	if err != nil {
		return inputPreset{}, errors.Wrapf(err, "input preset '%s'", s)
	}
	return inputPreset{offset: int(o), value: byte(v)}, nil
}

func readSource(file string) (string, error) {
	if file == "" || file == "-" {
		return parser.ReadSource(os.Stdin)
	}
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return parser.ReadSource(f)
}

func run(opts *options) error {
	if opts.profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}
	text, err := readSource(opts.file)
	if err != nil {
		return err
	}
	tree, err := parser.Parse(text)
	if err != nil {
		return err
	}

	specs := awlsim.DefaultSpecs()
	if opts.fourAccus {
		if err := specs.SetNrAccus(4); err != nil {
			return err
		}
	}
	if err := specs.SetMnemonics(opts.mnemonics); err != nil {
		return err
	}
	config := awlsim.DefaultConfig()
	config.CycleTimeLimit = opts.cycleLimit
	config.ExtendedInsns = opts.extended
	config.Trace = opts.level == logrus.DebugLevel

	cpu := awlsim.NewCPU(specs, config)
	if err := cpu.Load(tree); err != nil {
		return err
	}
	for _, p := range opts.inputs {
		if p.offset >= len(cpu.Inputs) {
			return errors.Errorf("Input byte %d out of range", p.offset)
		}
		cpu.Inputs[p.offset] = p.value
	}

	var scr *screen
	if opts.screen {
		if scr, err = newScreen(cpu); err != nil {
			return err
		}
		defer scr.Close()
		cpu.ScreenUpdate = scr.hook()
		cpu.CycleExit = scr.hook()
	}

	if err := cpu.Startup(); err != nil {
		return err
	}
	for n := 0; opts.cycles == 0 || n < opts.cycles; n++ {
		if scr != nil && scr.Quit() {
			break
		}
		if err := cpu.RunCycle(); err != nil {
			return err
		}
		if opts.dump {
			if err := cpu.PrettyDump(os.Stdout); err != nil {
				return err
			}
		}
	}
	if scr != nil {
		scr.update(true)
	}
	logrus.WithFields(logrus.Fields{
		"cycles":   cpu.Stats.CycleCount,
		"insns":    cpu.Stats.InsnCount,
		"avgCycle": cpu.Stats.AvgCycleTime,
	}).Info("simulation finished")
	return nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage(os.Stderr)
		os.Exit(2)
	}
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logrus.SetLevel(opts.level)

	if err := run(opts); err != nil {
		var simErr *awlsim.SimulationError
		if errors.As(err, &simErr) && simErr.Dump != "" {
			fmt.Fprintln(os.Stderr, simErr.Dump)
		}
		if opts.dump {
			pp.Fprintln(os.Stderr, err)
		}
		logrus.Fatal(err)
	}
}
