package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"github.com/kozakscript/bundler"
	"github.com/kozakscript/bundler/assembly"
	"github.com/kozakscript/bundler/config"
	"github.com/kozakscript/bundler/icon"
	"github.com/kozakscript/bundler/resource"
)

type CommandLine struct {
	Config string
	Script string
	Icon   string
	Data   dataFlag
}

// dataFlag collects repeated --add-data arguments.
type dataFlag []assembly.DataMapping

func (d *dataFlag) String() string {
	parts := make([]string, len(*d))
	for i, m := range *d {
		parts[i] = m.Source + ";" + m.Destination
	}
	return strings.Join(parts, ", ")
}

func (d *dataFlag) Set(s string) error {
	m, err := assembly.ParseDataMapping(s)
	if err != nil {
		return err
	}
	*d = append(*d, m)
	return nil
}

const iconHelp = "Icons are applied with Resource Hacker or rcedit if one of them is installed " +
	"(set KOZAK_RESOURCE_HACKER to its location if it is not on the default path). " +
	"Without it, set 'native = true' in the [icon] section of the configuration file " +
	"or KOZAK_NATIVE_ICONS=1 to update the icon resources directly. " +
	"PNG files are converted to ICO automatically."

func wrap(s string) string {
	return wordwrap.WrapString(s, 72)
}

// parseArgs parses the command line. Flags may appear before and after the script path.
func parseArgs(args []string, output io.Writer) (*CommandLine, error) {
	var cmd CommandLine
	fs := flag.NewFlagSet("kozakbundle", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cmd.Config, "config", "", "Path to a TOML configuration file")
	fs.StringVar(&cmd.Icon, "icon", "", "Icon (.ico or .png) to apply to the executable")
	fs.Var(&cmd.Data, "add-data", "Additional data file to embed, as \"source;destination\" (repeatable)")
	fs.Usage = func() {
		fmt.Fprintln(output, `Usage: kozakbundle [--config file] <script.kozak> [--icon icon.ico] [--add-data "src;dst"]...`)
		fs.PrintDefaults()
		fmt.Fprintf(output, "\n%s\n", wrap(iconHelp))
	}

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}

	switch len(positional) {
	case 0:
		fs.Usage()
		return nil, errors.New("no script given")
	case 1:
		cmd.Script = positional[0]
	default:
		fs.Usage()
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(positional[1:], " "))
	}
	return &cmd, nil
}

// confirm asks a yes/no question on the terminal.
func confirm(in io.Reader, out io.Writer) func(string) bool {
	r := bufio.NewReader(in)
	return func(question string) bool {
		fmt.Fprintf(out, "%s\n%s (y/n): ", wrap(iconHelp), question)
		line, _ := r.ReadString('\n')
		answer := strings.TrimSpace(line)
		return answer == "y" || answer == "Y"
	}
}

// run bundles the script and applies the icon.
func run(cmd *CommandLine, stdin io.Reader, stdout io.Writer, logger *log.Logger) error {
	cfg, err := config.Load(cmd.Config)
	if err != nil {
		return bundler.Errorf(bundler.KindConfig, "%w", err)
	}

	assembler := &assembly.Assembler{
		Interpreter:   cfg.Interpreter,
		OutputDir:     cfg.OutputDir,
		Extension:     cfg.Extension,
		RequireReader: cfg.RequireReader,
		Scanner:       assembly.ReferenceScanner{},
		Logger:        logger.Printf,
	}

	var injector *resource.Injector
	if cmd.Icon != "" {
		if _, err := os.Stat(cmd.Icon); err != nil {
			logger.Printf("[WARNING] icon not found: %q", cmd.Icon)
		} else {
			injector = &resource.Injector{
				Tools:   cfg.Icon.Tools,
				Confirm: confirm(stdin, stdout),
				Logger:  logger.Printf,
			}
			if cfg.Icon.Native {
				injector.Native = resource.SystemUpdater()
			}
			// Select before assembling, declining must not leave an artifact behind.
			if _, err := injector.Select(); err != nil {
				return err
			}
		}
	}

	logger.Printf("Bundling %q", cmd.Script)
	art, err := assembler.Assemble(assembly.Request{
		Script: cmd.Script,
		Icon:   cmd.Icon,
		Data:   cmd.Data,
	})
	if err != nil {
		return err
	}
	warnings := len(art.Warnings)

	if injector != nil {
		iconPath := cmd.Icon
		if strings.EqualFold(filepath.Ext(iconPath), ".png") {
			ico := filepath.Join(cfg.OutputDir, "."+filepath.Base(art.Path)+".ico")
			if err := icon.ConvertPNGFile(ico, iconPath); err != nil {
				return bundler.Errorf(bundler.KindFormat, "convert icon %q: %w", iconPath, err)
			}
			defer os.Remove(ico)
			iconPath = ico
		}

		w, err := injector.Inject(art.Path, iconPath)
		warnings += len(w)
		if err != nil {
			logger.Printf("Executable was created without icon: %s", art.Path)
			return err
		}
	}

	logger.Printf("Created %s (%d bytes, %d warnings)", art.Path, art.Size(), warnings)
	return nil
}

func main() {
	logger := log.New(os.Stderr, "", 0)

	cmd, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		logger.Printf("[ERROR] %s", err)
		os.Exit(1)
	}

	err = run(cmd, os.Stdin, os.Stdout, logger)
	os.Exit(exitCode(logger, err))
}
