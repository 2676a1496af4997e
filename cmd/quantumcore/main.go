// Quantumcore is a terminal reference console for the TJKJ-A1 PMIC
// programmer module. It shows the wiring atlas, decodes the RT6936 VGH
// register, lists LED fault codes, and streams a conversation with the
// Quantum Core assistant.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tjkj/quantumcore/cmd/quantumcore/internal/msgs"
	"github.com/tjkj/quantumcore/pkg/atlas"
	"github.com/tjkj/quantumcore/pkg/engine"
	"github.com/tjkj/quantumcore/pkg/workdir"
)

const version = "2.5.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) > 1 {
		var err error
		handled := true
		switch os.Args[1] {
		case "init":
			err = runInit(os.Args[2:])
		case "decode":
			err = runDecode(os.Stdout, os.Args[2:])
		case "mcp":
			err = runMCP(ctx, os.Args[2:])
		case "version":
			fmt.Println("quantumcore", version)
		default:
			handled = false
		}
		if handled {
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quantumcore [flags]\n       quantumcore <command> [flags]\n\nFlags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n"+
			"  init     Create %s/config.yaml interactively\n"+
			"  decode   Decode VGH register values without the TUI\n"+
			"  mcp      Serve the PMIC tools over MCP stdio\n"+
			"  version  Print the version\n", workdir.DefaultName)
	}

	configPath := flag.String("config", "", "path to configuration file (default: "+workdir.DefaultName+"/config.yaml or "+legacyConfigName+")")
	dir := flag.String("dir", workdir.DefaultName, "path to the project directory")
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")
	flag.Parse()

	if err := loadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, *configPath, *dir); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, dirPath string) error {
	d := workdir.New(dirPath)
	if d.Exists() {
		// local/ holds the default log file.
		if err := workdir.EnsureStructure(d); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(configPath, d)
	if err != nil {
		return err
	}

	log, closer, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	eng, err := engine.New(ctx, cfg, engine.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	sess := eng.NewSession()

	model := newAppModel(ctx, eng, sess, atlas.Default())

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Hand the program to the model so it can start the bridge goroutine.
	go func() {
		p.Send(msgs.ProgramReadyMsg{Program: p})
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
