package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"unicode"

	"github.com/goccy/go-yaml"
	"github.com/posener/complete/v2/install"
	"github.com/ttcn3tools/ttcnsem/internal/config"
	"github.com/ttcn3tools/ttcnsem/internal/modfile"
	"github.com/ttcn3tools/ttcnsem/internal/utils"
)

const (
	ERROR_STATUS_CODE = 1
	COMMAND_NAME      = "ttcnsem"
)

func main() {
	//handle completions
	cmd.Complete(COMMAND_NAME)

	statusCode := _main(os.Args, os.Stdout, os.Stderr)
	if statusCode != 0 {
		os.Exit(statusCode)
	}
}

func _main(args []string, outW io.Writer, errW io.Writer) (statusCode int) {
	mainSubCommand := HELP_SUBCMD
	var mainSubCommandArgs []string

	if len(args) > 1 {
		mainSubCommand = args[1]
		mainSubCommandArgs = args[2:]
	}

	//help <subcommand> is turned into <subcommand> -h
	if mainSubCommand == HELP_SUBCMD && len(mainSubCommandArgs) > 0 && mainSubCommandArgs[0] != "" && unicode.IsLetter(rune(mainSubCommandArgs[0][0])) {
		mainSubCommand = mainSubCommandArgs[0]
		mainSubCommandArgs = []string{"-h"}
	}

	if slices.Contains(HELP_SUBCMD_EQUIVALENTS, mainSubCommand) {
		mainSubCommand = HELP_SUBCMD
	}

	if !slices.Contains(SUBCOMMANDS, mainSubCommand) {
		fmt.Fprintf(errW, "unknown command '%s'", mainSubCommand)

		closest, _, ok := utils.FindClosestString(context.Background(), SUBCOMMANDS, mainSubCommand, 2)
		if ok {
			fmt.Fprintf(errW, ", did you mean '%s' ?\n", closest)
		} else {
			fmt.Fprint(errW, "\n"+CMD_HELP)
		}
		return ERROR_STATUS_CODE
	}

	switch mainSubCommand {
	case HELP_SUBCMD:
		fmt.Fprint(outW, CMD_HELP)
		return 0
	case VERSION_SUBCMD:
		fmt.Fprintln(outW, modfile.TOOL_VERSION)
		return 0
	case INSTALL_COMPLETIONS_SUBCMD:
		err := install.Install(COMMAND_NAME)
		if err != nil {
			fmt.Fprintln(errW, err)
			return ERROR_STATUS_CODE
		}
		fmt.Fprintln(outW, "installed")
		return 0
	case UNINSTALL_COMPLETIONS_SUBCMD:
		err := install.Uninstall(COMMAND_NAME)
		if err != nil {
			fmt.Fprintln(errW, err)
			return ERROR_STATUS_CODE
		}
		fmt.Fprintln(outW, "uninstalled")
		return 0
	case CONFIG_SUBCMD:
		return PrintConfig(mainSubCommandArgs, outW, errW)
	case CHECK_SUBCMD:
		return CheckModules(mainSubCommandArgs, outW, errW)
	case WATCH_SUBCMD:
		return WatchModules(mainSubCommandArgs, outW, errW)
	}
	return 0
}

func PrintConfig(args []string, outW, errW io.Writer) int {
	flags := flag.NewFlagSet(CONFIG_SUBCMD, flag.ContinueOnError)
	flags.SetOutput(errW)
	configPath := flags.String("config", "", "path of the configuration file, defaults to "+config.CONFIG_RELPATH+" in the XDG config directories")

	if showHelp(flags, args, outW) {
		return 0
	}
	if err := flags.Parse(args); err != nil {
		return ERROR_STATUS_CODE
	}

	path := *configPath
	if path == "" {
		found, err := config.Find()
		if err == nil {
			path = found
		}
	}

	cfg := config.New()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			fmt.Fprintln(errW, err)
			return ERROR_STATUS_CODE
		}
		cfg = loaded
		fmt.Fprintf(outW, "# %s\n", path)
	} else {
		fmt.Fprintln(outW, "# no configuration file, defaults")
	}

	data, err := yaml.Marshal(map[string]any{
		"severities": map[string]any{
			"type_compatibility":   cfg.TypeCompatibility.String(),
			"no_effect":            cfg.NoEffect.String(),
			"ineffective_override": cfg.IneffectiveOverride.String(),
		},
	})
	if err != nil {
		fmt.Fprintln(errW, err)
		return ERROR_STATUS_CODE
	}
	outW.Write(data)
	return 0
}
