package main

import (
	"flag"
	"fmt"
	"io"
	"slices"

	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

const (
	CHECK_SUBCMD                 = "check"
	WATCH_SUBCMD                 = "watch"
	CONFIG_SUBCMD                = "config"
	VERSION_SUBCMD               = "version"
	INSTALL_COMPLETIONS_SUBCMD   = "install-completions"
	UNINSTALL_COMPLETIONS_SUBCMD = "uninstall-completions"
	HELP_SUBCMD                  = "help"
)

var (
	SUBCOMMANDS = []string{
		CHECK_SUBCMD, WATCH_SUBCMD, CONFIG_SUBCMD, VERSION_SUBCMD,
		INSTALL_COMPLETIONS_SUBCMD, UNINSTALL_COMPLETIONS_SUBCMD, HELP_SUBCMD,
	}

	HELP_SUBCMD_EQUIVALENTS = []string{"--help", "-help", "-h"}

	SUBCOMMAND_DESCRIPTIONS = [][2]string{
		{CHECK_SUBCMD, "check module descriptions (glob patterns are accepted)"},
		{WATCH_SUBCMD, "check module descriptions again every time they change"},
		{CONFIG_SUBCMD, "print the effective configuration and the path of the configuration file"},
		{VERSION_SUBCMD, "print the version"},
		{INSTALL_COMPLETIONS_SUBCMD, "install CLI completions by adding the completion command to the detected rc file (supported shells are bash, zsh and fish)"},
		{UNINSTALL_COMPLETIONS_SUBCMD, "uninstall CLI completions by removing the completion command from the detected rc file"},
		{HELP_SUBCMD, "show the general help or command-specific help"},
	}

	SUBCOMMAND_DESCRIPTION_MAP = map[string]string{}

	CMD_HELP = "commands:\n"

	commonFlagPredictors = map[string]complete.Predictor{
		"json":      predict.Nothing,
		"config":    predict.Files("*.yaml"),
		"log-level": predict.Set{"trace", "debug", "info", "warn", "error"},
		"no-color":  predict.Nothing,
	}

	cmd = &complete.Command{
		Sub: map[string]*complete.Command{
			CHECK_SUBCMD: {
				Flags: withFlags(commonFlagPredictors, map[string]complete.Predictor{
					"epochs": predict.Set{"1", "2", "3"},
					"values": predict.Nothing,
				}),
				Args: predict.Files("*.yaml"),
			},
			WATCH_SUBCMD: {
				Flags: withFlags(commonFlagPredictors, map[string]complete.Predictor{
					"debounce": predict.Set{"100ms", "500ms", "1s"},
					"values":   predict.Nothing,
				}),
				Args: predict.Files("*.yaml"),
			},
			CONFIG_SUBCMD: {
				Flags: map[string]complete.Predictor{
					"config": predict.Files("*.yaml"),
				},
			},
			VERSION_SUBCMD:               {},
			HELP_SUBCMD:                  {},
			INSTALL_COMPLETIONS_SUBCMD:   {},
			UNINSTALL_COMPLETIONS_SUBCMD: {},
		},
	}
)

func init() {
	for _, entry := range SUBCOMMAND_DESCRIPTIONS {
		cmd, desc := entry[0], entry[1]
		SUBCOMMAND_DESCRIPTION_MAP[cmd] = desc
		CMD_HELP += "\t" + cmd + " - " + desc + "\n"
	}
	CMD_HELP += "\nType `" + COMMAND_NAME + " help <command>` to get command-specific help.\n"
}

func withFlags(base map[string]complete.Predictor, extra map[string]complete.Predictor) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor, len(base)+len(extra))
	for name, p := range base {
		flags[name] = p
	}
	for name, p := range extra {
		flags[name] = p
	}
	return flags
}

func showHelp(flags *flag.FlagSet, args []string, out io.Writer) bool {
	if !slices.ContainsFunc(args, func(arg string) bool { return slices.Contains(HELP_SUBCMD_EQUIVALENTS, arg) }) {
		return false
	}

	cmd := flags.Name()
	if desc, ok := SUBCOMMAND_DESCRIPTION_MAP[cmd]; ok {
		fmt.Fprintln(out, desc)
	}

	flags.SetOutput(out)
	fmt.Fprint(out, "\noptions:\n")
	flags.PrintDefaults()
	return true
}
