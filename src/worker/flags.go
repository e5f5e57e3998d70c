package worker

import (
	"fmt"
	"strings"
)

// ParseLSPCommand extracts the LSP child's command and arguments from the
// worker process's own argv, as set by the orchestrator when it spawns
// the container (--lsp-command <cmd> --lsp-arg=<arg> ...).
func ParseLSPCommand(argv []string) (command string, args []string, err error) {
	for i := 0; i < len(argv); i++ {
		switch {
		case argv[i] == "--lsp-command":
			if i+1 >= len(argv) {
				return "", nil, fmt.Errorf("--lsp-command requires a value")
			}
			command = argv[i+1]
			i++
		case strings.HasPrefix(argv[i], "--lsp-arg="):
			args = append(args, strings.TrimPrefix(argv[i], "--lsp-arg="))
		}
	}
	if command == "" {
		return "", nil, fmt.Errorf("missing required --lsp-command flag")
	}
	return command, args, nil
}
